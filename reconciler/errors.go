package reconciler

import (
	"errors"
	"fmt"
	"time"

	"github.com/delaneyj/fiberparty/lanes"
)

var (
	// ErrHookOutsideRender is raised when a hook runs without an active render.
	ErrHookOutsideRender = errors.New("hook called outside of a component render")
	// ErrHookOrder is raised when the hook sequence of a component differs from
	// its previous render.
	ErrHookOrder     = errors.New("hook order changed between renders")
	ErrRootUnmounted = errors.New("root is not mounted")
	ErrInvalidLane   = errors.New("invalid lane")
)

// RenderError reports a fault that aborted a render pass.
type RenderError struct {
	// Op is the phase that failed (e.g., "render").
	Op string
	// Component is the name of the component being rendered.
	Component string
	Lane      lanes.Lane
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s %s [%s]: %v", e.Op, e.Component, e.Lane, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// EffectError is a recovered panic from an effect create or destroy callback.
type EffectError struct {
	// Phase is "unmount", "destroy" or "create".
	Phase     string
	Component string
	// Value is the value passed to panic().
	Value      any
	StackTrace string
	Timestamp  time.Time
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("panic in %s effect of %s: %v", e.Phase, e.Component, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *EffectError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}
