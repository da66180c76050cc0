// Package memhost is an in-memory host surface. It keeps a plain node tree and
// an ordered log of every operation the reconciler performed on it.
package memhost

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/delaneyj/fiberparty/fiber"
)

type Node struct {
	ID       int
	Type     string
	Text     string
	Props    fiber.Props
	Parent   *Node
	Children []*Node
}

func (n *Node) IsText() bool {
	return n.Type == ""
}

// TextContent concatenates the text of every text node below n.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

type Op struct {
	Kind   string
	Target int
	Parent int
	Before int
}

func (o Op) String() string {
	switch o.Kind {
	case "append":
		return fmt.Sprintf("append %d to %d", o.Target, o.Parent)
	case "insert":
		return fmt.Sprintf("insert %d into %d before %d", o.Target, o.Parent, o.Before)
	case "remove":
		return fmt.Sprintf("remove %d from %d", o.Target, o.Parent)
	default:
		return fmt.Sprintf("%s %d", o.Kind, o.Target)
	}
}

// Host implements reconciler.HostAdapter.
type Host struct {
	mu     sync.Mutex
	nextID int
	ops    []Op
}

func New() *Host {
	return &Host{}
}

// NewContainer returns a detached node usable as a root container.
func (h *Host) NewContainer() *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &Node{ID: h.id(), Type: "#root"}
}

func (h *Host) id() int {
	h.nextID++
	return h.nextID
}

func (h *Host) log(op Op) {
	h.ops = append(h.ops, op)
}

func (h *Host) CreateInstance(typ string, props fiber.Props) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := &Node{ID: h.id(), Type: typ, Props: hostProps(props)}
	h.log(Op{Kind: "create", Target: n.ID})
	return n
}

func (h *Host) CreateTextInstance(text string) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := &Node{ID: h.id(), Text: text}
	h.log(Op{Kind: "create-text", Target: n.ID})
	return n
}

func (h *Host) AppendChild(parent, child any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, c := parent.(*Node), child.(*Node)
	detach(c)
	c.Parent = p
	p.Children = append(p.Children, c)
	h.log(Op{Kind: "append", Target: c.ID, Parent: p.ID})
}

func (h *Host) InsertBefore(parent, child, before any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, c, b := parent.(*Node), child.(*Node), before.(*Node)
	detach(c)
	i := slices.Index(p.Children, b)
	if i < 0 {
		panic(fmt.Sprintf("memhost: node %d is not a child of %d", b.ID, p.ID))
	}
	c.Parent = p
	p.Children = slices.Insert(p.Children, i, c)
	h.log(Op{Kind: "insert", Target: c.ID, Parent: p.ID, Before: b.ID})
}

func (h *Host) RemoveChild(parent, child any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, c := parent.(*Node), child.(*Node)
	i := slices.Index(p.Children, c)
	if i < 0 {
		panic(fmt.Sprintf("memhost: node %d is not a child of %d", c.ID, p.ID))
	}
	p.Children = slices.Delete(p.Children, i, i+1)
	c.Parent = nil
	h.log(Op{Kind: "remove", Target: c.ID, Parent: p.ID})
}

func (h *Host) CommitUpdate(instance any, oldProps, newProps fiber.Props) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := instance.(*Node)
	n.Props = hostProps(newProps)
	h.log(Op{Kind: "update", Target: n.ID})
}

func (h *Host) CommitTextUpdate(instance any, oldText, newText string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := instance.(*Node)
	n.Text = newText
	h.log(Op{Kind: "update-text", Target: n.ID})
}

// Ops returns a copy of the operation log.
func (h *Host) Ops() []Op {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.ops)
}

// OpKinds returns only the kinds of the logged operations.
func (h *Host) OpKinds() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	kinds := make([]string, len(h.ops))
	for i, op := range h.ops {
		kinds[i] = op.Kind
	}
	return kinds
}

func (h *Host) ResetOps() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
}

func detach(n *Node) {
	if n.Parent == nil {
		return
	}
	p := n.Parent
	if i := slices.Index(p.Children, n); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	n.Parent = nil
}

func hostProps(p fiber.Props) fiber.Props {
	out := maps.Clone(p)
	delete(out, fiber.ChildrenProp)
	return out
}
