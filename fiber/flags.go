package fiber

// Tag selects how the begin and complete phases treat a fiber.
type Tag uint8

const (
	FunctionComponent Tag = iota
	HostRoot
	HostComponent
	HostText
	FragmentTag
)

func (t Tag) String() string {
	switch t {
	case FunctionComponent:
		return "FunctionComponent"
	case HostRoot:
		return "HostRoot"
	case HostComponent:
		return "HostComponent"
	case HostText:
		return "HostText"
	case FragmentTag:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Flags are pending host mutations and effects recorded on a fiber.
type Flags uint16

const NoFlags Flags = 0

const (
	Placement Flags = 1 << iota
	// UpdateFlag marks a host node whose props or text changed.
	UpdateFlag
	ChildDeletion
	PassiveEffect

	MutationMask = Placement | UpdateFlag | ChildDeletion
	PassiveMask  = PassiveEffect | ChildDeletion
)
