// Package placement positions a signature region on a document page.
//
// The region is expressed in percentages of the rendering container so it is
// independent of the resolution the page is displayed at. Placement is a state
// machine driven by pointer events; Transition is a pure function over values
// so the gestures can be exercised without a rendering surface.
package placement

// Default size of a newly placed region and the smallest size a resize may reach,
// as percentages of the container.
const (
	DefaultWidth  = 20.0
	DefaultHeight = 10.0
	MinSize       = 5.0
)

// State names the placement phase.
type State int

const (
	Idle State = iota
	AwaitingClick
	Placed
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingClick:
		return "awaiting-click"
	case Placed:
		return "placed"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Region is a rectangle anchored at its center on a specific page.
// X and Y may fall outside [0, 100] while being dragged.
type Region struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a container's bounding box in client coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a pointer position in client coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Machine is the full placement state. The zero value is Idle with no region.
type Machine struct {
	State  State   `json:"state"`
	Region *Region `json:"region,omitempty"`
	anchor *Point
}

// Visible reports whether the region should be shown while page is displayed.
// Switching pages hides the region without discarding it.
func (m Machine) Visible(page int) bool {
	return m.Region != nil && m.Region.Page == page
}

// Event is a pointer or mode event applied by Transition.
type Event interface {
	apply(m Machine) Machine
}

// Transition returns the machine that results from applying e to m.
// Events that are not valid in m's state leave it unchanged.
func Transition(m Machine, e Event) Machine {
	if e == nil {
		return m
	}
	return e.apply(m)
}

// Arm enters positioning mode from Idle or Placed.
type Arm struct{}

func (Arm) apply(m Machine) Machine {
	if m.State != Idle && m.State != Placed {
		return m
	}
	m.State = AwaitingClick
	m.anchor = nil
	return m
}

// Click places a default-sized region at the pointer, relative to Container.
type Click struct {
	Container Rect
	Pointer   Point
	Page      int
}

func (e Click) apply(m Machine) Machine {
	if m.State != AwaitingClick || !e.Container.valid() {
		return m
	}
	m.Region = &Region{
		Page:   e.Page,
		X:      (e.Pointer.X - e.Container.Left) / e.Container.Width * 100,
		Y:      (e.Pointer.Y - e.Container.Top) / e.Container.Height * 100,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
	m.State = Placed
	return m
}

// StartDrag begins moving a placed region.
type StartDrag struct {
	Pointer Point
}

func (e StartDrag) apply(m Machine) Machine {
	if m.State != Placed || m.Region == nil {
		return m
	}
	m.State = Dragging
	m.anchor = &e.Pointer
	return m
}

// DragTo moves the region by the pointer delta since the last recorded position.
type DragTo struct {
	Pointer   Point
	Container Rect
}

func (e DragTo) apply(m Machine) Machine {
	if m.State != Dragging {
		return m
	}
	dx, dy, ok := m.delta(e.Pointer, e.Container)
	if !ok {
		return m
	}
	r := *m.Region
	r.X += dx
	r.Y += dy
	m.Region = &r
	m.anchor = &e.Pointer
	return m
}

// EndDrag returns a dragging machine to Placed.
type EndDrag struct{}

func (EndDrag) apply(m Machine) Machine {
	if m.State != Dragging {
		return m
	}
	m.State = Placed
	m.anchor = nil
	return m
}

// StartResize begins resizing a placed region from its corner handle.
type StartResize struct {
	Pointer Point
}

func (e StartResize) apply(m Machine) Machine {
	if m.State != Placed || m.Region == nil {
		return m
	}
	m.State = Resizing
	m.anchor = &e.Pointer
	return m
}

// ResizeTo grows or shrinks the region by the pointer delta, never below MinSize.
type ResizeTo struct {
	Pointer   Point
	Container Rect
}

func (e ResizeTo) apply(m Machine) Machine {
	if m.State != Resizing {
		return m
	}
	dx, dy, ok := m.delta(e.Pointer, e.Container)
	if !ok {
		return m
	}
	r := *m.Region
	r.Width = max(MinSize, r.Width+dx)
	r.Height = max(MinSize, r.Height+dy)
	m.Region = &r
	m.anchor = &e.Pointer
	return m
}

// EndResize returns a resizing machine to Placed.
type EndResize struct{}

func (EndResize) apply(m Machine) Machine {
	if m.State != Resizing {
		return m
	}
	m.State = Placed
	m.anchor = nil
	return m
}

func (m Machine) delta(p Point, c Rect) (float64, float64, bool) {
	if m.anchor == nil || m.Region == nil || !c.valid() {
		return 0, 0, false
	}
	dx := (p.X - m.anchor.X) / c.Width * 100
	dy := (p.Y - m.anchor.Y) / c.Height * 100
	return dx, dy, true
}

func (r Rect) valid() bool {
	return r.Width > 0 && r.Height > 0
}
