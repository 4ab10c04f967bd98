package workspaces

import (
	"fmt"

	"github.com/JaimeStill/pdfdesk/pkg/placement"
)

// PlacementEvent is the wire form of a pointer or mode event for the
// signature placement machine. Coordinates are client pixels.
type PlacementEvent struct {
	Type      string          `json:"type"`
	Container placement.Rect  `json:"container"`
	Pointer   placement.Point `json:"pointer"`
	Page      int             `json:"page,omitempty"`
}

// Event converts e into a machine event. A click without a page lands on
// the page currently displayed.
func (e PlacementEvent) Event(current int) (placement.Event, error) {
	switch e.Type {
	case "arm":
		return placement.Arm{}, nil
	case "click":
		page := e.Page
		if page == 0 {
			page = current
		}
		return placement.Click{Container: e.Container, Pointer: e.Pointer, Page: page}, nil
	case "start_drag":
		return placement.StartDrag{Pointer: e.Pointer}, nil
	case "drag_to":
		return placement.DragTo{Pointer: e.Pointer, Container: e.Container}, nil
	case "end_drag":
		return placement.EndDrag{}, nil
	case "start_resize":
		return placement.StartResize{Pointer: e.Pointer}, nil
	case "resize_to":
		return placement.ResizeTo{Pointer: e.Pointer, Container: e.Container}, nil
	case "end_resize":
		return placement.EndResize{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}
