// Package gesture interprets vertical pointer drags that open and close
// overlay panels.
package gesture

import "sync"

const (
	DefaultDragThreshold = 100.0
	// DefaultTopEdge is how close to the top a closed panel's drag must begin.
	DefaultTopEdge = 50.0
)

// DragState is a snapshot of a drag handler.
type DragState struct {
	Visible  bool    `json:"visible"`
	Dragging bool    `json:"dragging"`
	StartY   float64 `json:"startY"`
	CurrentY float64 `json:"currentY"`
}

// DragHandler opens a panel when the pointer is dragged down from the top
// edge and closes it when an open panel is dragged up. Either direction
// must travel more than Threshold pixels.
type DragHandler struct {
	Threshold float64
	TopEdge   float64

	target Visibility

	mu       sync.Mutex
	dragging bool
	startY   float64
	currentY float64
}

// NewDragHandler drives target, or an internal flag when target is nil.
func NewDragHandler(target Visibility) *DragHandler {
	if target == nil {
		target = &flag{}
	}
	return &DragHandler{
		Threshold: DefaultDragThreshold,
		TopEdge:   DefaultTopEdge,
		target:    target,
	}
}

func (h *DragHandler) PointerDown(clientY float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.target.Visible() || clientY < h.TopEdge {
		h.startY = clientY
		h.dragging = true
	}
}

// PointerMove reports whether this move toggled the panel.
func (h *DragHandler) PointerMove(clientY float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dragging {
		return false
	}
	h.currentY = clientY
	delta := h.currentY - h.startY

	visible := h.target.Visible()
	switch {
	case !visible && delta > h.Threshold:
		h.target.SetVisible(true)
	case visible && -delta > h.Threshold:
		h.target.SetVisible(false)
	default:
		return false
	}
	h.reset()
	return true
}

func (h *DragHandler) PointerUp() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reset()
}

func (h *DragHandler) State() DragState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return DragState{
		Visible:  h.target.Visible(),
		Dragging: h.dragging,
		StartY:   h.startY,
		CurrentY: h.currentY,
	}
}

func (h *DragHandler) reset() {
	h.startY = 0
	h.currentY = 0
	h.dragging = false
}
