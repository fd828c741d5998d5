package gesture

import (
	"math"
	"sync"
)

// SwipeOptions tunes a SwipeSheet. Zero fields take the defaults below.
type SwipeOptions struct {
	// SheetHeight is the fully hidden offset of the sheet.
	SheetHeight       float64
	UpwardThreshold   float64
	DownwardThreshold float64
	MinDragDistance   float64
	// ActivationRatio is the share of the viewport height below which a
	// closed sheet can be grabbed.
	ActivationRatio float64
}

func (o SwipeOptions) withDefaults() SwipeOptions {
	if o.SheetHeight <= 0 {
		o.SheetHeight = 300
	}
	if o.UpwardThreshold <= 0 {
		o.UpwardThreshold = 100
	}
	if o.DownwardThreshold <= 0 {
		o.DownwardThreshold = 10
	}
	if o.MinDragDistance <= 0 {
		o.MinDragDistance = 20
	}
	if o.ActivationRatio <= 0 {
		o.ActivationRatio = 0.8
	}
	return o
}

type SwipeState struct {
	Visible    bool    `json:"visible"`
	Dragging   bool    `json:"dragging"`
	TranslateY float64 `json:"translateY"`
}

// SwipeSheet is a bottom sheet pulled up from the lower part of the
// viewport. TranslateY follows the finger while dragging and snaps to 0
// (open) or SheetHeight (closed) on release.
type SwipeSheet struct {
	opts   SwipeOptions
	target Visibility

	mu         sync.Mutex
	dragging   bool
	startY     float64
	currentY   float64
	translateY float64
}

func NewSwipeSheet(target Visibility, opts SwipeOptions) *SwipeSheet {
	if target == nil {
		target = &flag{}
	}
	opts = opts.withDefaults()
	s := &SwipeSheet{opts: opts, target: target, translateY: opts.SheetHeight}
	if target.Visible() {
		s.translateY = 0
	}
	return s
}

func (s *SwipeSheet) TouchStart(clientY, viewportHeight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startY = clientY
	s.currentY = clientY
	s.dragging = s.target.Visible() || clientY > viewportHeight*s.opts.ActivationRatio
}

func (s *SwipeSheet) TouchMove(clientY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dragging {
		return
	}
	s.currentY = clientY
	delta := s.startY - s.currentY
	if math.Abs(delta) <= s.opts.MinDragDistance {
		return
	}
	if s.target.Visible() {
		s.translateY = s.clamp(-delta)
	} else {
		s.translateY = s.clamp(s.opts.SheetHeight - delta)
	}
}

// TouchEnd settles the sheet and reports whether its visibility changed.
func (s *SwipeSheet) TouchEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.reset()

	visible := s.target.Visible()
	if !s.dragging {
		return false
	}

	delta := s.startY - s.currentY
	if math.Abs(delta) <= s.opts.MinDragDistance {
		s.snap(visible)
		return false
	}

	next := visible
	if visible && -delta > s.opts.DownwardThreshold {
		next = false
	} else if !visible && delta > s.opts.UpwardThreshold {
		next = true
	}
	s.snap(next)
	if next != visible {
		s.target.SetVisible(next)
		return true
	}
	return false
}

func (s *SwipeSheet) State() SwipeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SwipeState{Visible: s.target.Visible(), Dragging: s.dragging, TranslateY: s.translateY}
}

func (s *SwipeSheet) clamp(v float64) float64 {
	return math.Max(0, math.Min(s.opts.SheetHeight, v))
}

func (s *SwipeSheet) snap(visible bool) {
	if visible {
		s.translateY = 0
	} else {
		s.translateY = s.opts.SheetHeight
	}
}

func (s *SwipeSheet) reset() {
	s.startY = 0
	s.currentY = 0
	s.dragging = false
}
