package touchcount

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"

	"go.uber.org/zap"
)

const StorageKey = "touchData"

type Options struct {
	// OnTouchEnd and OnTouchCancel run after the matching event has been
	// applied, with a copy of the counters.
	OnTouchEnd    func(Data)
	OnTouchCancel func(Data)
	Logger        *zap.Logger
	Clock         func() time.Time
}

// Tracker counts touch gestures. Events are only accepted between Start
// and Stop.
type Tracker struct {
	store kv.Store
	opts  Options
	log   *zap.Logger
	clock func() time.Time

	mu         sync.Mutex
	tracking   bool
	multiTouch bool
	ids        map[int]struct{}
	data       Data
}

// NewTracker restores any counters persisted under StorageKey.
func NewTracker(ctx context.Context, store kv.Store, opts Options) *Tracker {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	t := &Tracker{
		store: store,
		opts:  opts,
		log:   logging.OrNop(opts.Logger),
		clock: clock,
		ids:   map[int]struct{}{},
		data:  Data{TouchCoordinates: []Coordinate{}},
	}
	t.load(ctx)
	return t
}

func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracking = true
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracking = false
}

func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// MultiTouchActive reports whether more than one contact has been down
// since the current gesture began.
func (t *Tracker) MultiTouchActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.multiTouch
}

// TouchStart applies a touchstart event. It reports false when the tracker
// is stopped and the event was ignored.
func (t *Tracker) TouchStart(ctx context.Context, ev TouchEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return false
	}

	now := t.clock().UnixMilli()
	for _, touch := range ev.Changed {
		t.ids[touch.Identifier] = struct{}{}
		t.data.TouchCoordinates = append(t.data.TouchCoordinates, Coordinate{
			X:          touch.ClientX,
			Y:          touch.ClientY,
			TimeMillis: now,
		})
	}
	if len(t.ids) == 1 {
		t.data.TouchStartCount++
	}
	t.data.ActiveTouches = ev.Active
	if ev.Active > 1 {
		t.multiTouch = true
	}
	t.save(ctx)
	return true
}

func (t *Tracker) TouchEnd(ctx context.Context, ev TouchEvent) bool {
	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return false
	}
	t.release(ev)
	t.data.ActiveTouches = ev.Active
	if len(t.ids) == 0 {
		t.data.TouchEndCount++
		t.data.TotalTouches++
		t.multiTouch = false
	}
	t.save(ctx)
	snapshot := t.data.clone()
	t.mu.Unlock()

	if t.opts.OnTouchEnd != nil {
		t.opts.OnTouchEnd(snapshot)
	}
	return true
}

// TouchCancel counts every cancel event, including each finger of an
// interrupted multi-touch gesture.
func (t *Tracker) TouchCancel(ctx context.Context, ev TouchEvent) bool {
	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return false
	}
	t.release(ev)
	t.data.TouchCancelCount++
	if len(t.ids) == 0 {
		t.multiTouch = false
	}
	t.save(ctx)
	snapshot := t.data.clone()
	t.mu.Unlock()

	if t.opts.OnTouchCancel != nil {
		t.opts.OnTouchCancel(snapshot)
	}
	return true
}

func (t *Tracker) Data() Data {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.clone()
}

// Reset zeroes the counters and persists the empty set. Tracking state is
// left as it was.
func (t *Tracker) Reset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = Data{TouchCoordinates: []Coordinate{}}
	t.multiTouch = false
	t.ids = map[int]struct{}{}
	t.save(ctx)
}

func (t *Tracker) release(ev TouchEvent) {
	for _, touch := range ev.Changed {
		delete(t.ids, touch.Identifier)
	}
}

func (t *Tracker) load(ctx context.Context) {
	raw, err := t.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			t.log.Warn("load touch counts", zap.Error(err))
		}
		return
	}
	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.log.Warn("discarding unparseable touch counts", zap.Error(err))
		return
	}
	if data.TouchCoordinates == nil {
		data.TouchCoordinates = []Coordinate{}
	}
	t.data = data
}

func (t *Tracker) save(ctx context.Context) {
	payload, err := json.Marshal(t.data)
	if err != nil {
		t.log.Warn("encode touch counts", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, StorageKey, string(payload)); err != nil {
		t.log.Warn("save touch counts", zap.Error(err))
	}
}
