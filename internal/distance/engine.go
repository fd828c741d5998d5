package distance

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/shared/geom"

	"go.uber.org/zap"
)

const (
	// KeyPrefix namespaces auto-allocated engine keys.
	KeyPrefix      = "touch-distance"
	touchLogSuffix = ":touch-log"
)

// Observer receives engine state after every HandleTouch and Reset. Any
// subset of the slots may be set; nil slots are skipped. Each call gets
// its own copy of the data.
type Observer struct {
	OnPoints func([]Point)
	OnLines  func([]Line)
	OnTotal  func(float64)
}

type Options struct {
	// DPI converts pixels to millimetres. Zero selects geom.DefaultDPI.
	DPI float64
	// Key overrides the allocated storage key.
	Key    string
	Logger *zap.Logger
	Clock  func() time.Time
}

// Engine accumulates touch samples into segments and a running travel
// distance, persisting the total and a raw touch log after every sample.
//
// Store failures never reach the caller; they are logged and the in-memory
// state stays authoritative.
type Engine struct {
	store kv.Store
	key   string
	dpi   float64
	log   *zap.Logger
	clock func() time.Time

	// dispatch orders whole updates, including observer delivery.
	// Observers may read through the accessors but must not call
	// HandleTouch or Reset from inside a callback.
	dispatch sync.Mutex

	mu        sync.RWMutex
	hasPrev   bool
	prev      Point
	points    []Point
	lines     []Line
	total     float64
	observers []*Observer
}

// NewEngine builds an engine bound to opts.Key, or to the first free
// KeyPrefix key in store. A previously persisted total for the key is
// recovered. An absent key is claimed by writing a zero total immediately;
// an existing value, even one that cannot be parsed, is left as it is.
func NewEngine(ctx context.Context, store kv.Store, opts Options) (*Engine, error) {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = geom.DefaultDPI
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	key := opts.Key
	if key == "" {
		var err error
		key, err = kv.AllocateKey(ctx, store, KeyPrefix)
		if err != nil {
			return nil, err
		}
	}

	e := &Engine{
		store: store,
		key:   key,
		dpi:   dpi,
		log:   logging.OrNop(opts.Logger).With(zap.String("key", key)),
		clock: clock,
	}
	total, stored := e.loadTotal(ctx)
	e.total = total
	if !stored {
		e.saveTotal(ctx, 0)
	}
	return e, nil
}

func (e *Engine) Key() string  { return e.key }
func (e *Engine) DPI() float64 { return e.dpi }

// HandleTouch records one sample: it appends to the persisted touch log,
// closes a segment against the previous sample if there is one, and
// notifies observers. Coordinates are taken as given.
func (e *Engine) HandleTouch(ctx context.Context, s Sample) {
	e.dispatch.Lock()
	defer e.dispatch.Unlock()

	e.appendTouchLog(ctx, TouchLogEntry{
		X:          s.ClientX,
		Y:          s.ClientY,
		TimeMillis: e.clock().UnixMilli(),
	})

	p := Point{X: s.ClientX, Y: s.ClientY}

	e.mu.Lock()
	closed := e.hasPrev
	if closed {
		px := geom.Distance(e.prev.X, e.prev.Y, p.X, p.Y)
		mm := geom.PixelsToMillimetres(px, e.dpi)
		e.lines = append(e.lines, Line{X1: e.prev.X, Y1: e.prev.Y, X2: p.X, Y2: p.Y, Distance: mm})
		e.total += mm
	}
	total := e.total
	e.points = append(e.points, p)
	e.prev = p
	e.hasPrev = true
	e.mu.Unlock()

	if closed {
		e.saveTotal(ctx, total)
	}
	e.notify()
}

// Reset clears the in-memory trace and the persisted state for this key.
// The key itself is kept.
func (e *Engine) Reset(ctx context.Context) {
	e.dispatch.Lock()
	defer e.dispatch.Unlock()

	e.mu.Lock()
	e.hasPrev = false
	e.prev = Point{}
	e.points = nil
	e.lines = nil
	e.total = 0
	e.mu.Unlock()

	e.saveTotal(ctx, 0)
	if err := e.store.Remove(ctx, e.touchLogKey()); err != nil {
		e.log.Warn("remove touch log", zap.Error(err))
	}
	e.notify()
}

// AddObserver registers o. Registering the same observer twice is a no-op.
func (e *Engine) AddObserver(o *Observer) {
	if o == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.observers {
		if existing == o {
			return
		}
	}
	e.observers = append(e.observers, o)
}

// RemoveObserver unregisters o by identity.
func (e *Engine) RemoveObserver(o *Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.observers {
		if existing == o {
			e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
			return
		}
	}
}

func (e *Engine) TotalDistance() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.total
}

func (e *Engine) Points() []Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return clonePoints(e.points)
}

func (e *Engine) Lines() []Line {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneLines(e.lines)
}

func (e *Engine) Summary() Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Summary{
		Key:           e.key,
		DPI:           e.dpi,
		TotalDistance: e.total,
		PointCount:    len(e.points),
		LineCount:     len(e.lines),
	}
}

// TouchLog reads the persisted log back from the store on every call.
// A missing or unreadable log is reported as empty.
func (e *Engine) TouchLog(ctx context.Context) []TouchLogEntry {
	return e.readTouchLog(ctx)
}

func (e *Engine) notify() {
	e.mu.RLock()
	observers := append([]*Observer(nil), e.observers...)
	points := e.points
	lines := e.lines
	total := e.total
	e.mu.RUnlock()

	// dispatch is held, so nothing mutates points or lines until delivery ends.
	for _, o := range observers {
		if o.OnPoints != nil {
			o.OnPoints(clonePoints(points))
		}
		if o.OnLines != nil {
			o.OnLines(cloneLines(lines))
		}
		if o.OnTotal != nil {
			o.OnTotal(total)
		}
	}
}

func (e *Engine) touchLogKey() string {
	return e.key + touchLogSuffix
}

// loadTotal reports the recovered total and whether the key may hold a
// value. A failed read counts as stored so the key is never overwritten
// blind.
func (e *Engine) loadTotal(ctx context.Context) (float64, bool) {
	raw, err := e.store.Get(ctx, e.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, false
		}
		e.log.Warn("load total distance", zap.Error(err))
		return 0, true
	}
	total, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.log.Warn("discarding unparseable total distance", zap.String("value", raw))
		return 0, true
	}
	return total, true
}

func (e *Engine) saveTotal(ctx context.Context, total float64) {
	if err := e.store.Set(ctx, e.key, strconv.FormatFloat(total, 'f', -1, 64)); err != nil {
		e.log.Warn("save total distance", zap.Error(err))
	}
}

func (e *Engine) readTouchLog(ctx context.Context) []TouchLogEntry {
	entries := []TouchLogEntry{}
	raw, err := e.store.Get(ctx, e.touchLogKey())
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			e.log.Warn("load touch log", zap.Error(err))
		}
		return entries
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		e.log.Warn("discarding unparseable touch log", zap.Error(err))
		return []TouchLogEntry{}
	}
	return entries
}

func (e *Engine) appendTouchLog(ctx context.Context, entry TouchLogEntry) {
	entries := append(e.readTouchLog(ctx), entry)
	payload, err := json.Marshal(entries)
	if err != nil {
		e.log.Warn("encode touch log", zap.Error(err))
		return
	}
	if err := e.store.Set(ctx, e.touchLogKey(), string(payload)); err != nil {
		e.log.Warn("save touch log", zap.Error(err))
	}
}

func clonePoints(src []Point) []Point {
	return append(make([]Point, 0, len(src)), src...)
}

func cloneLines(src []Line) []Line {
	return append(make([]Line, 0, len(src)), src...)
}
