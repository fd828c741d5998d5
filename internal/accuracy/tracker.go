package accuracy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/shared/geom"

	"go.uber.org/zap"
)

const (
	StorageKey    = "touchAccuracy"
	historyKey    = StorageKey + ":history"
	DefaultRadius = 20.0
	// MaxHistory bounds the persisted measurement list; older entries drop off.
	MaxHistory = 500
)

var ErrNoMeasurement = errors.New("no accuracy measured yet")

type Options struct {
	Radius float64
	Logger *zap.Logger
	Clock  func() time.Time
}

// Tracker scores touches against target rectangles. The touch is modelled
// as the square bounding a circle of Radius around the pointer.
type Tracker struct {
	store  kv.Store
	radius float64
	log    *zap.Logger
	clock  func() time.Time

	mu sync.Mutex
}

func NewTracker(store kv.Store, opts Options) *Tracker {
	radius := opts.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		store:  store,
		radius: radius,
		log:    logging.OrNop(opts.Logger),
		clock:  clock,
	}
}

func (t *Tracker) Radius() float64 { return t.radius }

// Measure scores one touch and persists the result. Persistence failures
// are logged; the measurement is still returned.
func (t *Tracker) Measure(ctx context.Context, req MeasureRequest) Measurement {
	touch := geom.SquareAround(req.ClientX, req.ClientY, t.radius)
	overlap := req.Target.Intersect(touch)
	m := Measurement{
		Target:      req.Target,
		TouchArea:   touch,
		OverlapRect: overlap,
		OverlapSize: overlap.Area(),
		TouchSize:   touch.Area(),
		Accuracy:    geom.Round2(overlap.Area() / touch.Area() * 100),
		TimeMillis:  t.clock().UnixMilli(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Set(ctx, StorageKey, fmt.Sprintf("%.2f", m.Accuracy)); err != nil {
		t.log.Warn("save accuracy", zap.Error(err))
	}
	t.appendHistory(ctx, m)
	return m
}

// Latest returns the most recently persisted accuracy.
func (t *Tracker) Latest(ctx context.Context) (float64, error) {
	raw, err := t.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return 0, ErrNoMeasurement
	}
	if err != nil {
		return 0, fmt.Errorf("load accuracy: %w", err)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse accuracy %q: %w", raw, err)
	}
	return v, nil
}

// History returns persisted measurements, oldest first.
func (t *Tracker) History(ctx context.Context) []Measurement {
	history := []Measurement{}
	raw, err := t.store.Get(ctx, historyKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			t.log.Warn("load accuracy history", zap.Error(err))
		}
		return history
	}
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		t.log.Warn("discarding unparseable accuracy history", zap.Error(err))
		return []Measurement{}
	}
	return history
}

func (t *Tracker) appendHistory(ctx context.Context, m Measurement) {
	history := append(t.History(ctx), m)
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	payload, err := json.Marshal(history)
	if err != nil {
		t.log.Warn("encode accuracy history", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, historyKey, string(payload)); err != nil {
		t.log.Warn("save accuracy history", zap.Error(err))
	}
}
