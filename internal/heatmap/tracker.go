// Package heatmap counts pointer-down events per screen pixel and renders
// the result as an interactive chart.
package heatmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"

	"go.uber.org/zap"
)

const StorageKey = "heatmapData"

type Position struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Count int `json:"count"`
}

type Data struct {
	Positions []Position `json:"positions"`
	MaxCount  int        `json:"maxCount"`
}

type cell struct{ x, y int }

type Tracker struct {
	store kv.Store
	log   *zap.Logger

	mu        sync.Mutex
	tracking  bool
	positions map[cell]int
}

func NewTracker(store kv.Store, log *zap.Logger) *Tracker {
	return &Tracker{
		store:     store,
		log:       logging.OrNop(log),
		positions: map[cell]int{},
	}
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

// Record counts a pointer-down at (x, y), rounded to the nearest pixel.
// It reports false when tracking is stopped.
func (t *Tracker) Record(ctx context.Context, x, y float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return false
	}

	t.positions[cell{x: int(math.Round(x)), y: int(math.Round(y))}]++
	t.save(ctx)
	return true
}

// Data lists positions ordered by y then x.
func (t *Tracker) Data() Data {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Load replaces the in-memory counts with the persisted ones. A missing
// entry leaves the tracker unchanged.
func (t *Tracker) Load(ctx context.Context) error {
	raw, err := t.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load heatmap: %w", err)
	}
	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return fmt.Errorf("decode heatmap: %w", err)
	}

	positions := make(map[cell]int, len(data.Positions))
	for _, p := range data.Positions {
		positions[cell{x: p.X, y: p.Y}] += p.Count
	}

	t.mu.Lock()
	t.positions = positions
	t.mu.Unlock()
	return nil
}

func (t *Tracker) Reset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.positions = map[cell]int{}
	if err := t.store.Remove(ctx, StorageKey); err != nil {
		t.log.Warn("remove heatmap", zap.Error(err))
	}
}

func (t *Tracker) snapshot() Data {
	data := Data{Positions: make([]Position, 0, len(t.positions))}
	for c, n := range t.positions {
		data.Positions = append(data.Positions, Position{X: c.x, Y: c.y, Count: n})
		if n > data.MaxCount {
			data.MaxCount = n
		}
	}
	sort.Slice(data.Positions, func(i, j int) bool {
		a, b := data.Positions[i], data.Positions[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return data
}

func (t *Tracker) save(ctx context.Context) {
	payload, err := json.Marshal(t.snapshot())
	if err != nil {
		t.log.Warn("encode heatmap", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, StorageKey, string(payload)); err != nil {
		t.log.Warn("save heatmap", zap.Error(err))
	}
}
