// Package timer measures task completion time with pause support and
// keeps a persisted list of finished runs.
package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"

	"go.uber.org/zap"
)

const (
	StateKey        = "completeTimerData"
	RecordsKey      = "completeTimerRecords"
	DefaultInterval = 10 * time.Millisecond
)

// Record is a finished run. Times are Unix milliseconds.
type Record struct {
	StartTime   *int64 `json:"startTime"`
	CurrentTime int64  `json:"currentTime"`
	PausedTime  *int64 `json:"pausedTime"`
	StopTime    int64  `json:"stopTime"`
	Name        string `json:"name"`
}

type state struct {
	StartTime   *int64 `json:"startTime"`
	CurrentTime int64  `json:"currentTime"`
	PausedTime  *int64 `json:"pausedTime"`
}

type Status struct {
	Elapsed   int64  `json:"elapsed"`
	Formatted string `json:"formatted"`
	Running   bool   `json:"running"`
	Paused    bool   `json:"paused"`
}

type Options struct {
	Interval time.Duration
	Logger   *zap.Logger
	Clock    func() time.Time
}

type Timer struct {
	store    kv.Store
	log      *zap.Logger
	clock    func() time.Time
	interval time.Duration

	mu          sync.Mutex
	started     bool
	startTime   int64
	currentTime int64
	paused      bool
	pausedTime  int64
	stopTick    chan struct{}
	subs        map[int]func(int64)
	nextSub     int
}

func New(store kv.Store, opts Options) *Timer {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Timer{
		store:    store,
		log:      logging.OrNop(opts.Logger),
		clock:    clock,
		interval: interval,
		subs:     map[int]func(int64){},
	}
}

// Start begins a run, or resumes a paused one by shifting the start time
// forward by the length of the pause. It is a no-op while running.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	switch {
	case !t.started:
		t.started = true
		t.startTime = now
		t.currentTime = now
		t.saveState(ctx)
		t.startTicker()
	case t.paused:
		t.startTime += now - t.pausedTime
		t.currentTime = now
		t.paused = false
		t.pausedTime = 0
		t.saveState(ctx)
		t.startTicker()
	}
}

func (t *Timer) Pause(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopTick == nil || !t.started || t.paused {
		return
	}
	t.stopTicker()
	t.paused = true
	t.pausedTime = t.now()
	t.saveState(ctx)
}

// Stop ends the run, appends it to the records and returns the elapsed
// milliseconds. Stopping an idle timer returns 0 and records nothing.
func (t *Timer) Stop(ctx context.Context) int64 {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return 0
	}

	end := t.now()
	elapsed := end - t.startTime
	if t.paused {
		elapsed = t.pausedTime - t.startTime
	}
	t.stopTicker()

	records := t.readRecords(ctx)
	start := t.startTime
	rec := Record{
		StartTime:   &start,
		CurrentTime: end,
		StopTime:    end,
		Name:        fmt.Sprintf("Task %d", len(records)+1),
	}
	if t.paused {
		paused := t.pausedTime
		rec.PausedTime = &paused
	}
	t.writeRecords(ctx, append(records, rec))

	t.clearLocked()
	t.saveState(ctx)
	subs := t.subscribersLocked()
	t.mu.Unlock()

	deliver(subs, 0)
	return elapsed
}

// Reset abandons any run and deletes both the live state and the records.
func (t *Timer) Reset(ctx context.Context) {
	t.mu.Lock()
	t.stopTicker()
	t.clearLocked()
	for _, key := range []string{StateKey, RecordsKey} {
		if err := t.store.Remove(ctx, key); err != nil {
			t.log.Warn("remove timer data", zap.String("key", key), zap.Error(err))
		}
	}
	subs := t.subscribersLocked()
	t.mu.Unlock()

	deliver(subs, 0)
}

func (t *Timer) Elapsed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := t.elapsedLocked()
	return Status{
		Elapsed:   elapsed,
		Formatted: FormatTime(elapsed),
		Running:   t.started && !t.paused,
		Paused:    t.paused,
	}
}

func (t *Timer) Records(ctx context.Context) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readRecords(ctx)
}

// Subscribe registers fn to receive the elapsed time after every tick,
// stop and reset. The returned handle is used to unsubscribe.
func (t *Timer) Subscribe(fn func(elapsed int64)) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextSub++
	t.subs[t.nextSub] = fn
	return t.nextSub
}

func (t *Timer) Unsubscribe(handle int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, handle)
}

// Close stops the tick goroutine without touching stored data.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTicker()
}

// FormatTime renders milliseconds as mm:ss.mmm. Minutes are not capped.
func FormatTime(ms int64) string {
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms%60000)/1000, ms%1000)
}

func (t *Timer) now() int64 { return t.clock().UnixMilli() }

func (t *Timer) elapsedLocked() int64 {
	if !t.started {
		return 0
	}
	if t.paused {
		return t.pausedTime - t.startTime
	}
	return t.currentTime - t.startTime
}

func (t *Timer) clearLocked() {
	t.started = false
	t.startTime = 0
	t.currentTime = 0
	t.paused = false
	t.pausedTime = 0
}

func (t *Timer) subscribersLocked() []func(int64) {
	subs := make([]func(int64), 0, len(t.subs))
	for id := 1; id <= t.nextSub; id++ {
		if fn, ok := t.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func deliver(subs []func(int64), elapsed int64) {
	for _, fn := range subs {
		fn(elapsed)
	}
}

func (t *Timer) startTicker() {
	if t.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	t.stopTick = stop
	go t.run(stop)
}

func (t *Timer) stopTicker() {
	if t.stopTick == nil {
		return
	}
	close(t.stopTick)
	t.stopTick = nil
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.tick(stop) {
				return
			}
		}
	}
}

// tick only moves the in-memory clock; the stored state changes on start,
// pause and stop.
func (t *Timer) tick(stop chan struct{}) bool {
	t.mu.Lock()
	// a stale goroutine from an earlier start must not touch the new run
	if t.stopTick != stop {
		t.mu.Unlock()
		return false
	}
	if !t.started || t.paused {
		t.mu.Unlock()
		return true
	}
	t.currentTime = t.now()
	elapsed := t.elapsedLocked()
	subs := t.subscribersLocked()
	t.mu.Unlock()

	deliver(subs, elapsed)
	return true
}

func (t *Timer) saveState(ctx context.Context) {
	s := state{CurrentTime: t.currentTime}
	if t.started {
		start := t.startTime
		s.StartTime = &start
	}
	if t.paused {
		paused := t.pausedTime
		s.PausedTime = &paused
	}
	payload, err := json.Marshal(s)
	if err != nil {
		t.log.Warn("encode timer state", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, StateKey, string(payload)); err != nil {
		t.log.Warn("save timer state", zap.Error(err))
	}
}

func (t *Timer) readRecords(ctx context.Context) []Record {
	records := []Record{}
	raw, err := t.store.Get(ctx, RecordsKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			t.log.Warn("load timer records", zap.Error(err))
		}
		return records
	}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.log.Warn("discarding unparseable timer records", zap.Error(err))
		return []Record{}
	}
	return records
}

func (t *Timer) writeRecords(ctx context.Context, records []Record) {
	payload, err := json.Marshal(records)
	if err != nil {
		t.log.Warn("encode timer records", zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, RecordsKey, string(payload)); err != nil {
		t.log.Warn("save timer records", zap.Error(err))
	}
}
