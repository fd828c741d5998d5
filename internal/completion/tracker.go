// Package completion records whether participants finish tasks on their
// own or only after a guide was shown.
package completion

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
	"gonum.org/v1/gonum/stat"
)

// KeyPrefix namespaces the snapshot written after every completed task.
const KeyPrefix = "completion-stats"

var ErrNoActiveTask = errors.New("no task in progress")

type Tracker struct {
	store kv.Store
	log   *zap.Logger
	clock func() time.Time

	mu         sync.Mutex
	results    map[string]Result
	order      []string
	current    string
	startedAt  time.Time
	guideShown bool
}

func NewTracker(store kv.Store, log *zap.Logger, clock func() time.Time) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		store:   store,
		log:     logging.OrNop(log),
		clock:   clock,
		results: map[string]Result{},
	}
}

// StartTask begins timing id, abandoning any task still in progress.
func (t *Tracker) StartTask(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = id
	t.startedAt = t.clock()
	t.guideShown = false
}

// MarkGuideShown flags the running task as guided. It reports false when
// no task is running.
func (t *Tracker) MarkGuideShown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == "" {
		return false
	}
	t.guideShown = true
	return true
}

// CompleteTask classifies and stores the running task. Without a guide the
// attempt always counts as a self-completion, whatever successful says.
// Completing the same task id again replaces its earlier result.
func (t *Tracker) CompleteTask(ctx context.Context, successful bool) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == "" {
		return Result{}, ErrNoActiveTask
	}

	status := SuccessWithoutGuide
	switch {
	case t.guideShown && successful:
		status = SuccessWithGuide
	case t.guideShown:
		status = FailureWithGuide
	}

	r := Result{
		TaskID:    t.current,
		Status:    status,
		TimeSpent: t.clock().Sub(t.startedAt).Milliseconds(),
	}
	if _, ok := t.results[r.TaskID]; !ok {
		t.order = append(t.order, r.TaskID)
	}
	t.results[r.TaskID] = r

	t.current = ""
	t.startedAt = time.Time{}
	t.guideShown = false

	if err := t.save(ctx); err != nil {
		t.log.Warn("save completion snapshot", zap.Error(err))
	}
	return r, nil
}

func (t *Tracker) Results() []Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resultsLocked()
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s Stats
	times := make([]float64, 0, len(t.results))
	for _, r := range t.resultsLocked() {
		switch r.Status {
		case SuccessWithoutGuide:
			s.SuccessWithoutGuide++
		case SuccessWithGuide:
			s.SuccessWithGuide++
		case FailureWithGuide:
			s.FailureWithGuide++
		}
		times = append(times, float64(r.TimeSpent))
	}

	s.TotalAttempts = len(times)
	if s.TotalAttempts == 0 {
		return s
	}
	s.SelfCompletionRate = float64(s.SuccessWithoutGuide) / float64(s.TotalAttempts) * 100
	if len(times) == 1 {
		s.MeanTimeSpent = times[0]
		return s
	}
	s.MeanTimeSpent, s.StdDevTimeSpent = stat.MeanStdDev(times, nil)
	return s
}

// Reset forgets every result and removes all persisted snapshots.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.results = map[string]Result{}
	t.order = nil
	t.current = ""
	t.startedAt = time.Time{}
	t.guideShown = false

	keys, err := t.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("list completion snapshots: %w", err)
	}
	for _, k := range keys {
		if err := t.store.Remove(ctx, k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}

func (t *Tracker) resultsLocked() []Result {
	out := make([]Result, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.results[id])
	}
	return out
}

func (t *Tracker) save(ctx context.Context) error {
	payload, err := json.Marshal(t.resultsLocked())
	if err != nil {
		return err
	}
	key, err := kv.AllocateKey(ctx, t.store, KeyPrefix)
	if err != nil {
		return err
	}
	return t.store.Set(ctx, key, string(payload))
}
