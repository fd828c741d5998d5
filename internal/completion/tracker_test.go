package completion

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestCompletionStatuses(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Unix(0, 0)}
	tr := NewTracker(kv.NewMemoryStore(), nil, clock.Now)

	tr.StartTask("a")
	clock.advance(time.Second)
	r, err := tr.CompleteTask(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SuccessWithoutGuide, r.Status, "no guide counts as self-completion")
	assert.Equal(t, int64(1000), r.TimeSpent)

	tr.StartTask("b")
	require.True(t, tr.MarkGuideShown())
	clock.advance(3 * time.Second)
	r, _ = tr.CompleteTask(ctx, true)
	assert.Equal(t, SuccessWithGuide, r.Status)

	tr.StartTask("c")
	tr.MarkGuideShown()
	clock.advance(2 * time.Second)
	r, _ = tr.CompleteTask(ctx, false)
	assert.Equal(t, FailureWithGuide, r.Status)

	s := tr.Stats()
	assert.Equal(t, 1, s.SuccessWithoutGuide)
	assert.Equal(t, 1, s.SuccessWithGuide)
	assert.Equal(t, 1, s.FailureWithGuide)
	assert.Equal(t, 3, s.TotalAttempts)
	assert.InDelta(t, 100.0/3, s.SelfCompletionRate, 1e-9)
	assert.InDelta(t, 2000, s.MeanTimeSpent, 1e-9)
	assert.InDelta(t, 1000, s.StdDevTimeSpent, 1e-9)
}

func TestCompleteWithoutTask(t *testing.T) {
	tr := NewTracker(kv.NewMemoryStore(), nil, nil)
	assert.False(t, tr.MarkGuideShown())
	_, err := tr.CompleteTask(context.Background(), true)
	assert.ErrorIs(t, err, ErrNoActiveTask)
	assert.Equal(t, Stats{}, tr.Stats())
}

func TestSingleResultHasZeroSpread(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	tr := NewTracker(kv.NewMemoryStore(), nil, clock.Now)
	tr.StartTask("only")
	clock.advance(250 * time.Millisecond)
	_, err := tr.CompleteTask(context.Background(), true)
	require.NoError(t, err)

	s := tr.Stats()
	assert.Equal(t, 250.0, s.MeanTimeSpent)
	assert.Zero(t, s.StdDevTimeSpent)
	assert.False(t, math.IsNaN(s.StdDevTimeSpent))
	assert.Equal(t, 100.0, s.SelfCompletionRate)
}

func TestRepeatedTaskReplacesResult(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(kv.NewMemoryStore(), nil, nil)

	tr.StartTask("a")
	_, _ = tr.CompleteTask(ctx, true)
	tr.StartTask("a")
	tr.MarkGuideShown()
	_, _ = tr.CompleteTask(ctx, false)

	results := tr.Results()
	require.Len(t, results, 1)
	assert.Equal(t, FailureWithGuide, results[0].Status)
}

func TestSnapshotsUseFreshKeysAndResetRemovesThem(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "unrelated", "x"))
	tr := NewTracker(store, nil, nil)

	for _, id := range []string{"a", "b"} {
		tr.StartTask(id)
		_, err := tr.CompleteTask(ctx, true)
		require.NoError(t, err)
	}

	keys, err := store.Keys(ctx, KeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"completion-stats-001", "completion-stats-002"}, keys)

	raw, _ := store.Get(ctx, "completion-stats-002")
	var snapshot []Result
	require.NoError(t, json.Unmarshal([]byte(raw), &snapshot))
	assert.Len(t, snapshot, 2)

	require.NoError(t, tr.Reset(ctx))
	keys, _ = store.Keys(ctx, KeyPrefix)
	assert.Empty(t, keys)
	_, err = store.Get(ctx, "unrelated")
	assert.NoError(t, err)
	assert.Empty(t, tr.Results())
}

func TestCompletionHandlers(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/completion"), NewTracker(kv.NewMemoryStore(), nil, nil), func(c *fiber.Ctx) error { return c.Next() })

	post := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusConflict, post("/completion/guide", ""))
	assert.Equal(t, http.StatusConflict, post("/completion/complete", `{"successful":true}`))
	assert.Equal(t, http.StatusBadRequest, post("/completion/tasks", `{}`))
	assert.Equal(t, http.StatusCreated, post("/completion/tasks", `{"taskId":"t1"}`))
	assert.Equal(t, http.StatusNoContent, post("/completion/guide", ""))
	assert.Equal(t, http.StatusOK, post("/completion/complete", `{"successful":true}`))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/completion", nil))
	require.NoError(t, err)
	var s Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, 1, s.SuccessWithGuide)
	assert.Zero(t, s.SelfCompletionRate)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/completion/results", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusOK, post("/completion/reset", ""))
}
