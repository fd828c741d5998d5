package accuracy

import (
	"context"
	"testing"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/shared/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureIdenticalRectIsFull(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	tr := NewTracker(store, Options{})

	m := tr.Measure(ctx, MeasureRequest{Target: geom.SquareAround(100, 100, 20), ClientX: 100, ClientY: 100})
	assert.Equal(t, 100.0, m.Accuracy)
	assert.Equal(t, 1600.0, m.TouchSize)
	assert.Equal(t, m.TouchArea, m.OverlapRect)

	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "100.00", raw)
}

func TestMeasureDisjointIsZero(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	tr := NewTracker(store, Options{})

	m := tr.Measure(ctx, MeasureRequest{
		Target:  geom.Rect{Left: 0, Top: 0, Right: 10, Bottom: 10},
		ClientX: 500, ClientY: 500,
	})
	assert.Zero(t, m.Accuracy)
	assert.Zero(t, m.OverlapSize)

	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "0.00", raw)
}

func TestMeasurePartialOverlap(t *testing.T) {
	tr := NewTracker(kv.NewMemoryStore(), Options{Radius: 10})

	// touch square is (40,40)-(60,60); the target covers its right half
	m := tr.Measure(context.Background(), MeasureRequest{
		Target:  geom.Rect{Left: 50, Top: 0, Right: 200, Bottom: 200},
		ClientX: 50, ClientY: 50,
	})
	assert.Equal(t, 200.0, m.OverlapSize)
	assert.Equal(t, 400.0, m.TouchSize)
	assert.Equal(t, 50.0, m.Accuracy)
	assert.Equal(t, geom.Rect{Left: 50, Top: 40, Right: 60, Bottom: 60}, m.OverlapRect)
}

func TestMeasureAccuracyRoundsToTwoPlaces(t *testing.T) {
	tr := NewTracker(kv.NewMemoryStore(), Options{Radius: 15})

	// overlap 10x30 over a 30x30 square
	m := tr.Measure(context.Background(), MeasureRequest{
		Target:  geom.Rect{Left: 0, Top: 0, Right: 10, Bottom: 100},
		ClientX: 15, ClientY: 50,
	})
	assert.Equal(t, 33.33, m.Accuracy)

	v, err := tr.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 33.33, v)
}

func TestLatestWithoutMeasurement(t *testing.T) {
	tr := NewTracker(kv.NewMemoryStore(), Options{})
	_, err := tr.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoMeasurement)
}

func TestLatestCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, StorageKey, "abc"))

	_, err := NewTracker(store, Options{}).Latest(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMeasurement)
}

func TestHistoryIsCapped(t *testing.T) {
	ctx := context.Background()
	clock := time.UnixMilli(0)
	tr := NewTracker(kv.NewMemoryStore(), Options{Clock: func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}})

	for i := 0; i < MaxHistory+5; i++ {
		tr.Measure(ctx, MeasureRequest{Target: geom.Rect{Right: 1, Bottom: 1}, ClientX: float64(i)})
	}

	history := tr.History(ctx)
	require.Len(t, history, MaxHistory)
	assert.Equal(t, int64(6), history[0].TimeMillis, "oldest entries should be dropped")
	assert.Equal(t, int64(MaxHistory+5), history[len(history)-1].TimeMillis)
}

func TestHistoryCorruptReadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, historyKey, "not json"))

	tr := NewTracker(store, Options{})
	assert.Empty(t, tr.History(ctx))

	tr.Measure(ctx, MeasureRequest{Target: geom.Rect{Right: 1, Bottom: 1}})
	assert.Len(t, tr.History(ctx), 1)
}

func TestDefaultRadius(t *testing.T) {
	assert.Equal(t, DefaultRadius, NewTracker(kv.NewMemoryStore(), Options{Radius: -1}).Radius())
}
