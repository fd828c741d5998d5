package distance

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
)

type recordingHub struct {
	mu       sync.Mutex
	keys     []string
	payloads [][]byte
}

func (h *recordingHub) Broadcast(key string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = append(h.keys, key)
	h.payloads = append(h.payloads, payload)
}

func TestRegistryOpenAllocatesAndReuses(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(kv.NewMemoryStore(), 120, nil, nil)

	a, err := reg.Open(ctx, OpenRequest{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, err := reg.Open(ctx, OpenRequest{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if a == b || a.Key() == b.Key() {
		t.Fatalf("expected two distinct sessions")
	}
	if a.DPI() != 120 {
		t.Fatalf("expected registry dpi, got %v", a.DPI())
	}

	same, err := reg.Open(ctx, OpenRequest{Key: a.Key(), DPI: 300})
	if err != nil || same != a {
		t.Fatalf("expected existing session for known key")
	}

	custom, err := reg.Open(ctx, OpenRequest{Key: "touch-distance-lab-a", DPI: 300})
	if err != nil {
		t.Fatalf("open custom: %v", err)
	}
	if custom.Key() != "touch-distance-lab-a" || custom.DPI() != 300 {
		t.Fatalf("unexpected custom session %s %v", custom.Key(), custom.DPI())
	}
}

func TestRegistryGetRecoversFromStore(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	_ = store.Set(ctx, "touch-distance-004", "42")

	reg := NewRegistry(store, 96, nil, nil)
	e, err := reg.Get(ctx, "touch-distance-004")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.TotalDistance() != 42 {
		t.Fatalf("expected recovered total, got %v", e.TotalDistance())
	}

	again, _ := reg.Get(ctx, "touch-distance-004")
	if again != e {
		t.Fatalf("expected cached engine")
	}

	if _, err := reg.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegistryGetLeavesForeignKeysAlone(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	reg := NewRegistry(store, 96, nil, nil)

	e, err := reg.Open(ctx, OpenRequest{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e.HandleTouch(ctx, Sample{1, 2})
	_ = store.Set(ctx, "touchData", `{"touchStartCount":3}`)
	_ = store.Set(ctx, "participant:abc", `{"id":"abc"}`)

	for _, key := range []string{"touchData", "participant:abc", e.Key() + touchLogSuffix} {
		before, _ := store.Get(ctx, key)
		if _, err := reg.Get(ctx, key); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Get(%q): expected not found, got %v", key, err)
		}
		after, _ := store.Get(ctx, key)
		if after != before {
			t.Fatalf("Get(%q) changed stored value from %q to %q", key, before, after)
		}
	}
	if n := len(e.TouchLog(ctx)); n != 1 {
		t.Fatalf("touch log lost, %d entries left", n)
	}
}

func TestRegistryOpenRejectsForeignKeys(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	_ = store.Set(ctx, "touchAccuracy", "87.50")
	reg := NewRegistry(store, 96, nil, nil)

	for _, key := range []string{"touchAccuracy", "touch-distance-001:touch-log", "touch-distance-"} {
		if _, err := reg.Open(ctx, OpenRequest{Key: key}); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Open(%q): expected invalid key, got %v", key, err)
		}
	}
	if raw, _ := store.Get(ctx, "touchAccuracy"); raw != "87.50" {
		t.Fatalf("accuracy value overwritten: %s", raw)
	}
}

func TestRegistryGetStoreError(t *testing.T) {
	reg := NewRegistry(&brokenStore{}, 96, nil, nil)
	_, err := reg.Get(context.Background(), "touch-distance-001")
	if err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestRegistryBroadcastsSnapshots(t *testing.T) {
	ctx := context.Background()
	hub := &recordingHub{}
	reg := NewRegistry(kv.NewMemoryStore(), 96, hub, nil)

	e, err := reg.Open(ctx, OpenRequest{Key: "touch-distance-s"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e.HandleTouch(ctx, Sample{0, 0})
	e.HandleTouch(ctx, Sample{96, 0})

	if len(hub.payloads) != 2 {
		t.Fatalf("expected one broadcast per update, got %d", len(hub.payloads))
	}
	var snap Snapshot
	if err := json.Unmarshal(hub.payloads[1], &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Key != "touch-distance-s" || len(snap.Points) != 2 || len(snap.Lines) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if hub.keys[1] != "touch-distance-s" {
		t.Fatalf("broadcast to wrong key %s", hub.keys[1])
	}
}
