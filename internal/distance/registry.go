package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"
	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"

	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("distance session not found")
	ErrInvalidKey      = errors.New("distance session keys must look like " + KeyPrefix + "-<name>")
)

// sessionKeyPattern keeps the registry inside the engine namespace of the
// shared store; it never matches another tracker's key or a touch log.
var sessionKeyPattern = regexp.MustCompile(`^` + regexp.QuoteMeta(KeyPrefix) + `-[A-Za-z0-9_-]+$`)

// ValidSessionKey reports whether key may name a registry session.
func ValidSessionKey(key string) bool {
	return sessionKeyPattern.MatchString(key)
}

// Broadcaster publishes an encoded snapshot to subscribers of key.
type Broadcaster interface {
	Broadcast(key string, payload []byte)
}

// Registry owns the engines served over HTTP, one per storage key.
type Registry struct {
	store kv.Store
	dpi   float64
	hub   Broadcaster
	log   *zap.Logger

	mu      sync.Mutex
	engines map[string]*Engine
}

func NewRegistry(store kv.Store, dpi float64, hub Broadcaster, log *zap.Logger) *Registry {
	return &Registry{
		store:   store,
		dpi:     dpi,
		hub:     hub,
		log:     logging.OrNop(log),
		engines: map[string]*Engine{},
	}
}

// Open returns the engine for req.Key, creating it (and allocating a key
// when none is given) if needed. A zero DPI falls back to the registry default.
func (r *Registry) Open(ctx context.Context, req OpenRequest) (*Engine, error) {
	if req.Key != "" && !ValidSessionKey(req.Key) {
		return nil, ErrInvalidKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[req.Key]; ok && req.Key != "" {
		return e, nil
	}

	dpi := req.DPI
	if dpi <= 0 {
		dpi = r.dpi
	}
	return r.create(ctx, req.Key, dpi)
}

// Get returns a live engine, or rebuilds one from the store when the key was
// created by an earlier process. Keys outside the session namespace are
// reported as not found and never read.
func (r *Registry) Get(ctx context.Context, key string) (*Engine, error) {
	if !ValidSessionKey(key) {
		return nil, ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[key]; ok {
		return e, nil
	}
	if _, err := r.store.Get(ctx, key); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup %s: %w", key, err)
	}
	return r.create(ctx, key, r.dpi)
}

func (r *Registry) create(ctx context.Context, key string, dpi float64) (*Engine, error) {
	e, err := NewEngine(ctx, r.store, Options{DPI: dpi, Key: key, Logger: r.log})
	if err != nil {
		return nil, err
	}
	if r.hub != nil {
		e.AddObserver(r.broadcastObserver(e.Key()))
	}
	r.engines[e.Key()] = e
	r.log.Info("distance session opened", zap.String("key", e.Key()), zap.Float64("dpi", dpi))
	return e, nil
}

// broadcastObserver collects the three notifications of one update and
// publishes them as a single snapshot once the total arrives last.
func (r *Registry) broadcastObserver(key string) *Observer {
	snap := Snapshot{Key: key}
	return &Observer{
		OnPoints: func(p []Point) { snap.Points = p },
		OnLines:  func(l []Line) { snap.Lines = l },
		OnTotal: func(total float64) {
			snap.TotalDistance = total
			payload, err := json.Marshal(snap)
			if err != nil {
				r.log.Warn("encode snapshot", zap.String("key", key), zap.Error(err))
				return
			}
			r.hub.Broadcast(key, payload)
		},
	}
}
