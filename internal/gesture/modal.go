package gesture

import (
	"sort"
	"sync"
)

// Modal ids every store starts with, both hidden.
const (
	ModalVideo  = "video"
	ModalCommon = "common"
)

// Visibility is a single show/hide flag a gesture can drive.
type Visibility interface {
	Visible() bool
	SetVisible(bool)
}

// ModalStore holds visibility flags by modal id. Unknown ids read as hidden
// and are created on first Show or Hide.
type ModalStore struct {
	mu     sync.RWMutex
	modals map[string]bool
}

func NewModalStore() *ModalStore {
	return &ModalStore{modals: map[string]bool{ModalVideo: false, ModalCommon: false}}
}

func (s *ModalStore) Show(id string) { s.set(id, true) }
func (s *ModalStore) Hide(id string) { s.set(id, false) }

func (s *ModalStore) Visible(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modals[id]
}

// All returns a copy of every known flag.
func (s *ModalStore) All() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.modals))
	for id, v := range s.modals {
		out[id] = v
	}
	return out
}

func (s *ModalStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.modals))
	for id := range s.modals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Binding exposes one modal as a Visibility.
func (s *ModalStore) Binding(id string) Visibility {
	s.set(id, s.Visible(id))
	return modalBinding{store: s, id: id}
}

func (s *ModalStore) set(id string, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modals[id] = visible
}

type modalBinding struct {
	store *ModalStore
	id    string
}

func (b modalBinding) Visible() bool     { return b.store.Visible(b.id) }
func (b modalBinding) SetVisible(v bool) { b.store.set(b.id, v) }

// flag is a standalone Visibility for gestures not tied to a store.
type flag struct {
	mu sync.Mutex
	v  bool
}

func (f *flag) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v
}

func (f *flag) SetVisible(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.v = v
}
