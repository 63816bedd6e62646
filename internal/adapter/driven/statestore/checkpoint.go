package statestore

import (
	"sync"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is the JSON-backed monotonic checkpoint map. Backing file:
// state/checkpoints.json.
type CheckpointStore struct {
	mu      sync.Mutex
	path    string
	loaded  bool
	markers map[string]string
}

// NewCheckpointStore returns a store backed by path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

func (s *CheckpointStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	markers := map[string]string{}
	if err := loadJSON(s.path, &markers); err != nil {
		return err
	}
	s.markers = markers
	s.loaded = true
	return nil
}

// Get returns the checkpoint date stored for key.
func (s *CheckpointStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return "", false
	}
	v, ok := s.markers[key]
	return v, ok
}

// Update writes date under key only if it compares greater than the
// currently stored value — checkpoint writes never regress.
func (s *CheckpointStore) Update(key, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	if s.markers == nil {
		s.markers = map[string]string{}
	}
	if current, ok := s.markers[key]; ok && current >= date {
		return nil
	}
	s.markers[key] = date
	return saveJSON(s.path, s.markers)
}
