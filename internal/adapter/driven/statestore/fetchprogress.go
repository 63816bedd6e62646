package statestore

import (
	"sync"

	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.FetchProgressStore = (*FetchProgressStore)(nil)

type chunkProgressFile struct {
	PRs     map[string]model.PRRaw    `json:"prs"`
	Commits []model.CommitRaw         `json:"commits"`
	Issues  map[string]model.IssueRaw `json:"issues"`
}

// FetchProgressStore is the JSON-backed resumable search-result cache, one
// file per chunk under state/fetch_progress/{chunk_key}.json.
type FetchProgressStore struct {
	mu  sync.Mutex
	dir string
}

// NewFetchProgressStore returns a store whose per-chunk files live under dir.
func NewFetchProgressStore(dir string) *FetchProgressStore {
	return &FetchProgressStore{dir: dir}
}

func (s *FetchProgressStore) pathFor(chunkKey string) string {
	return s.dir + "/" + chunkKey + ".json"
}

// Get loads the cached progress for chunkKey, if any.
func (s *FetchProgressStore) Get(chunkKey string) (driven.ChunkProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var f chunkProgressFile
	if err := loadJSON(s.pathFor(chunkKey), &f); err != nil || f.PRs == nil && f.Issues == nil && f.Commits == nil {
		return driven.ChunkProgress{}, false
	}
	return driven.ChunkProgress{PRs: f.PRs, Commits: f.Commits, Issues: f.Issues}, true
}

// Save persists progress for chunkKey, overwriting any prior cache.
func (s *FetchProgressStore) Save(chunkKey string, progress driven.ChunkProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := chunkProgressFile{PRs: progress.PRs, Commits: progress.Commits, Issues: progress.Issues}
	return saveJSON(s.pathFor(chunkKey), f)
}

// Clear removes the cached progress for chunkKey once a chunk completes.
func (s *FetchProgressStore) Clear(chunkKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfExists(s.pathFor(chunkKey))
}
