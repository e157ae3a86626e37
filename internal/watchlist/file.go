package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"StockTracker/internal/model"
)

type fileState struct {
	Symbols   []model.TrackedSymbol `json:"symbols"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// FileStore keeps the tracked set in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the tracked set. A missing file yields an empty set.
func (s *FileStore) Load(_ context.Context) ([]model.TrackedSymbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.TrackedSymbol{}, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", s.path, err)
	}
	if st.Symbols == nil {
		st.Symbols = []model.TrackedSymbol{}
	}
	return st.Symbols, nil
}

// Save writes the tracked set through a temp file and rename.
func (s *FileStore) Save(_ context.Context, tracked []model.TrackedSymbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(fileState{Symbols: tracked, UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watchlist dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Close() error { return nil }
