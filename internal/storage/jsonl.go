package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// JSONLStore keeps profiles in memory and writes them as newline-delimited
// JSON on Close. An existing file is loaded on open, so reruns upsert.
type JSONLStore struct {
	*MemoryStore
	path   string
	logger *slog.Logger
}

// NewJSONLStore opens or creates the JSONL file at path.
func NewJSONLStore(path string, logger *slog.Logger) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	s := &JSONLStore{
		MemoryStore: NewMemoryStore(),
		path:        path,
		logger:      logger.With("component", "jsonl_storage"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONLStore) Name() string { return "jsonl" }

func (s *JSONLStore) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "open", Err: err}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var p types.AuthorProfile
		if err := json.Unmarshal(sc.Bytes(), &p); err != nil {
			return &types.StorageError{Backend: s.Name(), Op: "load", Err: fmt.Errorf("line %d: %w", line, err)}
		}
		s.restore(p)
	}
	return sc.Err()
}

// restore inserts p keeping its stored timestamps.
func (s *JSONLStore) restore(p types.AuthorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ProfileURL]; !ok {
		s.order = append(s.order, p.ProfileURL)
	}
	s.profiles[p.ProfileURL] = p
	s.mirror[mirrorKey{names.Key(p.Name), p.Outlet}] = p.ProfileURL
}

// Close writes every profile, oldest first, to the file.
func (s *JSONLStore) Close() error {
	s.mu.RLock()
	profiles := make([]types.AuthorProfile, 0, len(s.order))
	for _, key := range s.order {
		profiles = append(profiles, s.profiles[key])
	}
	s.mu.RUnlock()
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].CreatedAt.Before(profiles[j].CreatedAt) })

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "close", Err: err}
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range profiles {
		if err := enc.Encode(&profiles[i]); err != nil {
			f.Close()
			return &types.StorageError{Backend: s.Name(), Op: "encode", Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return &types.StorageError{Backend: s.Name(), Op: "flush", Err: err}
	}
	if err := f.Close(); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "close", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "rename", Err: err}
	}
	s.logger.Info("JSONL written", "path", s.path, "profiles", len(profiles))
	return nil
}
