package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]types.AuthorProfile
	order    []string
	mirror   map[mirrorKey]string
}

type mirrorKey struct{ name, outlet string }

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]types.AuthorProfile),
		mirror:   make(map[mirrorKey]string),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) UpsertProfile(_ context.Context, p *types.AuthorProfile) error {
	if err := validate(p); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "upsert", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *p
	normalize(&rec)
	ts := now()
	if prev, ok := s.profiles[rec.ProfileURL]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.CreatedAt = ts
		s.order = append(s.order, rec.ProfileURL)
	}
	rec.UpdatedAt = ts
	s.profiles[rec.ProfileURL] = rec
	s.mirror[mirrorKey{names.Key(rec.Name), rec.Outlet}] = rec.ProfileURL

	p.CreatedAt, p.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
	return nil
}

func (s *MemoryStore) ListProfiles(_ context.Context, q ProfileQuery) ([]types.AuthorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.AuthorProfile, 0, len(s.order))
	for _, key := range s.order {
		p := s.profiles[key]
		if q.Outlet != "" && p.Outlet != q.Outlet {
			continue
		}
		out = append(out, p)
	}
	sortProfiles(out, q.SortBy)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) CountProfiles(_ context.Context, outlet string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if outlet == "" {
		return len(s.profiles), nil
	}
	n := 0
	for _, p := range s.profiles {
		if p.Outlet == outlet {
			n++
		}
	}
	return n, nil
}

// Journalist returns the profile URL mirrored for (name, outlet).
func (s *MemoryStore) Journalist(name, outlet string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.mirror[mirrorKey{names.Key(name), outlet}]
	return u, ok
}

func (s *MemoryStore) Close() error { return nil }

func sortProfiles(ps []types.AuthorProfile, by SortField) {
	sort.SliceStable(ps, func(i, j int) bool {
		if by == SortArticles && ps[i].TotalArticles != ps[j].TotalArticles {
			return ps[i].TotalArticles > ps[j].TotalArticles
		}
		return ps[i].UpdatedAt.After(ps[j].UpdatedAt)
	})
}
