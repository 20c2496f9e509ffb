// Package storage persists author profiles. Every backend upserts on the
// profile URL and maintains a journalists mirror keyed on (name, outlet).
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// SortField orders profile listings.
type SortField string

const (
	SortRecent   SortField = "recent"
	SortArticles SortField = "articles"
)

// ProfileQuery filters ListProfiles. A zero Limit means no limit.
type ProfileQuery struct {
	Outlet string
	SortBy SortField
	Limit  int
}

// ProfileStore is the interface for all profile backends.
type ProfileStore interface {
	// UpsertProfile inserts or replaces the profile with the same ProfileURL.
	// CreatedAt is kept from the first insert; UpdatedAt is refreshed.
	UpsertProfile(ctx context.Context, p *types.AuthorProfile) error

	// ListProfiles returns profiles matching q, most recent first by default.
	ListProfiles(ctx context.Context, q ProfileQuery) ([]types.AuthorProfile, error)

	// CountProfiles counts stored profiles, optionally for one outlet.
	CountProfiles(ctx context.Context, outlet string) (int, error)

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New opens the backend selected by cfg.Type.
func New(cfg config.StorageConfig, logger *slog.Logger) (ProfileStore, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil
	case "jsonl":
		return NewJSONLStore(cfg.JSONLPath, logger)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case "mongo":
		return NewMongoStore(cfg.MongoURI, cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

func validate(p *types.AuthorProfile) error {
	if p == nil || p.ProfileURL == "" {
		return fmt.Errorf("profile URL is required")
	}
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }

// normalize fills nil slices so every backend returns the same shape.
func normalize(p *types.AuthorProfile) {
	if p.Articles == nil {
		p.Articles = []types.Article{}
	}
	if p.Topics == nil {
		p.Topics = []string{}
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.TopKeywords == nil {
		p.TopKeywords = []string{}
	}
	p.TotalArticles = len(p.Articles)
}
