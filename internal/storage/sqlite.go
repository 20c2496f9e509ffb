package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// SQLiteStore persists profiles in an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var profileColumns = []string{
	"profile_url", "name", "outlet", "source", "role", "bio", "email", "picture",
	"social", "articles", "total_articles", "topics", "keywords", "top_keywords",
	"influence_score", "created_at", "updated_at",
}

// NewSQLiteStore opens or creates the database at path and its schema.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Op: "open", Err: err}
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db, logger: logger.With("component", "sqlite_storage")}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Op: "schema", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			profile_url TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			outlet TEXT NOT NULL,
			source TEXT,
			role TEXT,
			bio TEXT,
			email TEXT,
			picture TEXT,
			social TEXT,
			articles TEXT,
			total_articles INTEGER NOT NULL DEFAULT 0,
			topics TEXT,
			keywords TEXT,
			top_keywords TEXT,
			influence_score INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_outlet ON profiles(outlet)`,
		`CREATE TABLE IF NOT EXISTS journalists (
			name_key TEXT NOT NULL,
			outlet TEXT NOT NULL,
			name TEXT NOT NULL,
			profile_url TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (name_key, outlet)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *types.AuthorProfile) error {
	if err := validate(p); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "upsert", Err: err}
	}
	rec := *p
	normalize(&rec)
	ts := now()

	enc := func(v any) string {
		b, _ := json.Marshal(v)
		return string(b)
	}
	stamp := ts.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "begin", Err: err}
	}
	defer tx.Rollback()

	_, err = sq.Insert("profiles").
		Columns(profileColumns...).
		Values(rec.ProfileURL, rec.Name, rec.Outlet, string(rec.Source), rec.Role, rec.Bio, rec.Email,
			rec.ProfilePicture, enc(rec.SocialLinks), enc(rec.Articles), rec.TotalArticles, enc(rec.Topics),
			enc(rec.Keywords), enc(rec.TopKeywords), rec.InfluenceScore, stamp, stamp).
		Suffix(`ON CONFLICT(profile_url) DO UPDATE SET
			name = excluded.name, outlet = excluded.outlet, source = excluded.source,
			role = excluded.role, bio = excluded.bio, email = excluded.email,
			picture = excluded.picture, social = excluded.social, articles = excluded.articles,
			total_articles = excluded.total_articles, topics = excluded.topics,
			keywords = excluded.keywords, top_keywords = excluded.top_keywords,
			influence_score = excluded.influence_score, updated_at = excluded.updated_at`).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "upsert", Err: err}
	}

	_, err = sq.Insert("journalists").
		Columns("name_key", "outlet", "name", "profile_url", "updated_at").
		Values(names.Key(rec.Name), rec.Outlet, rec.Name, rec.ProfileURL, stamp).
		Suffix(`ON CONFLICT(name_key, outlet) DO UPDATE SET
			name = excluded.name, profile_url = excluded.profile_url, updated_at = excluded.updated_at`).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "mirror", Err: err}
	}

	var created string
	err = sq.Select("created_at").From("profiles").
		Where(sq.Eq{"profile_url": rec.ProfileURL}).
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&created)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "upsert", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "commit", Err: err}
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	p.UpdatedAt = ts
	return nil
}

func (s *SQLiteStore) ListProfiles(ctx context.Context, q ProfileQuery) ([]types.AuthorProfile, error) {
	query := sq.Select(profileColumns...).From("profiles")
	if q.Outlet != "" {
		query = query.Where(sq.Eq{"outlet": q.Outlet})
	}
	if q.SortBy == SortArticles {
		query = query.OrderBy("total_articles DESC", "updated_at DESC")
	} else {
		query = query.OrderBy("updated_at DESC")
	}
	if q.Limit > 0 {
		query = query.Limit(uint64(q.Limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list", Err: err}
	}
	defer rows.Close()

	out := []types.AuthorProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "scan", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list", Err: err}
	}
	return out, nil
}

func scanProfile(rows *sql.Rows) (types.AuthorProfile, error) {
	var (
		p                                          types.AuthorProfile
		source                                     string
		bio, email, picture, role                  sql.NullString
		social, articles, topics, keywords, topKws sql.NullString
		created, updated                           string
	)
	err := rows.Scan(&p.ProfileURL, &p.Name, &p.Outlet, &source, &role, &bio, &email, &picture,
		&social, &articles, &p.TotalArticles, &topics, &keywords, &topKws,
		&p.InfluenceScore, &created, &updated)
	if err != nil {
		return p, err
	}
	p.Source = types.AuthorSource(source)
	p.Role, p.Bio, p.Email, p.ProfilePicture = role.String, bio.String, email.String, picture.String

	for _, f := range []struct {
		raw sql.NullString
		dst any
	}{
		{social, &p.SocialLinks}, {articles, &p.Articles}, {topics, &p.Topics},
		{keywords, &p.Keywords}, {topKws, &p.TopKeywords},
	} {
		if f.raw.Valid && f.raw.String != "" {
			if err := json.Unmarshal([]byte(f.raw.String), f.dst); err != nil {
				return p, fmt.Errorf("decode column: %w", err)
			}
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	normalize(&p)
	return p, nil
}

func (s *SQLiteStore) CountProfiles(ctx context.Context, outlet string) (int, error) {
	query := sq.Select("COUNT(*)").From("profiles")
	if outlet != "" {
		query = query.Where(sq.Eq{"outlet": outlet})
	}
	var n int
	if err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "count", Err: err}
	}
	return n, nil
}

// Journalist returns the profile URL mirrored for (name, outlet).
func (s *SQLiteStore) Journalist(ctx context.Context, name, outlet string) (string, bool, error) {
	var u string
	err := sq.Select("profile_url").From("journalists").
		Where(sq.Eq{"name_key": names.Key(name), "outlet": outlet}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&u)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &types.StorageError{Backend: s.Name(), Op: "mirror", Err: err}
	}
	return u, true, nil
}

func (s *SQLiteStore) Close() error {
	s.logger.Info("sqlite storage closing")
	return s.db.Close()
}
