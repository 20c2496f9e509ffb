package config

import (
	"fmt"
	"net/url"
	"strings"
)

var knownProviders = map[string]bool{
	"duckduckgo": true, "bing": true, "google": true,
}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	switch cfg.Fetcher.Type {
	case "http", "browser", "auto":
	default:
		return fmt.Errorf("fetcher.type must be 'http', 'browser' or 'auto', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.ProbeTimeout <= 0 {
		return fmt.Errorf("fetcher.probe_timeout must be > 0")
	}
	if cfg.Fetcher.PolitenessDelay < 0 {
		return fmt.Errorf("fetcher.politeness_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if len(cfg.Search.Providers) == 0 {
		return fmt.Errorf("search.providers must list at least one provider")
	}
	for _, name := range cfg.Search.Providers {
		if !knownProviders[name] {
			return fmt.Errorf("search.providers: unknown provider %q (valid: duckduckgo, bing, google)", name)
		}
	}
	if cfg.Search.MaxCalls < 1 {
		return fmt.Errorf("search.max_calls must be >= 1, got %d", cfg.Search.MaxCalls)
	}
	for name, endpoint := range cfg.Search.Endpoints {
		if err := ValidateURL(endpoint); err != nil {
			return fmt.Errorf("search.endpoints.%s: %w", name, err)
		}
	}

	if cfg.Discovery.MaxArticles < 1 {
		return fmt.Errorf("discovery.max_articles must be >= 1, got %d", cfg.Discovery.MaxArticles)
	}
	if cfg.Discovery.BufferFactor < 1 {
		return fmt.Errorf("discovery.buffer_factor must be >= 1, got %v", cfg.Discovery.BufferFactor)
	}
	if cfg.Discovery.ArticleConcurrency < 1 {
		return fmt.Errorf("discovery.article_concurrency must be >= 1")
	}

	if cfg.Profile.MaxArticles < 1 {
		return fmt.Errorf("profile.max_articles must be >= 1")
	}
	if cfg.Profile.DefaultRole == "" {
		return fmt.Errorf("profile.default_role must not be empty")
	}

	if cfg.Jobs.BatchSize < 1 || cfg.Jobs.BatchSize > 32 {
		return fmt.Errorf("jobs.batch_size must be 1-32, got %d", cfg.Jobs.BatchSize)
	}
	if cfg.Jobs.BatchDelay < 0 {
		return fmt.Errorf("jobs.batch_delay must be >= 0")
	}
	if cfg.Jobs.Retention <= 0 {
		return fmt.Errorf("jobs.retention must be > 0")
	}
	if cfg.Jobs.MaxConcurrentJobs < 1 {
		return fmt.Errorf("jobs.max_concurrent_jobs must be >= 1")
	}
	if cfg.Jobs.MaxAuthors < 1 {
		return fmt.Errorf("jobs.max_authors must be >= 1")
	}
	if cfg.Jobs.QuickMaxAuthors < 1 || cfg.Jobs.QuickMaxAuthors > cfg.Jobs.MaxAuthors {
		return fmt.Errorf("jobs.quick_max_authors must be 1-%d, got %d", cfg.Jobs.MaxAuthors, cfg.Jobs.QuickMaxAuthors)
	}
	if cfg.Jobs.Store != "memory" && cfg.Jobs.Store != "mongo" {
		return fmt.Errorf("jobs.store must be 'memory' or 'mongo', got %q", cfg.Jobs.Store)
	}

	switch cfg.Storage.Type {
	case "memory":
	case "jsonl":
		if cfg.Storage.JSONLPath == "" {
			return fmt.Errorf("storage.jsonl_path is required for jsonl storage")
		}
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for sqlite storage")
		}
	case "mongo":
		if cfg.Storage.MongoURI == "" || cfg.Storage.Database == "" {
			return fmt.Errorf("storage.mongo_uri and storage.database are required for mongo storage")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: memory, jsonl, sqlite, mongo)", cfg.Storage.Type)
	}
	if cfg.Jobs.Store == "mongo" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("jobs.store 'mongo' requires storage.mongo_uri")
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" && cfg.Logging.Output != "stdout" {
		return fmt.Errorf("logging.output must be 'stderr' or 'stdout', got %q", cfg.Logging.Output)
	}

	return nil
}

// ValidateURL checks that a URL string is absolute http(s).
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
