package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for AtenFlux.
type Config struct {
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Search    SearchConfig    `mapstructure:"search"    yaml:"search"`
	Resolver  ResolverConfig  `mapstructure:"resolver"  yaml:"resolver"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Profile   ProfileConfig   `mapstructure:"profile"   yaml:"profile"`
	Jobs      JobsConfig      `mapstructure:"jobs"      yaml:"jobs"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// FetcherConfig controls outbound page fetching.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"` // http, browser, auto
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"     yaml:"probe_timeout"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"  yaml:"politeness_delay"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// BrowserConfig controls the headless browser backend.
type BrowserConfig struct {
	Stealth    bool          `mapstructure:"stealth"     yaml:"stealth"`
	MaxPages   int           `mapstructure:"max_pages"   yaml:"max_pages"`
	WaitStable time.Duration `mapstructure:"wait_stable" yaml:"wait_stable"`
}

// SearchConfig controls the web-search backends.
type SearchConfig struct {
	// Providers is the priority order of backends (duckduckgo, bing, google).
	Providers      []string          `mapstructure:"providers"        yaml:"providers"`
	MaxCalls       int               `mapstructure:"max_calls"        yaml:"max_calls"`
	ResultsPerCall int               `mapstructure:"results_per_call" yaml:"results_per_call"`
	Endpoints      map[string]string `mapstructure:"endpoints"        yaml:"endpoints"`
}

// ResolverConfig holds the locale weighting used to rank candidate websites.
type ResolverConfig struct {
	LocalTLDs       []string `mapstructure:"local_tlds"       yaml:"local_tlds"`
	LocalKeywords   []string `mapstructure:"local_keywords"   yaml:"local_keywords"`
	ForeignTLDs     []string `mapstructure:"foreign_tlds"     yaml:"foreign_tlds"`
	ForeignKeywords []string `mapstructure:"foreign_keywords" yaml:"foreign_keywords"`
	BlockedDomains  []string `mapstructure:"blocked_domains"  yaml:"blocked_domains"`
	ProbeTLDs       []string `mapstructure:"probe_tlds"       yaml:"probe_tlds"`
}

// CollectorConfig lists the conventional locations probed for articles.
type CollectorConfig struct {
	FeedPaths    []string `mapstructure:"feed_paths"    yaml:"feed_paths"`
	SitemapPaths []string `mapstructure:"sitemap_paths" yaml:"sitemap_paths"`
	SectionSlugs []string `mapstructure:"section_slugs" yaml:"section_slugs"`
	MaxSitemaps  int      `mapstructure:"max_sitemaps"  yaml:"max_sitemaps"`
}

// DiscoveryConfig controls author discovery.
type DiscoveryConfig struct {
	DirectoryPaths     []string `mapstructure:"directory_paths"     yaml:"directory_paths"`
	MaxArticles        int      `mapstructure:"max_articles"        yaml:"max_articles"`
	BufferFactor       float64  `mapstructure:"buffer_factor"       yaml:"buffer_factor"`
	ArticleConcurrency int      `mapstructure:"article_concurrency" yaml:"article_concurrency"`
	MinDirectoryLinks  int      `mapstructure:"min_directory_links" yaml:"min_directory_links"`
}

// ProfileConfig controls per-author profile extraction.
type ProfileConfig struct {
	MaxArticles          int    `mapstructure:"max_articles"           yaml:"max_articles"`
	MinContainerArticles int    `mapstructure:"min_container_articles" yaml:"min_container_articles"`
	DefaultRole          string `mapstructure:"default_role"           yaml:"default_role"`
}

// JobsConfig controls the background job orchestrator.
type JobsConfig struct {
	BatchSize         int           `mapstructure:"batch_size"          yaml:"batch_size"`
	BatchDelay        time.Duration `mapstructure:"batch_delay"         yaml:"batch_delay"`
	Retention         time.Duration `mapstructure:"retention"           yaml:"retention"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"      yaml:"sweep_interval"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
	MaxAuthors        int           `mapstructure:"max_authors"         yaml:"max_authors"`
	QuickMaxAuthors   int           `mapstructure:"quick_max_authors"   yaml:"quick_max_authors"`
	Store             string        `mapstructure:"store"               yaml:"store"` // memory, mongo
}

// StorageConfig controls where profiles are persisted.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"` // memory, jsonl, sqlite, mongo
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	Database   string `mapstructure:"database"    yaml:"database"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	JSONLPath  string `mapstructure:"jsonl_path"  yaml:"jsonl_path"`
}

// APIConfig controls the HTTP surface.
type APIConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus-format metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  20 * time.Second,
			ProbeTimeout:    8 * time.Second,
			PolitenessDelay: 200 * time.Millisecond,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Browser: BrowserConfig{
			Stealth:    true,
			MaxPages:   4,
			WaitStable: 300 * time.Millisecond,
		},
		Search: SearchConfig{
			Providers:      []string{"duckduckgo", "bing", "google"},
			MaxCalls:       6,
			ResultsPerCall: 10,
		},
		Resolver: ResolverConfig{
			LocalTLDs:       []string{".in", ".co.in"},
			LocalKeywords:   []string{"india", "indian", "hindi", "bharat"},
			ForeignTLDs:     []string{".co.uk", ".uk", ".com.au", ".au", ".ca", ".pk", ".com.pk", ".co.nz", ".ie"},
			ForeignKeywords: []string{"uk", "usa", "australia", "pakistan", "canada", "london"},
			BlockedDomains: []string{
				"wikipedia.org", "wikidata.org", "facebook.com", "twitter.com", "x.com",
				"instagram.com", "youtube.com", "linkedin.com", "reddit.com", "tiktok.com",
				"quora.com", "pinterest.com", "google.com", "bing.com", "duckduckgo.com",
				"play.google.com", "apps.apple.com",
			},
			ProbeTLDs: []string{".com", ".in", ".co.in", ".net", ".org"},
		},
		Collector: CollectorConfig{
			FeedPaths: []string{
				"/feed", "/rss", "/rss.xml", "/feed.xml", "/atom.xml",
				"/index.xml", "/feeds/latest.xml", "/rss/latest.xml",
			},
			SitemapPaths: []string{
				"/sitemap.xml", "/sitemap_index.xml", "/news-sitemap.xml",
				"/sitemap-news.xml", "/post-sitemap.xml",
			},
			SectionSlugs: []string{
				"news", "latest", "business", "sports", "politics", "technology",
				"entertainment", "world", "india", "opinion", "lifestyle", "health", "science",
			},
			MaxSitemaps: 3,
		},
		Discovery: DiscoveryConfig{
			DirectoryPaths: []string{
				"/authors", "/author", "/our-team", "/team", "/journalists", "/writers",
				"/contributors", "/staff", "/people", "/columnists", "/reporters",
				"/about/team", "/about-us/team",
			},
			MaxArticles:        300,
			BufferFactor:       1.5,
			ArticleConcurrency: 4,
			MinDirectoryLinks:  5,
		},
		Profile: ProfileConfig{
			MaxArticles:          50,
			MinContainerArticles: 3,
			DefaultRole:          "Journalist",
		},
		Jobs: JobsConfig{
			BatchSize:         2,
			BatchDelay:        time.Second,
			Retention:         10 * time.Minute,
			SweepInterval:     time.Minute,
			MaxConcurrentJobs: 4,
			MaxAuthors:        100,
			QuickMaxAuthors:   5,
			Store:             "memory",
		},
		Storage: StorageConfig{
			Type:       "memory",
			MongoURI:   "mongodb://localhost:27017",
			Database:   "atenflux",
			SQLitePath: "./data/atenflux.db",
			JSONLPath:  "./data/profiles.jsonl",
		},
		API: APIConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
