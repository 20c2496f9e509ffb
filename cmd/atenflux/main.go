package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnshulAlgoS/AtenFlux/internal/api"
	"github.com/AnshulAlgoS/AtenFlux/internal/config"
)

var (
	cfgFile     string
	verbose     bool
	port        int
	maxAuthors  int
	storageType string
	jsonOutput  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "atenflux",
		Short: "AtenFlux: journalist discovery for news outlets",
		Long: `AtenFlux finds the journalists writing for a news outlet.

Given an outlet name it locates the outlet's website, collects recent
articles, discovers their authors, extracts each author's profile and
enriches it with keywords, topics and an influence score.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "profile storage: memory, jsonl, sqlite, mongo")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if port > 0 {
		cfg.API.Port = port
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for background discovery jobs",
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "API port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, a.orch, a.store, a.metrics, logger)
	if err := server.Start(); err != nil {
		a.close()
		return fmt.Errorf("start API: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()
	logger.Info("received signal, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("API shutdown incomplete", "error", err)
	}
	a.metrics.LogSummary()
	return a.close()
}

// discoverCmd creates the "discover" subcommand, the blocking quick variant.
func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [outlet]",
		Short: "Discover journalists for an outlet and wait for the result",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDiscover,
	}
	cmd.Flags().IntVarP(&maxAuthors, "max-authors", "n", 0, "maximum authors (capped by jobs.quick_max_authors)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)
	outlet := strings.Join(args, " ")

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	res, err := a.orch.RunQuick(ctx, outlet, maxAuthors)
	if err != nil {
		return fmt.Errorf("discover %q: %w", outlet, err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "\n✅ Discovery complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "   Website:  %s (%s)\n", res.Site.BaseURL, res.Site.Method)
	fmt.Fprintf(out, "   Authors:  %d found, %d saved\n\n", res.AuthorsFound, res.AuthorsSaved)
	for _, p := range res.Profiles {
		fmt.Fprintf(out, "   • %s (%s)\n", p.Name, p.Role)
		fmt.Fprintf(out, "     %s\n", p.ProfileURL)
		fmt.Fprintf(out, "     articles: %d  influence: %d  topics: %s\n",
			p.TotalArticles, p.InfluenceScore, strings.Join(p.Topics, ", "))
	}
	return nil
}

// resolveCmd creates the "resolve" subcommand.
func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [outlet]",
		Short: "Find an outlet's website",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext()
			defer stop()

			site, err := a.resolver.Resolve(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\n", site.BaseURL, site.Method, site.Provider, site.Score)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "AtenFlux %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetcher:\n")
			fmt.Fprintf(out, "  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Fprintf(out, "  Probe Timeout:     %s\n", cfg.Fetcher.ProbeTimeout)
			fmt.Fprintf(out, "  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Fprintf(out, "\nSearch:\n")
			fmt.Fprintf(out, "  Providers:         %s\n", strings.Join(cfg.Search.Providers, ", "))
			fmt.Fprintf(out, "  Max Calls:         %d\n", cfg.Search.MaxCalls)
			fmt.Fprintf(out, "\nDiscovery:\n")
			fmt.Fprintf(out, "  Max Articles:      %d\n", cfg.Discovery.MaxArticles)
			fmt.Fprintf(out, "  Buffer Factor:     %.1f\n", cfg.Discovery.BufferFactor)
			fmt.Fprintf(out, "  Directory Paths:   %d configured\n", len(cfg.Discovery.DirectoryPaths))
			fmt.Fprintf(out, "\nJobs:\n")
			fmt.Fprintf(out, "  Store:             %s\n", cfg.Jobs.Store)
			fmt.Fprintf(out, "  Batch Size:        %d\n", cfg.Jobs.BatchSize)
			fmt.Fprintf(out, "  Batch Delay:       %s\n", cfg.Jobs.BatchDelay)
			fmt.Fprintf(out, "  Retention:         %s\n", cfg.Jobs.Retention)
			fmt.Fprintf(out, "  Max Authors:       %d (quick %d)\n", cfg.Jobs.MaxAuthors, cfg.Jobs.QuickMaxAuthors)
			fmt.Fprintf(out, "\nStorage:\n")
			fmt.Fprintf(out, "  Type:              %s\n", cfg.Storage.Type)
			fmt.Fprintf(out, "  Database:          %s\n", cfg.Storage.Database)
			fmt.Fprintf(out, "\nAPI:\n")
			fmt.Fprintf(out, "  Port:              %d\n", cfg.API.Port)
			fmt.Fprintf(out, "  Metrics:           %v (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(lc config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if lc.Output == "stdout" {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
