package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kozaktomas/face-attendance/internal/catalog"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/debounce"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/spf13/cobra"
)

// loadConfig reads the environment, applies global flag overrides and installs
// the configured logger as the slog default.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.Load()
	stringOverride(cmd, "log-level", &cfg.Log.Level)
	stringOverride(cmd, "log-format", &cfg.Log.Format)
	stringOverride(cmd, "catalog-source", &cfg.Catalog.Source)
	stringOverride(cmd, "ledger", &cfg.Ledger.Path)
	stringOverride(cmd, "ledger-backend", &cfg.Ledger.Backend)
	stringOverride(cmd, "metric", &cfg.Match.Metric)
	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		cfg.Match.Threshold = mustGetFloat64(cmd, "threshold")
	}
	if f := cmd.Flags().Lookup("detection-delay"); f != nil && f.Changed {
		cfg.Match.DetectionDelay = mustGetDuration(cmd, "detection-delay")
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newExtractor(cfg *config.Config) *fingerprint.EmbeddingClient {
	return fingerprint.NewEmbeddingClient(cfg.Embedding.URL, fingerprint.WithMaxImageSize(cfg.Embedding.MaxImageSize))
}

// openCatalogSource returns the named catalog source and a function releasing
// its resources.
func openCatalogSource(ctx context.Context, cfg *config.Config, source string) (catalog.Source, func(), error) {
	switch source {
	case "", "dir":
		return &catalog.DirSource{Dir: cfg.Catalog.KnownFacesDir, Extractor: newExtractor(cfg)}, func() {}, nil
	case "manifest":
		return &catalog.ManifestSource{Path: cfg.Catalog.File}, func() {}, nil
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewIdentityRepository(pool), func() { pool.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q (want dir, manifest or postgres)", source)
	}
}

// loadCatalog loads the configured catalog. Any failure here must stop startup.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	src, release, err := openCatalogSource(ctx, cfg, cfg.Catalog.Source)
	if err != nil {
		return nil, &catalog.LoadError{Source: cfg.Catalog.Source, Err: err}
	}
	defer release()
	return catalog.Load(ctx, src, logger)
}

func openLedger(cfg *config.Config) (ledger.Ledger, error) {
	loc, err := cfg.Ledger.Location()
	if err != nil {
		return nil, err
	}
	return ledger.Open(ledger.Backend(cfg.Ledger.Backend), cfg.Ledger.Path, ledger.WithLocation(loc))
}

func newMatcher(cfg *config.Config) (*facematch.Matcher, error) {
	metric, err := facematch.ParseMetric(cfg.Match.Metric)
	if err != nil {
		return nil, err
	}
	return facematch.NewMatcher(metric, cfg.Match.Threshold)
}

// pipeline is a fully wired recognition cycle with the resources it owns.
type pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Catalog
	ledger  ledger.Ledger
	cycle   *recognition.Cycle
}

// buildPipeline loads catalog and ledger and wires the recognition cycle.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...recognition.Option) (*pipeline, error) {
	matcher, err := newMatcher(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", "source", cfg.Catalog.Source, "identities", cat.Len(), "dim", cat.Dim())

	l, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]recognition.Option{recognition.WithLogger(logger)}, opts...)
	cycle, err := recognition.NewCycle(cat, matcher, debounce.NewGate(cfg.Match.DetectionDelay), l, opts...)
	if err != nil {
		l.Close()
		return nil, err
	}

	return &pipeline{cfg: cfg, logger: logger, catalog: cat, ledger: l, cycle: cycle}, nil
}

func (p *pipeline) Close() error {
	return p.ledger.Close()
}
