package catalog

import (
	"context"
	"log/slog"
)

// Entry is one candidate identity produced by a Source. An entry with an
// empty embedding or a non-nil Err is skipped with a warning.
type Entry struct {
	Label     string
	Embedding []float32
	Origin    string
	Err       error
}

// Source yields catalog entries. Entries returns an error only when the source
// as a whole is unreadable.
type Source interface {
	Name() string
	Entries(ctx context.Context) ([]Entry, error)
}

// Load reads every entry from src and builds a Catalog. Entries without an
// extractable embedding are logged and skipped; an unreadable source, a duplicate
// label or mixed dimensions yield a *LoadError.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := src.Entries(ctx)
	if err != nil {
		return nil, &LoadError{Source: src.Name(), Err: err}
	}

	c := &Catalog{byKey: make(map[string]int, len(entries))}
	skipped := 0
	for _, e := range entries {
		if e.Err != nil {
			logger.Warn("skipping catalog entry", "label", e.Label, "origin", e.Origin, "error", e.Err)
			skipped++
			continue
		}
		if len(e.Embedding) == 0 {
			logger.Warn("no face embedding found, skipping catalog entry", "label", e.Label, "origin", e.Origin)
			skipped++
			continue
		}
		if err := c.add(Identity{Label: e.Label, Embedding: e.Embedding, Origin: e.Origin}); err != nil {
			return nil, &LoadError{Source: src.Name(), Err: err}
		}
	}

	if c.Len() == 0 {
		logger.Warn("catalog is empty, no probe will ever match", "source", src.Name(), "skipped", skipped)
	} else {
		logger.Info("catalog loaded", "source", src.Name(), "identities", c.Len(), "dim", c.Dim(), "skipped", skipped)
	}
	return c, nil
}
