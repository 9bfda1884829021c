package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/google/renameio"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML catalog format:
//
//	identities:
//	  - label: Alice
//	    embedding: [0.12, -0.03, ...]
type Manifest struct {
	Identities []ManifestIdentity `yaml:"identities"`
}

// ManifestIdentity is one manifest entry.
type ManifestIdentity struct {
	Label     string    `yaml:"label"`
	Embedding []float32 `yaml:"embedding"`
}

// ManifestSource reads identities from a YAML manifest file.
type ManifestSource struct {
	Path string
}

// Name implements Source.
func (s *ManifestSource) Name() string {
	return s.Path
}

// Entries implements Source.
func (s *ManifestSource) Entries(_ context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	entries := make([]Entry, 0, len(m.Identities))
	for i, id := range m.Identities {
		entry := Entry{
			Label:     id.Label,
			Embedding: id.Embedding,
			Origin:    fmt.Sprintf("%s#%d", s.Path, i),
		}
		if id.Label == "" {
			entry.Err = fmt.Errorf("entry %d has no label", i)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WriteManifest writes identities to path in manifest format.
func WriteManifest(path string, c *Catalog) error {
	m := Manifest{Identities: make([]ManifestIdentity, 0, c.Len())}
	for i := 0; i < c.Len(); i++ {
		id := c.At(i)
		m.Identities = append(m.Identities, ManifestIdentity{Label: id.Label, Embedding: id.Embedding})
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
