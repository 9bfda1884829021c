// Package catalog holds the known reference embeddings that probes are matched against.
// A Catalog is built once by Load and is read-only afterwards; reloading means
// building a new Catalog.
package catalog

// Identity is a labeled reference embedding.
type Identity struct {
	Label     string
	Embedding []float32
	Origin    string // where the embedding came from (file path, manifest entry, row id)
}

// Catalog is an ordered set of identities. Insertion order is load order and
// is what the matcher uses to break distance ties.
type Catalog struct {
	identities []Identity
	dim        int
	byKey      map[string]int
}

// New builds a catalog from already-validated identities. Most callers want Load.
func New(identities []Identity) (*Catalog, error) {
	c := &Catalog{
		identities: make([]Identity, 0, len(identities)),
		byKey:      make(map[string]int, len(identities)),
	}
	for _, id := range identities {
		if err := c.add(id); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(id Identity) error {
	key := NormalizeLabel(id.Label)
	if prev, ok := c.byKey[key]; ok {
		return &duplicateError{label: id.Label, previous: c.identities[prev].Label}
	}
	if c.dim == 0 {
		c.dim = len(id.Embedding)
	} else if len(id.Embedding) != c.dim {
		return &dimensionError{label: id.Label, got: len(id.Embedding), want: c.dim}
	}
	c.byKey[key] = len(c.identities)
	c.identities = append(c.identities, id)
	return nil
}

// Len returns the number of identities.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.identities)
}

// Dim returns the embedding dimensionality, or 0 for an empty catalog.
func (c *Catalog) Dim() int {
	if c == nil {
		return 0
	}
	return c.dim
}

// At returns the i-th identity in load order. The embedding slice is shared
// and must not be modified.
func (c *Catalog) At(i int) Identity {
	return c.identities[i]
}

// Lookup finds an identity by label, ignoring case, diacritics and dashes.
func (c *Catalog) Lookup(label string) (Identity, bool) {
	if c == nil {
		return Identity{}, false
	}
	i, ok := c.byKey[NormalizeLabel(label)]
	if !ok {
		return Identity{}, false
	}
	return c.identities[i], true
}

// Labels returns all labels in load order.
func (c *Catalog) Labels() []string {
	if c == nil {
		return nil
	}
	labels := make([]string, len(c.identities))
	for i, id := range c.identities {
		labels[i] = id.Label
	}
	return labels
}
