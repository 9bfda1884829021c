package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/catalog"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository stores enrolled identities. It is a catalog.Source whose
// insertion order is the row id.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Name implements catalog.Source.
func (r *IdentityRepository) Name() string {
	return "postgres:identities"
}

// Entries implements catalog.Source.
func (r *IdentityRepository) Entries(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT label, embedding, origin
		FROM identities
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		var vec pgvector.Vector
		if err := rows.Scan(&e.Label, &vec, &e.Origin); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		e.Embedding = vec.Slice()
		if e.Origin == "" {
			e.Origin = r.Name()
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return entries, nil
}

// Save inserts an identity, or replaces the embedding of an existing one with
// the same normalized label. Replacing keeps the original row id and so the
// identity's position in the catalog.
func (r *IdentityRepository) Save(ctx context.Context, id catalog.Identity) error {
	if len(id.Embedding) == 0 {
		return fmt.Errorf("identity %q has no embedding", id.Label)
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO identities (label, label_key, embedding, origin)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (label_key) DO UPDATE SET
			label = EXCLUDED.label,
			embedding = EXCLUDED.embedding,
			origin = EXCLUDED.origin
	`, id.Label, catalog.NormalizeLabel(id.Label), pgvector.NewVector(id.Embedding), id.Origin)
	if err != nil {
		return fmt.Errorf("save identity %q: %w", id.Label, err)
	}
	return nil
}

// SaveCatalog stores every identity of c in catalog order within one transaction.
func (r *IdentityRepository) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO identities (label, label_key, embedding, origin)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (label_key) DO UPDATE SET
			label = EXCLUDED.label,
			embedding = EXCLUDED.embedding,
			origin = EXCLUDED.origin
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < c.Len(); i++ {
		id := c.At(i)
		if _, err := stmt.ExecContext(ctx, id.Label, catalog.NormalizeLabel(id.Label), pgvector.NewVector(id.Embedding), id.Origin); err != nil {
			return fmt.Errorf("save identity %q: %w", id.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes an identity by label. It reports whether a row was removed.
func (r *IdentityRepository) Delete(ctx context.Context, label string) (bool, error) {
	res, err := r.pool.db.ExecContext(ctx, "DELETE FROM identities WHERE label_key = $1", catalog.NormalizeLabel(label))
	if err != nil {
		return false, fmt.Errorf("delete identity %q: %w", label, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of stored identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&n); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}
