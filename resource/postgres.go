package resource

import (
	"context"
	stdErrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Counter and Claimable on a Postgres pool. The counter
// is an ordinary row the caller reads and rewrites, so it exhibits lost
// updates without external locking; claims rely on the primary key for
// exclusivity. Transaction isolation is the database's concern, not ours.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres returns a new Postgres resource using the provided pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// InitSchema creates the backing tables if they do not exist.
func (r *Postgres) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS locklab_counters (
			id    TEXT PRIMARY KEY,
			value BIGINT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS locklab_claims (
			id       TEXT PRIMARY KEY,
			claimant TEXT NOT NULL
		);
	`)
	return err
}

// ReadState implements Counter.ReadState.
func (r *Postgres) ReadState(ctx context.Context, id string) (int64, error) {
	var value int64
	err := r.db.QueryRow(ctx, `SELECT value FROM locklab_counters WHERE id = $1`, id).Scan(&value)
	if stdErrors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return value, nil
}

// WriteState implements Counter.WriteState.
func (r *Postgres) WriteState(ctx context.Context, id string, value int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO locklab_counters (id, value) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value
	`, id, value)
	return err
}

// TryClaim implements Claimable.TryClaim.
func (r *Postgres) TryClaim(ctx context.Context, id, claimant string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO locklab_claims (id, claimant) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, claimant)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimantOf implements Claimable.ClaimantOf.
func (r *Postgres) ClaimantOf(ctx context.Context, id string) (string, bool, error) {
	var claimant string
	err := r.db.QueryRow(ctx, `SELECT claimant FROM locklab_claims WHERE id = $1`, id).Scan(&claimant)
	if stdErrors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return claimant, true, nil
}
