package cache

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is the subset of *pgxpool.Pool (or *pgx.Conn) the store uses.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultTable is the artifact table used unless WithTable is given.
const DefaultTable = "jsondecode_artifacts"

// PostgresOption configures the Postgres store.
type PostgresOption func(*Postgres)

// WithTable sets the artifact table name.
func WithTable(name string) PostgresOption {
	return func(p *Postgres) { p.table = name }
}

// Postgres keeps artifacts in a key/artifact table. Every write is a single
// upsert statement, so readers see the old or the new row, never a mix.
type Postgres struct {
	db    PgxConn
	table string
}

// NewPostgres creates a Postgres-backed store. Call EnsureTable once before
// first use unless the table is managed by migrations.
func NewPostgres(db PgxConn, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Postgres) ident() string { return pgx.Identifier{p.table}.Sanitize() }

// EnsureTable creates the artifact table if it does not exist.
func (p *Postgres) EnsureTable(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+p.ident()+` (
		key        TEXT PRIMARY KEY,
		artifact   BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

// Exists reports whether a row exists for key.
func (p *Postgres) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+p.ident()+` WHERE key = $1)`, key).Scan(&ok)
	return ok, err
}

// Read returns the artifact stored for key.
func (p *Postgres) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRow(ctx, `SELECT artifact FROM `+p.ident()+` WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteAtomic upserts the artifact row.
func (p *Postgres) WriteAtomic(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := p.db.Exec(ctx, `INSERT INTO `+p.ident()+` (key, artifact) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET artifact = EXCLUDED.artifact, updated_at = now()`, key, data)
	return err
}

var _ Store = (*Postgres)(nil)
