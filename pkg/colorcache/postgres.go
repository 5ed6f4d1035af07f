package colorcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const createColorTable = `CREATE TABLE IF NOT EXISTS color_cache (
	seq       BIGSERIAL PRIMARY KEY,
	id        BIGINT   NOT NULL,
	attribute TEXT     NOT NULL,
	color     SMALLINT NOT NULL
)`

const createColorIndex = `CREATE INDEX IF NOT EXISTS color_cache_id_attr ON color_cache (id, attribute, seq DESC)`

// PostgresStore keeps an append-only table of color records. Reads take the
// row with the highest sequence number.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens dsn and creates the table when missing.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: empty dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an open database handle. The table must exist.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, stmt := range []string{createColorTable, createColorIndex} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate color_cache: %w", err)
		}
	}
	return nil
}

// Get returns the most recent color recorded for id under attribute.
func (s *PostgresStore) Get(ctx context.Context, id int64, attribute string) (int, bool, error) {
	var color int
	err := s.db.QueryRowContext(ctx,
		`SELECT color FROM color_cache WHERE id = $1 AND attribute = $2 ORDER BY seq DESC LIMIT 1`,
		id, attribute).Scan(&color)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return color, true, nil
}

// Append inserts a color record.
func (s *PostgresStore) Append(ctx context.Context, id int64, attribute string, color int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO color_cache (id, attribute, color) VALUES ($1, $2, $3)`,
		id, attribute, color)
	return err
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ensure PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
