package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfman30/medic-pro/internal/clinic"
)

type postgresDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps records in the clinic_records table. The document
// column is TEXT so the stored bytes are exactly what Encode produced.
type PostgresStore struct {
	db postgresDB
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("store: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db postgresDB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, key string) (*clinic.Record, error) {
	var doc string
	err := s.db.QueryRow(ctx, `SELECT document FROM clinic_records WHERE record_key = $1`, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: postgres load: %w", err)
	}
	return Decode([]byte(doc))
}

func (s *PostgresStore) Save(ctx context.Context, key string, rec *clinic.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO clinic_records (record_key, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (record_key) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("store: postgres save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM clinic_records WHERE record_key = $1`, key); err != nil {
		return fmt.Errorf("store: postgres clear: %w", err)
	}
	return nil
}
