package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fxlens/fx-engine/internal/model"
	"github.com/fxlens/fx-engine/internal/quarter"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Each bundle is one JSONB row keyed by base quarter; replacing a base
// quarter is a single-row upsert, so readers never observe a partially
// updated bundle.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveBundle(ctx context.Context, b *model.QuarterBundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle %s: %w", b.BaseQuarter, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO fx_quarter_bundles (base_quarter, revision_id, last_updated, bundle)
		 VALUES ($1, $2, $3, $4::JSONB)
		 ON CONFLICT (base_quarter)
		 DO UPDATE SET revision_id = $2, last_updated = $3, bundle = $4::JSONB`,
		string(b.BaseQuarter), b.RevisionID, b.LastUpdated, data,
	)
	if err != nil {
		return fmt.Errorf("save bundle %s: %w", b.BaseQuarter, err)
	}
	return nil
}

func (s *PostgresStore) GetBundle(ctx context.Context, base quarter.Label) (*model.QuarterBundle, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT bundle FROM fx_quarter_bundles WHERE base_quarter = $1`,
		string(base)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get bundle %s: %w", base, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bundle %s: %w", base, err)
	}

	var b model.QuarterBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshal bundle %s: %w", base, err)
	}
	return &b, nil
}

func (s *PostgresStore) ListQuarters(ctx context.Context) ([]quarter.Label, error) {
	// Labels sort chronologically as text by construction.
	rows, err := s.pool.Query(ctx,
		`SELECT base_quarter FROM fx_quarter_bundles ORDER BY base_quarter`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []quarter.Label
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, quarter.Label(l))
	}
	return labels, rows.Err()
}

func (s *PostgresStore) LatestQuarter(ctx context.Context) (quarter.Label, error) {
	var l string
	err := s.pool.QueryRow(ctx,
		`SELECT base_quarter FROM fx_quarter_bundles ORDER BY base_quarter DESC LIMIT 1`).Scan(&l)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return quarter.Label(l), nil
}
