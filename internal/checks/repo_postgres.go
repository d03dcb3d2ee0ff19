package checks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"phone-availability/pkg/utils"
)

// PostgresRepo stores records in the phone_checks table.
// The id comes from a BIGSERIAL, so ordering by id is insertion order.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS phone_checks (
		id           BIGSERIAL PRIMARY KEY,
		phone_number TEXT NOT NULL,
		country_code TEXT NOT NULL,
		country_iso2 TEXT NOT NULL,
		carrier      TEXT,
		line_type    TEXT,
		is_available BOOLEAN,
		raw_response JSONB,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS phone_checks_phone_number_id_idx ON phone_checks (phone_number, id)`,
}

// EnsureSchema creates the table and index if they are missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("checks: ensure schema: %w", err)
			}
		}
		return nil
	})
}

const insertRecordSQL = `
INSERT INTO phone_checks (phone_number, country_code, country_iso2, carrier, line_type, is_available, raw_response, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
RETURNING id`

func (r *PostgresRepo) Append(ctx context.Context, rec Record) (Record, error) {
	var raw any
	if len(rec.RawResponse) > 0 {
		raw = string(rec.RawResponse)
	}

	err := r.db.QueryRowContext(ctx, insertRecordSQL,
		rec.PhoneNumber,
		rec.CountryCode,
		rec.CountryISO2,
		rec.Carrier,
		rec.LineType,
		rec.IsAvailable,
		raw,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("checks: insert record: %w", err)
	}
	return rec, nil
}

const selectRecordSQL = `
SELECT id, phone_number, country_code, country_iso2, carrier, line_type, is_available, raw_response, created_at
FROM phone_checks`

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Record, error) {
	row := r.db.QueryRowContext(ctx, selectRecordSQL+` WHERE id = $1`, id)
	return scanRecord(row)
}

func (r *PostgresRepo) FindFirstByNumber(ctx context.Context, phoneNumber string) (Record, error) {
	row := r.db.QueryRowContext(ctx, selectRecordSQL+` WHERE phone_number = $1 ORDER BY id LIMIT 1`, phoneNumber)
	return scanRecord(row)
}

const pingTimeout = 2 * time.Second

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return utils.HealthCheck(ctx, r.db, pingTimeout)
}

func scanRecord(row *sql.Row) (Record, error) {
	var (
		rec       Record
		carrier   sql.NullString
		lineType  sql.NullString
		available sql.NullBool
		raw       []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.PhoneNumber,
		&rec.CountryCode,
		&rec.CountryISO2,
		&carrier,
		&lineType,
		&available,
		&raw,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("checks: select record: %w", err)
	}

	rec.Carrier = carrier.String
	rec.LineType = lineType.String
	rec.IsAvailable = available.Bool
	if len(raw) > 0 {
		rec.RawResponse = raw
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
