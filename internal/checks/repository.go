package checks

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("checks: record not found")

// Repository is the persistence contract for phone check records.
//
// It MUST be append-only and assign ids atomically.
// No Update/Delete methods are provided.
type Repository interface {
	// Append stores r and returns it with its assigned ID. r.ID is ignored.
	Append(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	// FindFirstByNumber returns the oldest record for a dialable number.
	FindFirstByNumber(ctx context.Context, phoneNumber string) (Record, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
