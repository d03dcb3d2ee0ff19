package checks

import (
	"context"
	"sync"
)

// MemoryRepo is the default in-process repository. Ids start at 1.
// Records are lost on restart.
type MemoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	records  map[int64]Record
	byNumber map[string]int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID:   1,
		records:  map[int64]Record{},
		byNumber: map[string]int64{},
	}
}

func (r *MemoryRepo) Append(ctx context.Context, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = r.nextID
	r.nextID++
	r.records[rec.ID] = rec
	if _, ok := r.byNumber[rec.PhoneNumber]; !ok {
		r.byNumber[rec.PhoneNumber] = rec.ID
	}
	return rec, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) FindFirstByNumber(ctx context.Context, phoneNumber string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byNumber[phoneNumber]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r.records[id], nil
}

func (r *MemoryRepo) Ping(context.Context) error { return nil }

// Records returns all records ordered by id.
func (r *MemoryRepo) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.records))
	for id := int64(1); id < r.nextID; id++ {
		if rec, ok := r.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}
