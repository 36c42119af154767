package repositories

import (
	"context"
	"sync"
	"time"

	"accounthub/internal/models"
)

// MemoryVerificationRepository is a map-backed VerificationRepository.
// It mirrors the postgres semantics (expired rows invisible to FindLive,
// identity preserved across saves) and backs the service tests plus
// local runs without a database.
type MemoryVerificationRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]models.VerificationRecord
}

func NewMemoryVerificationRepository() *MemoryVerificationRepository {
	return &MemoryVerificationRepository{nextID: 1, rows: map[string]models.VerificationRecord{}}
}

func recordKey(item models.VerificationItem, key string) string {
	return string(item) + "|" + key
}

func (r *MemoryVerificationRepository) FindLive(ctx context.Context, item models.VerificationItem, key string) (*models.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rows[recordKey(item, key)]
	if !ok {
		return nil, nil
	}
	if rec.Expired(time.Now()) {
		// lazy sweep, same visibility as the SQL expired_at filter
		delete(r.rows, recordKey(item, key))
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (r *MemoryVerificationRepository) Save(ctx context.Context, rec models.VerificationRecord) (models.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if rec.ID == 0 {
		rec.ID = r.nextID
		r.nextID++
		rec.CreatedAt = now
	}
	rec.ModifiedAt = now
	r.rows[recordKey(rec.Item, rec.Key)] = rec
	return rec, nil
}

func (r *MemoryVerificationRepository) Delete(ctx context.Context, rec models.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := recordKey(rec.Item, rec.Key)
	if cur, ok := r.rows[k]; ok && cur.ID == rec.ID {
		delete(r.rows, k)
	}
	return nil
}
