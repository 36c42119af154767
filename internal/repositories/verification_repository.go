package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"accounthub/internal/models"
)

// VerificationRepository persists verification records, at most one live
// record per (item, key). Expiry is enforced here, not in the services:
// lookups filter on expired_at so an expired row is indistinguishable
// from a missing one (a periodic sweep reclaims the dead rows).
//
// There is no compare-and-swap; concurrent saves are last-write-wins.
type VerificationRepository interface {
	FindLive(ctx context.Context, item models.VerificationItem, key string) (*models.VerificationRecord, error)
	Save(ctx context.Context, rec models.VerificationRecord) (models.VerificationRecord, error)
	Delete(ctx context.Context, rec models.VerificationRecord) error
}

type verificationRepository struct {
	DB *sql.DB
}

func NewVerificationRepository(db *sql.DB) VerificationRepository {
	return &verificationRepository{DB: db}
}

// FindLive returns nil without error when no live record exists; absence
// (including expiry) is a normal result, not a failure.
func (r *verificationRepository) FindLive(ctx context.Context, item models.VerificationItem, key string) (*models.VerificationRecord, error) {
	const q = `
		SELECT id, item, key, code, is_verified, retry_count, expired_at, created_at, modified_at
		FROM verification_records
		WHERE item = $1 AND key = $2 AND expired_at > NOW()
	`
	var rec models.VerificationRecord
	err := r.DB.QueryRowContext(ctx, q, item, key).Scan(
		&rec.ID, &rec.Item, &rec.Key, &rec.Code,
		&rec.IsVerified, &rec.RetryCount,
		&rec.ExpiredAt, &rec.CreatedAt, &rec.ModifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verification find live: %w", err)
	}
	return &rec, nil
}

// Save upserts: identity is assigned on first insert and preserved on
// every later update of the same logical verification.
func (r *verificationRepository) Save(ctx context.Context, rec models.VerificationRecord) (models.VerificationRecord, error) {
	if rec.ID == 0 {
		const q = `
			INSERT INTO verification_records (item, key, code, is_verified, retry_count, expired_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, modified_at
		`
		err := r.DB.QueryRowContext(ctx, q,
			rec.Item, rec.Key, rec.Code, rec.IsVerified, rec.RetryCount, rec.ExpiredAt,
		).Scan(&rec.ID, &rec.CreatedAt, &rec.ModifiedAt)
		if err != nil {
			return rec, fmt.Errorf("verification insert: %w", err)
		}
		return rec, nil
	}

	const q = `
		UPDATE verification_records
		SET code = $2, is_verified = $3, retry_count = $4, expired_at = $5, modified_at = NOW()
		WHERE id = $1
		RETURNING modified_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		rec.ID, rec.Code, rec.IsVerified, rec.RetryCount, rec.ExpiredAt,
	).Scan(&rec.ModifiedAt)
	if err != nil {
		return rec, fmt.Errorf("verification update: %w", err)
	}
	return rec, nil
}

// Delete removes the record by identity; deleting a record that is
// already gone is a no-op.
func (r *verificationRepository) Delete(ctx context.Context, rec models.VerificationRecord) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM verification_records WHERE id = $1`, rec.ID); err != nil {
		return fmt.Errorf("verification delete: %w", err)
	}
	return nil
}
