package services

import (
	"context"
	"fmt"
	"time"

	"accounthub/internal/models"
	"accounthub/internal/repositories"
	"accounthub/internal/utils"
)

// Retry and expiry policy defaults; overridable from config.
const (
	DefaultMaxRetry          = 4 // the 5th failed attempt is rejected outright
	DefaultVerifiedExtension = time.Hour
)

// VerificationLifecycle owns the record state machine:
//
//	UNVERIFIED(r) --match--> VERIFIED
//	UNVERIFIED(r) --mismatch--> UNVERIFIED(r+1)
//	* --regenerate--> UNVERIFIED(0), fresh code, same identity
//
// Expiry is not a transition here; the store makes expired records
// invisible. The retry-ceiling rejection is the facade's precondition so
// CheckCode stays a pure comparison.
type VerificationLifecycle struct {
	repo              repositories.VerificationRepository
	codes             *utils.CodeGenerator
	maxRetry          int
	verifiedExtension time.Duration
}

func NewVerificationLifecycle(repo repositories.VerificationRepository, codes *utils.CodeGenerator, maxRetry int, verifiedExtension time.Duration) *VerificationLifecycle {
	if maxRetry <= 0 {
		maxRetry = DefaultMaxRetry
	}
	if verifiedExtension <= 0 {
		verifiedExtension = DefaultVerifiedExtension
	}
	return &VerificationLifecycle{
		repo:              repo,
		codes:             codes,
		maxRetry:          maxRetry,
		verifiedExtension: verifiedExtension,
	}
}

func (l *VerificationLifecycle) MaxRetry() int { return l.maxRetry }

// CreateOrRegenerate issues a code for (item, key). An existing live
// record is regenerated in place, keeping its identity; otherwise a new
// record starts at UNVERIFIED(0). The result is always persisted.
func (l *VerificationLifecycle) CreateOrRegenerate(ctx context.Context, item models.VerificationItem, key string, ttl time.Duration) (models.VerificationRecord, error) {
	code, err := l.codes.Generate()
	if err != nil {
		return models.VerificationRecord{}, fmt.Errorf("generate code: %w", err)
	}

	existing, err := l.repo.FindLive(ctx, item, key)
	if err != nil {
		return models.VerificationRecord{}, err
	}

	now := time.Now()
	var rec models.VerificationRecord
	if existing != nil {
		rec = existing.Regenerated(code, ttl, now)
	} else {
		rec = models.VerificationRecord{
			Item:      item,
			Key:       key,
			Code:      code,
			ExpiredAt: now.Add(ttl),
		}
	}
	return l.repo.Save(ctx, rec)
}

// Load is a thin passthrough to the store's live lookup: nil means no
// live record, which is a normal outcome.
func (l *VerificationLifecycle) Load(ctx context.Context, item models.VerificationItem, key string) (*models.VerificationRecord, error) {
	return l.repo.FindLive(ctx, item, key)
}

// CheckCode is the pure comparison step. It does not persist and does
// not enforce the retry ceiling; callers reject exhausted records before
// invoking it and save the returned copy afterwards.
func (l *VerificationLifecycle) CheckCode(rec models.VerificationRecord, suppliedCode string) models.VerificationRecord {
	if suppliedCode == rec.Code {
		return rec.Matched(l.verifiedExtension, time.Now())
	}
	return rec.Missed()
}

// Save persists a transitioned record.
func (l *VerificationLifecycle) Save(ctx context.Context, rec models.VerificationRecord) (models.VerificationRecord, error) {
	return l.repo.Save(ctx, rec)
}

// IsVerified reports whether a live, verified record exists. A missing
// record is false, not an error.
func (l *VerificationLifecycle) IsVerified(ctx context.Context, item models.VerificationItem, key string) (bool, error) {
	rec, err := l.repo.FindLive(ctx, item, key)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.IsVerified, nil
}

// Delete removes the record for (item, key); deleting an absent record
// is a no-op.
func (l *VerificationLifecycle) Delete(ctx context.Context, item models.VerificationItem, key string) error {
	rec, err := l.repo.FindLive(ctx, item, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	return l.repo.Delete(ctx, *rec)
}
