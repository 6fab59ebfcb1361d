// Repository functions for the point-transaction ledger and the reward-grant
// idempotency ledger.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// CreatePointTransaction appends one immutable ledger row.
func CreatePointTransaction(ctx context.Context, db *gorm.DB, userID string, points int, kind domain.TransactionKind, description string) (*domain.PointTransaction, error) {
	t := &domain.PointTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Points:      points,
		Kind:        kind,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// SumPoints returns the ledger-truth points balance for a user.
func SumPoints(ctx context.Context, db *gorm.DB, userID string) (int, error) {
	var sum *int
	err := db.WithContext(ctx).Model(&domain.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(points)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// CountTransactions returns the number of ledger rows for a user.
func CountTransactions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.PointTransaction{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// ListTransactionsPage returns one page of a user's ledger, newest first.
func ListTransactionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.PointTransaction, error) {
	var out []domain.PointTransaction
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

// InsertRewardGrant claims the one-time reward identified by the
// (entry, user, kind, fingerprint) key. It reports false without error when
// the grant was already claimed, making reward issuance idempotent under
// retries and resubmissions.
func InsertRewardGrant(ctx context.Context, db *gorm.DB, entryID, userID string, kind domain.TransactionKind, fingerprint string) (bool, error) {
	g := &domain.RewardGrant{
		ID:          uuid.NewString(),
		EntryID:     entryID,
		UserID:      userID,
		Kind:        kind,
		Fingerprint: fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		if IsDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	// SQLite: "UNIQUE constraint failed"
	// Postgres: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
