// Repository functions for the User aggregate and its denormalized
// gamification state.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// EnsureUser fetches the user row for id, creating it on first contact.
// Identity lives with the excluded auth component; this backend only needs
// a row to hang the gamification state on.
func EnsureUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where(domain.User{ID: id}).
		Attrs(domain.User{
			Username: id,
			Level:    domain.LevelBeginner,
			JoinedAt: time.Now().UTC(),
		}).
		FirstOrCreate(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// AddUserPoints atomically adjusts the materialized points balance and
// returns the fresh row.
func AddUserPoints(ctx context.Context, db *gorm.DB, id string, delta int) (*domain.User, error) {
	err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("points", gorm.Expr("points + ?", delta)).Error
	if err != nil {
		return nil, err
	}
	return GetUser(ctx, db, id)
}

// SetUserLevel persists the derived level.
func SetUserLevel(ctx context.Context, db *gorm.DB, id, level string) error {
	return db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("level", level).Error
}

// IncUserCounter bumps one of the denormalized activity counters
// ("contributions_count" or "verifications_count") by delta.
func IncUserCounter(ctx context.Context, db *gorm.DB, id, column string, delta int) error {
	return db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update(column, gorm.Expr(column+" + ?", delta)).Error
}

// SetUserStats overwrites the denormalized counters and points/level in one
// update; used by reconciliation.
func SetUserStats(ctx context.Context, db *gorm.DB, id string, points, contributions, verifications int, level string) error {
	return db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"points":              points,
			"level":               level,
			"contributions_count": contributions,
			"verifications_count": verifications,
		}).Error
}

// ListUserIDs returns every user ID; used by reconciliation sweeps.
func ListUserIDs(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&domain.User{}).Pluck("id", &ids).Error
	return ids, err
}
