// Repository functions for user streaks and daily challenges.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// GetOrCreateStreak fetches the streak row for a user, creating a zeroed one
// on first contact.
func GetOrCreateStreak(ctx context.Context, db *gorm.DB, userID string) (*domain.UserStreak, error) {
	var s domain.UserStreak
	err := db.WithContext(ctx).
		Where(domain.UserStreak{UserID: userID}).
		FirstOrCreate(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveStreak persists the full streak row.
func SaveStreak(ctx context.Context, db *gorm.DB, s *domain.UserStreak) error {
	return db.WithContext(ctx).Save(s).Error
}

// GetStreak fetches a streak row without creating it, or ErrNotFound.
func GetStreak(ctx context.Context, db *gorm.DB, userID string) (*domain.UserStreak, error) {
	var s domain.UserStreak
	if err := db.WithContext(ctx).First(&s, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetChallenge fetches a daily challenge by ID, or ErrNotFound.
func GetChallenge(ctx context.Context, db *gorm.DB, id string) (*domain.DailyChallenge, error) {
	var c domain.DailyChallenge
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateChallenge returns the challenge for the given day, creating a
// default one when none exists. The date is normalized to midnight UTC.
func GetOrCreateChallenge(ctx context.Context, db *gorm.DB, day time.Time) (*domain.DailyChallenge, error) {
	y, m, d := day.UTC().Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var c domain.DailyChallenge
	err := db.WithContext(ctx).
		Where(domain.DailyChallenge{ChallengeDate: date}).
		Attrs(domain.DailyChallenge{
			ID:           uuid.NewString(),
			Title:        "Daily Challenge - " + date.Format("January 2, 2006"),
			Description:  "Contribute a new word or verify an existing entry today!",
			PointsReward: 10,
			TargetCount:  1,
			Active:       true,
		}).
		FirstOrCreate(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
