// Repository functions for badges and badge grants. Badges are immutable
// reference data seeded at startup.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// ListBadges returns the full badge catalog ordered by points requirement.
func ListBadges(ctx context.Context, db *gorm.DB) ([]domain.Badge, error) {
	var out []domain.Badge
	err := db.WithContext(ctx).Order("points_required asc, name asc").Find(&out).Error
	return out, err
}

// ListBadgesNotHeld returns badges the user has not yet earned.
func ListBadgesNotHeld(ctx context.Context, db *gorm.DB, userID string) ([]domain.Badge, error) {
	var out []domain.Badge
	sub := db.Model(&domain.UserBadge{}).Select("badge_id").Where("user_id = ?", userID)
	err := db.WithContext(ctx).
		Where("id NOT IN (?)", sub).
		Order("points_required asc, name asc").
		Find(&out).Error
	return out, err
}

// ListUserBadges returns all badges earned by a user, newest first, with the
// badge reference data preloaded.
func ListUserBadges(ctx context.Context, db *gorm.DB, userID string) ([]domain.UserBadge, error) {
	var out []domain.UserBadge
	err := db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at desc").
		Find(&out).Error
	return out, err
}

// CreateUserBadge records a one-time badge grant. It reports false without
// error when the (user, badge) pair already exists.
func CreateUserBadge(ctx context.Context, db *gorm.DB, userID, badgeID string) (bool, error) {
	ub := &domain.UserBadge{
		ID:       uuid.NewString(),
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(ub).Error; err != nil {
		if IsDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountPopularEntries counts a contributor's entries with at least minUpvotes
// upvotes; drives the "popular contributor" special badge.
func CountPopularEntries(ctx context.Context, db *gorm.DB, userID string, minUpvotes int) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Entry{}).
		Where("contributor_id = ? AND upvotes >= ?", userID, minUpvotes).
		Count(&n).Error
	return n, err
}

// SeedBadges inserts the standard badge catalog, skipping names that already
// exist. Safe to run on every startup.
func SeedBadges(ctx context.Context, db *gorm.DB) error {
	seed := []domain.Badge{
		{Name: "First Steps", Description: "Contributed your first word to the dictionary", Kind: domain.BadgeKindSpecial},
		{Name: "Word Smith", Description: "Contributed 10 words to the dictionary", Kind: domain.BadgeKindContribution, ContributionsRequired: 10},
		{Name: "Dictionary Builder", Description: "Contributed 50 words to the dictionary", Kind: domain.BadgeKindContribution, ContributionsRequired: 50},
		{Name: "Helpful Verifier", Description: "Verified 10 dictionary entries", Kind: domain.BadgeKindSpecial},
		{Name: "Trusted Reviewer", Description: "Verified 25 dictionary entries", Kind: domain.BadgeKindVerification, VerificationsRequired: 25},
		{Name: "Point Collector", Description: "Earned 100 points", Kind: domain.BadgeKindContribution, PointsRequired: 100},
		{Name: "Rising Star", Description: "Earned 500 points", Kind: domain.BadgeKindContribution, PointsRequired: 500},
		{Name: "Community Hero", Description: "Made significant contributions to the community", Kind: domain.BadgeKindSpecial},
		{Name: "Streak Master", Description: "Maintained a 30-day contribution streak", Kind: domain.BadgeKindSpecial},
		{Name: "Early Adopter", Description: "Joined during the community launch", Kind: domain.BadgeKindSpecial},
		{Name: "Popular Contributor", Description: "Authored 3 entries with 10 or more upvotes", Kind: domain.BadgeKindSpecial},
	}
	for i := range seed {
		b := seed[i]
		b.ID = uuid.NewString()
		b.CreatedAt = time.Now().UTC()
		err := db.WithContext(ctx).
			Where(domain.Badge{Name: b.Name}).
			Attrs(b).
			FirstOrCreate(&domain.Badge{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
