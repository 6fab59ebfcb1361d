// Aggregated read models: leaderboard and drift detection counts used by
// reconciliation.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// LeaderboardRow is one ranked user on the community leaderboard.
type LeaderboardRow struct {
	Rank               int    `json:"rank"`
	UserID             string `json:"user_id"`
	Username           string `json:"username"`
	Points             int    `json:"points"`
	Level              string `json:"level"`
	ContributionsCount int    `json:"contributions_count"`
	BadgesCount        int    `json:"badges_count"`
}

// Leaderboard returns the top users by points with their badge counts.
func Leaderboard(ctx context.Context, db *gorm.DB, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []LeaderboardRow
	err := db.WithContext(ctx).Model(&domain.User{}).
		Select(`users.id as user_id, users.username, users.points, users.level, users.contributions_count,
			(SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = users.id) as badges_count`).
		Order("users.points desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// CountEntriesByContributor counts non-deleted entries authored by userID.
func CountEntriesByContributor(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Entry{}).
		Where("contributor_id = ?", userID).
		Count(&n).Error
	return n, err
}

// ListEntryIDs returns every non-deleted entry ID; used by reconciliation
// counter sweeps.
func ListEntryIDs(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&domain.Entry{}).Pluck("id", &ids).Error
	return ids, err
}

// ListVerifiedEntries returns all entries in verified status; used by the
// reward backfill pass of reconciliation.
func ListVerifiedEntries(ctx context.Context, db *gorm.DB) ([]domain.Entry, error) {
	var out []domain.Entry
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusVerified).
		Find(&out).Error
	return out, err
}
