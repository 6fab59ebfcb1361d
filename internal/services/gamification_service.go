// Package services – GamificationService
//
// Read-side gamification surface: leaderboard, badge catalog, per-user stats,
// the point-transaction ledger, and the daily-challenge accept flow.
// Challenge completion happens inside TouchStreak when a qualifying action
// lands on the challenge day.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/config"
	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"
)

// GamificationService exposes gamification reads and the challenge flow.
type GamificationService struct {
	DB      *gorm.DB
	Cfg     config.Gamification
	Rewards Rewards
}

// NewGamificationService constructs a GamificationService.
func NewGamificationService(db *gorm.DB, cfg config.Gamification) *GamificationService {
	return &GamificationService{DB: db, Cfg: cfg, Rewards: Rewards{Cfg: cfg}}
}

// UserStats is the aggregate profile card for one user.
type UserStats struct {
	User          *domain.User       `json:"user"`
	LevelInfo     domain.LevelInfo   `json:"level_info"`
	CurrentStreak int                `json:"current_streak"`
	LongestStreak int                `json:"longest_streak"`
	EntriesCount  int64              `json:"entries_count"`
	Badges        []domain.UserBadge `json:"badges"`
}

// Leaderboard returns the top users by points.
func (s *GamificationService) Leaderboard(ctx context.Context, limit int) ([]repo.LeaderboardRow, error) {
	return repo.Leaderboard(ctx, s.DB, limit)
}

// Badges returns the full badge catalog.
func (s *GamificationService) Badges(ctx context.Context) ([]domain.Badge, error) {
	return repo.ListBadges(ctx, s.DB)
}

// Stats assembles the profile card for userID.
func (s *GamificationService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	out := &UserStats{
		User:      u,
		LevelInfo: domain.LevelInfoForPoints(u.Points),
	}
	if streak, err := repo.GetStreak(ctx, s.DB, userID); err == nil {
		out.CurrentStreak = streak.CurrentStreak
		out.LongestStreak = streak.LongestStreak
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if out.EntriesCount, err = repo.CountEntriesByContributor(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	if out.Badges, err = repo.ListUserBadges(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// Transactions returns one page of a user's point ledger plus the total.
func (s *GamificationService) Transactions(ctx context.Context, userID string, page, perPage int) ([]domain.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	total, err := repo.CountTransactions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListTransactionsPage(ctx, s.DB, userID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// TodayChallenge returns (creating on demand) the challenge for today.
func (s *GamificationService) TodayChallenge(ctx context.Context) (*domain.DailyChallenge, error) {
	return repo.GetOrCreateChallenge(ctx, s.DB, time.Now().UTC())
}

// AcceptChallenge opts userID into today's challenge. Accepting twice is a
// no-op; completion is detected by the next qualifying contribution or
// verification of the day.
func (s *GamificationService) AcceptChallenge(ctx context.Context, userID string) (*domain.DailyChallenge, error) {
	var challenge *domain.DailyChallenge
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.EnsureUser(ctx, tx, userID); err != nil {
			return err
		}
		c, err := repo.GetOrCreateChallenge(ctx, tx, time.Now().UTC())
		if err != nil {
			return err
		}
		challenge = c

		streak, err := repo.GetOrCreateStreak(ctx, tx, userID)
		if err != nil {
			return err
		}
		if streak.AcceptedChallengeID != nil && *streak.AcceptedChallengeID == c.ID {
			return nil
		}
		now := time.Now().UTC()
		streak.AcceptedChallengeID = &c.ID
		streak.AcceptedChallengeAt = &now
		return repo.SaveStreak(ctx, tx, streak)
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}
