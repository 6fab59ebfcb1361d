// Package services – Rewards
//
// Rewards is the single gateway for point grants, badge evaluation, and
// streak accounting. Every mutating service routes its point deltas through
// Award so that the ledger row, the materialized balance, the derived level,
// and the denormalized activity counters always move together inside the
// caller's transaction.
//
// Badge evaluation runs after every non-achievement grant. Achievement
// bonuses (badge and streak payouts) are tagged KindAchievement and do not
// re-trigger evaluation, which bounds the badge cascade to a single pass.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/config"
	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"
)

// Rewards applies point, badge, and streak side effects. Methods take the
// caller's transaction handle so reward state commits or rolls back with the
// triggering mutation.
type Rewards struct {
	Cfg config.Gamification
}

// Award credits (or debits) points to userID inside tx: it appends one ledger
// row, moves the materialized balance, refreshes the derived level, bumps the
// activity counter matching kind, and re-evaluates badges unless the grant is
// itself an achievement bonus. A zero delta is a no-op.
func (r Rewards) Award(ctx context.Context, tx *gorm.DB, userID string, points int, kind domain.TransactionKind, description string) (*domain.PointTransaction, error) {
	if points == 0 {
		return nil, nil
	}

	t, err := repo.CreatePointTransaction(ctx, tx, userID, points, kind, description)
	if err != nil {
		return nil, err
	}

	u, err := repo.AddUserPoints(ctx, tx, userID, points)
	if err != nil {
		return nil, err
	}
	if level := domain.LevelForPoints(u.Points); level != u.Level {
		if err := repo.SetUserLevel(ctx, tx, userID, level); err != nil {
			return nil, err
		}
		u.Level = level
	}

	switch kind {
	case domain.KindContribution:
		err = repo.IncUserCounter(ctx, tx, userID, "contributions_count", 1)
	case domain.KindVerification:
		err = repo.IncUserCounter(ctx, tx, userID, "verifications_count", 1)
	}
	if err != nil {
		return nil, err
	}

	if points > 0 {
		pointsAwarded.WithLabelValues(string(kind)).Add(float64(points))
	}

	if kind != domain.KindAchievement {
		if _, err := r.EvaluateBadges(ctx, tx, userID); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AwardOnce is Award guarded by the reward-grant ledger: the grant keyed by
// (entryID, userID, kind, fingerprint) is issued at most once ever. Reports
// whether this call issued it.
func (r Rewards) AwardOnce(ctx context.Context, tx *gorm.DB, entryID, userID string, points int, kind domain.TransactionKind, fingerprint, description string) (bool, error) {
	claimed, err := repo.InsertRewardGrant(ctx, tx, entryID, userID, kind, fingerprint)
	if err != nil || !claimed {
		return false, err
	}
	if _, err := r.Award(ctx, tx, userID, points, kind, description); err != nil {
		return false, err
	}
	return true, nil
}

// EvaluateBadges grants every badge the user now qualifies for but does not
// hold, paying the achievement bonus for each. Grants are one-time and
// irreversible; a later drop below a threshold never revokes one. Returns the
// names of newly earned badges.
func (r Rewards) EvaluateBadges(ctx context.Context, tx *gorm.DB, userID string) ([]string, error) {
	u, err := repo.GetUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	candidates, err := repo.ListBadgesNotHeld(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var earned []string
	for i := range candidates {
		b := candidates[i]
		ok, err := r.badgeEarned(ctx, tx, u, &b)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		created, err := repo.CreateUserBadge(ctx, tx, userID, b.ID)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}
		badgesEarned.Inc()
		if _, err := r.Award(ctx, tx, userID, b.BonusPoints(), domain.KindAchievement, "Achievement unlocked: "+b.Name); err != nil {
			return nil, err
		}
		earned = append(earned, b.Name)
	}
	return earned, nil
}

// badgeEarned checks one badge against the user's current stats. Threshold
// dimensions are checked in a fixed order; special badges fall through to a
// named predicate.
func (r Rewards) badgeEarned(ctx context.Context, tx *gorm.DB, u *domain.User, b *domain.Badge) (bool, error) {
	switch {
	case b.PointsRequired > 0:
		return u.Points >= b.PointsRequired, nil
	case b.ContributionsRequired > 0:
		return u.ContributionsCount >= b.ContributionsRequired, nil
	case b.VerificationsRequired > 0:
		return u.VerificationsCount >= b.VerificationsRequired, nil
	case b.Kind == domain.BadgeKindSpecial:
		return r.specialEarned(ctx, tx, u, b)
	}
	return false, nil
}

func (r Rewards) specialEarned(ctx context.Context, tx *gorm.DB, u *domain.User, b *domain.Badge) (bool, error) {
	switch strings.ToLower(b.Name) {
	case "first steps":
		return u.ContributionsCount >= 1, nil
	case "helpful verifier":
		return u.VerificationsCount >= 10, nil
	case "community hero":
		return u.ContributionsCount >= 5 && u.VerificationsCount >= 20, nil
	case "streak master":
		s, err := repo.GetStreak(ctx, tx, u.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return s.LongestStreak >= 30, nil
	case "early adopter":
		return !u.JoinedAt.After(r.Cfg.EarlyAdopterCutoff), nil
	case "popular contributor":
		n, err := repo.CountPopularEntries(ctx, tx, u.ID, 10)
		if err != nil {
			return false, err
		}
		return n >= 3, nil
	}
	return false, nil
}

// TouchStreak records one qualifying contribution day for userID. A second
// qualifying action on the same day leaves the streak untouched. Every Nth
// consecutive day (N = StreakBonusEvery) pays an achievement bonus of twice
// the current streak length. An accepted daily challenge is completed by the
// first qualifying action of its day.
func (r Rewards) TouchStreak(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*domain.UserStreak, error) {
	s, err := repo.GetOrCreateStreak(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if s.Touch(now) {
		if err := repo.SaveStreak(ctx, tx, s); err != nil {
			return nil, err
		}
		if r.Cfg.StreakBonusEvery > 0 && s.CurrentStreak%r.Cfg.StreakBonusEvery == 0 {
			desc := fmt.Sprintf("%d-day contribution streak bonus", s.CurrentStreak)
			if _, err := r.Award(ctx, tx, userID, s.CurrentStreak*2, domain.KindAchievement, desc); err != nil {
				return nil, err
			}
		}
	}

	if err := r.completeChallenge(ctx, tx, s, now); err != nil {
		return nil, err
	}
	return s, nil
}

// completeChallenge marks the accepted challenge done when the qualifying
// action falls on the challenge day and it has not been completed yet.
func (r Rewards) completeChallenge(ctx context.Context, tx *gorm.DB, s *domain.UserStreak, now time.Time) error {
	if s.AcceptedChallengeID == nil || s.AcceptedChallengeAt == nil {
		return nil
	}
	if s.CompletedChallengeID != nil && *s.CompletedChallengeID == *s.AcceptedChallengeID {
		return nil
	}
	c, err := repo.GetChallenge(ctx, tx, *s.AcceptedChallengeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}
	if !sameDay(c.ChallengeDate, now) {
		return nil
	}

	done := time.Now().UTC()
	s.CompletedChallengeID = s.AcceptedChallengeID
	s.CompletedChallengeAt = &done
	if err := repo.SaveStreak(ctx, tx, s); err != nil {
		return err
	}
	_, err = r.Award(ctx, tx, s.UserID, c.PointsReward, domain.KindDailyBonus, "Completed daily challenge: "+c.Title)
	return err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
