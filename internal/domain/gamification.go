// Gamification ledgers: point transactions, reward grants (idempotency),
// badges, streaks, and daily challenges.
package domain

import (
	"time"
)

// TransactionKind is the closed set of causes for a point grant or deduction.
// Each mutating operation tags its transactions with a fixed kind; the kind
// decides which denormalized user counter moves and whether badge evaluation
// re-runs (KindAchievement is the recursion-stopping sentinel).
type TransactionKind string

const (
	KindContribution         TransactionKind = "contribution"
	KindVerification         TransactionKind = "verification"
	KindVote                 TransactionKind = "vote"
	KindVoteReceived         TransactionKind = "vote_received"
	KindVoteChanged          TransactionKind = "vote_changed"
	KindVoteRemoved          TransactionKind = "vote_removed"
	KindDailyBonus           TransactionKind = "daily_bonus"
	KindAchievement          TransactionKind = "achievement"
	KindPenalty              TransactionKind = "penalty"
	KindContributionVerified TransactionKind = "contribution_verified"
	KindVerificationReceived TransactionKind = "verification_received"
)

// Valid reports whether k is a recognized transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindContribution, KindVerification, KindVote, KindVoteReceived,
		KindVoteChanged, KindVoteRemoved, KindDailyBonus, KindAchievement,
		KindPenalty, KindContributionVerified, KindVerificationReceived:
		return true
	}
	return false
}

// PointTransaction is an immutable ledger row recording one signed point
// delta for one user. The sum of a user's transactions always equals the
// materialized points balance on the User row.
type PointTransaction struct {
	ID          string          `json:"id"     gorm:"type:char(36);primaryKey"`
	UserID      string          `json:"user_id" gorm:"type:varchar(64);not null;index:idx_point_txns_user"`
	Points      int             `json:"points" gorm:"not null"`
	Kind        TransactionKind `json:"kind"   gorm:"type:varchar(32);not null;index"`
	Description string          `json:"description" gorm:"type:varchar(255)"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index:idx_point_txns_user,priority:2"`
}

// TableName returns the database table name for PointTransaction.
func (PointTransaction) TableName() string { return "point_transactions" }

// RewardGrant is the idempotency ledger for one-time rewards tied to a
// specific entry event. The unique key (entry, user, kind, fingerprint)
// makes reward issuance provably safe under retries and verification
// resubmissions: the first insert wins, later attempts are no-ops.
type RewardGrant struct {
	ID          string          `gorm:"type:char(36);primaryKey"`
	EntryID     string          `gorm:"type:char(36);not null;uniqueIndex:ux_reward_grants_key,priority:1"`
	UserID      string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_reward_grants_key,priority:2"`
	Kind        TransactionKind `gorm:"type:varchar(32);not null;uniqueIndex:ux_reward_grants_key,priority:3"`
	Fingerprint string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_reward_grants_key,priority:4"`
	CreatedAt   time.Time
}

// TableName returns the database table name for RewardGrant.
func (RewardGrant) TableName() string { return "reward_grants" }

// Badge kinds.
const (
	BadgeKindContribution = "contribution"
	BadgeKindVerification = "verification"
	BadgeKindStreak       = "streak"
	BadgeKindSpecial      = "special"
)

// Badge is immutable reference data describing an achievement and its
// threshold requirements. A zero threshold means the dimension does not
// apply; "special" badges use a custom predicate instead.
type Badge struct {
	ID                    string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name                  string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Description           string    `json:"description" gorm:"type:text"`
	Kind                  string    `json:"kind" gorm:"type:varchar(20);not null;check:kind IN ('contribution','verification','streak','special')"`
	PointsRequired        int       `json:"points_required"        gorm:"not null;default:0"`
	ContributionsRequired int       `json:"contributions_required" gorm:"not null;default:0"`
	VerificationsRequired int       `json:"verifications_required" gorm:"not null;default:0"`
	CreatedAt             time.Time `json:"created_at"`
}

// TableName returns the database table name for Badge.
func (Badge) TableName() string { return "badges" }

// BonusPoints is the achievement bonus paid when this badge is granted:
// a tenth of the points requirement, floored at 5.
func (b *Badge) BonusPoints() int {
	if bonus := b.PointsRequired / 10; bonus > 5 {
		return bonus
	}
	return 5
}

// UserBadge records a one-time, irreversible badge grant.
type UserBadge struct {
	ID       string    `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID   string    `json:"user_id"  gorm:"type:varchar(64);not null;index;uniqueIndex:ux_user_badges"`
	BadgeID  string    `json:"badge_id" gorm:"type:char(36);not null;uniqueIndex:ux_user_badges"`
	EarnedAt time.Time `json:"earned_at"`

	Badge Badge `json:"badge" gorm:"foreignKey:BadgeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserBadge.
func (UserBadge) TableName() string { return "user_badges" }

// UserStreak tracks consecutive days with at least one qualifying
// contribution per user. Dates are compared at day granularity in UTC.
type UserStreak struct {
	UserID               string     `json:"user_id" gorm:"type:varchar(64);primaryKey"`
	CurrentStreak        int        `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak        int        `json:"longest_streak" gorm:"not null;default:0"`
	LastContributionDate *time.Time `json:"last_contribution_date,omitempty"`

	// Loosely coupled daily-challenge pointers.
	AcceptedChallengeID   *string    `json:"accepted_challenge_id,omitempty" gorm:"type:char(36)"`
	AcceptedChallengeAt   *time.Time `json:"accepted_challenge_at,omitempty"`
	CompletedChallengeID  *string    `json:"completed_challenge_id,omitempty" gorm:"type:char(36)"`
	CompletedChallengeAt  *time.Time `json:"completed_challenge_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserStreak.
func (UserStreak) TableName() string { return "user_streaks" }

// Touch advances the streak for a contribution made at now. It reports
// whether the day counted: a second contribution on the same day is a no-op.
// A gap of exactly one day extends the streak, anything longer resets it
// to 1. LongestStreak and LastContributionDate are always brought current.
func (s *UserStreak) Touch(now time.Time) bool {
	today := truncateToDay(now)

	if s.LastContributionDate != nil {
		switch days := int(today.Sub(truncateToDay(*s.LastContributionDate)).Hours() / 24); {
		case days <= 0:
			return false
		case days == 1:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	} else {
		s.CurrentStreak = 1
	}

	s.LastContributionDate = &today
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	return true
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyChallenge is a lightweight daily goal users can accept and complete
// for a bonus. One challenge exists per calendar day.
type DailyChallenge struct {
	ID            string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Title         string    `json:"title" gorm:"type:varchar(200);not null"`
	Description   string    `json:"description" gorm:"type:text"`
	PointsReward  int       `json:"points_reward" gorm:"not null;default:10"`
	TargetCount   int       `json:"target_count"  gorm:"not null;default:1"`
	ChallengeDate time.Time `json:"challenge_date" gorm:"not null;uniqueIndex"`
	Active        bool      `json:"active" gorm:"not null;default:true"`
}

// TableName returns the database table name for DailyChallenge.
func (DailyChallenge) TableName() string { return "daily_challenges" }
