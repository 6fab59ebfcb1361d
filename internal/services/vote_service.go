// Package services – VoteService
//
// This file implements VoteService, which applies the single-vote-per-user
// rule for entries. Casting the same polarity twice removes the vote
// (toggle), casting the opposite polarity flips it, and the entry's
// denormalized counters move with the ledger inside one transaction.
//
// Point semantics: the voter earns a one-time participation point per entry
// (guarded by the reward-grant ledger so toggling cannot farm it), and the
// contributor's balance tracks the net polarity held against the entry: a
// fresh vote credits its polarity, a withdrawal reverses it, and a flip
// grants twice the new polarity to cancel the old grant and apply the new.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/config"
	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Vote actions reported to callers.
const (
	VoteActionCast    = "cast"
	VoteActionRemoved = "removed"
	VoteActionChanged = "changed"
)

// VoteService owns the vote ledger and its side effects.
type VoteService struct {
	DB      *gorm.DB
	Cfg     config.Gamification
	Rewards Rewards
}

// NewVoteService constructs a VoteService.
func NewVoteService(db *gorm.DB, cfg config.Gamification) *VoteService {
	return &VoteService{DB: db, Cfg: cfg, Rewards: Rewards{Cfg: cfg}}
}

// VoteResult describes the outcome of a vote action.
type VoteResult struct {
	Action string        `json:"action"` // cast | removed | changed
	Value  int           `json:"value"`  // polarity now in effect, 0 when removed
	Entry  *domain.Entry `json:"entry"`
}

// Cast applies one vote action by voterID on entryID. value must be +1 or -1.
// Re-casting the held polarity removes the vote; casting the opposite flips
// it. Counters, ledger, and points move atomically.
func (s *VoteService) Cast(ctx context.Context, entryID, voterID string, value int) (*VoteResult, error) {
	tr := otel.Tracer("services/VoteService")
	ctx, span := tr.Start(ctx, "Cast",
		trace.WithAttributes(
			attribute.String("entry.id", entryID),
			attribute.String("user.id", voterID),
			attribute.Int("vote.value", value),
		),
	)
	defer span.End()

	if value != 1 && value != -1 {
		return nil, ErrInvalidVote
	}

	var result VoteResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := repo.GetEntry(ctx, tx, entryID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if _, err := repo.EnsureUser(ctx, tx, voterID); err != nil {
			return err
		}

		existing, err := repo.GetVote(ctx, tx, entryID, voterID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			result.Action, result.Value = VoteActionCast, value
			err = s.castNew(ctx, tx, entry, voterID, value)
		case err != nil:
			return err
		case existing.Value == value:
			result.Action, result.Value = VoteActionRemoved, 0
			err = s.remove(ctx, tx, entry, voterID, existing)
		default:
			result.Action, result.Value = VoteActionChanged, value
			err = s.flip(ctx, tx, entry, voterID, existing, value)
		}
		if err != nil {
			return err
		}

		result.Entry, err = repo.GetEntry(ctx, tx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	votesCast.WithLabelValues(result.Action).Inc()
	return &result, nil
}

// castNew inserts a fresh vote: counters move, the voter claims the one-time
// participation point, and the contributor is credited the vote's polarity.
func (s *VoteService) castNew(ctx context.Context, tx *gorm.DB, entry *domain.Entry, voterID string, value int) error {
	if _, err := repo.CreateVote(ctx, tx, entry.ID, voterID, value); err != nil {
		return err
	}
	up, down := 0, 0
	if value == 1 {
		up = 1
	} else {
		down = 1
	}
	if err := repo.AdjustVoteCounters(ctx, tx, entry.ID, up, down); err != nil {
		return err
	}

	desc := "Voted on '" + entry.Headword + "'"
	if _, err := s.Rewards.AwardOnce(ctx, tx, entry.ID, voterID, s.Cfg.VotePoints, domain.KindVote, "participation", desc); err != nil {
		return err
	}
	received := "Received an upvote on '" + entry.Headword + "'"
	if value == -1 {
		received = "Received a downvote on '" + entry.Headword + "'"
	}
	return s.creditContributor(ctx, tx, entry, voterID, value, domain.KindVoteReceived, received)
}

// remove deletes the held vote (toggle-off) and reverses the contributor's
// grant for the original polarity; the voter's participation point stays.
func (s *VoteService) remove(ctx context.Context, tx *gorm.DB, entry *domain.Entry, voterID string, v *domain.Vote) error {
	if err := repo.DeleteVote(ctx, tx, v.ID); err != nil {
		return err
	}
	up, down := 0, 0
	desc := "Upvote withdrawn on '" + entry.Headword + "'"
	if v.Value == 1 {
		up = -1
	} else {
		down = -1
		desc = "Downvote withdrawn on '" + entry.Headword + "'"
	}
	if err := repo.AdjustVoteCounters(ctx, tx, entry.ID, up, down); err != nil {
		return err
	}
	return s.creditContributor(ctx, tx, entry, voterID, -v.Value, domain.KindVoteRemoved, desc)
}

// flip swaps the vote polarity in place. The contributor is granted twice the
// new polarity: one step cancels the original grant, the other applies the
// new one, so an upvote flipped to a downvote nets -1 against the baseline.
func (s *VoteService) flip(ctx context.Context, tx *gorm.DB, entry *domain.Entry, voterID string, v *domain.Vote, value int) error {
	if err := repo.UpdateVoteValue(ctx, tx, v.ID, value); err != nil {
		return err
	}
	up, down := 1, -1
	if value == -1 {
		up, down = -1, 1
	}
	if err := repo.AdjustVoteCounters(ctx, tx, entry.ID, up, down); err != nil {
		return err
	}

	desc := "Vote changed to upvote on '" + entry.Headword + "'"
	if value == -1 {
		desc = "Vote changed to downvote on '" + entry.Headword + "'"
	}
	return s.creditContributor(ctx, tx, entry, voterID, 2*value, domain.KindVoteChanged, desc)
}

// creditContributor adjusts the contributor's balance for a vote-state
// change. Self-votes and orphaned entries earn nothing.
func (s *VoteService) creditContributor(ctx context.Context, tx *gorm.DB, entry *domain.Entry, voterID string, delta int, kind domain.TransactionKind, desc string) error {
	if entry.ContributorID == nil || *entry.ContributorID == voterID {
		return nil
	}
	if _, err := repo.EnsureUser(ctx, tx, *entry.ContributorID); err != nil {
		return err
	}
	_, err := s.Rewards.Award(ctx, tx, *entry.ContributorID, delta, kind, desc)
	return err
}
