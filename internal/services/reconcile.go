// Package services – reconciliation
//
// Reconcile rebuilds every derived value from ledger truth: entry vote and
// verification counters, missed threshold transitions, user points, levels
// and activity counters, and one-time rewards that an interrupted write may
// have skipped. It is safe to run at any time; all repairs are idempotent.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rs/zerolog/log"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"

	"go.opentelemetry.io/otel"
)

// ReconcileReport summarizes the repairs made by one reconciliation run.
type ReconcileReport struct {
	EntriesChecked    int      `json:"entries_checked"`
	EntriesRepaired   int      `json:"entries_repaired"`
	EntriesPromoted   int      `json:"entries_promoted"`
	EntriesRejected   int      `json:"entries_rejected"`
	RewardsBackfilled int      `json:"rewards_backfilled"`
	UsersChecked      int      `json:"users_checked"`
	UsersRepaired     int      `json:"users_repaired"`
	BadgesAwarded     []string `json:"badges_awarded,omitempty"`
}

// Reconcile sweeps entries and users, repairing drift between the ledgers
// and the materialized state. The whole sweep runs in one transaction.
func (s *GamificationService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	tr := otel.Tracer("services/GamificationService")
	ctx, span := tr.Start(ctx, "Reconcile")
	defer span.End()

	report := &ReconcileReport{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reconcileEntries(ctx, tx, report); err != nil {
			return err
		}
		if err := s.backfillRewards(ctx, tx, report); err != nil {
			return err
		}
		if err := s.reconcileUsers(ctx, tx, report); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("entries_checked", report.EntriesChecked).
		Int("entries_repaired", report.EntriesRepaired).
		Int("entries_promoted", report.EntriesPromoted).
		Int("entries_rejected", report.EntriesRejected).
		Int("rewards_backfilled", report.RewardsBackfilled).
		Int("users_repaired", report.UsersRepaired).
		Int("badges_awarded", len(report.BadgesAwarded)).
		Msg("reconciliation complete")
	return report, nil
}

// reconcileEntries recounts each entry's vote and verification counters from
// the ledgers and applies any threshold transition a crash may have dropped.
func (s *GamificationService) reconcileEntries(ctx context.Context, tx *gorm.DB, report *ReconcileReport) error {
	ids, err := repo.ListEntryIDs(ctx, tx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		report.EntriesChecked++

		entry, err := repo.GetEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		up, err := repo.CountVotes(ctx, tx, id, 1)
		if err != nil {
			return err
		}
		down, err := repo.CountVotes(ctx, tx, id, -1)
		if err != nil {
			return err
		}
		accurate, err := repo.CountVerifications(ctx, tx, id, domain.ClassificationAccurate)
		if err != nil {
			return err
		}
		incorrect, err := repo.CountVerifications(ctx, tx, id, domain.ClassificationIncorrect)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if entry.Upvotes != int(up) {
			fields["upvotes"] = int(up)
		}
		if entry.Downvotes != int(down) {
			fields["downvotes"] = int(down)
		}
		if entry.VerificationCount != int(accurate) {
			fields["verification_count"] = int(accurate)
		}

		if entry.Status == domain.StatusPending {
			switch {
			case int(accurate) >= s.Cfg.VerifyThreshold:
				fields["status"] = domain.StatusVerified
				if entry.VerifiedAt == nil {
					fields["verified_at"] = time.Now().UTC()
				}
				report.EntriesPromoted++
			case int(incorrect) >= s.Cfg.RejectThreshold:
				fields["status"] = domain.StatusRejected
				report.EntriesRejected++
			}
		}

		if len(fields) > 0 {
			fields["updated_at"] = time.Now().UTC()
			if err := repo.UpdateEntryFields(ctx, tx, id, fields); err != nil {
				return err
			}
			report.EntriesRepaired++
		}
	}
	return nil
}

// backfillRewards re-issues the one-time rewards attached to verified
// entries. The reward-grant ledger skips everything already paid, so only
// genuinely missed grants produce transactions.
func (s *GamificationService) backfillRewards(ctx context.Context, tx *gorm.DB, report *ReconcileReport) error {
	entries, err := repo.ListVerifiedEntries(ctx, tx)
	if err != nil {
		return err
	}
	for i := range entries {
		e := entries[i]

		if e.ContributorID != nil {
			if _, err := repo.EnsureUser(ctx, tx, *e.ContributorID); err != nil {
				return err
			}
			issued, err := s.Rewards.AwardOnce(ctx, tx, e.ID, *e.ContributorID,
				s.Cfg.ContributionVerifiedPoints, domain.KindContributionVerified, fpVerified,
				"Your entry '"+e.Headword+"' was verified by the community")
			if err != nil {
				return err
			}
			if issued {
				report.RewardsBackfilled++
			}
		}

		verifications, err := repo.ListVerificationsForEntry(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		for _, v := range verifications {
			if v.Classification != domain.ClassificationAccurate {
				continue
			}
			if _, err := repo.EnsureUser(ctx, tx, v.VerifierID); err != nil {
				return err
			}
			issued, err := s.Rewards.AwardOnce(ctx, tx, e.ID, v.VerifierID,
				s.Cfg.VerifyPoints, domain.KindVerification, domain.ClassificationAccurate,
				"Verified '"+e.Headword+"' as accurate")
			if err != nil {
				return err
			}
			if issued {
				report.RewardsBackfilled++
			}
		}
	}
	return nil
}

// reconcileUsers resyncs each user's materialized points, level, and activity
// counters with ledger truth, then re-evaluates badges against the repaired
// stats.
func (s *GamificationService) reconcileUsers(ctx context.Context, tx *gorm.DB, report *ReconcileReport) error {
	ids, err := repo.ListUserIDs(ctx, tx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		report.UsersChecked++

		u, err := repo.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		points, err := repo.SumPoints(ctx, tx, id)
		if err != nil {
			return err
		}
		contributions, err := repo.CountEntriesByContributor(ctx, tx, id)
		if err != nil {
			return err
		}
		verifications, err := repo.CountVerificationsByUser(ctx, tx, id)
		if err != nil {
			return err
		}
		level := domain.LevelForPoints(points)

		if u.Points != points || u.Level != level ||
			u.ContributionsCount != int(contributions) || u.VerificationsCount != int(verifications) {
			if err := repo.SetUserStats(ctx, tx, id, points, int(contributions), int(verifications), level); err != nil {
				return err
			}
			report.UsersRepaired++
		}

		earned, err := s.Rewards.EvaluateBadges(ctx, tx, id)
		if err != nil {
			return err
		}
		report.BadgesAwarded = append(report.BadgesAwarded, earned...)
	}
	return nil
}
