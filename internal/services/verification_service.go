// Package services – VerificationService
//
// This file implements VerificationService, which owns the community review
// ledger and the entry state machine it drives. Each verifier holds one
// judgment per entry (upsert semantics); the entry's accurate count is
// recomputed from the ledger on every submission, and threshold crossings
// promote a pending entry to verified or reject it, exactly once.
//
// Reward issuance rides the same transaction and is made idempotent by the
// reward-grant ledger: resubmitting or flip-flopping a judgment can never
// double-pay a participant.
//
// After a verify transition commits, the entry is handed to the embedding
// collaborator best-effort on a background goroutine; embedding failures are
// logged and never affect the review outcome.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rs/zerolog/log"

	"github.com/kolokwaconnect/kolokwa-backend/internal/config"
	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/embedding"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Fingerprints used with the reward-grant ledger. The verify-transition
// contributor payout uses a fixed fingerprint so it is issued once per entry;
// the contributor's per-review credit embeds the verifier so each reviewer
// pays out once.
const (
	fpVerified = "verified"
	fpAccurate = "accurate:"
)

// VerificationService applies community judgments and the resulting state
// transitions and rewards.
type VerificationService struct {
	DB      *gorm.DB
	Cfg     config.Gamification
	Rewards Rewards

	// Embedder vectorizes entries after the verify transition. Optional.
	Embedder     embedding.Provider
	EmbedTimeout time.Duration
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(db *gorm.DB, cfg config.Gamification, emb embedding.Provider) *VerificationService {
	if emb == nil {
		emb = embedding.Noop{}
	}
	return &VerificationService{
		DB:           db,
		Cfg:          cfg,
		Rewards:      Rewards{Cfg: cfg},
		Embedder:     emb,
		EmbedTimeout: 15 * time.Second,
	}
}

// VerifyResult describes the outcome of one verification submission.
type VerifyResult struct {
	Verification  *domain.Verification `json:"verification"`
	Entry         *domain.Entry        `json:"entry"`
	Created       bool                 `json:"created"`        // false when an earlier judgment was overwritten
	StatusChanged bool                 `json:"status_changed"` // a threshold transition fired
	Message       string               `json:"message"`
}

// Submit records verifierID's judgment of entryID. Contributors cannot
// verify their own entries. The judgment upserts into the ledger, the
// accurate count is recomputed, and if the entry is still pending a
// threshold crossing promotes or rejects it. Verified and rejected are
// sticky: late judgments are recorded but never move the status again.
func (s *VerificationService) Submit(ctx context.Context, entryID, verifierID, classification, comment string) (*VerifyResult, error) {
	tr := otel.Tracer("services/VerificationService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("entry.id", entryID),
			attribute.String("user.id", verifierID),
			attribute.String("verification.classification", classification),
		),
	)
	defer span.End()

	if !domain.ValidClassification(classification) {
		return nil, ErrInvalidClassification
	}
	comment = strings.TrimSpace(comment)

	var result VerifyResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := repo.GetEntry(ctx, tx, entryID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if entry.ContributorID != nil && *entry.ContributorID == verifierID {
			return ErrSelfVerification
		}
		if _, err := repo.EnsureUser(ctx, tx, verifierID); err != nil {
			return err
		}

		v, created, err := repo.UpsertVerification(ctx, tx, entryID, verifierID, classification, comment)
		if err != nil {
			return err
		}
		result.Verification = v
		result.Created = created

		accurate, err := repo.CountVerifications(ctx, tx, entryID, domain.ClassificationAccurate)
		if err != nil {
			return err
		}
		if err := repo.SetVerificationCount(ctx, tx, entryID, int(accurate)); err != nil {
			return err
		}
		entry.VerificationCount = int(accurate)

		switch classification {
		case domain.ClassificationAccurate:
			err = s.applyAccurate(ctx, tx, entry, verifierID, int(accurate), &result)
		case domain.ClassificationIncorrect:
			err = s.applyIncorrect(ctx, tx, entry, verifierID, &result)
		default:
			err = s.applyNeedsRevision(ctx, tx, entry, verifierID, &result)
		}
		if err != nil {
			return err
		}

		if _, err := s.Rewards.TouchStreak(ctx, tx, verifierID, time.Now().UTC()); err != nil {
			return err
		}

		result.Entry, err = repo.GetEntry(ctx, tx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	verificationsSubmitted.WithLabelValues(classification).Inc()
	if result.StatusChanged && result.Entry.Status == domain.StatusVerified {
		s.scheduleEmbedding(result.Entry)
	}
	return &result, nil
}

// applyAccurate credits the verifier and contributor for an accurate
// judgment and fires the verify transition when the threshold is reached on
// a pending entry. The verifier who tips the threshold earns the transition
// bonus instead of the base credit.
func (s *VerificationService) applyAccurate(ctx context.Context, tx *gorm.DB, entry *domain.Entry, verifierID string, accurate int, result *VerifyResult) error {
	promote := entry.Status == domain.StatusPending && accurate >= s.Cfg.VerifyThreshold

	verifierPts := s.Cfg.AccuratePoints
	if promote {
		verifierPts = s.Cfg.VerifyPoints
	}
	if _, err := s.Rewards.AwardOnce(ctx, tx, entry.ID, verifierID, verifierPts,
		domain.KindVerification, domain.ClassificationAccurate,
		"Verified '"+entry.Headword+"' as accurate"); err != nil {
		return err
	}

	if entry.ContributorID != nil {
		if _, err := repo.EnsureUser(ctx, tx, *entry.ContributorID); err != nil {
			return err
		}
		if promote {
			if _, err := s.Rewards.AwardOnce(ctx, tx, entry.ID, *entry.ContributorID,
				s.Cfg.ContributionVerifiedPoints, domain.KindContributionVerified, fpVerified,
				"Your entry '"+entry.Headword+"' was verified by the community"); err != nil {
				return err
			}
		} else {
			if _, err := s.Rewards.AwardOnce(ctx, tx, entry.ID, *entry.ContributorID,
				s.Cfg.VerificationReceivedPoints, domain.KindVerificationReceived, fpAccurate+verifierID,
				"'"+entry.Headword+"' received an accurate verification"); err != nil {
				return err
			}
		}
	}

	if promote {
		if err := s.transition(ctx, tx, entry, domain.StatusVerified); err != nil {
			return err
		}
		// A verified entry counts as a contribution day for its author.
		if entry.ContributorID != nil {
			if _, err := s.Rewards.TouchStreak(ctx, tx, *entry.ContributorID, time.Now().UTC()); err != nil {
				return err
			}
		}
		result.StatusChanged = true
		result.Message = "Entry verified by the community"
		entriesVerified.Inc()
		return nil
	}
	result.Message = verifyMessage(entry, result.Created)
	return nil
}

// applyIncorrect credits the verifier for the review and fires the reject
// transition when the incorrect count reaches the threshold on a pending
// entry.
func (s *VerificationService) applyIncorrect(ctx context.Context, tx *gorm.DB, entry *domain.Entry, verifierID string, result *VerifyResult) error {
	if _, err := s.Rewards.AwardOnce(ctx, tx, entry.ID, verifierID, s.Cfg.ReviewPoints,
		domain.KindVerification, domain.ClassificationIncorrect,
		"Flagged '"+entry.Headword+"' as incorrect"); err != nil {
		return err
	}

	incorrect, err := repo.CountVerifications(ctx, tx, entry.ID, domain.ClassificationIncorrect)
	if err != nil {
		return err
	}
	if entry.Status == domain.StatusPending && int(incorrect) >= s.Cfg.RejectThreshold {
		if err := s.transition(ctx, tx, entry, domain.StatusRejected); err != nil {
			return err
		}
		result.StatusChanged = true
		result.Message = "Entry rejected by the community"
		entriesRejected.Inc()
		return nil
	}
	result.Message = verifyMessage(entry, result.Created)
	return nil
}

// applyNeedsRevision credits the verifier for the review. The judgment is
// recorded for the contributor to act on but never moves the entry status.
func (s *VerificationService) applyNeedsRevision(ctx context.Context, tx *gorm.DB, entry *domain.Entry, verifierID string, result *VerifyResult) error {
	if _, err := s.Rewards.AwardOnce(ctx, tx, entry.ID, verifierID, s.Cfg.ReviewPoints,
		domain.KindVerification, domain.ClassificationNeedsRevision,
		"Flagged '"+entry.Headword+"' for revision"); err != nil {
		return err
	}
	result.Message = verifyMessage(entry, result.Created)
	return nil
}

// transition moves the entry into a terminal status. VerifiedAt is written
// exactly once, at the first transition into verified.
func (s *VerificationService) transition(ctx context.Context, tx *gorm.DB, entry *domain.Entry, status string) error {
	fields := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if status == domain.StatusVerified && entry.VerifiedAt == nil {
		fields["verified_at"] = time.Now().UTC()
	}
	return repo.UpdateEntryFields(ctx, tx, entry.ID, fields)
}

// verifyMessage picks the acknowledgment for a non-transition submission.
func verifyMessage(entry *domain.Entry, created bool) string {
	switch {
	case entry.Terminal():
		return "Entry already " + entry.Status + "; your review was recorded"
	case created:
		return "Verification recorded"
	default:
		return "Verification updated"
	}
}

// ListForEntry returns the full review ledger for an entry, newest first.
func (s *VerificationService) ListForEntry(ctx context.Context, entryID string) ([]domain.Verification, error) {
	if _, err := repo.GetEntry(ctx, s.DB, entryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return repo.ListVerificationsForEntry(ctx, s.DB, entryID)
}

// scheduleEmbedding vectorizes a freshly verified entry on a background
// goroutine. Best-effort: failures are logged and dropped.
func (s *VerificationService) scheduleEmbedding(e *domain.Entry) {
	if s.Embedder == nil || !s.Embedder.Available() {
		return
	}
	entry := *e
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.EmbedTimeout)
		defer cancel()

		vec, err := s.Embedder.Embed(ctx, embedText(&entry))
		if err != nil {
			log.Warn().Err(err).Str("entry_id", entry.ID).Msg("embedding failed")
			return
		}
		if err := repo.UpdateEntryEmbedding(ctx, s.DB, entry.ID, embedding.EncodeVector(vec)); err != nil {
			log.Warn().Err(err).Str("entry_id", entry.ID).Msg("storing embedding failed")
		}
	}()
}

// embedText builds the text handed to the embedding collaborator.
func embedText(e *domain.Entry) string {
	parts := []string{e.Headword, e.Translation}
	if e.ExampleKolokwa != "" {
		parts = append(parts, e.ExampleKolokwa)
	}
	if e.ExampleEnglish != "" {
		parts = append(parts, e.ExampleEnglish)
	}
	return strings.Join(parts, "\n")
}
