// Package services – EntryService
//
// This file implements EntryService, which owns the dictionary entry
// lifecycle: submission with duplicate-headword conflict detection, listing
// and search, contributor edits, moderation flags, and soft deletion.
//
// Submission is the entry point into the reward pipeline: a successful
// submit credits contribution points and touches the contributor's daily
// streak, all inside one transaction.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// entry/user identifiers.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/config"
	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
)

// EntryService coordinates entry persistence and the submission-side rewards.
type EntryService struct {
	DB      *gorm.DB
	Cfg     config.Gamification
	Rewards Rewards

	// Optional guards
	MaxHeadwordRunes int
	MaxTextRunes     int
}

// NewEntryService constructs an EntryService with sane input guards.
func NewEntryService(db *gorm.DB, cfg config.Gamification) *EntryService {
	return &EntryService{
		DB:               db,
		Cfg:              cfg,
		Rewards:          Rewards{Cfg: cfg},
		MaxHeadwordRunes: 100,
		MaxTextRunes:     2000,
	}
}

// SubmitEntryInput carries the contributor-supplied fields of a new entry.
type SubmitEntryInput struct {
	Headword           string `json:"headword"`
	Translation        string `json:"translation"`
	LiteralTranslation string `json:"literal_translation"`
	Kind               string `json:"kind"`
	ContextNote        string `json:"context_note"`
	ExampleKolokwa     string `json:"example_kolokwa"`
	ExampleEnglish     string `json:"example_english"`
	CulturalNote       string `json:"cultural_note"`
	Pronunciation      string `json:"pronunciation"`
	Region             string `json:"region"`
	Tags               string `json:"tags"`
}

// UpdateEntryInput carries a contributor edit; nil fields are left unchanged.
type UpdateEntryInput struct {
	Headword           *string `json:"headword"`
	Translation        *string `json:"translation"`
	LiteralTranslation *string `json:"literal_translation"`
	Kind               *string `json:"kind"`
	ContextNote        *string `json:"context_note"`
	ExampleKolokwa     *string `json:"example_kolokwa"`
	ExampleEnglish     *string `json:"example_english"`
	CulturalNote       *string `json:"cultural_note"`
	Pronunciation      *string `json:"pronunciation"`
	Region             *string `json:"region"`
	Tags               *string `json:"tags"`
}

// foldHeadword produces the canonical comparison form of a headword:
// trimmed, inner whitespace collapsed, Unicode case-folded.
func foldHeadword(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// Submit validates and stores a new entry in pending status, rejecting
// duplicate headwords with a conflict error that names the blocking state.
// On success the contributor is credited contribution points and their
// streak advances.
func (s *EntryService) Submit(ctx context.Context, userID string, in SubmitEntryInput) (*domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	in.Headword = strings.TrimSpace(in.Headword)
	in.Translation = strings.TrimSpace(in.Translation)
	if in.Headword == "" {
		return nil, ErrEmptyHeadword
	}
	if in.Translation == "" {
		return nil, ErrEmptyTranslation
	}
	if s.MaxHeadwordRunes > 0 && utf8.RuneCountInString(in.Headword) > s.MaxHeadwordRunes {
		return nil, ErrTooLong
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(in.Translation) > s.MaxTextRunes {
		return nil, ErrTooLong
	}
	if in.Kind == "" {
		in.Kind = domain.KindWord
	}
	if !domain.ValidKind(in.Kind) {
		return nil, ErrInvalidKind
	}

	fold := foldHeadword(in.Headword)

	var entry *domain.Entry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.EnsureUser(ctx, tx, userID); err != nil {
			return err
		}

		if err := checkHeadwordConflict(ctx, tx, fold, userID); err != nil {
			return err
		}

		e := &domain.Entry{
			Headword:           in.Headword,
			HeadwordFold:       fold,
			Translation:        in.Translation,
			LiteralTranslation: in.LiteralTranslation,
			Kind:               in.Kind,
			ContextNote:        in.ContextNote,
			ExampleKolokwa:     in.ExampleKolokwa,
			ExampleEnglish:     in.ExampleEnglish,
			CulturalNote:       in.CulturalNote,
			Pronunciation:      in.Pronunciation,
			Region:             in.Region,
			Tags:               in.Tags,
			ContributorID:      &userID,
			Status:             domain.StatusPending,
		}
		if err := repo.CreateEntry(ctx, tx, e); err != nil {
			if repo.IsDuplicate(err) {
				return ErrHeadwordPendingByYou
			}
			return err
		}
		entry = e

		desc := "Contributed new entry: " + e.Headword
		if _, err := s.Rewards.Award(ctx, tx, userID, s.Cfg.ContributionPoints, domain.KindContribution, desc); err != nil {
			return err
		}
		_, err := s.Rewards.TouchStreak(ctx, tx, userID, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	entriesSubmitted.Inc()
	span.SetAttributes(attribute.String("entry.id", entry.ID))
	return entry, nil
}

// checkHeadwordConflict rejects a submission whose folded headword collides
// with a live entry. The error names the blocking state so callers can give
// the contributor actionable guidance.
func checkHeadwordConflict(ctx context.Context, tx *gorm.DB, fold, userID string) error {
	existing, err := repo.FindEntryByHeadwordFold(ctx, tx, fold)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Status == domain.StatusVerified {
		return ErrHeadwordVerified
	}
	if existing.ContributorID != nil && *existing.ContributorID == userID {
		return ErrHeadwordPendingByYou
	}
	return ErrHeadwordPendingByOther
}

// Get fetches one entry by ID.
func (s *EntryService) Get(ctx context.Context, id string) (*domain.Entry, error) {
	e, err := repo.GetEntry(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

// List returns one page of entries matching the filter plus the total count.
func (s *EntryService) List(ctx context.Context, f repo.EntryListFilter, page, perPage int) ([]domain.Entry, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	total, err := repo.CountEntries(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListEntriesPage(ctx, s.DB, f, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search lists verified entries matching query and records the lookup in the
// translation history. History logging is best-effort and never fails the
// search.
func (s *EntryService) Search(ctx context.Context, userID *string, query, language string, page, perPage int) ([]domain.Entry, int64, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Search")
	defer span.End()

	f := repo.EntryListFilter{Status: domain.StatusVerified, Query: strings.TrimSpace(query)}
	items, total, err := s.List(ctx, f, page, perPage)
	if err != nil {
		return nil, 0, err
	}

	if f.Query != "" {
		var result *string
		if len(items) > 0 {
			result = &items[0].ID
		}
		_ = repo.LogSearch(ctx, s.DB, userID, f.Query, language, result, total > 0)
	}
	return items, total, nil
}

// ListByContributor returns all entries authored by userID.
func (s *EntryService) ListByContributor(ctx context.Context, userID string) ([]domain.Entry, error) {
	return repo.ListEntriesByContributor(ctx, s.DB, userID)
}

// Update applies a contributor edit. Only the contributor may edit, and only
// while the entry is pending or flagged for revision; an edit to a flagged
// entry returns it to pending so the community reviews the new text.
func (s *EntryService) Update(ctx context.Context, userID, id string, in UpdateEntryInput) (*domain.Entry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("entry.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	var entry *domain.Entry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := repo.GetEntry(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if e.ContributorID == nil || *e.ContributorID != userID {
			return ErrNotOwner
		}
		if e.Status != domain.StatusPending && e.Status != domain.StatusNeedsRevision {
			return ErrEntryNotEditable
		}

		fields, err := s.editFields(ctx, tx, e, in)
		if err != nil {
			return err
		}
		if e.Status == domain.StatusNeedsRevision {
			fields["status"] = domain.StatusPending
		}
		if len(fields) > 0 {
			fields["updated_at"] = time.Now().UTC()
			if err := repo.UpdateEntryFields(ctx, tx, id, fields); err != nil {
				return err
			}
		}
		entry, err = repo.GetEntry(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// editFields validates the edit and builds the partial update map. A headword
// change re-runs conflict detection under the new fold.
func (s *EntryService) editFields(ctx context.Context, tx *gorm.DB, e *domain.Entry, in UpdateEntryInput) (map[string]any, error) {
	fields := map[string]any{}

	if in.Headword != nil {
		hw := strings.TrimSpace(*in.Headword)
		if hw == "" {
			return nil, ErrEmptyHeadword
		}
		if s.MaxHeadwordRunes > 0 && utf8.RuneCountInString(hw) > s.MaxHeadwordRunes {
			return nil, ErrTooLong
		}
		if fold := foldHeadword(hw); fold != e.HeadwordFold {
			if e.ContributorID != nil {
				if err := checkHeadwordConflict(ctx, tx, fold, *e.ContributorID); err != nil {
					return nil, err
				}
			}
			fields["headword_fold"] = fold
		}
		fields["headword"] = hw
	}
	if in.Translation != nil {
		t := strings.TrimSpace(*in.Translation)
		if t == "" {
			return nil, ErrEmptyTranslation
		}
		if s.MaxTextRunes > 0 && utf8.RuneCountInString(t) > s.MaxTextRunes {
			return nil, ErrTooLong
		}
		fields["translation"] = t
	}
	if in.Kind != nil {
		if !domain.ValidKind(*in.Kind) {
			return nil, ErrInvalidKind
		}
		fields["kind"] = *in.Kind
	}
	for col, v := range map[string]*string{
		"literal_translation": in.LiteralTranslation,
		"context_note":        in.ContextNote,
		"example_kolokwa":     in.ExampleKolokwa,
		"example_english":     in.ExampleEnglish,
		"cultural_note":       in.CulturalNote,
		"pronunciation":       in.Pronunciation,
		"region":              in.Region,
		"tags":                in.Tags,
	} {
		if v != nil {
			fields[col] = *v
		}
	}
	return fields, nil
}

// Delete soft-deletes an entry. Only the contributor may delete, and verified
// entries are community property and stay.
func (s *EntryService) Delete(ctx context.Context, userID, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := repo.GetEntry(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if e.ContributorID == nil || *e.ContributorID != userID {
			return ErrNotOwner
		}
		if e.Status == domain.StatusVerified {
			return ErrEntryNotEditable
		}
		return repo.DeleteEntry(ctx, tx, id)
	})
}

// MarkNeedsRevision flags a pending entry for contributor rework without
// touching the vote or verification ledgers. Terminal entries cannot be
// flagged.
func (s *EntryService) MarkNeedsRevision(ctx context.Context, id string) (*domain.Entry, error) {
	var entry *domain.Entry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := repo.GetEntry(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if e.Status != domain.StatusPending {
			return ErrEntryNotEditable
		}
		fields := map[string]any{
			"status":     domain.StatusNeedsRevision,
			"updated_at": time.Now().UTC(),
		}
		if err := repo.UpdateEntryFields(ctx, tx, id, fields); err != nil {
			return err
		}
		entry, err = repo.GetEntry(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
