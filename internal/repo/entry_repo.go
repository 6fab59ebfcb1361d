// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Entry model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an entry is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// EntryListFilter narrows and orders entry listings.
type EntryListFilter struct {
	Status string // exact status, empty for any
	Query  string // case-insensitive substring over headword/translation
	Kind   string // exact kind, empty for any
	Sort   string // "newest" (default), "oldest", "alphabetical", "score"
}

// CreateEntry inserts e, assigning a UUID primary key and UTC creation time
// when unset.
func CreateEntry(ctx context.Context, db *gorm.DB, e *domain.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// GetEntry fetches a single entry by ID, or ErrNotFound.
func GetEntry(ctx context.Context, db *gorm.DB, id string) (*domain.Entry, error) {
	var e domain.Entry
	if err := db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// FindEntryByHeadwordFold returns the first non-rejected entry whose folded
// headword matches fold, or ErrNotFound. Rejected entries are excluded so a
// word can be resubmitted after rejection.
func FindEntryByHeadwordFold(ctx context.Context, db *gorm.DB, fold string) (*domain.Entry, error) {
	var e domain.Entry
	err := db.WithContext(ctx).
		Where("headword_fold = ? AND status <> ?", fold, domain.StatusRejected).
		Order("created_at asc").
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CountEntries counts entries matching the filter.
func CountEntries(ctx context.Context, db *gorm.DB, f EntryListFilter) (int64, error) {
	var total int64
	err := entryQuery(db.WithContext(ctx), f).Model(&domain.Entry{}).Count(&total).Error
	return total, err
}

// ListEntriesPage returns one page of entries matching the filter.
func ListEntriesPage(ctx context.Context, db *gorm.DB, f EntryListFilter, offset, limit int) ([]domain.Entry, error) {
	var out []domain.Entry
	q := entryQuery(db.WithContext(ctx), f)
	switch f.Sort {
	case "alphabetical":
		q = q.Order("headword asc")
	case "score":
		q = q.Order("upvotes - downvotes + verification_count * 2 desc").Order("created_at desc")
	case "oldest":
		q = q.Order("created_at asc")
	default:
		q = q.Order("created_at desc")
	}
	err := q.Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

func entryQuery(db *gorm.DB, f EntryListFilter) *gorm.DB {
	q := db
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("headword LIKE ? OR translation LIKE ?", like, like)
	}
	return q
}

// ListEntriesByContributor returns all entries authored by userID.
func ListEntriesByContributor(ctx context.Context, db *gorm.DB, userID string) ([]domain.Entry, error) {
	var out []domain.Entry
	err := db.WithContext(ctx).
		Where("contributor_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateEntryFields applies a partial update to the entry with the given ID.
// Returns ErrNotFound when no row was touched.
func UpdateEntryFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).Model(&domain.Entry{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteEntry soft-deletes the entry (votes, verifications, and history keep
// their foreign keys).
func DeleteEntry(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Entry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateEntryEmbedding stores the embedding blob produced by the embedding
// collaborator. Runs outside core transactions.
func UpdateEntryEmbedding(ctx context.Context, db *gorm.DB, id string, embedding []byte) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&domain.Entry{}).Where("id = ?", id).
		Updates(map[string]any{"embedding": embedding, "embedding_updated_at": now}).Error
}

// LogSearch records one dictionary search in the translation history.
func LogSearch(ctx context.Context, db *gorm.DB, userID *string, query, language string, resultEntry *string, found bool) error {
	h := &domain.TranslationHistory{
		ID:          uuid.NewString(),
		UserID:      userID,
		Query:       query,
		Language:    language,
		ResultEntry: resultEntry,
		Found:       found,
		SearchedAt:  time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(h).Error
}
