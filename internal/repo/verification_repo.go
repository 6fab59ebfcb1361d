// Repository functions for the Verification ledger.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// GetVerification fetches the verification submitted by verifierID for
// entryID, or ErrNotFound.
func GetVerification(ctx context.Context, db *gorm.DB, entryID, verifierID string) (*domain.Verification, error) {
	var v domain.Verification
	err := db.WithContext(ctx).
		Where("entry_id = ? AND verifier_id = ?", entryID, verifierID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertVerification creates the (entry, verifier) verification or overwrites
// its classification and comment. It reports whether a new row was created.
func UpsertVerification(ctx context.Context, db *gorm.DB, entryID, verifierID, classification, comment string) (*domain.Verification, bool, error) {
	existing, err := GetVerification(ctx, db, entryID, verifierID)
	switch {
	case err == nil:
		err = db.WithContext(ctx).Model(existing).
			Updates(map[string]any{"classification": classification, "comment": comment}).Error
		if err != nil {
			return nil, false, err
		}
		existing.Classification = classification
		existing.Comment = comment
		return existing, false, nil
	case err == gorm.ErrRecordNotFound:
		v := &domain.Verification{
			ID:             uuid.NewString(),
			EntryID:        entryID,
			VerifierID:     verifierID,
			Classification: classification,
			Comment:        comment,
			CreatedAt:      time.Now().UTC(),
		}
		if cerr := db.WithContext(ctx).Create(v).Error; cerr != nil {
			return nil, false, cerr
		}
		return v, true, nil
	default:
		return nil, false, err
	}
}

// CountVerifications counts verifications of one classification for an entry.
func CountVerifications(ctx context.Context, db *gorm.DB, entryID, classification string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Verification{}).
		Where("entry_id = ? AND classification = ?", entryID, classification).
		Count(&n).Error
	return n, err
}

// CountVerificationsByUser counts all verifications submitted by a user.
func CountVerificationsByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Verification{}).
		Where("verifier_id = ?", userID).
		Count(&n).Error
	return n, err
}

// ListVerificationsForEntry returns all verifications for an entry, newest
// first.
func ListVerificationsForEntry(ctx context.Context, db *gorm.DB, entryID string) ([]domain.Verification, error) {
	var out []domain.Verification
	err := db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SetVerificationCount writes the recomputed accurate-verification count
// onto the entry.
func SetVerificationCount(ctx context.Context, db *gorm.DB, entryID string, n int) error {
	return db.WithContext(ctx).Model(&domain.Entry{}).Where("id = ?", entryID).
		Update("verification_count", n).Error
}
