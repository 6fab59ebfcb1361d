// Repository functions for the Vote ledger. Counter adjustments use SQL
// expressions so concurrent transactions on the same entry never lose an
// update.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
)

// GetVote fetches the vote cast by voterID on entryID, or ErrNotFound.
func GetVote(ctx context.Context, db *gorm.DB, entryID, voterID string) (*domain.Vote, error) {
	var v domain.Vote
	err := db.WithContext(ctx).
		Where("entry_id = ? AND voter_id = ?", entryID, voterID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVote inserts a new vote row. The (entry_id, voter_id) pair is unique;
// a duplicate insert surfaces the database constraint error.
func CreateVote(ctx context.Context, db *gorm.DB, entryID, voterID string, value int) (*domain.Vote, error) {
	v := &domain.Vote{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		VoterID:   voterID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVoteValue flips the stored polarity of an existing vote.
func UpdateVoteValue(ctx context.Context, db *gorm.DB, voteID string, value int) error {
	return db.WithContext(ctx).Model(&domain.Vote{}).Where("id = ?", voteID).
		Update("value", value).Error
}

// DeleteVote removes a vote row (toggle-off).
func DeleteVote(ctx context.Context, db *gorm.DB, voteID string) error {
	return db.WithContext(ctx).Delete(&domain.Vote{}, "id = ?", voteID).Error
}

// CountVotes counts votes of one polarity for an entry.
func CountVotes(ctx context.Context, db *gorm.DB, entryID string, value int) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Vote{}).
		Where("entry_id = ? AND value = ?", entryID, value).
		Count(&n).Error
	return n, err
}

// AdjustVoteCounters applies relative deltas to the denormalized vote
// counters on an entry, atomically in SQL.
func AdjustVoteCounters(ctx context.Context, db *gorm.DB, entryID string, upDelta, downDelta int) error {
	return db.WithContext(ctx).Model(&domain.Entry{}).Where("id = ?", entryID).
		Updates(map[string]any{
			"upvotes":   gorm.Expr("upvotes + ?", upDelta),
			"downvotes": gorm.Expr("downvotes + ?", downDelta),
		}).Error
}
