// Package domain defines the persistence models for dictionary entries,
// votes, verifications, and the gamification ledgers. These types are mapped
// with GORM and form the core data layer of the Kolokwa dictionary backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Entry kinds. An entry is a single headword or a longer unit of speech.
const (
	KindWord    = "word"
	KindPhrase  = "phrase"
	KindIdiom   = "idiom"
	KindProverb = "proverb"
)

// Entry review statuses. An entry starts pending and is promoted or rejected
// by community verification; verified and rejected are terminal.
const (
	StatusPending       = "pending"
	StatusVerified      = "verified"
	StatusRejected      = "rejected"
	StatusNeedsRevision = "needs_revision"
)

// ValidKind reports whether k is one of the recognized entry kinds.
func ValidKind(k string) bool {
	switch k {
	case KindWord, KindPhrase, KindIdiom, KindProverb:
		return true
	}
	return false
}

// Entry represents a Kolokwa word or phrase contributed by a community
// member, together with its English translation, usage context, and the
// denormalized community counters that drive the review lifecycle.
//
// Upvotes, Downvotes, and VerificationCount are materialized from the Vote
// and Verification ledgers; they are maintained transactionally alongside
// ledger writes and can be rebuilt from scratch by the reconciliation
// procedure. VerifiedAt is set exactly once, at the transition into
// "verified".
type Entry struct {
	ID       string `json:"id"       gorm:"type:char(36);primaryKey"`
	Headword string `json:"headword" gorm:"type:varchar(255);not null;index:idx_entries_headword"`
	// HeadwordFold is the Unicode case-folded form of Headword, used for
	// case-insensitive duplicate detection and lookups.
	HeadwordFold string `json:"-" gorm:"type:varchar(255);not null;index;uniqueIndex:ux_entries_headword_contributor,priority:1"`
	Translation  string `json:"translation" gorm:"type:text;not null"`
	// LiteralTranslation is the word-for-word rendering when it differs
	// from the idiomatic meaning.
	LiteralTranslation string `json:"literal_translation,omitempty" gorm:"type:text"`
	Kind               string `json:"kind" gorm:"type:varchar(20);not null;default:'word';check:kind IN ('word','phrase','idiom','proverb')"`

	// Usage context carried alongside the translation.
	ContextNote    string `json:"context_note,omitempty"    gorm:"type:text"`
	ExampleKolokwa string `json:"example_kolokwa,omitempty" gorm:"type:text"`
	ExampleEnglish string `json:"example_english,omitempty" gorm:"type:text"`
	CulturalNote   string `json:"cultural_note,omitempty"   gorm:"type:text"`
	Pronunciation  string `json:"pronunciation,omitempty"   gorm:"type:varchar(255)"`
	Region         string `json:"region,omitempty"          gorm:"type:varchar(100)"`
	Tags           string `json:"tags,omitempty"            gorm:"type:text"` // comma separated

	// ContributorID is nullable so entries survive account deletion.
	ContributorID *string `json:"contributor_id,omitempty" gorm:"type:varchar(64);index;uniqueIndex:ux_entries_headword_contributor,priority:2"`

	Status string `json:"status" gorm:"type:varchar(20);not null;default:'pending';index;check:status IN ('pending','verified','rejected','needs_revision')"`

	// Denormalized community counters (see Vote and Verification).
	VerificationCount int `json:"verification_count" gorm:"not null;default:0"`
	Upvotes           int `json:"upvotes"            gorm:"not null;default:0"`
	Downvotes         int `json:"downvotes"          gorm:"not null;default:0"`

	// Optional semantic-search enrichment, written out-of-band by the
	// embedding collaborator. Never touched inside core transactions.
	Embedding          []byte     `json:"-" gorm:"type:blob"`
	EmbeddingUpdatedAt *time.Time `json:"-"`

	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Entry.
func (Entry) TableName() string { return "entries" }

// Score is the derived ranking value for an entry. It is recomputed on read
// and never persisted.
func (e *Entry) Score() int {
	return e.Upvotes - e.Downvotes + e.VerificationCount*2
}

// Terminal reports whether the entry is in a sticky final status.
func (e *Entry) Terminal() bool {
	return e.Status == StatusVerified || e.Status == StatusRejected
}

// Vote is one user's polarity signal (+1 or -1) on one entry. A voter holds
// at most one Vote per entry; changing one's mind mutates or removes the
// existing row rather than creating a second one.
type Vote struct {
	ID      string `json:"id"       gorm:"type:char(36);primaryKey"`
	EntryID string `json:"entry_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_votes_entry_voter"`
	VoterID string `json:"voter_id" gorm:"type:varchar(64);not null;index;uniqueIndex:ux_votes_entry_voter"`
	Value   int    `json:"value"    gorm:"not null;check:value IN (-1,1)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Entry Entry `json:"-" gorm:"foreignKey:EntryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "entry_votes" }

// Verification classifications.
const (
	ClassificationAccurate      = "accurate"
	ClassificationNeedsRevision = "needs_revision"
	ClassificationIncorrect     = "incorrect"
)

// ValidClassification reports whether c is a recognized verification
// classification.
func ValidClassification(c string) bool {
	switch c {
	case ClassificationAccurate, ClassificationNeedsRevision, ClassificationIncorrect:
		return true
	}
	return false
}

// Verification is one reviewer's judgment of one entry's correctness.
// A verifier holds at most one Verification per entry; resubmission
// overwrites the classification and comment (upsert semantics).
type Verification struct {
	ID             string `json:"id"             gorm:"type:char(36);primaryKey"`
	EntryID        string `json:"entry_id"       gorm:"type:char(36);not null;index;uniqueIndex:ux_verifications_entry_verifier"`
	VerifierID     string `json:"verifier_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_verifications_entry_verifier"`
	Classification string `json:"classification" gorm:"type:varchar(20);not null;check:classification IN ('accurate','needs_revision','incorrect')"`
	Comment        string `json:"comment,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Entry Entry `json:"-" gorm:"foreignKey:EntryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Verification.
func (Verification) TableName() string { return "entry_verifications" }

// TranslationHistory logs dictionary searches for analytics. Rows are written
// best-effort; a failed write never surfaces to the caller.
type TranslationHistory struct {
	ID          string    `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID      *string   `json:"user_id,omitempty" gorm:"type:varchar(64);index"`
	Query       string    `json:"query"    gorm:"type:varchar(255);not null"`
	Language    string    `json:"language" gorm:"type:varchar(10);not null;default:'auto'"`
	ResultEntry *string   `json:"result_entry,omitempty" gorm:"type:char(36)"`
	Found       bool      `json:"found"    gorm:"not null;default:false"`
	SearchedAt  time.Time `json:"searched_at"`
}

// TableName returns the database table name for TranslationHistory.
func (TranslationHistory) TableName() string { return "translation_history" }
