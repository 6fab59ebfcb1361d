// Package services defines the business logic for the dictionary entry
// lifecycle: submission, voting, community verification, and the coupled
// points/badge/streak accounting. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

// Validation errors: malformed input, nothing mutated.
var (
	// ErrEmptyHeadword is returned when a submission has no headword.
	ErrEmptyHeadword = errors.New("headword is empty")

	// ErrEmptyTranslation is returned when a submission has no translation.
	ErrEmptyTranslation = errors.New("translation is empty")

	// ErrTooLong is returned when a text field exceeds the maximum length.
	ErrTooLong = errors.New("text too long")

	// ErrInvalidKind is returned for an unrecognized entry kind.
	ErrInvalidKind = errors.New("kind must be one of: word, phrase, idiom, proverb")

	// ErrInvalidVote is returned when a vote value is outside {-1, 1}.
	ErrInvalidVote = errors.New("vote value must be -1 or 1")

	// ErrInvalidClassification is returned for an unrecognized verification
	// classification.
	ErrInvalidClassification = errors.New("classification must be one of: accurate, needs_revision, incorrect")
)

// Permission errors.
var (
	// ErrSelfVerification is returned when a contributor tries to verify
	// their own entry.
	ErrSelfVerification = errors.New("cannot verify your own entry")

	// ErrNotOwner is returned when a user tries to edit or delete an entry
	// they did not contribute.
	ErrNotOwner = errors.New("only the contributor may modify this entry")

	// ErrEntryNotEditable is returned when an entry's status forbids the
	// attempted change (verified and rejected entries are immutable to their
	// contributor).
	ErrEntryNotEditable = errors.New("entry can no longer be modified")
)

// Lookup errors.
var (
	// ErrEntryNotFound indicates that the requested entry does not exist or
	// is not visible to the caller.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Conflict errors for duplicate headword submissions. The three variants
// carry distinct guidance for the caller.
var (
	// ErrHeadwordVerified: the word already exists as a verified entry.
	ErrHeadwordVerified = errors.New("this word already exists in the dictionary; search for it to view the existing entry")

	// ErrHeadwordPendingByYou: the caller already submitted this word and it
	// awaits review.
	ErrHeadwordPendingByYou = errors.New("you have already submitted this word and it is currently pending review")

	// ErrHeadwordPendingByOther: someone else already submitted this word.
	ErrHeadwordPendingByOther = errors.New("this word has already been submitted and is pending review; please check back later")
)
