// Entry HTTP handlers.
//
// This file exposes REST endpoints for dictionary entry resources:
//   - POST   /entries                    (submit)
//   - GET    /entries                    (list, filtered and paginated)
//   - GET    /entries/search             (search verified entries)
//   - GET    /entries/{id}              (fetch)
//   - PUT    /entries/{id}              (contributor edit)
//   - DELETE /entries/{id}              (contributor delete)
//   - POST   /entries/{id}/needs-revision (moderation flag)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kolokwaconnect/kolokwa-backend/internal/domain"
	"github.com/kolokwaconnect/kolokwa-backend/internal/repo"
	"github.com/kolokwaconnect/kolokwa-backend/internal/services"
	"github.com/kolokwaconnect/kolokwa-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// EntryService defines entry lifecycle operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation.
type EntryService interface {
	Submit(ctx context.Context, userID string, in services.SubmitEntryInput) (*domain.Entry, error)
	Get(ctx context.Context, id string) (*domain.Entry, error)
	List(ctx context.Context, f repo.EntryListFilter, page, perPage int) ([]domain.Entry, int64, error)
	Search(ctx context.Context, userID *string, query, language string, page, perPage int) ([]domain.Entry, int64, error)
	ListByContributor(ctx context.Context, userID string) ([]domain.Entry, error)
	Update(ctx context.Context, userID, id string, in services.UpdateEntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, userID, id string) error
	MarkNeedsRevision(ctx context.Context, id string) (*domain.Entry, error)
}

// VoteService defines the vote operation consumed by HTTP handlers.
type VoteService interface {
	Cast(ctx context.Context, entryID, voterID string, value int) (*services.VoteResult, error)
}

// VerificationService defines community review operations.
type VerificationService interface {
	Submit(ctx context.Context, entryID, verifierID, classification, comment string) (*services.VerifyResult, error)
	ListForEntry(ctx context.Context, entryID string) ([]domain.Verification, error)
}

// GamificationService defines gamification reads, the challenge flow, and
// reconciliation.
type GamificationService interface {
	Leaderboard(ctx context.Context, limit int) ([]repo.LeaderboardRow, error)
	Badges(ctx context.Context) ([]domain.Badge, error)
	Stats(ctx context.Context, userID string) (*services.UserStats, error)
	Transactions(ctx context.Context, userID string, page, perPage int) ([]domain.PointTransaction, int64, error)
	TodayChallenge(ctx context.Context) (*domain.DailyChallenge, error)
	AcceptChallenge(ctx context.Context, userID string) (*domain.DailyChallenge, error)
	Reconcile(ctx context.Context) (*services.ReconcileReport, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for entries, votes, verifications, and
// gamification. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	entrySvc  EntryService
	voteSvc   VoteService
	verifySvc VerificationService
	gameSvc   GamificationService
}

// New constructs a Handlers instance bound to the given services.
func New(entrySvc EntryService, voteSvc VoteService, verifySvc VerificationService, gameSvc GamificationService) *Handlers {
	return &Handlers{entrySvc: entrySvc, voteSvc: voteSvc, verifySvc: verifySvc, gameSvc: gameSvc}
}

// userID extracts the authenticated user id from Gin context (set by
// upstream auth middleware). If absent it falls back to the X-User-ID header
// (tests use it), and finally to "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListEntriesResponse wraps a page of entries and pagination information.
type ListEntriesResponse struct {
	Entries    []domain.Entry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// entryID validates the :id path parameter.
func entryID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry id must be a UUID")
		return "", false
	}
	return id, true
}

// failService maps service-level errors onto the HTTP error taxonomy.
// fallbackCode is used for unexpected errors, reported as 500.
func failService(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrHeadwordVerified),
		errors.Is(err, services.ErrHeadwordPendingByYou),
		errors.Is(err, services.ErrHeadwordPendingByOther):
		fail(c, http.StatusConflict, ErrCodeDuplicateEntry, err.Error())
	case errors.Is(err, services.ErrEntryNotEditable):
		fail(c, http.StatusConflict, ErrCodeNotEditable, err.Error())
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrSelfVerification):
		fail(c, http.StatusForbidden, ErrCodeSelfVerification, err.Error())
	case errors.Is(err, services.ErrEmptyHeadword),
		errors.Is(err, services.ErrEmptyTranslation),
		errors.Is(err, services.ErrTooLong),
		errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrInvalidVote),
		errors.Is(err, services.ErrInvalidClassification):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

//
// Handlers
//

// SubmitEntry creates a new pending entry for the current user.
func (h *Handlers) SubmitEntry(c *gin.Context) {
	var req services.SubmitEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	e, err := h.entrySvc.Submit(c.Request.Context(), userID(c), req)
	if err != nil {
		failService(c, err, ErrCodeSubmitFailed)
		return
	}
	ok(c, http.StatusCreated, e)
}

// ListEntries returns a filtered, paginated entry listing. Defaults to
// verified entries; ?status= selects another lifecycle state.
func (h *Handlers) ListEntries(c *gin.Context) {
	page, pageSize := clampPagination(c)

	status := c.DefaultQuery("status", domain.StatusVerified)
	switch status {
	case domain.StatusPending, domain.StatusVerified, domain.StatusRejected, domain.StatusNeedsRevision, "all":
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
		return
	}
	if status == "all" {
		status = ""
	}

	f := repo.EntryListFilter{
		Status: status,
		Query:  strings.TrimSpace(c.Query("q")),
		Kind:   c.Query("kind"),
		Sort:   c.Query("sort"),
	}
	items, total, err := h.entrySvc.List(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListEntriesResponse{Entries: items, Pagination: paginationFor(page, pageSize, total)})
}

// SearchEntries searches verified entries and logs the lookup.
func (h *Handlers) SearchEntries(c *gin.Context) {
	page, pageSize := clampPagination(c)
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	uid := userID(c)

	items, total, err := h.entrySvc.Search(c.Request.Context(), &uid, q, c.DefaultQuery("lang", "auto"), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListEntriesResponse{Entries: items, Pagination: paginationFor(page, pageSize, total)})
}

// GetEntry fetches one entry by ID.
func (h *Handlers) GetEntry(c *gin.Context) {
	id, okID := entryID(c)
	if !okID {
		return
	}
	e, err := h.entrySvc.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, e)
}

// ListMyEntries returns all entries contributed by the current user.
func (h *Handlers) ListMyEntries(c *gin.Context) {
	items, err := h.entrySvc.ListByContributor(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"entries": items})
}

// UpdateEntry applies a contributor edit to an entry.
func (h *Handlers) UpdateEntry(c *gin.Context) {
	id, okID := entryID(c)
	if !okID {
		return
	}
	var req services.UpdateEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	e, err := h.entrySvc.Update(c.Request.Context(), userID(c), id, req)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, e)
}

// DeleteEntry removes a contributor's own entry.
func (h *Handlers) DeleteEntry(c *gin.Context) {
	id, okID := entryID(c)
	if !okID {
		return
	}
	if err := h.entrySvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// MarkNeedsRevision flags a pending entry for contributor rework.
func (h *Handlers) MarkNeedsRevision(c *gin.Context) {
	id, okID := entryID(c)
	if !okID {
		return
	}
	e, err := h.entrySvc.MarkNeedsRevision(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, e)
}
