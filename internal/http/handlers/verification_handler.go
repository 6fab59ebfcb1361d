// Verification HTTP handlers.
//
// POST /entries/{id}/verify records the current user's judgment of an entry;
// GET /entries/{id}/verifications returns the review ledger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VerifyRequest is the JSON payload for submitting a verification.
type VerifyRequest struct {
	// Classification is one of: accurate, needs_revision, incorrect.
	Classification string `json:"classification" binding:"required"`
	// Comment optionally explains the judgment.
	Comment string `json:"comment"`
}

// VerifyEntry records the current user's judgment of an entry. Reaching the
// community thresholds promotes or rejects the entry.
func (h *Handlers) VerifyEntry(c *gin.Context) {
	id, okID := entryID(c)
	if !okID {
		return
	}
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "classification is required")
		return
	}

	res, err := h.verifySvc.Submit(c.Request.Context(), id, userID(c), req.Classification, req.Comment)
	if err != nil {
		failService(c, err, ErrCodeVerifyFailed)
		return
	}
	ok(c, http.StatusOK, res)
}

// ListVerifications returns the review ledger for an entry, newest first.
func (h *Handlers) ListVerifications(c *gin.Context) {
	id, okID := entryID(c)
	if !okID {
		return
	}
	items, err := h.verifySvc.ListForEntry(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"verifications": items})
}
