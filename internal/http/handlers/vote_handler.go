// Vote HTTP handlers.
//
// POST /entries/{id}/vote applies the single-vote-per-user rule: first cast
// records the vote, repeating the same polarity removes it, the opposite
// polarity flips it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VoteRequest is the JSON payload for casting a vote.
type VoteRequest struct {
	// Value is +1 for an upvote, -1 for a downvote.
	Value int `json:"value" binding:"required"`
}

// CastVote records, removes, or flips the current user's vote on an entry.
func (h *Handlers) CastVote(c *gin.Context) {
	id, okID := entryID(c)
	if !okID {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}

	res, err := h.voteSvc.Cast(c.Request.Context(), id, userID(c), req.Value)
	if err != nil {
		failService(c, err, ErrCodeVoteFailed)
		return
	}
	ok(c, http.StatusOK, res)
}
