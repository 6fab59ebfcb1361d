// Gamification HTTP handlers.
//
// Read endpoints for the leaderboard, badge catalog, per-user stats, and
// point-transaction history, plus the daily-challenge accept flow and the
// admin reconciliation trigger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kolokwaconnect/kolokwa-backend/internal/utils"
)

// Leaderboard returns the top users by points. ?limit= caps the rows (max 100).
func (h *Handlers) Leaderboard(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}
	rows, err := h.gameSvc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"leaderboard": rows})
}

// ListBadges returns the full badge catalog.
func (h *Handlers) ListBadges(c *gin.Context) {
	badges, err := h.gameSvc.Badges(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"badges": badges})
}

// MyStats returns the current user's profile card.
func (h *Handlers) MyStats(c *gin.Context) {
	h.statsFor(c, userID(c))
}

// UserStats returns the profile card for the user named in the path.
func (h *Handlers) UserStats(c *gin.Context) {
	h.statsFor(c, c.Param("id"))
}

func (h *Handlers) statsFor(c *gin.Context, uid string) {
	stats, err := h.gameSvc.Stats(c.Request.Context(), uid)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, stats)
}

// MyTransactions returns one page of the current user's point ledger.
func (h *Handlers) MyTransactions(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.gameSvc.Transactions(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{
		"transactions": items,
		"pagination":   paginationFor(page, pageSize, total),
	})
}

// TodayChallenge returns today's daily challenge, creating it on demand.
func (h *Handlers) TodayChallenge(c *gin.Context) {
	challenge, err := h.gameSvc.TodayChallenge(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, challenge)
}

// AcceptChallenge opts the current user into today's challenge.
func (h *Handlers) AcceptChallenge(c *gin.Context) {
	challenge, err := h.gameSvc.AcceptChallenge(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, challenge)
}

// Reconcile rebuilds derived counters, balances, and missed rewards from the
// ledgers and returns the repair report.
func (h *Handlers) Reconcile(c *gin.Context) {
	report, err := h.gameSvc.Reconcile(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, report)
}
