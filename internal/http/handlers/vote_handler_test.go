package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/kolokwaconnect/kolokwa-backend/internal/services"
)

func TestCastVote_BindingError(t *testing.T) {
	h := New(stubEntrySvc{}, stubVoteSvc{cast: func(context.Context, string, string, int) (*services.VoteResult, error) {
		t.Fatalf("service must not run on binding error")
		return nil, nil
	}}, stubVerifySvc{}, stubGameSvc{})
	r := newTestRouter(h)

	// value:0 fails the required binding, same as a missing field.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/"+uuid.NewString()+"/vote",
		bytes.NewBufferString(`{"value":0}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCastVote_InvalidValueMapsTo400(t *testing.T) {
	h := New(stubEntrySvc{}, stubVoteSvc{cast: func(context.Context, string, string, int) (*services.VoteResult, error) {
		return nil, services.ErrInvalidVote
	}}, stubVerifySvc{}, stubGameSvc{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/"+uuid.NewString()+"/vote",
		bytes.NewBufferString(`{"value":5}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCastVote_PassesThrough(t *testing.T) {
	entryID := uuid.NewString()
	var gotEntry, gotVoter string
	var gotValue int
	h := New(stubEntrySvc{}, stubVoteSvc{cast: func(_ context.Context, eID, vID string, value int) (*services.VoteResult, error) {
		gotEntry, gotVoter, gotValue = eID, vID, value
		return &services.VoteResult{Action: services.VoteActionCast, Value: value}, nil
	}}, stubVerifySvc{}, stubGameSvc{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/"+entryID+"/vote",
		bytes.NewBufferString(`{"value":-1}`))
	req.Header.Set("X-User-ID", "kojo")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotEntry != entryID || gotVoter != "kojo" || gotValue != -1 {
		t.Fatalf("arguments not propagated: %s %s %d", gotEntry, gotVoter, gotValue)
	}
}
