package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/kolokwaconnect/kolokwa-backend/internal/services"
)

func TestVerifyEntry_MissingClassification(t *testing.T) {
	h := New(stubEntrySvc{}, stubVoteSvc{}, stubVerifySvc{submit: func(context.Context, string, string, string, string) (*services.VerifyResult, error) {
		t.Fatalf("service must not run on binding error")
		return nil, nil
	}}, stubGameSvc{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/"+uuid.NewString()+"/verify",
		bytes.NewBufferString(`{"comment":"no judgment"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestVerifyEntry_ErrorMappings(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"self_verification", services.ErrSelfVerification, http.StatusForbidden, ErrCodeSelfVerification},
		{"not_found", services.ErrEntryNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"bad_classification", services.ErrInvalidClassification, http.StatusBadRequest, ErrCodeBadRequest},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError, ErrCodeVerifyFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := New(stubEntrySvc{}, stubVoteSvc{}, stubVerifySvc{submit: func(context.Context, string, string, string, string) (*services.VerifyResult, error) {
				return nil, tc.err
			}}, stubGameSvc{})
			r := newTestRouter(h)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/entries/"+uuid.NewString()+"/verify",
				bytes.NewBufferString(`{"classification":"accurate"}`))
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", er.Code, tc.wantCode)
			}
		})
	}
}

func TestVerifyEntry_PassesThrough(t *testing.T) {
	entryID := uuid.NewString()
	var gotClass, gotComment, gotVerifier string
	h := New(stubEntrySvc{}, stubVoteSvc{}, stubVerifySvc{submit: func(_ context.Context, _, verifierID, classification, comment string) (*services.VerifyResult, error) {
		gotVerifier, gotClass, gotComment = verifierID, classification, comment
		return &services.VerifyResult{Created: true, Message: "Verification recorded"}, nil
	}}, stubGameSvc{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/"+entryID+"/verify",
		bytes.NewBufferString(`{"classification":"needs_revision","comment":"spelling"}`))
	req.Header.Set("X-User-ID", "fatu")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotVerifier != "fatu" || gotClass != "needs_revision" || gotComment != "spelling" {
		t.Fatalf("arguments not propagated: %s %s %s", gotVerifier, gotClass, gotComment)
	}
}

func TestMyStats_NotFoundMapsTo404(t *testing.T) {
	h := New(stubEntrySvc{}, stubVoteSvc{}, stubVerifySvc{}, stubGameSvc{stats: func(context.Context, string) (*services.UserStats, error) {
		return nil, services.ErrUserNotFound
	}})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me/stats", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
