package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"streamnet/internal/model"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantKind   string
	}{
		{name: "validation", err: model.ErrWeakPassword, wantStatus: http.StatusBadRequest, wantCode: model.CodeWeakPassword, wantKind: "VALIDATION_ERROR"},
		{name: "wrapped conflict", err: fmt.Errorf("create: %w", model.ErrRequestExists), wantStatus: http.StatusConflict, wantCode: model.CodeRequestExists, wantKind: "CONFLICT"},
		{name: "blocked", err: model.ErrAccountBlocked, wantStatus: http.StatusForbidden, wantCode: model.CodeAccountBlocked, wantKind: "ACCOUNT_BLOCKED"},
		{name: "not found", err: model.ErrTicketNotFound, wantStatus: http.StatusNotFound, wantCode: model.CodeTicketNotFound, wantKind: "NOT_FOUND"},
		{name: "unauthorized", err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: model.CodeInvalidCredentials, wantKind: "UNAUTHORIZED"},
		{name: "infrastructure", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantCode: ErrCodeInternal, wantKind: "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, zap.NewNop(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			got := decodeEnvelope(t, rec)
			if got.Code != tt.wantCode || got.Kind != tt.wantKind {
				t.Errorf("envelope = %+v, want code %s kind %s", got, tt.wantCode, tt.wantKind)
			}
		})
	}
}

func TestWriteDomainError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, nil, errors.New("pq: password authentication failed for user app"))

	if strings.Contains(rec.Body.String(), "pq:") {
		t.Errorf("internal cause leaked: %s", rec.Body.String())
	}
}

func TestWriteDomainError_IncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, zap.NewNop(), model.ErrValidationFailed.WithFields(map[string]string{"bio": "required"}))

	got := decodeEnvelope(t, rec)
	if got.Fields["bio"] != "required" {
		t.Errorf("fields = %v", got.Fields)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct{ Name string }

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":"x"}`))
	if !DecodeJSON(rec, req, &dst) || dst.Name != "x" {
		t.Errorf("valid body: ok=false or name=%q", dst.Name)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if DecodeJSON(rec, req, &dst) {
		t.Error("malformed body decoded")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
