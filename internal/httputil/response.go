package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"streamnet/internal/model"
)

// Codes for failures raised by the HTTP layer itself.
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeInternal   = "INTERNAL_ERROR"

	kindInternal = "INTERNAL"
)

// ErrorResponse is the error envelope:
// {"error": {"code": "...", "kind": "...", "message": "...", "fields": {...}}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// Headers are already sent; nothing useful to do on failure.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes the envelope for an explicit kind and code.
func WriteError(w http.ResponseWriter, status int, kind, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Kind: kind, Message: message}})
}

// WriteDomainError renders err. Domain errors keep their code, kind and
// fields; anything else is logged and reported as a generic internal error.
func WriteDomainError(w http.ResponseWriter, log *zap.Logger, err error) {
	var domainErr *model.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, domainErr.Kind.HTTPStatus(), ErrorResponse{Error: ErrorDetail{
			Code:    domainErr.Code,
			Kind:    string(domainErr.Kind),
			Message: domainErr.Message,
			Fields:  domainErr.Fields,
		}})
		return
	}

	if log != nil {
		log.Error("request failed", zap.Error(err))
	}
	WriteInternalError(w, "Internal server error")
}

// WriteBadRequest writes a 400 for malformed requests.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, string(model.KindValidation), ErrCodeBadRequest, message)
}

// WriteNotFound writes a 404 for unknown routes.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, string(model.KindNotFound), ErrCodeNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, kindInternal, ErrCodeInternal, message)
}

// DecodeJSON reads the request body into dst, writing a 400 on failure.
// It reports whether decoding succeeded.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}
