package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"streamnet/internal/httputil"
	"streamnet/internal/model"
	"streamnet/internal/transport/http/middleware"
)

// idParam parses a positive int64 URL parameter, writing a 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt returns the integer query parameter or 0 when absent or malformed.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// currentUser returns the user stored by the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteDomainError(w, nil, model.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

type messageResponse struct {
	Message string `json:"message"`
}
