package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"streamnet/internal/httputil"
	"streamnet/internal/model"
	"streamnet/internal/service"
	"streamnet/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	users        *service.UserService
	sessions     *service.SessionService
	cookieSecure bool
	log          *zap.Logger
}

func NewAuthHandler(users *service.UserService, sessions *service.SessionService, cookieSecure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		sessions:     sessions,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

type userResponse struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
	Message string      `json:"message,omitempty"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Signup(r.Context(), &req)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	if !h.startSession(w, user.ID) {
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, userResponse{Success: true, User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	if !h.startSession(w, user.ID) {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	httputil.WriteJSON(w, http.StatusOK, userResponse{Success: true, Message: "Logout successful"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}

// Onboard handles POST /api/auth/onboarding
func (h *AuthHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.OnboardRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Onboard(r.Context(), actor, &req)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}

// CreateAdmin handles POST /api/auth/create-admin. Authentication is
// optional: the bootstrap call has no session.
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAdminRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	actor, _ := middleware.UserFromContext(r.Context())

	user, isMaster, err := h.users.CreateAdmin(r.Context(), actor, &req)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}

	msg := "Admin account created successfully"
	if isMaster {
		msg = "Master admin account created successfully"
	}
	// The bootstrap caller is signed in as the new master admin.
	if actor == nil && !h.startSession(w, user.ID) {
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, userResponse{Success: true, User: user, Message: msg})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, userID int64) bool {
	token, err := h.sessions.Issue(userID)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return false
	}
	http.SetCookie(w, h.cookie(token, int(h.sessions.MaxAge()/time.Second)))
	return true
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteNoneMode,
	}
}
