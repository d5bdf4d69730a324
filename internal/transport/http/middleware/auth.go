package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"streamnet/internal/httputil"
	"streamnet/internal/model"
	"streamnet/internal/policy"
)

// SessionCookie carries the session token for browsers.
const SessionCookie = "jwt"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
	userKey   contextKey = "user"
)

// SessionParser turns a session token into a user id.
type SessionParser interface {
	Parse(token string) (int64, error)
}

// UserLoader fetches the account behind a session.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// tokenFromRequest checks the Authorization header first, then the cookie.
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func authenticate(r *http.Request, sessions SessionParser, users UserLoader) (*model.User, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, model.ErrUnauthorized.WithMessage("missing authentication token")
	}
	userID, err := sessions.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := users.GetByID(r.Context(), userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrUnauthorized.WithMessage("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func withUser(ctx context.Context, user *model.User) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	return context.WithValue(ctx, userKey, user)
}

// Auth rejects requests without a valid session and stores the current user
// in the request context.
func Auth(sessions SessionParser, users UserLoader, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, sessions, users)
			if err != nil {
				httputil.WriteDomainError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// OptionalAuth stores the current user when a valid session is present and
// lets anonymous requests through otherwise.
func OptionalAuth(sessions SessionParser, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := authenticate(r, sessions, users); err == nil {
				r = r.WithContext(withUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireNotBlocked stops blocked accounts. Must run after Auth.
func RequireNotBlocked(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if err := policy.RequireNotBlocked(user); err != nil {
			httputil.WriteDomainError(w, nil, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin stops non-admins. Must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if err := policy.RequireAdmin(user); err != nil {
			httputil.WriteDomainError(w, nil, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the user stored by Auth or OptionalAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or 0 and false if not found
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
