package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"streamnet/internal/model"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "jwt"

// SessionService issues and verifies the signed session token.
type SessionService struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewSessionService(secret string, maxAge time.Duration) *SessionService {
	return &SessionService{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (s *SessionService) MaxAge() time.Duration {
	return s.maxAge
}

// Issue signs a token binding userID until now+maxAge.
func (s *SessionService) Issue(userID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.maxAge).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenString and returns the user id it binds.
func (s *SessionService) Parse(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, model.ErrUnauthorized.WithMessage("session expired")
		}
		return 0, model.ErrUnauthorized.WithMessage("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, model.ErrUnauthorized.WithMessage("invalid session token")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, model.ErrUnauthorized.WithMessage("invalid token claims")
	}
	return int64(userID), nil
}
