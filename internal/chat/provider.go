// Package chat talks to the hosted chat and video provider. The core never
// depends on its answers: sync failures are logged by callers and dropped.
package chat

import (
	"context"
	"strconv"
)

// RemoteUser is the provider's copy of an account.
type RemoteUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type Provider interface {
	UpsertUser(ctx context.Context, u RemoteUser) error
	DeleteUser(ctx context.Context, id string) error
	// CreateToken issues a client token bound to userID.
	CreateToken(userID string) (string, error)
}

// UserID renders a local id the way the provider stores it.
func UserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
