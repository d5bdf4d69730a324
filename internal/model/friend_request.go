package model

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
)

// FriendRequest is a directed request between two users. At most one exists
// per unordered pair.
type FriendRequest struct {
	ID          int64         `db:"id" json:"id"`
	SenderID    int64         `db:"sender_id" json:"senderId"`
	RecipientID int64         `db:"recipient_id" json:"recipientId"`
	Status      RequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// Involves reports whether userID is either party of the request.
func (r *FriendRequest) Involves(userID int64) bool {
	return r.SenderID == userID || r.RecipientID == userID
}

// FriendRequestView is a request with the counterparty populated.
type FriendRequestView struct {
	FriendRequest
	Sender    *UserSummary `json:"sender,omitempty"`
	Recipient *UserSummary `json:"recipient,omitempty"`
}

// FriendRequestsResponse lists pending requests addressed to the caller and
// requests the caller sent that have been accepted.
type FriendRequestsResponse struct {
	IncomingReqs []FriendRequestView `json:"incomingReqs"`
	AcceptedReqs []FriendRequestView `json:"acceptedReqs"`
}

// FriendCheck answers check-friendship.
type FriendCheck struct {
	IsFriend              bool `json:"isFriend"`
	HasRelationshipRecord bool `json:"hasRelationshipRecord"`
}

// Asymmetry is one friendship row whose reverse direction is missing.
type Asymmetry struct {
	UserID   int64 `db:"user_id" json:"userId"`
	FriendID int64 `db:"friend_id" json:"friendId"`
}

type ReconcileReport struct {
	Asymmetric []Asymmetry `json:"asymmetric"`
	Repaired   int         `json:"repaired"`
	DryRun     bool        `json:"dryRun"`
}
