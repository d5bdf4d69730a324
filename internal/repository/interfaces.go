package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
)

// TxRunner runs fn inside a single transaction, committing when fn returns nil.
// Repository methods accept the *sqlx.Tx it hands out; a nil tx means
// "outside any transaction".
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	// Create inserts the user and fills ID and timestamps. Returns
	// model.ErrEmailExists or model.ErrMasterAdminExists on unique violations.
	Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetForUpdate reads the row and locks it until tx ends.
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// GetMasterAdmin returns nil, nil when no master admin exists.
	GetMasterAdmin(ctx context.Context, tx *sqlx.Tx) (*model.User, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
	UpdateOnboarding(ctx context.Context, id int64, req *model.OnboardRequest) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error)
	UpdateProfilePic(ctx context.Context, id int64, url string) (*model.User, error)
	SetBlocked(ctx context.Context, tx *sqlx.Tx, id int64, blocked bool) (*model.User, error)
	SetAdmin(ctx context.Context, tx *sqlx.Tx, id int64, isAdmin bool) (*model.User, error)
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
	List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error)
	// Search matches onboarded, non-master users by case-insensitive substring of full name.
	Search(ctx context.Context, excludeID int64, fragment string) ([]model.UserSummary, error)
	// Recommend lists onboarded, non-master users who are neither userID nor
	// its friends, newest first.
	Recommend(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
}

type FriendRepository interface {
	// CreateRequest inserts a pending request. Returns model.ErrRequestExists
	// when any request already exists for the unordered pair.
	CreateRequest(ctx context.Context, senderID, recipientID int64) (*model.FriendRequest, error)
	GetRequestByID(ctx context.Context, id int64) (*model.FriendRequest, error)
	// FindRequestBetween returns nil, nil when the pair has no request.
	FindRequestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error)
	// MarkAccepted flips a pending request to accepted. false means no pending row matched.
	MarkAccepted(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error)
	// DeletePendingRequest removes the request only while it is pending.
	// false means no pending row matched.
	DeletePendingRequest(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error)
	DeleteRequestBetween(ctx context.Context, tx *sqlx.Tx, a, b int64, status model.RequestStatus) error
	DeleteRequestsForUser(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error)
	ListIncoming(ctx context.Context, userID int64) ([]model.FriendRequestView, error)
	ListAcceptedOutgoing(ctx context.Context, userID int64) ([]model.FriendRequestView, error)
	ListOutgoing(ctx context.Context, userID int64) ([]model.FriendRequestView, error)

	// AddFriendship writes both directions; already-present rows are kept.
	AddFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error
	// RemoveFriendship deletes both directions; absent rows are not an error.
	RemoveFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error
	RemoveAllFriendships(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error)
	ListFriends(ctx context.Context, userID int64) ([]model.UserSummary, error)
	AreFriends(ctx context.Context, a, b int64) (bool, error)
	FindAsymmetric(ctx context.Context) ([]model.Asymmetry, error)
	// RepairAsymmetric inserts the missing reverse row of every entry.
	RepairAsymmetric(ctx context.Context, tx *sqlx.Tx, rows []model.Asymmetry) (int, error)
}

type SupportRepository interface {
	Create(ctx context.Context, ticket *model.SupportTicket) error
	GetByID(ctx context.Context, id int64) (*model.SupportTicket, error)
	ListByUser(ctx context.Context, userID int64) ([]model.SupportTicket, error)
	List(ctx context.Context, filter model.TicketFilter) ([]model.SupportTicket, int, error)
	Respond(ctx context.Context, id, responderID int64, response string, status model.TicketStatus, at time.Time) (*model.SupportTicket, error)
	SetStatus(ctx context.Context, id int64, status model.TicketStatus) (*model.SupportTicket, error)
}

type StatsRepository interface {
	// Collect counts users and friend requests; RecentUsers counts accounts created after since.
	Collect(ctx context.Context, since time.Time) (*model.PlatformStats, error)
}

// Set bundles every repository over one backend.
type Set struct {
	Tx      TxRunner
	Users   UserRepository
	Friends FriendRepository
	Support SupportRepository
	Stats   StatsRepository
}
