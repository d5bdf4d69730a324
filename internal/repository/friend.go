package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
)

const requestColumns = `id, sender_id, recipient_id, status, created_at, updated_at`

type friendRepository struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepository{db: db}
}

// CreateRequest relies on the friend_requests_pair index: a second request for
// the same unordered pair inserts nothing.
func (r *friendRepository) CreateRequest(ctx context.Context, senderID, recipientID int64) (*model.FriendRequest, error) {
	query := `
		INSERT INTO friend_requests (sender_id, recipient_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT DO NOTHING
		RETURNING ` + requestColumns

	var fr model.FriendRequest
	if err := r.db.GetContext(ctx, &fr, query, senderID, recipientID); err != nil {
		if isNoRows(err) {
			return nil, model.ErrRequestExists
		}
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}
	return &fr, nil
}

func (r *friendRepository) GetRequestByID(ctx context.Context, id int64) (*model.FriendRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM friend_requests WHERE id = $1`

	var fr model.FriendRequest
	if err := r.db.GetContext(ctx, &fr, query, id); err != nil {
		if isNoRows(err) {
			return nil, model.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}
	return &fr, nil
}

func (r *friendRepository) FindRequestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM friend_requests
		WHERE LEAST(sender_id, recipient_id) = LEAST($1::BIGINT, $2::BIGINT)
		  AND GREATEST(sender_id, recipient_id) = GREATEST($1::BIGINT, $2::BIGINT)
	`

	var fr model.FriendRequest
	if err := r.db.GetContext(ctx, &fr, query, a, b); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find friend request: %w", err)
	}
	return &fr, nil
}

func (r *friendRepository) MarkAccepted(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	query := `
		UPDATE friend_requests SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	return r.execAffected(ctx, tx, "accept friend request", query, id)
}

func (r *friendRepository) DeletePendingRequest(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	return r.execAffected(ctx, tx, "delete friend request",
		`DELETE FROM friend_requests WHERE id = $1 AND status = 'pending'`, id)
}

func (r *friendRepository) DeleteRequestBetween(ctx context.Context, tx *sqlx.Tx, a, b int64, status model.RequestStatus) error {
	query := `
		DELETE FROM friend_requests
		WHERE LEAST(sender_id, recipient_id) = LEAST($1::BIGINT, $2::BIGINT)
		  AND GREATEST(sender_id, recipient_id) = GREATEST($1::BIGINT, $2::BIGINT)
		  AND status = $3
	`
	if _, err := on(r.db, tx).ExecContext(ctx, query, a, b, status); err != nil {
		return fmt.Errorf("failed to delete friend request between users: %w", err)
	}
	return nil
}

func (r *friendRepository) DeleteRequestsForUser(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error) {
	result, err := on(r.db, tx).ExecContext(ctx,
		`DELETE FROM friend_requests WHERE sender_id = $1 OR recipient_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete friend requests for user: %w", err)
	}
	return result.RowsAffected()
}

func (r *friendRepository) execAffected(ctx context.Context, tx *sqlx.Tx, op, query string, args ...interface{}) (bool, error) {
	result, err := on(r.db, tx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// requestRow is a friend request joined with the other party's summary.
type requestRow struct {
	model.FriendRequest
	PartyID               int64  `db:"party_id"`
	PartyFullName         string `db:"party_full_name"`
	PartyProfilePic       string `db:"party_profile_pic"`
	PartyBio              string `db:"party_bio"`
	PartyNativeLanguage   string `db:"party_native_language"`
	PartyLearningLanguage string `db:"party_learning_language"`
	PartyLocation         string `db:"party_location"`
}

func (row requestRow) party() *model.UserSummary {
	return &model.UserSummary{
		ID:               row.PartyID,
		FullName:         row.PartyFullName,
		ProfilePic:       row.PartyProfilePic,
		Bio:              row.PartyBio,
		NativeLanguage:   row.PartyNativeLanguage,
		LearningLanguage: row.PartyLearningLanguage,
		Location:         row.PartyLocation,
	}
}

// listRequests selects requests where mine = userID, joining the party column.
func (r *friendRepository) listRequests(ctx context.Context, mine, party string, userID int64, status model.RequestStatus) ([]requestRow, error) {
	query := fmt.Sprintf(`
		SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at, fr.updated_at,
		       u.id AS party_id, u.full_name AS party_full_name, u.profile_pic AS party_profile_pic,
		       u.bio AS party_bio, u.native_language AS party_native_language,
		       u.learning_language AS party_learning_language, u.location AS party_location
		FROM friend_requests fr
		JOIN users u ON u.id = fr.%s
		WHERE fr.%s = $1 AND fr.status = $2
		ORDER BY fr.created_at DESC, fr.id DESC
	`, party, mine)

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, status); err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	return rows, nil
}

func (r *friendRepository) ListIncoming(ctx context.Context, userID int64) ([]model.FriendRequestView, error) {
	rows, err := r.listRequests(ctx, "recipient_id", "sender_id", userID, model.RequestPending)
	if err != nil {
		return nil, err
	}
	out := make([]model.FriendRequestView, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.FriendRequestView{FriendRequest: row.FriendRequest, Sender: row.party()})
	}
	return out, nil
}

func (r *friendRepository) ListAcceptedOutgoing(ctx context.Context, userID int64) ([]model.FriendRequestView, error) {
	return r.listOutgoingWithStatus(ctx, userID, model.RequestAccepted)
}

func (r *friendRepository) ListOutgoing(ctx context.Context, userID int64) ([]model.FriendRequestView, error) {
	return r.listOutgoingWithStatus(ctx, userID, model.RequestPending)
}

func (r *friendRepository) listOutgoingWithStatus(ctx context.Context, userID int64, status model.RequestStatus) ([]model.FriendRequestView, error) {
	rows, err := r.listRequests(ctx, "sender_id", "recipient_id", userID, status)
	if err != nil {
		return nil, err
	}
	out := make([]model.FriendRequestView, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.FriendRequestView{FriendRequest: row.FriendRequest, Recipient: row.party()})
	}
	return out, nil
}

func (r *friendRepository) AddFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	query := `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	if _, err := on(r.db, tx).ExecContext(ctx, query, a, b); err != nil {
		return fmt.Errorf("failed to add friendship: %w", err)
	}
	return nil
}

func (r *friendRepository) RemoveFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	query := `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`
	if _, err := on(r.db, tx).ExecContext(ctx, query, a, b); err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	return nil
}

func (r *friendRepository) RemoveAllFriendships(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error) {
	result, err := on(r.db, tx).ExecContext(ctx,
		`DELETE FROM friendships WHERE user_id = $1 OR friend_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove friendships for user: %w", err)
	}
	return result.RowsAffected()
}

func (r *friendRepository) ListFriends(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, u.full_name, u.profile_pic, u.bio, u.native_language, u.learning_language, u.location
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, u.id DESC
	`

	friends := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &friends, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}

func (r *friendRepository) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, a, b); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

func (r *friendRepository) FindAsymmetric(ctx context.Context) ([]model.Asymmetry, error) {
	query := `
		SELECT f.user_id, f.friend_id
		FROM friendships f
		WHERE NOT EXISTS (
			SELECT 1 FROM friendships r WHERE r.user_id = f.friend_id AND r.friend_id = f.user_id
		)
		ORDER BY f.user_id, f.friend_id
	`

	rows := []model.Asymmetry{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to find asymmetric friendships: %w", err)
	}
	return rows, nil
}

func (r *friendRepository) RepairAsymmetric(ctx context.Context, tx *sqlx.Tx, rows []model.Asymmetry) (int, error) {
	query := `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`

	repaired := 0
	for _, a := range rows {
		result, err := on(r.db, tx).ExecContext(ctx, query, a.FriendID, a.UserID)
		if err != nil {
			return repaired, fmt.Errorf("failed to repair friendship %d->%d: %w", a.FriendID, a.UserID, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			repaired++
		}
	}
	return repaired, nil
}
