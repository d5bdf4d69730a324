package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"streamnet/internal/model"
	"streamnet/internal/policy"
	"streamnet/internal/repository"
)

// FriendService drives the per-pair state machine none -> pending -> friends.
type FriendService struct {
	tx      repository.TxRunner
	users   repository.UserRepository
	friends repository.FriendRepository
	log     *zap.Logger
}

func NewFriendService(tx repository.TxRunner, users repository.UserRepository, friends repository.FriendRepository, log *zap.Logger) *FriendService {
	return &FriendService{tx: tx, users: users, friends: friends, log: log}
}

// SendRequest creates a pending request from actor to recipientID.
func (s *FriendService) SendRequest(ctx context.Context, actor *model.User, recipientID int64) (*model.FriendRequest, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	if actor.ID == recipientID {
		return nil, model.ErrSelfRequest
	}

	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}

	already, err := s.friends.AreFriends(ctx, recipientID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if already {
		return nil, model.ErrAlreadyFriends
	}

	// The pair index rejects a second request in either direction.
	req, err := s.friends.CreateRequest(ctx, actor.ID, recipientID)
	if err != nil {
		return nil, err
	}
	s.log.Debug("friend request sent", zap.Int64("request_id", req.ID), zap.Int64("sender_id", actor.ID), zap.Int64("recipient_id", recipientID))
	return req, nil
}

// AcceptRequest marks the request accepted and writes both friendship
// directions in one transaction. Accepting an already accepted request
// re-applies the friendship and succeeds.
func (s *FriendService) AcceptRequest(ctx context.Context, actor *model.User, requestID int64) (*model.FriendRequest, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}

	var accepted *model.FriendRequest
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		req, err := s.friends.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RecipientID != actor.ID {
			return model.ErrNotRequestRecipient
		}

		if req.Status == model.RequestPending {
			if _, err := s.friends.MarkAccepted(ctx, tx, req.ID); err != nil {
				return fmt.Errorf("failed to accept request: %w", err)
			}
			req.Status = model.RequestAccepted
		}

		if err := s.friends.AddFriendship(ctx, tx, req.SenderID, req.RecipientID); err != nil {
			return fmt.Errorf("failed to add friendship: %w", err)
		}
		accepted = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// DeclineRequest deletes a pending request addressed to actor.
func (s *FriendService) DeclineRequest(ctx context.Context, actor *model.User, requestID int64) error {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return err
	}

	req, err := s.friends.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RecipientID != actor.ID {
		return model.ErrNotRequestRecipient
	}
	if req.Status != model.RequestPending {
		return model.ErrRequestNotPending
	}

	deleted, err := s.friends.DeletePendingRequest(ctx, nil, req.ID)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	if deleted {
		return nil
	}

	// Accepted or removed since the read above.
	if _, err := s.friends.GetRequestByID(ctx, req.ID); err != nil {
		return err
	}
	return model.ErrRequestNotPending
}

// Unfriend removes both directions and the accepted request for the pair.
// Unfriending someone who is not a friend succeeds.
func (s *FriendService) Unfriend(ctx context.Context, actor *model.User, targetID int64) error {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return err
	}
	if actor.ID == targetID {
		return model.ErrSelfUnfriend
	}

	return s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.friends.RemoveFriendship(ctx, tx, actor.ID, targetID); err != nil {
			return fmt.Errorf("failed to remove friendship: %w", err)
		}
		if err := s.friends.DeleteRequestBetween(ctx, tx, actor.ID, targetID, model.RequestAccepted); err != nil {
			return fmt.Errorf("failed to delete request: %w", err)
		}
		return nil
	})
}

func (s *FriendService) ListFriends(ctx context.Context, actor *model.User) ([]model.UserSummary, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	return s.friends.ListFriends(ctx, actor.ID)
}

// ListRequests returns pending requests addressed to actor and actor's own
// requests that have been accepted.
func (s *FriendService) ListRequests(ctx context.Context, actor *model.User) (*model.FriendRequestsResponse, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	incoming, err := s.friends.ListIncoming(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	accepted, err := s.friends.ListAcceptedOutgoing(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &model.FriendRequestsResponse{
		IncomingReqs: nonNil(incoming),
		AcceptedReqs: nonNil(accepted),
	}, nil
}

func (s *FriendService) ListOutgoing(ctx context.Context, actor *model.User) ([]model.FriendRequestView, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	out, err := s.friends.ListOutgoing(ctx, actor.ID)
	return nonNil(out), err
}

// CheckFriendship reports whether otherID is in actor's friend set and
// whether any request record exists for the pair.
func (s *FriendService) CheckFriendship(ctx context.Context, actor *model.User, otherID int64) (*model.FriendCheck, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	if actor.ID == otherID {
		return nil, model.ErrSelfFriendCheck
	}

	isFriend, err := s.IsFriend(ctx, actor.ID, otherID)
	if err != nil {
		return nil, err
	}
	hasRecord, err := s.HasRelationshipRecord(ctx, actor.ID, otherID)
	if err != nil {
		return nil, err
	}
	return &model.FriendCheck{IsFriend: isFriend, HasRelationshipRecord: hasRecord}, nil
}

func (s *FriendService) IsFriend(ctx context.Context, userID, otherID int64) (bool, error) {
	return s.friends.AreFriends(ctx, userID, otherID)
}

func (s *FriendService) HasRelationshipRecord(ctx context.Context, a, b int64) (bool, error) {
	req, err := s.friends.FindRequestBetween(ctx, a, b)
	if err != nil {
		return false, err
	}
	return req != nil, nil
}

// Recommend lists onboarded strangers, newest first. Blocked accounts are
// not filtered out.
func (s *FriendService) Recommend(ctx context.Context, actor *model.User) ([]model.UserSummary, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	users, err := s.users.Recommend(ctx, actor.ID, model.RecommendationLimit)
	return nonNil(users), err
}

// Search matches display names by case-insensitive substring.
func (s *FriendService) Search(ctx context.Context, actor *model.User, query string) ([]model.UserSummary, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.ErrMissingQuery
	}
	users, err := s.users.Search(ctx, actor.ID, query)
	return nonNil(users), err
}

// Reconcile finds friendship rows without their reverse direction and,
// unless dryRun, restores the missing rows.
func (s *FriendService) Reconcile(ctx context.Context, dryRun bool) (*model.ReconcileReport, error) {
	rows, err := s.friends.FindAsymmetric(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan friendships: %w", err)
	}
	report := &model.ReconcileReport{Asymmetric: nonNil(rows), DryRun: dryRun}
	if dryRun || len(rows) == 0 {
		return report, nil
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := s.friends.RepairAsymmetric(ctx, tx, rows)
		report.Repaired = n
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to repair friendships: %w", err)
	}
	s.log.Info("friendships reconciled", zap.Int("asymmetric", len(rows)), zap.Int("repaired", report.Repaired))
	return report, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
