package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"streamnet/internal/cache"
	"streamnet/internal/model"
	"streamnet/internal/policy"
	"streamnet/internal/repository"
)

// AdminService holds the moderation operations. Every method requires an
// admin actor.
type AdminService struct {
	tx      repository.TxRunner
	users   repository.UserRepository
	friends repository.FriendRepository
	stats   repository.StatsRepository
	cache   cache.StatsCache // nil disables caching
	sync    ChatSync
	log     *zap.Logger
	now     func() time.Time
}

func NewAdminService(
	tx repository.TxRunner,
	users repository.UserRepository,
	friends repository.FriendRepository,
	stats repository.StatsRepository,
	statsCache cache.StatsCache,
	sync ChatSync,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		tx:      tx,
		users:   users,
		friends: friends,
		stats:   stats,
		cache:   statsCache,
		sync:    sync,
		log:     log,
		now:     time.Now,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, actor *model.User, filter model.UserFilter) (*model.UserPage, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Normalize()
	switch filter.Status {
	case model.UserStatusAll, model.UserStatusActive, model.UserStatusBlocked:
	default:
		return nil, model.ErrInvalidStatus.WithFields(map[string]string{"status": filter.Status})
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &model.UserPage{
		Users:       nonNil(users),
		Total:       total,
		TotalPages:  model.TotalPages(total, filter.Limit),
		CurrentPage: filter.Page,
	}, nil
}

// SetBlocked applies action ("block" or "unblock") to targetID.
func (s *AdminService) SetBlocked(ctx context.Context, actor *model.User, targetID int64, action string) (*model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	var block bool
	switch action {
	case model.ActionBlock:
		block = true
	case model.ActionUnblock:
	default:
		return nil, model.ErrInvalidAction
	}

	// The target row stays locked between the check and the write so a
	// concurrent promotion cannot slip in.
	var updated *model.User
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		target, err := s.users.GetForUpdate(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if err := policy.CheckBlock(actor, target, block); err != nil {
			return err
		}
		updated, err = s.users.SetBlocked(ctx, tx, target.ID, block)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user block changed", zap.Int64("actor_id", actor.ID), zap.Int64("user_id", updated.ID), zap.Bool("blocked", block))
	s.invalidateStats(ctx)
	return updated, nil
}

func (s *AdminService) SetRole(ctx context.Context, actor *model.User, targetID int64, isAdmin bool) (*model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	var updated *model.User
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		target, err := s.users.GetForUpdate(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if err := policy.CheckRoleChange(actor, target, isAdmin); err != nil {
			return err
		}
		updated, err = s.users.SetAdmin(ctx, tx, target.ID, isAdmin)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user role changed", zap.Int64("actor_id", actor.ID), zap.Int64("user_id", updated.ID), zap.Bool("admin", isAdmin))
	s.invalidateStats(ctx)
	return updated, nil
}

// DeleteUser prunes the target from every friend set, purges its friend
// requests and removes the account, all in one transaction.
func (s *AdminService) DeleteUser(ctx context.Context, actor *model.User, targetID int64) error {
	if err := policy.RequireAdmin(actor); err != nil {
		return err
	}

	var friendships, requests int64
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		target, err := s.users.GetForUpdate(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if err := policy.CheckDelete(actor, target); err != nil {
			return err
		}
		if friendships, err = s.friends.RemoveAllFriendships(ctx, tx, targetID); err != nil {
			return fmt.Errorf("failed to remove friendships: %w", err)
		}
		if requests, err = s.friends.DeleteRequestsForUser(ctx, tx, targetID); err != nil {
			return fmt.Errorf("failed to delete friend requests: %w", err)
		}
		return s.users.Delete(ctx, tx, targetID)
	})
	if err != nil {
		return err
	}

	s.log.Info("user deleted",
		zap.Int64("actor_id", actor.ID),
		zap.Int64("user_id", targetID),
		zap.Int64("friendships", friendships),
		zap.Int64("requests", requests),
	)
	s.sync.UserDeleted(ctx, targetID)
	s.invalidateStats(ctx)
	return nil
}

// Stats returns the dashboard numbers, served from cache when possible.
func (s *AdminService) Stats(ctx context.Context, actor *model.User) (*model.PlatformStats, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if stats, found, err := s.cache.Get(ctx); err == nil && found {
			return stats, nil
		}
	}

	since := s.now().AddDate(0, 0, -model.RecentUserWindowDays)
	stats, err := s.stats.Collect(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}

	if s.cache != nil {
		// Cache errors are logged by the cache itself.
		_ = s.cache.Set(ctx, stats)
	}
	return stats, nil
}

func (s *AdminService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx)
}
