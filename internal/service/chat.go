package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"streamnet/internal/chat"
	"streamnet/internal/model"
	"streamnet/internal/policy"
	"streamnet/internal/queue"
	"streamnet/internal/repository"
)

// ChatSync mirrors account changes onto the chat provider. It never fails the
// caller: errors are logged and dropped.
type ChatSync interface {
	UserChanged(ctx context.Context, u *model.User)
	UserDeleted(ctx context.Context, userID int64)
}

// chatSync publishes to the chat sync stream when a publisher is configured and
// calls the provider inline otherwise.
type chatSync struct {
	provider  chat.Provider
	publisher queue.Publisher
	log       *zap.Logger
}

func NewChatSync(provider chat.Provider, publisher queue.Publisher, log *zap.Logger) ChatSync {
	return &chatSync{provider: provider, publisher: publisher, log: log}
}

func (s *chatSync) UserChanged(ctx context.Context, u *model.User) {
	if s.publisher != nil {
		event := queue.NewUserUpsertedEvent(u.ID, u.FullName, u.ProfilePic)
		if _, err := s.publisher.Publish(ctx, queue.StreamChatSync, event); err != nil {
			s.log.Warn("failed to publish chat upsert", zap.Int64("user_id", u.ID), zap.Error(err))
		}
		return
	}
	if s.provider == nil {
		return
	}
	err := s.provider.UpsertUser(ctx, chat.RemoteUser{ID: chat.UserID(u.ID), Name: u.FullName, Image: u.ProfilePic})
	if err != nil {
		s.log.Warn("failed to upsert chat user", zap.Int64("user_id", u.ID), zap.Error(err))
	}
}

func (s *chatSync) UserDeleted(ctx context.Context, userID int64) {
	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, queue.StreamChatSync, queue.NewUserDeletedEvent(userID)); err != nil {
			s.log.Warn("failed to publish chat delete", zap.Int64("user_id", userID), zap.Error(err))
		}
		return
	}
	if s.provider == nil {
		return
	}
	if err := s.provider.DeleteUser(ctx, chat.UserID(userID)); err != nil {
		s.log.Warn("failed to delete chat user", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ChatAccess is what a client needs to open the chat provider session.
type ChatAccess struct {
	Token     string `json:"token"`
	APIKey    string `json:"apiKey,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// ChatService hands out provider tokens and direct channel ids.
type ChatService struct {
	provider   chat.Provider
	apiKey     string
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
}

func NewChatService(provider chat.Provider, apiKey string, userRepo repository.UserRepository, friendRepo repository.FriendRepository) *ChatService {
	return &ChatService{
		provider:   provider,
		apiKey:     apiKey,
		userRepo:   userRepo,
		friendRepo: friendRepo,
	}
}

func (s *ChatService) Token(ctx context.Context, actor *model.User) (*ChatAccess, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	token, err := s.provider.CreateToken(chat.UserID(actor.ID))
	if err != nil {
		return nil, err
	}
	return &ChatAccess{Token: token, APIKey: s.apiKey}, nil
}

// Channel returns the direct channel shared by actor and otherID, provided the
// two may chat.
func (s *ChatService) Channel(ctx context.Context, actor *model.User, otherID int64) (*ChatAccess, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}

	mutual, err := s.mutualFriends(ctx, actor.ID, other.ID)
	if err != nil {
		return nil, err
	}
	if !policy.CanChat(actor, other, mutual) {
		return nil, model.ErrNotFriends
	}

	access, err := s.Token(ctx, actor)
	if err != nil {
		return nil, err
	}
	access.ChannelID = DirectChannelID(actor.ID, other.ID)
	return access, nil
}

func (s *ChatService) mutualFriends(ctx context.Context, a, b int64) (bool, error) {
	ab, err := s.friendRepo.AreFriends(ctx, a, b)
	if err != nil || !ab {
		return false, err
	}
	return s.friendRepo.AreFriends(ctx, b, a)
}

// DirectChannelID joins the two ids, sorted as strings, with "-". Both parties
// derive the same id.
func DirectChannelID(a, b int64) string {
	ids := []string{strconv.FormatInt(a, 10), strconv.FormatInt(b, 10)}
	sort.Strings(ids)
	return strings.Join(ids, "-")
}
