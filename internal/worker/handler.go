package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"streamnet/internal/chat"
	"streamnet/internal/queue"
)

// Handler applies chat sync events to the chat provider.
type Handler struct {
	provider chat.Provider
	log      *zap.Logger
}

func NewHandler(provider chat.Provider, log *zap.Logger) *Handler {
	return &Handler{provider: provider, log: log}
}

// HandleEvent routes an event to the appropriate provider call based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.UserEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventUserUpserted:
		err = h.provider.UpsertUser(ctx, chat.RemoteUser{
			ID:    chat.UserID(event.UserID),
			Name:  event.Name,
			Image: event.Image,
		})
	case queue.EventUserDeleted:
		err = h.provider.DeleteUser(ctx, chat.UserID(event.UserID))
	default:
		h.log.Warn("unknown event type", zap.String("type", event.Type))
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		h.log.Warn("chat sync failed",
			zap.String("type", event.Type),
			zap.Int64("user_id", event.UserID),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)
		return err
	}

	h.log.Debug("chat sync ok",
		zap.String("type", event.Type),
		zap.Int64("user_id", event.UserID),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}
