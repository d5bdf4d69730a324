package handler

import (
	"net/http"

	"go.uber.org/zap"

	"streamnet/internal/httputil"
	"streamnet/internal/service"
)

// ChatHandler serves /api/chat.
type ChatHandler struct {
	chat *service.ChatService
	log  *zap.Logger
}

func NewChatHandler(chat *service.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

func (h *ChatHandler) Token(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	access, err := h.chat.Token(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, access)
}

func (h *ChatHandler) Channel(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	otherID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	access, err := h.chat.Channel(r.Context(), actor, otherID)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, access)
}
