package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"streamnet/internal/httputil"
	"streamnet/internal/model"
	"streamnet/internal/service"
)

// UserHandler serves /api/users: profiles, friends and friend requests.
type UserHandler struct {
	users   *service.UserService
	friends *service.FriendService
	media   *service.MediaService // nil when R2 is not configured
	log     *zap.Logger
}

func NewUserHandler(users *service.UserService, friends *service.FriendService, media *service.MediaService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, friends: friends, media: media, log: log}
}

func (h *UserHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.friends.Recommend(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	friends, err := h.friends.ListFriends(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, friends)
}

// Search handles GET /api/users/search?query=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.friends.Search(r.Context(), actor, r.URL.Query().Get("query"))
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	profile, err := h.users.GetProfile(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) CheckFriends(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	check, err := h.friends.CheckFriendship(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

func (h *UserHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, err := h.friends.SendRequest(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

func (h *UserHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.friends.AcceptRequest(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Friend request accepted"})
}

func (h *UserHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.friends.DeclineRequest(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Friend request declined"})
}

func (h *UserHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.friends.Unfriend(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Successfully unfriended"})
}

func (h *UserHandler) FriendRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	reqs, err := h.friends.ListRequests(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}

func (h *UserHandler) OutgoingRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	reqs, err := h.friends.ListOutgoing(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.UpdateProfileRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), actor, &req)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}

// UploadAvatar handles multipart PUT /api/users/profile/avatar (field "avatar").
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.media == nil {
		httputil.WriteNotFound(w, "Avatar uploads are not enabled")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteDomainError(w, h.log, model.ErrFileTooLarge)
			return
		}
		httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteDomainError(w, h.log, model.ErrValidationFailed.WithFields(map[string]string{"avatar": "required"}))
		return
	}
	defer file.Close()

	upload, err := h.media.UploadAvatar(r.Context(), actor.ID, service.Upload{
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}

	user, err := h.users.SetAvatar(r.Context(), actor, upload.URL)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}
