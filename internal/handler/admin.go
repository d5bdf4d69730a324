package handler

import (
	"net/http"

	"go.uber.org/zap"

	"streamnet/internal/httputil"
	"streamnet/internal/model"
	"streamnet/internal/service"
)

// AdminHandler serves /api/admin.
type AdminHandler struct {
	admin *service.AdminService
	log   *zap.Logger
}

func NewAdminHandler(admin *service.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

type adminUserResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	stats, err := h.admin.Stats(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// Users handles GET /api/admin/users?page=&limit=&search=&status=
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, err := h.admin.ListUsers(r.Context(), actor, model.UserFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) Block(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req model.BlockRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.admin.SetBlocked(r.Context(), actor, id, req.Action)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, adminUserResponse{Message: "User " + req.Action + "ed successfully", User: user})
}

func (h *AdminHandler) Role(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req model.RoleRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.admin.SetRole(r.Context(), actor, id, req.IsAdmin)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	msg := "User demoted from admin"
	if req.IsAdmin {
		msg = "User promoted to admin"
	}
	httputil.WriteJSON(w, http.StatusOK, adminUserResponse{Message: msg, User: user})
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
