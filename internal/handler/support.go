package handler

import (
	"net/http"

	"go.uber.org/zap"

	"streamnet/internal/httputil"
	"streamnet/internal/model"
	"streamnet/internal/service"
)

// SupportHandler serves /api/support.
type SupportHandler struct {
	support *service.SupportService
	log     *zap.Logger
}

func NewSupportHandler(support *service.SupportService, log *zap.Logger) *SupportHandler {
	return &SupportHandler{support: support, log: log}
}

type ticketResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Ticket  *model.SupportTicket `json:"ticket"`
}

type ticketsResponse struct {
	Success bool                  `json:"success"`
	Tickets []model.SupportTicket `json:"tickets"`
}

func (h *SupportHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.CreateTicketRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	ticket, err := h.support.Create(r.Context(), actor, &req)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ticketResponse{Success: true, Message: "Support ticket created successfully", Ticket: ticket})
}

func (h *SupportHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	tickets, err := h.support.ListOwn(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ticketsResponse{Success: true, Tickets: tickets})
}

func (h *SupportHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ticket, err := h.support.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ticketResponse{Success: true, Ticket: ticket})
}

// ListAll handles GET /api/support/admin/tickets?status=&priority=&page=&limit=
func (h *SupportHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, err := h.support.ListAll(r.Context(), actor, model.TicketFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *SupportHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req model.RespondTicketRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	ticket, err := h.support.Respond(r.Context(), actor, id, &req)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ticketResponse{Success: true, Message: "Response sent successfully", Ticket: ticket})
}

func (h *SupportHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req model.TicketStatusRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	ticket, err := h.support.SetStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		httputil.WriteDomainError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ticketResponse{Success: true, Message: "Ticket status updated", Ticket: ticket})
}
