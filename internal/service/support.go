package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"streamnet/internal/model"
	"streamnet/internal/policy"
	"streamnet/internal/repository"
)

// SupportService implements the ticket workflow. Any status is settable by
// an admin; there is no forced order.
type SupportService struct {
	repo     repository.SupportRepository
	validate *Validator
	log      *zap.Logger
	now      func() time.Time
}

func NewSupportService(repo repository.SupportRepository, validate *Validator, log *zap.Logger) *SupportService {
	return &SupportService{repo: repo, validate: validate, log: log, now: time.Now}
}

// Create files a ticket for actor. Priority defaults to medium.
func (s *SupportService) Create(ctx context.Context, actor *model.User, req *model.CreateTicketRequest) (*model.SupportTicket, error) {
	req.Category = strings.TrimSpace(req.Category)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	priority := model.PriorityMedium
	if req.Priority != "" {
		priority = model.TicketPriority(req.Priority)
		if !priority.Valid() {
			return nil, model.ErrInvalidPriority
		}
	}

	ticket := &model.SupportTicket{
		UserID:   actor.ID,
		Category: req.Category,
		Subject:  req.Subject,
		Message:  req.Message,
		Priority: priority,
		Status:   model.TicketOpen,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	s.log.Info("support ticket created", zap.Int64("ticket_id", ticket.ID), zap.Int64("user_id", actor.ID), zap.String("category", ticket.Category))
	return ticket, nil
}

func (s *SupportService) ListOwn(ctx context.Context, actor *model.User) ([]model.SupportTicket, error) {
	tickets, err := s.repo.ListByUser(ctx, actor.ID)
	return nonNil(tickets), err
}

// Get returns the ticket to its owner or an admin. A missing ticket is
// reported as not found, someone else's as access denied.
func (s *SupportService) Get(ctx context.Context, actor *model.User, id int64) (*model.SupportTicket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTicket(actor, ticket) {
		return nil, model.ErrTicketAccessDenied
	}
	return ticket, nil
}

func (s *SupportService) ListAll(ctx context.Context, actor *model.User, filter model.TicketFilter) (*model.TicketPage, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	filter.Normalize()
	if filter.Status != "" && !model.TicketStatus(filter.Status).Valid() {
		return nil, model.ErrInvalidStatus
	}
	if filter.Priority != "" && !model.TicketPriority(filter.Priority).Valid() {
		return nil, model.ErrInvalidPriority
	}

	tickets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return &model.TicketPage{
		Tickets:     nonNil(tickets),
		Total:       total,
		TotalPages:  model.TotalPages(total, filter.Limit),
		CurrentPage: filter.Page,
	}, nil
}

// Respond records actor's answer. Status becomes resolved unless given.
func (s *SupportService) Respond(ctx context.Context, actor *model.User, id int64, req *model.RespondTicketRequest) (*model.SupportTicket, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	response := strings.TrimSpace(req.Response)
	if response == "" {
		return nil, model.ErrMissingResponse
	}

	status := model.TicketResolved
	if req.Status != "" {
		status = model.TicketStatus(req.Status)
		if !status.Valid() {
			return nil, model.ErrInvalidStatus
		}
	}

	ticket, err := s.repo.Respond(ctx, id, actor.ID, response, status, s.now())
	if err != nil {
		return nil, err
	}
	s.log.Info("support ticket answered", zap.Int64("ticket_id", id), zap.Int64("admin_id", actor.ID), zap.String("status", string(status)))
	return ticket, nil
}

func (s *SupportService) SetStatus(ctx context.Context, actor *model.User, id int64, status string) (*model.SupportTicket, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	st := model.TicketStatus(status)
	if !st.Valid() {
		return nil, model.ErrInvalidStatus
	}
	return s.repo.SetStatus(ctx, id, st)
}
