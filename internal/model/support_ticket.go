package model

import "time"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ticket categories offered by the support page
const (
	CategoryTechnical = "technical"
	CategoryAccount   = "account"
	CategoryFeature   = "feature"
	CategorySecurity  = "security"
	CategoryGeneral   = "general"
)

// SupportTicket references its owner and responder weakly: either account
// may have been deleted since.
type SupportTicket struct {
	ID          int64          `db:"id" json:"id"`
	UserID      int64          `db:"user_id" json:"userId"`
	Category    string         `db:"category" json:"category"`
	Subject     string         `db:"subject" json:"subject"`
	Message     string         `db:"message" json:"message"`
	Priority    TicketPriority `db:"priority" json:"priority"`
	Status      TicketStatus   `db:"status" json:"status"`
	Response    *string        `db:"response" json:"response,omitempty"`
	RespondedBy *int64         `db:"responded_by" json:"respondedBy,omitempty"`
	RespondedAt *time.Time     `db:"responded_at" json:"respondedAt,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`

	User      *TicketParty `db:"-" json:"user,omitempty"`
	Responder *TicketParty `db:"-" json:"responder,omitempty"`
}

// TicketParty is the populated owner or responder of a ticket.
type TicketParty struct {
	ID         int64  `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}

type CreateTicketRequest struct {
	Category string `json:"category" validate:"required,oneof=technical account feature security general"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
	Priority string `json:"priority"`
}

type RespondTicketRequest struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

type TicketStatusRequest struct {
	Status string `json:"status"`
}

// TicketFilter drives the admin listing. Empty or "all" matches any value.
type TicketFilter struct {
	Status   string
	Priority string
	Page     int
	Limit    int
}

func (f *TicketFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Status == "all" {
		f.Status = ""
	}
	if f.Priority == "all" {
		f.Priority = ""
	}
}

func (f TicketFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type TicketPage struct {
	Tickets     []SupportTicket `json:"tickets"`
	Total       int             `json:"total"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}
