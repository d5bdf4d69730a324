package memory

import (
	"context"
	"sort"
	"time"

	"streamnet/internal/model"
)

type supportRepo struct {
	s *Store
}

// populateLocked returns a copy of t with owner and responder filled from the
// users still present.
func (r *supportRepo) populateLocked(t *model.SupportTicket) model.SupportTicket {
	cp := *t
	if u, ok := r.s.users[t.UserID]; ok {
		cp.User = &model.TicketParty{ID: u.ID, FullName: u.FullName, Email: u.Email, ProfilePic: u.ProfilePic}
	}
	if t.RespondedBy != nil {
		if u, ok := r.s.users[*t.RespondedBy]; ok {
			cp.Responder = &model.TicketParty{ID: u.ID, FullName: u.FullName}
		}
	}
	return cp
}

func (r *supportRepo) Create(ctx context.Context, t *model.SupportTicket) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTicketID++
	now := s.now()
	t.ID = s.nextTicketID
	t.CreatedAt = now
	t.UpdatedAt = now

	cp := *t
	cp.User, cp.Responder = nil, nil
	s.tickets[t.ID] = &cp
	return nil
}

func (r *supportRepo) GetByID(ctx context.Context, id int64) (*model.SupportTicket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tickets[id]
	if !ok {
		return nil, model.ErrTicketNotFound
	}
	out := r.populateLocked(t)
	return &out, nil
}

func (r *supportRepo) collect(match func(t *model.SupportTicket) bool) []*model.SupportTicket {
	var matched []*model.SupportTicket
	for _, t := range r.s.tickets {
		if match(t) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})
	return matched
}

func (r *supportRepo) ListByUser(ctx context.Context, userID int64) ([]model.SupportTicket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.SupportTicket{}
	for _, t := range r.collect(func(t *model.SupportTicket) bool { return t.UserID == userID }) {
		out = append(out, r.populateLocked(t))
	}
	return out, nil
}

func (r *supportRepo) List(ctx context.Context, f model.TicketFilter) ([]model.SupportTicket, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.collect(func(t *model.SupportTicket) bool {
		if f.Status != "" && string(t.Status) != f.Status {
			return false
		}
		if f.Priority != "" && string(t.Priority) != f.Priority {
			return false
		}
		return true
	})

	out := []model.SupportTicket{}
	for _, t := range page(matched, f.Offset(), f.Limit) {
		out = append(out, r.populateLocked(t))
	}
	return out, len(matched), nil
}

func (r *supportRepo) update(id int64, fn func(t *model.SupportTicket)) (*model.SupportTicket, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, model.ErrTicketNotFound
	}
	fn(t)
	t.UpdatedAt = s.now()
	out := r.populateLocked(t)
	return &out, nil
}

func (r *supportRepo) Respond(ctx context.Context, id, responderID int64, response string, status model.TicketStatus, at time.Time) (*model.SupportTicket, error) {
	return r.update(id, func(t *model.SupportTicket) {
		t.Response = &response
		t.RespondedBy = &responderID
		t.RespondedAt = &at
		t.Status = status
	})
}

func (r *supportRepo) SetStatus(ctx context.Context, id int64, status model.TicketStatus) (*model.SupportTicket, error) {
	return r.update(id, func(t *model.SupportTicket) { t.Status = status })
}

type statsRepo struct {
	s *Store
}

func (r *statsRepo) Collect(ctx context.Context, since time.Time) (*model.PlatformStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var st model.PlatformStats
	for _, u := range r.s.users {
		st.TotalUsers++
		if u.IsBlocked {
			st.BlockedUsers++
		} else {
			st.ActiveUsers++
		}
		if u.IsOnboarded {
			st.OnboardedUsers++
		}
		if u.IsAdmin {
			st.AdminUsers++
		}
		if !u.CreatedAt.Before(since) {
			st.RecentUsers++
		}
	}
	for _, fr := range r.s.requests {
		st.TotalFriendRequests++
		if fr.Status == model.RequestPending {
			st.PendingRequests++
		}
	}
	return &st, nil
}
