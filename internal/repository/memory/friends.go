package memory

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
)

type friendRepo struct {
	s *Store
}

func (r *friendRepo) findBetweenLocked(a, b int64) *model.FriendRequest {
	for _, fr := range r.s.requests {
		if (fr.SenderID == a && fr.RecipientID == b) || (fr.SenderID == b && fr.RecipientID == a) {
			return fr
		}
	}
	return nil
}

func (r *friendRepo) CreateRequest(ctx context.Context, senderID, recipientID int64) (*model.FriendRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[senderID]; !ok {
		return nil, model.ErrUserNotFound
	}
	if _, ok := s.users[recipientID]; !ok {
		return nil, model.ErrUserNotFound
	}
	if r.findBetweenLocked(senderID, recipientID) != nil {
		return nil, model.ErrRequestExists
	}

	s.nextRequestID++
	now := s.now()
	fr := &model.FriendRequest{
		ID:          s.nextRequestID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      model.RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.requests[fr.ID] = fr
	cp := *fr
	return &cp, nil
}

func (r *friendRepo) GetRequestByID(ctx context.Context, id int64) (*model.FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	fr, ok := r.s.requests[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	cp := *fr
	return &cp, nil
}

func (r *friendRepo) FindRequestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	fr := r.findBetweenLocked(a, b)
	if fr == nil {
		return nil, nil
	}
	cp := *fr
	return &cp, nil
}

func (r *friendRepo) MarkAccepted(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	fr, ok := s.requests[id]
	if !ok || fr.Status != model.RequestPending {
		return false, nil
	}
	fr.Status = model.RequestAccepted
	fr.UpdatedAt = s.now()
	return true, nil
}

func (r *friendRepo) DeletePendingRequest(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if fr, ok := s.requests[id]; !ok || fr.Status != model.RequestPending {
		return false, nil
	}
	delete(s.requests, id)
	return true, nil
}

func (r *friendRepo) DeleteRequestBetween(ctx context.Context, tx *sqlx.Tx, a, b int64, status model.RequestStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if fr := r.findBetweenLocked(a, b); fr != nil && fr.Status == status {
		delete(s.requests, fr.ID)
	}
	return nil
}

func (r *friendRepo) DeleteRequestsForUser(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, fr := range s.requests {
		if fr.Involves(userID) {
			delete(s.requests, id)
			n++
		}
	}
	return n, nil
}

func (r *friendRepo) list(match func(fr *model.FriendRequest) bool, view func(fr *model.FriendRequest) model.FriendRequestView) []model.FriendRequestView {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*model.FriendRequest
	for _, fr := range r.s.requests {
		if match(fr) {
			matched = append(matched, fr)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	out := make([]model.FriendRequestView, 0, len(matched))
	for _, fr := range matched {
		out = append(out, view(fr))
	}
	return out
}

func (r *friendRepo) ListIncoming(ctx context.Context, userID int64) ([]model.FriendRequestView, error) {
	return r.list(
		func(fr *model.FriendRequest) bool {
			return fr.RecipientID == userID && fr.Status == model.RequestPending
		},
		func(fr *model.FriendRequest) model.FriendRequestView {
			return model.FriendRequestView{FriendRequest: *fr, Sender: r.s.summaryLocked(fr.SenderID)}
		},
	), nil
}

func (r *friendRepo) ListAcceptedOutgoing(ctx context.Context, userID int64) ([]model.FriendRequestView, error) {
	return r.listOutgoing(userID, model.RequestAccepted), nil
}

func (r *friendRepo) ListOutgoing(ctx context.Context, userID int64) ([]model.FriendRequestView, error) {
	return r.listOutgoing(userID, model.RequestPending), nil
}

func (r *friendRepo) listOutgoing(userID int64, status model.RequestStatus) []model.FriendRequestView {
	return r.list(
		func(fr *model.FriendRequest) bool {
			return fr.SenderID == userID && fr.Status == status
		},
		func(fr *model.FriendRequest) model.FriendRequestView {
			return model.FriendRequestView{FriendRequest: *fr, Recipient: r.s.summaryLocked(fr.RecipientID)}
		},
	)
}

func (r *friendRepo) AddFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[a]; !ok {
		return model.ErrUserNotFound
	}
	if _, ok := s.users[b]; !ok {
		return model.ErrUserNotFound
	}
	s.addDirectedLocked(a, b)
	s.addDirectedLocked(b, a)
	return nil
}

func (r *friendRepo) RemoveFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.friendships[a], b)
	delete(s.friendships[b], a)
	return nil
}

func (r *friendRepo) RemoveAllFriendships(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.friendships[userID]))
	delete(s.friendships, userID)
	for _, set := range s.friendships {
		if _, ok := set[userID]; ok {
			delete(set, userID)
			n++
		}
	}
	return n, nil
}

func (r *friendRepo) ListFriends(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id int64
		at int64
	}
	var entries []entry
	for id, at := range s.friendships[userID] {
		entries = append(entries, entry{id: id, at: at.UnixNano()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at != entries[j].at {
			return entries[i].at > entries[j].at
		}
		return entries[i].id > entries[j].id
	})

	friends := []model.UserSummary{}
	for _, e := range entries {
		if sum := s.summaryLocked(e.id); sum != nil {
			friends = append(friends, *sum)
		}
	}
	return friends, nil
}

func (r *friendRepo) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.hasDirectedLocked(a, b), nil
}

func (r *friendRepo) FindAsymmetric(ctx context.Context) ([]model.Asymmetry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []model.Asymmetry{}
	for userID, set := range s.friendships {
		for friendID := range set {
			if !s.hasDirectedLocked(friendID, userID) {
				rows = append(rows, model.Asymmetry{UserID: userID, FriendID: friendID})
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].FriendID < rows[j].FriendID
	})
	return rows, nil
}

func (r *friendRepo) RepairAsymmetric(ctx context.Context, tx *sqlx.Tx, rows []model.Asymmetry) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	repaired := 0
	for _, a := range rows {
		if _, ok := s.users[a.FriendID]; !ok {
			continue
		}
		if s.addDirectedLocked(a.FriendID, a.UserID) {
			repaired++
		}
	}
	return repaired, nil
}
