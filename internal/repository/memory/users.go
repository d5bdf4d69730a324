package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, tx *sqlx.Tx, u *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrEmailExists
		}
		if u.IsMasterAdmin && existing.IsMasterAdmin {
			return model.ErrMasterAdminExists
		}
	}

	s.nextUserID++
	now := s.now()
	u.ID = s.nextUserID
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetForUpdate is a plain read; WithTx already serialises writers.
func (r *userRepo) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepo) GetMasterAdmin(ctx context.Context, tx *sqlx.Tx) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.IsMasterAdmin {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *userRepo) ListAdmins(ctx context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var admins []model.User
	for _, u := range r.s.users {
		if u.IsAdmin {
			admins = append(admins, *u)
		}
	}
	sort.Slice(admins, func(i, j int) bool {
		if admins[i].IsMasterAdmin != admins[j].IsMasterAdmin {
			return admins[i].IsMasterAdmin
		}
		return admins[i].ID < admins[j].ID
	})
	return admins, nil
}

// mutate applies fn to the stored user under the write lock.
func (r *userRepo) mutate(id int64, fn func(u *model.User)) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (r *userRepo) UpdateOnboarding(ctx context.Context, id int64, req *model.OnboardRequest) (*model.User, error) {
	return r.mutate(id, func(u *model.User) {
		u.FullName = req.FullName
		u.Bio = req.Bio
		u.NativeLanguage = req.NativeLanguage
		u.LearningLanguage = req.LearningLanguage
		u.Location = req.Location
		if req.ProfilePic != "" {
			u.ProfilePic = req.ProfilePic
		}
		u.IsOnboarded = true
	})
}

func (r *userRepo) UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return r.mutate(id, func(u *model.User) {
		u.FullName = req.FullName
		u.NativeLanguage = req.NativeLanguage
		u.LearningLanguage = req.LearningLanguage
		u.Bio = req.Bio
		u.Location = req.Location
		if req.ProfilePic != "" {
			u.ProfilePic = req.ProfilePic
		}
	})
}

func (r *userRepo) UpdateProfilePic(ctx context.Context, id int64, url string) (*model.User, error) {
	return r.mutate(id, func(u *model.User) { u.ProfilePic = url })
}

func (r *userRepo) SetBlocked(ctx context.Context, tx *sqlx.Tx, id int64, blocked bool) (*model.User, error) {
	return r.mutate(id, func(u *model.User) { u.IsBlocked = blocked })
}

func (r *userRepo) SetAdmin(ctx context.Context, tx *sqlx.Tx, id int64, isAdmin bool) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.IsMasterAdmin {
		return nil, model.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (r *userRepo) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)

	// Mirrors ON DELETE CASCADE.
	delete(s.friendships, id)
	for _, set := range s.friendships {
		delete(set, id)
	}
	for rid, fr := range s.requests {
		if fr.Involves(id) {
			delete(s.requests, rid)
		}
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, f model.UserFilter) ([]model.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []*model.User
	for _, u := range r.s.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		switch f.Status {
		case model.UserStatusActive:
			if u.IsBlocked {
				continue
			}
		case model.UserStatusBlocked:
			if !u.IsBlocked {
				continue
			}
		}
		matched = append(matched, u)
	}
	sortUsersNewestFirst(matched)

	out := []model.User{}
	for _, u := range page(matched, f.Offset(), f.Limit) {
		out = append(out, *u)
	}
	return out, len(matched), nil
}

func (r *userRepo) Search(ctx context.Context, excludeID int64, fragment string) ([]model.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(fragment)
	var matched []*model.User
	for _, u := range r.s.users {
		if u.ID == excludeID || !u.IsOnboarded || u.IsMasterAdmin {
			continue
		}
		if strings.Contains(strings.ToLower(u.FullName), needle) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].FullName != matched[j].FullName {
			return matched[i].FullName < matched[j].FullName
		}
		return matched[i].ID < matched[j].ID
	})

	out := make([]model.UserSummary, 0, len(matched))
	for _, u := range matched {
		out = append(out, u.Summary())
	}
	return out, nil
}

func (r *userRepo) Recommend(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.User
	for _, u := range s.users {
		if u.ID == userID || !u.IsOnboarded || u.IsMasterAdmin || s.hasDirectedLocked(userID, u.ID) {
			continue
		}
		matched = append(matched, u)
	}
	sortUsersNewestFirst(matched)

	out := []model.UserSummary{}
	for _, u := range page(matched, 0, limit) {
		out = append(out, u.Summary())
	}
	return out, nil
}
