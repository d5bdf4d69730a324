package service

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"streamnet/internal/model"
	"streamnet/internal/repository/memory"
)

const testAdminSecret = "let-me-in"

// recordingSync captures chat sync calls instead of reaching a provider.
type recordingSync struct {
	mu      sync.Mutex
	changed []int64
	deleted []int64
}

func (r *recordingSync) UserChanged(ctx context.Context, u *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, u.ID)
}

func (r *recordingSync) UserDeleted(ctx context.Context, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, userID)
}

type fixedAvatar string

func (f fixedAvatar) RandomAvatar() string { return string(f) }

// testEnv wires every service over one in-memory store.
type testEnv struct {
	store   *memory.Store
	repos   memory.Repositories
	sync    *recordingSync
	users   *UserService
	friends *FriendService
	admin   *AdminService
	support *SupportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	sync := &recordingSync{}
	log := zap.NewNop()
	v := NewValidator()

	return &testEnv{
		store:   store,
		repos:   repos,
		sync:    sync,
		users:   NewUserService(repos.Tx, repos.Users, v, fixedAvatar("https://avatars.test/1.png"), sync, testAdminSecret, log),
		friends: NewFriendService(repos.Tx, repos.Users, repos.Friends, log),
		admin:   NewAdminService(repos.Tx, repos.Users, repos.Friends, repos.Stats, nil, sync, log),
		support: NewSupportService(repos.Support, v, log),
	}
}

// signup creates an onboarded user through the service.
func (e *testEnv) signup(t *testing.T, email, name string) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := e.users.Signup(ctx, &model.SignupRequest{Email: email, Password: "secret123", FullName: name})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	u, err = e.users.Onboard(ctx, u, &model.OnboardRequest{
		FullName:         name,
		Bio:              "hi",
		NativeLanguage:   "english",
		LearningLanguage: "spanish",
		Location:         "Lisbon",
	})
	if err != nil {
		t.Fatalf("onboard %s: %v", email, err)
	}
	return u
}

// reload fetches the current state of u.
func (e *testEnv) reload(t *testing.T, u *model.User) *model.User {
	t.Helper()
	fresh, err := e.repos.Users.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload %d: %v", u.ID, err)
	}
	return fresh
}

func (e *testEnv) makeAdmin(t *testing.T, email string, master bool) *model.User {
	t.Helper()
	u := &model.User{Email: email, FullName: email, PasswordHash: "x", IsOnboarded: true, IsAdmin: true, IsMasterAdmin: master}
	if err := e.repos.Users.Create(context.Background(), nil, u); err != nil {
		t.Fatalf("create admin %s: %v", email, err)
	}
	return u
}
