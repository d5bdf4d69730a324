package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"streamnet/internal/model"
	"streamnet/internal/repository"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================

// mockUserRepository embeds the interface so tests only stub what they use.
// Calling an unstubbed method panics on the nil embedded value.
type mockUserRepository struct {
	repository.UserRepository

	createFn        func(ctx context.Context, user *model.User) error
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn func(ctx context.Context, email string) (bool, error)
	getMasterFn     func(ctx context.Context) (*model.User, error)

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) GetMasterAdmin(ctx context.Context, tx *sqlx.Tx) (*model.User, error) {
	if m.getMasterFn != nil {
		return m.getMasterFn(ctx)
	}
	return nil, nil
}

// directTx runs fn without a transaction.
type directTx struct{}

func (directTx) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func newMockUserService(repo repository.UserRepository, sync ChatSync) *UserService {
	return NewUserService(directTx{}, repo, NewValidator(), fixedAvatar("https://avatars.test/7.png"), sync, testAdminSecret, zap.NewNop())
}

// =============================================================================
// SIGNUP TESTS
// =============================================================================

func TestUserService_Signup_Success(t *testing.T) {
	// ARRANGE
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.ID = 1
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	sync := &recordingSync{}
	svc := newMockUserService(mockRepo, sync)

	req := &model.SignupRequest{Email: "  Ann@Example.COM ", Password: "secret123", FullName: "Ann"}

	// ACT
	user, err := svc.Signup(context.Background(), req)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Errorf("email = %q, want normalized ann@example.com", user.Email)
	}
	if user.ProfilePic != "https://avatars.test/7.png" {
		t.Errorf("profilePic = %q, want default avatar", user.ProfilePic)
	}
	if user.IsAdmin || user.IsMasterAdmin || user.IsOnboarded {
		t.Error("new accounts start as plain, not onboarded users")
	}

	// Password must be hashed, never stored as given
	if user.PasswordHash == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		t.Errorf("password hash is invalid: %v", err)
	}

	if len(mockRepo.createCalls) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
	if len(sync.changed) != 1 || sync.changed[0] != 1 {
		t.Errorf("chat sync calls = %v, want [1]", sync.changed)
	}
}

func TestUserService_Signup_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     model.SignupRequest
		wantErr error
	}{
		{
			name:    "missing full name",
			req:     model.SignupRequest{Email: "a@b.co", Password: "secret123"},
			wantErr: model.ErrValidationFailed,
		},
		{
			name:    "missing fields win over a short password",
			req:     model.SignupRequest{Email: "a@b.co", Password: "abc"},
			wantErr: model.ErrValidationFailed,
		},
		{
			name:    "short password",
			req:     model.SignupRequest{Email: "a@b.co", Password: "abc", FullName: "A"},
			wantErr: model.ErrWeakPassword,
		},
		{
			name:    "bad email",
			req:     model.SignupRequest{Email: "not-an-email", Password: "secret123", FullName: "A"},
			wantErr: model.ErrInvalidEmailFormat,
		},
		{
			name:    "short password reported before bad email",
			req:     model.SignupRequest{Email: "nope", Password: "abc", FullName: "A"},
			wantErr: model.ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := newMockUserService(mockRepo, &recordingSync{})

			req := tt.req
			_, err := svc.Signup(context.Background(), &req)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(mockRepo.createCalls) != 0 {
				t.Error("Create should not be called when validation fails")
			}
		})
	}
}

func TestUserService_Signup_DuplicateEmail(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newMockUserService(mockRepo, &recordingSync{})

	_, err := svc.Signup(context.Background(), &model.SignupRequest{Email: "a@b.co", Password: "secret123", FullName: "A"})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("error = %v, want ErrEmailExists", err)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called for an existing email")
	}
}

func TestUserService_Signup_RepositoryErrorIsWrapped(t *testing.T) {
	dbErr := errors.New("connection reset")
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return false, dbErr
		},
	}
	svc := newMockUserService(mockRepo, &recordingSync{})

	_, err := svc.Signup(context.Background(), &model.SignupRequest{Email: "a@b.co", Password: "secret123", FullName: "A"})

	if !errors.Is(err, dbErr) {
		t.Errorf("error = %v, want wrapped %v", err, dbErr)
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	stored := &model.User{ID: 5, Email: "ann@example.com", PasswordHash: string(hash)}

	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := newMockUserService(mockRepo, &recordingSync{})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "success", email: "ANN@example.com", password: "correct-pass"},
		{name: "wrong password", email: "ann@example.com", password: "wrong-pass", wantErr: model.ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", password: "correct-pass", wantErr: model.ErrInvalidCredentials},
		{name: "missing password", email: "ann@example.com", wantErr: model.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Login(context.Background(), &model.LoginRequest{Email: tt.email, Password: tt.password})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.ID != stored.ID {
				t.Errorf("user id = %d, want %d", user.ID, stored.ID)
			}
		})
	}
}

func TestUserService_Login_SameErrorForUnknownAndWrong(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == "ann@example.com" {
				return &model.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := newMockUserService(mockRepo, &recordingSync{})

	_, errUnknown := svc.Login(context.Background(), &model.LoginRequest{Email: "who@example.com", Password: "x"})
	_, errWrong := svc.Login(context.Background(), &model.LoginRequest{Email: "ann@example.com", Password: "x"})

	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("messages differ: %q vs %q", errUnknown, errWrong)
	}
}

// =============================================================================
// ONBOARDING
// =============================================================================

func TestUserService_Onboard_ListsMissingFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Signup(ctx, &model.SignupRequest{Email: "a@b.co", Password: "secret123", FullName: "A"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err = env.users.Onboard(ctx, u, &model.OnboardRequest{FullName: "A", Bio: "  ", NativeLanguage: "english"})

	var domainErr *model.Error
	if !errors.As(err, &domainErr) || domainErr.Code != model.CodeValidationFailed {
		t.Fatalf("error = %v, want VALIDATION_FAILED", err)
	}
	for _, field := range []string{"bio", "learningLanguage", "location"} {
		if _, ok := domainErr.Fields[field]; !ok {
			t.Errorf("missing field %q not reported: %v", field, domainErr.Fields)
		}
	}
	if _, ok := domainErr.Fields["fullName"]; ok {
		t.Error("fullName was supplied and should not be reported")
	}
}

func TestUserService_Onboard_Success(t *testing.T) {
	env := newTestEnv(t)
	u := env.signup(t, "a@b.co", "Ann")

	if !u.IsOnboarded {
		t.Error("expected IsOnboarded after onboarding")
	}
	if u.NativeLanguage != "english" || u.LearningLanguage != "spanish" {
		t.Errorf("languages = %q/%q", u.NativeLanguage, u.LearningLanguage)
	}
	// signup + onboard both sync the chat provider
	if len(env.sync.changed) != 2 {
		t.Errorf("chat sync calls = %d, want 2", len(env.sync.changed))
	}
}

func TestUserService_BlockedUserCannotEditProfile(t *testing.T) {
	env := newTestEnv(t)
	u := env.signup(t, "a@b.co", "Ann")
	u.IsBlocked = true

	_, err := env.users.UpdateProfile(context.Background(), u, &model.UpdateProfileRequest{
		FullName: "Ann", NativeLanguage: "english", LearningLanguage: "french",
	})
	if !errors.Is(err, model.ErrAccountBlocked) {
		t.Errorf("error = %v, want ErrAccountBlocked", err)
	}
}

func TestUserService_GetProfile_HidesEmailFromOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.signup(t, "ann@b.co", "Ann")
	bob := env.signup(t, "bob@b.co", "Bob")

	other, err := env.users.GetProfile(ctx, bob, ann.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if other.Email != "" {
		t.Errorf("email leaked to another user: %q", other.Email)
	}

	self, _ := env.users.GetProfile(ctx, ann, ann.ID)
	if self.Email != "ann@b.co" {
		t.Errorf("own email = %q", self.Email)
	}

	if _, err := env.users.GetProfile(ctx, ann, 9999); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

// =============================================================================
// CREATE ADMIN
// =============================================================================

func adminReq(email string) *model.CreateAdminRequest {
	return &model.CreateAdminRequest{Email: email, Password: "secret123", FullName: email, SecretKey: testAdminSecret}
}

func TestUserService_CreateAdmin_FirstBecomesMaster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, isMaster, err := env.users.CreateAdmin(ctx, nil, adminReq("c@b.co"))
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if !isMaster || !c.IsAdmin || !c.IsMasterAdmin || !c.IsOnboarded {
		t.Errorf("first admin = %+v (isMaster=%v), want onboarded master admin", c, isMaster)
	}

	// D is not the master: forbidden whether anonymous or a plain user.
	_, _, err = env.users.CreateAdmin(ctx, nil, adminReq("d@b.co"))
	if !errors.Is(err, model.ErrNotMasterAdmin) {
		t.Errorf("anonymous second call: error = %v, want ErrNotMasterAdmin", err)
	}
	d := env.signup(t, "d@b.co", "D")
	_, _, err = env.users.CreateAdmin(ctx, d, adminReq("e@b.co"))
	if !errors.Is(err, model.ErrNotMasterAdmin) {
		t.Errorf("non-master call: error = %v, want ErrNotMasterAdmin", err)
	}

	// The master may add plain admins.
	e, isMaster, err := env.users.CreateAdmin(ctx, c, adminReq("e@b.co"))
	if err != nil {
		t.Fatalf("master CreateAdmin: %v", err)
	}
	if isMaster || e.IsMasterAdmin || !e.IsAdmin {
		t.Errorf("second admin = %+v, want plain admin", e)
	}
}

func TestUserService_CreateAdmin_SecretAlwaysRequired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := adminReq("c@b.co")
	req.SecretKey = "wrong"
	if _, _, err := env.users.CreateAdmin(ctx, nil, req); !errors.Is(err, model.ErrBadSecretKey) {
		t.Errorf("bootstrap with wrong key: error = %v, want ErrBadSecretKey", err)
	}

	master, _, err := env.users.CreateAdmin(ctx, nil, adminReq("c@b.co"))
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	req = adminReq("d@b.co")
	req.SecretKey = ""
	if _, _, err := env.users.CreateAdmin(ctx, master, req); !errors.Is(err, model.ErrBadSecretKey) {
		t.Errorf("master with no key: error = %v, want ErrBadSecretKey", err)
	}
}

func TestUserService_CreateAdmin_EmptyConfiguredSecretRejectsAll(t *testing.T) {
	svc := NewUserService(directTx{}, &mockUserRepository{}, NewValidator(), fixedAvatar(""), &recordingSync{}, "", zap.NewNop())

	req := adminReq("c@b.co")
	req.SecretKey = ""
	if _, _, err := svc.CreateAdmin(context.Background(), nil, req); !errors.Is(err, model.ErrBadSecretKey) {
		t.Errorf("error = %v, want ErrBadSecretKey", err)
	}
}

func TestUserService_CreateAdmin_ConcurrentBootstrapYieldsOneMaster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	masters := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := string(rune('a'+i)) + "@b.co"
			_, isMaster, err := env.users.CreateAdmin(ctx, nil, adminReq(email))
			if err == nil && isMaster {
				mu.Lock()
				masters++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if masters != 1 {
		t.Errorf("masters created = %d, want 1", masters)
	}
	stats, _ := env.repos.Stats.Collect(ctx, time.Time{})
	if stats.AdminUsers != 1 {
		t.Errorf("admin users = %d, want 1", stats.AdminUsers)
	}
}

func TestUserService_CreateAdmin_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "c@b.co", "C")

	_, _, err := env.users.CreateAdmin(context.Background(), nil, adminReq("C@b.co"))
	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("error = %v, want ErrEmailExists", err)
	}
}
