package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"streamnet/internal/model"
	"streamnet/internal/policy"
	"streamnet/internal/repository"
)

// UserService covers account creation, authentication and self-service
// profile changes.
type UserService struct {
	tx          repository.TxRunner
	repo        repository.UserRepository
	validate    *Validator
	avatars     AvatarSource
	sync        ChatSync
	adminSecret string
	log         *zap.Logger
}

func NewUserService(
	tx repository.TxRunner,
	repo repository.UserRepository,
	validate *Validator,
	avatars AvatarSource,
	sync ChatSync,
	adminSecret string,
	log *zap.Logger,
) *UserService {
	return &UserService{
		tx:          tx,
		repo:        repo,
		validate:    validate,
		avatars:     avatars,
		sync:        sync,
		adminSecret: adminSecret,
		log:         log,
	}
}

// Signup validates and stores a new account with a random default avatar.
func (s *UserService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		ProfilePic:   s.avatars.RandomAvatar(),
	}
	if err := s.repo.Create(ctx, nil, user); err != nil {
		return nil, err
	}

	s.log.Info("user signed up", zap.Int64("user_id", user.ID))
	s.sync.UserChanged(ctx, user)
	return user, nil
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile returns the projection of targetID visible to viewer.
func (s *UserService) GetProfile(ctx context.Context, viewer *model.User, targetID int64) (*model.Profile, error) {
	if err := policy.RequireNotBlocked(viewer); err != nil {
		return nil, err
	}
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	profile := policy.ProfileFor(viewer, target)
	return &profile, nil
}

// Onboard fills the language profile and marks the account onboarded.
func (s *UserService) Onboard(ctx context.Context, actor *model.User, req *model.OnboardRequest) (*model.User, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	trimOnboard(req)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateOnboarding(ctx, actor.ID, req)
	if err != nil {
		return nil, err
	}
	s.sync.UserChanged(ctx, user)
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *model.User, req *model.UpdateProfileRequest) (*model.User, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.NativeLanguage = strings.TrimSpace(req.NativeLanguage)
	req.LearningLanguage = strings.TrimSpace(req.LearningLanguage)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, actor.ID, req)
	if err != nil {
		return nil, err
	}
	s.sync.UserChanged(ctx, user)
	return user, nil
}

// SetAvatar points the actor's profile picture at an uploaded image.
func (s *UserService) SetAvatar(ctx context.Context, actor *model.User, url string) (*model.User, error) {
	if err := policy.RequireNotBlocked(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.UpdateProfilePic(ctx, actor.ID, url)
	if err != nil {
		return nil, err
	}
	s.sync.UserChanged(ctx, user)
	return user, nil
}

// CreateAdmin creates an admin account. The secret key must always match.
// While no master admin exists, any holder of the key may create the first
// admin, who becomes the master; afterwards only the master may create admins.
// actor is nil for unauthenticated callers.
func (s *UserService) CreateAdmin(ctx context.Context, actor *model.User, req *model.CreateAdminRequest) (user *model.User, isMaster bool, err error) {
	if s.adminSecret == "" || subtle.ConstantTimeCompare([]byte(req.SecretKey), []byte(s.adminSecret)) != 1 {
		return nil, false, model.ErrBadSecretKey
	}

	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		master, err := s.repo.GetMasterAdmin(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to load master admin: %w", err)
		}
		if err := policy.CheckCreateAdmin(actor, master); err != nil {
			return err
		}
		if err := s.validate.Struct(req); err != nil {
			return err
		}

		exists, err := s.repo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return model.ErrEmailExists
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return err
		}

		isMaster = master == nil
		user = &model.User{
			Email:         req.Email,
			FullName:      req.FullName,
			PasswordHash:  hash,
			ProfilePic:    s.avatars.RandomAvatar(),
			IsOnboarded:   true,
			IsAdmin:       true,
			IsMasterAdmin: isMaster,
		}
		return s.repo.Create(ctx, tx, user)
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info("admin created", zap.Int64("user_id", user.ID), zap.Bool("master", isMaster))
	s.sync.UserChanged(ctx, user)
	return user, isMaster, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func trimOnboard(req *model.OnboardRequest) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Bio = strings.TrimSpace(req.Bio)
	req.NativeLanguage = strings.TrimSpace(req.NativeLanguage)
	req.LearningLanguage = strings.TrimSpace(req.LearningLanguage)
	req.Location = strings.TrimSpace(req.Location)
}
