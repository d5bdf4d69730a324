package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
)

const userColumns = `id, email, full_name, password_hash, profile_pic, bio, native_language,
	learning_language, location, is_onboarded, is_blocked, is_admin, is_master_admin, created_at, updated_at`

const summaryColumns = `id, full_name, profile_pic, bio, native_language, learning_language, location`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, tx *sqlx.Tx, u *model.User) error {
	query := `
		INSERT INTO users (email, full_name, password_hash, profile_pic, bio, native_language,
		                   learning_language, location, is_onboarded, is_admin, is_master_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	row := on(r.db, tx).QueryRowxContext(ctx, query,
		u.Email,
		u.FullName,
		u.PasswordHash,
		u.ProfilePic,
		u.Bio,
		u.NativeLanguage,
		u.LearningLanguage,
		u.Location,
		u.IsOnboarded,
		u.IsAdmin,
		u.IsMasterAdmin,
	)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case "users_single_master_admin":
				return model.ErrMasterAdminExists
			case "users_email_key":
				return model.ErrEmailExists
			}
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if isNoRows(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if isNoRows(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) GetMasterAdmin(ctx context.Context, tx *sqlx.Tx) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_master_admin LIMIT 1`

	var u model.User
	if err := on(r.db, tx).GetContext(ctx, &u, query); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get master admin: %w", err)
	}
	return &u, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_admin ORDER BY is_master_admin DESC, created_at ASC`

	var users []model.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateOnboarding(ctx context.Context, id int64, req *model.OnboardRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET full_name = $2, bio = $3, native_language = $4, learning_language = $5, location = $6,
		    profile_pic = COALESCE(NULLIF($7, ''), profile_pic),
		    is_onboarded = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return r.updateOne(ctx, nil, "onboard user", query,
		id, req.FullName, req.Bio, req.NativeLanguage, req.LearningLanguage, req.Location, req.ProfilePic)
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET full_name = $2, native_language = $3, learning_language = $4, bio = $5, location = $6,
		    profile_pic = COALESCE(NULLIF($7, ''), profile_pic),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return r.updateOne(ctx, nil, "update profile", query,
		id, req.FullName, req.NativeLanguage, req.LearningLanguage, req.Bio, req.Location, req.ProfilePic)
}

func (r *userRepository) UpdateProfilePic(ctx context.Context, id int64, url string) (*model.User, error) {
	query := `UPDATE users SET profile_pic = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	return r.updateOne(ctx, nil, "update profile picture", query, id, url)
}

func (r *userRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	var u model.User
	if err := on(r.db, tx).GetContext(ctx, &u, query, id); err != nil {
		if isNoRows(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) SetBlocked(ctx context.Context, tx *sqlx.Tx, id int64, blocked bool) (*model.User, error) {
	query := `UPDATE users SET is_blocked = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	return r.updateOne(ctx, tx, "set blocked", query, id, blocked)
}

func (r *userRepository) SetAdmin(ctx context.Context, tx *sqlx.Tx, id int64, isAdmin bool) (*model.User, error) {
	// The master admin row is never demoted here; the CHECK constraint would reject it anyway.
	query := `
		UPDATE users SET is_admin = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_master_admin
		RETURNING ` + userColumns
	return r.updateOne(ctx, tx, "set admin", query, id, isAdmin)
}

func (r *userRepository) updateOne(ctx context.Context, tx *sqlx.Tx, op, query string, args ...interface{}) (*model.User, error) {
	var u model.User
	if err := on(r.db, tx).GetContext(ctx, &u, query, args...); err != nil {
		if isNoRows(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &u, nil
}

func (r *userRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := on(r.db, tx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// List returns one page of users, newest first, plus the total matching count.
func (r *userRepository) List(ctx context.Context, f model.UserFilter) ([]model.User, int, error) {
	var (
		where []string
		args  []interface{}
	)

	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, containsPattern(s))
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	switch f.Status {
	case model.UserStatusActive:
		where = append(where, "NOT is_blocked")
	case model.UserStatusBlocked:
		where = append(where, "is_blocked")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, clause, len(args)-1, len(args))

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Search(ctx context.Context, excludeID int64, fragment string) ([]model.UserSummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM users
		WHERE id <> $1 AND is_onboarded AND NOT is_master_admin AND full_name ILIKE $2
		ORDER BY full_name ASC, id ASC
	`

	users := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, excludeID, containsPattern(fragment)); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Recommend(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM users u
		WHERE u.id <> $1
		  AND u.is_onboarded
		  AND NOT u.is_master_admin
		  AND NOT EXISTS (SELECT 1 FROM friendships f WHERE f.user_id = $1 AND f.friend_id = u.id)
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $2
	`

	users := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recommended users: %w", err)
	}
	return users, nil
}
