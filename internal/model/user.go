package model

import "time"

// User represents an account in the system
type User struct {
	ID               int64     `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	FullName         string    `db:"full_name" json:"fullName"`
	PasswordHash     string    `db:"password_hash" json:"-"` // never serialised
	ProfilePic       string    `db:"profile_pic" json:"profilePic"`
	Bio              string    `db:"bio" json:"bio"`
	NativeLanguage   string    `db:"native_language" json:"nativeLanguage"`
	LearningLanguage string    `db:"learning_language" json:"learningLanguage"`
	Location         string    `db:"location" json:"location"`
	IsOnboarded      bool      `db:"is_onboarded" json:"isOnboarded"`
	IsBlocked        bool      `db:"is_blocked" json:"isBlocked"`
	IsAdmin          bool      `db:"is_admin" json:"isAdmin"`
	IsMasterAdmin    bool      `db:"is_master_admin" json:"isMasterAdmin"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary is the short form used in friend lists, search results and request listings.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:               u.ID,
		FullName:         u.FullName,
		ProfilePic:       u.ProfilePic,
		Bio:              u.Bio,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
		Location:         u.Location,
	}
}

type UserSummary struct {
	ID               int64  `db:"id" json:"id"`
	FullName         string `db:"full_name" json:"fullName"`
	ProfilePic       string `db:"profile_pic" json:"profilePic"`
	Bio              string `db:"bio" json:"bio,omitempty"`
	NativeLanguage   string `db:"native_language" json:"nativeLanguage"`
	LearningLanguage string `db:"learning_language" json:"learningLanguage"`
	Location         string `db:"location" json:"location,omitempty"`
}

// Profile is what one user sees of another. Email is set only for the
// owner and for admins.
type Profile struct {
	ID               int64     `json:"id"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email,omitempty"`
	ProfilePic       string    `json:"profilePic"`
	Bio              string    `json:"bio"`
	NativeLanguage   string    `json:"nativeLanguage"`
	LearningLanguage string    `json:"learningLanguage"`
	Location         string    `json:"location"`
	IsOnboarded      bool      `json:"isOnboarded"`
	IsAdmin          bool      `json:"isAdmin"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SignupRequest represents the data needed to register a new user
type SignupRequest struct {
	Email    string `json:"email" validate:"required,loose_email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type OnboardRequest struct {
	FullName         string `json:"fullName" validate:"required"`
	Bio              string `json:"bio" validate:"required"`
	NativeLanguage   string `json:"nativeLanguage" validate:"required"`
	LearningLanguage string `json:"learningLanguage" validate:"required"`
	Location         string `json:"location" validate:"required"`
	ProfilePic       string `json:"profilePic"`
}

type UpdateProfileRequest struct {
	FullName         string `json:"fullName" validate:"required"`
	NativeLanguage   string `json:"nativeLanguage" validate:"required"`
	LearningLanguage string `json:"learningLanguage" validate:"required"`
	Bio              string `json:"bio"`
	Location         string `json:"location"`
	ProfilePic       string `json:"profilePic"`
}

// CreateAdminRequest carries the new admin's account data and the shared secret.
type CreateAdminRequest struct {
	Email     string `json:"email" validate:"required,loose_email"`
	Password  string `json:"password" validate:"required,min=6"`
	FullName  string `json:"fullName" validate:"required"`
	SecretKey string `json:"secretKey"`
}

type BlockRequest struct {
	Action string `json:"action"`
}

const (
	ActionBlock   = "block"
	ActionUnblock = "unblock"
)

type RoleRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

// User status filters for the admin listing
const (
	UserStatusAll     = "all"
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

type UserFilter struct {
	Search string
	Status string
	Page   int
	Limit  int
}

// Normalize applies the listing defaults: page 1, limit 10, status all.
func (f *UserFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Status == "" {
		f.Status = UserStatusAll
	}
}

func (f UserFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type UserPage struct {
	Users       []User `json:"users"`
	Total       int    `json:"total"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// RecommendationLimit caps the recommended-users listing.
const RecommendationLimit = 20
