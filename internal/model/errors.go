package model

import "net/http"

// Kind groups error codes by how a caller should react to them.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindBlocked      Kind = "ACCOUNT_BLOCKED"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
)

// HTTPStatus maps a kind onto its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden, KindBlocked:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain failure with a stable, machine-readable code.
// Two Errors match under errors.Is when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithFields returns a copy of e carrying per-field detail.
func (e *Error) WithFields(fields map[string]string) *Error {
	cp := *e
	cp.Fields = fields
	return &cp
}

// WithMessage returns a copy of e with a different message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Error codes for HTTP responses
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeInvalidEmailFormat   = "INVALID_EMAIL_FORMAT"
	CodeWeakPassword         = "WEAK_PASSWORD"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeEmailExists          = "EMAIL_EXISTS"
	CodeBadSecretKey         = "BAD_SECRET_KEY"
	CodeNotMasterAdmin       = "NOT_MASTER_ADMIN"
	CodeMasterAdminExists    = "MASTER_ADMIN_EXISTS"
	CodeAdminRequired        = "ADMIN_REQUIRED"
	CodeCannotBlockAdmin     = "CANNOT_BLOCK_ADMIN"
	CodeCannotBlockMaster    = "CANNOT_BLOCK_MASTER"
	CodeCannotModifyMaster   = "CANNOT_MODIFY_MASTER"
	CodeOnlyMasterCanPromote = "ONLY_MASTER_CAN_PROMOTE"
	CodeCannotDeleteAdmin    = "CANNOT_DELETE_ADMIN"
	CodeCannotDeleteMaster   = "CANNOT_DELETE_MASTER"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeSelfRequest          = "SELF_REQUEST"
	CodeAlreadyFriends       = "ALREADY_FRIENDS"
	CodeRequestExists        = "REQUEST_EXISTS"
	CodeRequestNotFound      = "REQUEST_NOT_FOUND"
	CodeNotRequestRecipient  = "NOT_REQUEST_RECIPIENT"
	CodeRequestNotPending    = "REQUEST_NOT_PENDING"
	CodeSelfUnfriend         = "SELF_UNFRIEND"
	CodeSelfFriendCheck      = "SELF_FRIEND_CHECK"
	CodeAccountBlocked       = "ACCOUNT_BLOCKED"
	CodeNotFriends           = "NOT_FRIENDS"
	CodeTicketNotFound       = "TICKET_NOT_FOUND"
	CodeTicketAccessDenied   = "TICKET_ACCESS_DENIED"
	CodeMissingResponse      = "MISSING_RESPONSE"
	CodeInvalidStatus        = "INVALID_STATUS"
	CodeInvalidPriority      = "INVALID_PRIORITY"
	CodeMissingQuery         = "MISSING_QUERY"
	CodeInvalidAction        = "INVALID_ACTION"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeInvalidImageType     = "INVALID_IMAGE_TYPE"
)

var (
	ErrValidationFailed   = newError(KindValidation, CodeValidationFailed, "all required fields must be provided")
	ErrInvalidEmailFormat = newError(KindValidation, CodeInvalidEmailFormat, "invalid email format")
	ErrWeakPassword       = newError(KindValidation, CodeWeakPassword, "password must be at least 6 characters")
	ErrMissingResponse    = newError(KindValidation, CodeMissingResponse, "response text is required")
	ErrInvalidStatus      = newError(KindValidation, CodeInvalidStatus, "invalid status")
	ErrInvalidPriority    = newError(KindValidation, CodeInvalidPriority, "invalid priority")
	ErrMissingQuery       = newError(KindValidation, CodeMissingQuery, "search query is required")
	ErrInvalidAction      = newError(KindValidation, CodeInvalidAction, "action must be block or unblock")
	ErrSelfRequest        = newError(KindValidation, CodeSelfRequest, "you can't send a friend request to yourself")
	ErrSelfUnfriend       = newError(KindValidation, CodeSelfUnfriend, "you can't unfriend yourself")
	ErrSelfFriendCheck    = newError(KindValidation, CodeSelfFriendCheck, "cannot check friendship with yourself")

	ErrInvalidCredentials = newError(KindUnauthorized, CodeInvalidCredentials, "invalid email or password")
	ErrUnauthorized       = newError(KindUnauthorized, CodeUnauthorized, "authentication required")

	ErrBadSecretKey         = newError(KindForbidden, CodeBadSecretKey, "invalid admin secret key")
	ErrNotMasterAdmin       = newError(KindForbidden, CodeNotMasterAdmin, "only the master admin can create new admins")
	ErrAdminRequired        = newError(KindForbidden, CodeAdminRequired, "admin access required")
	ErrCannotBlockAdmin     = newError(KindForbidden, CodeCannotBlockAdmin, "cannot block admin users")
	ErrCannotBlockMaster    = newError(KindForbidden, CodeCannotBlockMaster, "cannot block or unblock the master admin")
	ErrCannotModifyMaster   = newError(KindForbidden, CodeCannotModifyMaster, "cannot modify the master admin's role")
	ErrOnlyMasterCanPromote = newError(KindForbidden, CodeOnlyMasterCanPromote, "only the master admin can promote users to admin")
	ErrCannotDeleteAdmin    = newError(KindForbidden, CodeCannotDeleteAdmin, "cannot delete admin users")
	ErrCannotDeleteMaster   = newError(KindForbidden, CodeCannotDeleteMaster, "cannot delete the master admin")
	ErrNotRequestRecipient  = newError(KindForbidden, CodeNotRequestRecipient, "you are not the recipient of this request")
	ErrNotFriends           = newError(KindForbidden, CodeNotFriends, "you can only chat with your friends")
	ErrTicketAccessDenied   = newError(KindForbidden, CodeTicketAccessDenied, "access denied")

	ErrAccountBlocked = newError(KindBlocked, CodeAccountBlocked, "your account has been blocked")

	ErrUserNotFound    = newError(KindNotFound, CodeUserNotFound, "user not found")
	ErrRequestNotFound = newError(KindNotFound, CodeRequestNotFound, "friend request not found")
	ErrTicketNotFound  = newError(KindNotFound, CodeTicketNotFound, "support ticket not found")

	ErrEmailExists       = newError(KindConflict, CodeEmailExists, "email already exists, please use a different one")
	ErrMasterAdminExists = newError(KindConflict, CodeMasterAdminExists, "a master admin already exists")
	ErrAlreadyFriends    = newError(KindConflict, CodeAlreadyFriends, "you are already friends with this user")
	ErrRequestExists     = newError(KindConflict, CodeRequestExists, "a friend request already exists between you and this user")
	ErrRequestNotPending = newError(KindConflict, CodeRequestNotPending, "friend request is no longer pending")
)
