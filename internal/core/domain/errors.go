package domain

import "fmt"

// ErrorKind classifies a domain error. Transports map kinds to status codes;
// clients branch on Code.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindInvariant    ErrorKind = "invariant_violation"
	KindGone         ErrorKind = "gone"
	KindUnauthorized ErrorKind = "unauthorized"
)

// Error is the single domain error type. Code is the stable contract; Message
// is for humans and may change.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	if e.Code == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Kind, and on Code when the target carries one. This lets
// callers test for a whole class (ErrNotFound) or one case (ErrGroupNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithField returns a copy of e naming the offending input field.
func (e *Error) WithField(field string) *Error {
	c := *e
	c.Field = field
	return &c
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// Class sentinels, for errors.Is checks on a whole kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrInvariant    = &Error{Kind: KindInvariant}
	ErrGone         = &Error{Kind: KindGone}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

// Validation builds a validation error for one input field.
func Validation(code, field, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Message: message}
}

var (
	ErrGroupNameRequired = &Error{Kind: KindValidation, Code: "GROUP_NAME_REQUIRED", Message: "group name is required", Field: "name"}
	ErrEmailRequired     = &Error{Kind: KindValidation, Code: "EMAIL_REQUIRED", Message: "email is required", Field: "email"}
	ErrInvalidRole       = &Error{Kind: KindValidation, Code: "INVALID_ROLE", Message: "role must be admin or member", Field: "role"}
	ErrInvalidAmount     = &Error{Kind: KindValidation, Code: "INVALID_AMOUNT", Message: "amount must be zero or greater", Field: "amount"}
	ErrInvalidDate       = &Error{Kind: KindValidation, Code: "INVALID_DATE", Message: "date is required", Field: "date"}
	ErrInvalidCategory   = &Error{Kind: KindValidation, Code: "INVALID_CATEGORY", Message: "category does not belong to this group", Field: "category_id"}
	ErrInvalidPayer      = &Error{Kind: KindValidation, Code: "INVALID_PAYER", Message: "payer is not a member of this group", Field: "paid_by"}
	ErrInvalidSplit      = &Error{Kind: KindValidation, Code: "INVALID_SPLIT", Message: "invalid split", Field: "split"}

	ErrGroupNotFound    = &Error{Kind: KindNotFound, Code: "GROUP_NOT_FOUND", Message: "group not found"}
	ErrUserNotFound     = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "user not found, ask them to register first"}
	ErrMemberNotFound   = &Error{Kind: KindNotFound, Code: "MEMBER_NOT_FOUND", Message: "member not found in group"}
	ErrInviteNotFound   = &Error{Kind: KindNotFound, Code: "INVITE_NOT_FOUND", Message: "invite not found"}
	ErrCategoryNotFound = &Error{Kind: KindNotFound, Code: "CATEGORY_NOT_FOUND", Message: "category not found"}
	ErrExpenseNotFound  = &Error{Kind: KindNotFound, Code: "EXPENSE_NOT_FOUND", Message: "expense not found"}

	ErrAlreadyMember   = &Error{Kind: KindConflict, Code: "ALREADY_MEMBER", Message: "already a member"}
	ErrInviteProcessed = &Error{Kind: KindConflict, Code: "INVITE_PROCESSED", Message: "invite already processed"}
	ErrDuplicateName   = &Error{Kind: KindConflict, Code: "DUPLICATE_NAME", Message: "name already exists in this group"}
	ErrEmailExists     = &Error{Kind: KindConflict, Code: "EMAIL_EXISTS", Message: "email already registered"}

	ErrNotGroupMember = &Error{Kind: KindForbidden, Code: "NOT_GROUP_MEMBER", Message: "not a member of this group"}
	ErrAdminRequired  = &Error{Kind: KindForbidden, Code: "ADMIN_REQUIRED", Message: "admin privileges required"}
	ErrEmailMismatch  = &Error{Kind: KindForbidden, Code: "INVITE_EMAIL_MISMATCH", Message: "invite email does not match the signed in user"}

	ErrOnlyAdmin = &Error{Kind: KindInvariant, Code: "ONLY_ADMIN", Message: "a group must keep at least one admin"}

	ErrInviteExpired = &Error{Kind: KindGone, Code: "INVITE_EXPIRED", Message: "invite expired"}

	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
)
