package ports

import (
	"context"
	"errors"
	"time"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
)

// ErrDuplicateKey is returned by repositories when a unique index rejects a
// write that the caller may retry with different input (e.g. a join code).
var ErrDuplicateKey = errors.New("duplicate key")

// UserRepository persists accounts. Emails are stored normalized.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDs returns the users that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// GroupRepository persists group headers. Members and invites live elsewhere.
type GroupRepository interface {
	// Create assigns ID. Returns ErrDuplicateKey when the code is taken.
	Create(ctx context.Context, group *domain.Group) error
	FindByID(ctx context.Context, id string) (*domain.Group, error)
	// FindByCode matches the code case-insensitively.
	FindByCode(ctx context.Context, code string) (*domain.Group, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Group, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// MembershipRepository is the single authoritative roster, one row per
// (group, user). Both the group-side and user-side views are queries on it.
type MembershipRepository interface {
	// Add returns domain.ErrAlreadyMember when the pair already exists.
	Add(ctx context.Context, m domain.Membership) error
	// Remove returns domain.ErrMemberNotFound when no row matched.
	Remove(ctx context.Context, groupID, userID string) error
	UpdateRole(ctx context.Context, groupID, userID string, role domain.Role) error
	Find(ctx context.Context, groupID, userID string) (*domain.Membership, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	DeleteByGroup(ctx context.Context, groupID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// InviteRepository is the invite ledger.
type InviteRepository interface {
	// UpsertPending creates the pending invite for (group, email), or
	// supersedes the existing pending one with a fresh token, role and expiry.
	UpsertPending(ctx context.Context, invite *domain.Invite) (*domain.Invite, error)
	FindByID(ctx context.Context, id string) (*domain.Invite, error)
	FindByToken(ctx context.Context, token string) (*domain.Invite, error)
	ListByGroup(ctx context.Context, groupID string) ([]*domain.Invite, error)
	// Transition moves an invite from one status to another only if it is
	// still in from. It returns domain.ErrInviteProcessed when it is not.
	Transition(ctx context.Context, id string, from, to domain.InviteStatus) error
	// ExpireStale marks pending invites past their deadline as expired. An
	// empty groupID sweeps every group.
	ExpireStale(ctx context.Context, groupID string, now time.Time) (int64, error)
	DeleteByGroup(ctx context.Context, groupID string) error
}

// CategoryRepository stores per-group categories.
type CategoryRepository interface {
	CreateMany(ctx context.Context, groupID string, names []string, at time.Time) error
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.Category, error)
	DeleteByGroup(ctx context.Context, groupID string) error
}

// ExpenseFilter narrows an expense listing. GroupID is always required.
type ExpenseFilter struct {
	GroupID    string
	CategoryID string    // optional
	DateFrom   time.Time // optional: date >= DateFrom
	DateTo     time.Time // optional: date <= DateTo
}

// ExpenseRepository stores expense records.
type ExpenseRepository interface {
	Create(ctx context.Context, e *domain.Expense) error
	FindByID(ctx context.Context, id string) (*domain.Expense, error)
	Update(ctx context.Context, e *domain.Expense) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ExpenseFilter) ([]*domain.Expense, error)
	DeleteByGroup(ctx context.Context, groupID string) error
}
