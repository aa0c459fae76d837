package ports

import (
	"context"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
)

// InviteOutcome tells the caller whether inviteMember enrolled an existing
// user directly or left a pending invite behind.
type InviteOutcome string

const (
	InviteOutcomeAdded   InviteOutcome = "added"
	InviteOutcomeInvited InviteOutcome = "invited"
)

// InviteResult is returned by InviteMember.
type InviteResult struct {
	Status InviteOutcome
	Group  *domain.Group  // set when Status is added
	Invite *domain.Invite // set when Status is invited
	Token  string
	Link   string
}

// MembershipGate answers the authorization questions route guards ask.
type MembershipGate interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID string) (bool, error)
}

// MembershipService owns group lifecycle, roster changes and the invite ledger.
// Admin-only operations other than DeleteGroup rely on the caller's gate.
type MembershipService interface {
	MembershipGate

	CreateGroup(ctx context.Context, creatorID, name string) (*domain.Group, error)
	GetGroup(ctx context.Context, actorID, groupID string) (*domain.Group, error)
	ListMyGroups(ctx context.Context, userID string) ([]domain.Membership, error)
	ListCategories(ctx context.Context, actorID, groupID string) ([]domain.Category, error)

	AddMember(ctx context.Context, actorID, groupID, email string, role domain.Role) (*domain.Group, error)
	RemoveMember(ctx context.Context, actorID, groupID, userID string) (*domain.Group, error)
	ChangeRole(ctx context.Context, actorID, groupID, userID string, role domain.Role) (*domain.Group, error)
	JoinByIDOrCode(ctx context.Context, userID, groupIDOrCode string) (*domain.Group, error)
	LeaveGroup(ctx context.Context, userID, groupID string) error
	DeleteGroup(ctx context.Context, actorID, groupID string) error

	InviteMember(ctx context.Context, actorID, groupID, email string, role domain.Role) (*InviteResult, error)
	ListInvites(ctx context.Context, groupID string) ([]*domain.Invite, error)
	RevokeInvite(ctx context.Context, actorID, groupID, inviteID string) error
	AcceptInvite(ctx context.Context, userID, token string) (*domain.Group, error)
	// ExpireInvites is the reconciliation step for lazily detected expiry.
	ExpireInvites(ctx context.Context) (int64, error)

	// RemoveUserEverywhere drops userID from every roster, refusing while the
	// user is the sole admin of any group.
	RemoveUserEverywhere(ctx context.Context, userID string) error
}
