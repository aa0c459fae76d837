package domain

import "time"

// InviteStatus represents the lifecycle state of an invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRevoked  InviteStatus = "revoked"
	InviteExpired  InviteStatus = "expired"
)

// DefaultInviteTTL is how long a fresh invite stays acceptable.
const DefaultInviteTTL = 7 * 24 * time.Hour

// inviteTransitions lists the allowed moves. Every target is terminal.
var inviteTransitions = map[InviteStatus][]InviteStatus{
	InvitePending: {InviteAccepted, InviteRevoked, InviteExpired},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s InviteStatus) CanTransitionTo(next InviteStatus) bool {
	for _, allowed := range inviteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s InviteStatus) Terminal() bool {
	return len(inviteTransitions[s]) == 0
}

// Invite is a single-use, email-scoped invitation into a group.
type Invite struct {
	ID        string       `json:"id"`
	GroupID   string       `json:"group_id"`
	Email     string       `json:"email"`
	Token     string       `json:"-"`
	Role      Role         `json:"role"`
	Status    InviteStatus `json:"status"`
	InvitedBy string       `json:"invited_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// IsExpired is the pure expiry predicate: a pending invite past its deadline.
// The stored status may lag behind it until a reconciliation write.
func (i *Invite) IsExpired(now time.Time) bool {
	return i.Status == InvitePending && now.After(i.ExpiresAt)
}

// EffectiveStatus is the status a reader should observe at now.
func (i *Invite) EffectiveStatus(now time.Time) InviteStatus {
	if i.IsExpired(now) {
		return InviteExpired
	}
	return i.Status
}

// Summary projects the invite for display inside a group.
func (i *Invite) Summary(now time.Time) InviteSummary {
	return InviteSummary{
		ID:        i.ID,
		Email:     i.Email,
		Role:      i.Role,
		Status:    i.EffectiveStatus(now),
		CreatedAt: i.CreatedAt,
		ExpiresAt: i.ExpiresAt,
	}
}

// InviteSummary is the group-embedded view of an invite. It is derived, not stored.
type InviteSummary struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Role      Role         `json:"role"`
	Status    InviteStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}
