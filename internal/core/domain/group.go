package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role is a member's standing inside one group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// ParseRole maps user input to a Role, defaulting empty input to member.
func ParseRole(s string) (Role, error) {
	if strings.TrimSpace(s) == "" {
		return RoleMember, nil
	}
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// DefaultCategories are seeded into every new group.
var DefaultCategories = []string{"Food", "Rent", "Utilities", "Transport", "Entertainment", "Other"}

// Membership is one roster row: the authoritative (group, user) pair.
type Membership struct {
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
	GroupName string    `json:"group_name,omitempty"`
}

// Member is the group-side view of a roster row, enriched with profile data.
type Member struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Group is the aggregate shown to clients. Members and Invites are
// projections of the roster and the invite ledger.
type Group struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatorID string          `json:"creator_id"`
	Code      string          `json:"code"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Members   []Member        `json:"members,omitempty"`
	Invites   []InviteSummary `json:"invites,omitempty"`
}

// AdminCount counts roster rows holding the admin role.
func AdminCount(roster []Membership) int {
	n := 0
	for _, m := range roster {
		if m.Role == RoleAdmin {
			n++
		}
	}
	return n
}

// FindMembership returns the roster row for userID, if any.
func FindMembership(roster []Membership, userID string) (Membership, bool) {
	for _, m := range roster {
		if m.UserID == userID {
			return m, true
		}
	}
	return Membership{}, false
}

// CanRemove reports whether dropping userID from roster keeps an admin.
func CanRemove(roster []Membership, userID string) bool {
	m, ok := FindMembership(roster, userID)
	if !ok {
		return true
	}
	if m.Role != RoleAdmin {
		return true
	}
	return AdminCount(roster) > 1
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// LooksLikeID reports whether s has the shape of a stored group id.
func LooksLikeID(s string) bool {
	return objectIDPattern.MatchString(s)
}

// NormalizeCode uppercases a join code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
