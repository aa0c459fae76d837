package domain

import (
	"math"
	"time"
)

// SplitTolerance bounds how far split ratios may drift from summing to 1.
const SplitTolerance = 0.001

// Category groups expenses inside one group. Names are unique per group.
type Category struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SplitShare is one participant's fraction of an expense.
type SplitShare struct {
	UserID string  `json:"user_id"`
	Ratio  float64 `json:"ratio"`
}

// Expense is a single recorded cost inside a group. An empty Split means the
// amount is shared evenly across the roster at computation time.
type Expense struct {
	ID         string       `json:"id"`
	GroupID    string       `json:"group_id"`
	Amount     float64      `json:"amount"`
	CategoryID string       `json:"category_id"`
	Date       time.Time    `json:"date"`
	PaidBy     string       `json:"paid_by"`
	Notes      string       `json:"notes,omitempty"`
	Split      []SplitShare `json:"split"`
	CreatedBy  string       `json:"created_by"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// ValidateAmount rejects negative and non-finite amounts.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateSplit checks the shape of a split table: non-negative ratios, no
// repeated participant, and ratios summing to 1 within SplitTolerance.
// isMember is consulted for every participant. An empty split is valid.
func ValidateSplit(split []SplitShare, isMember func(userID string) bool) error {
	if len(split) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(split))
	sum := 0.0
	for _, s := range split {
		if s.UserID == "" {
			return ErrInvalidSplit.WithMessage("split entry is missing a user")
		}
		if _, dup := seen[s.UserID]; dup {
			return ErrInvalidSplit.WithMessage("user %s appears more than once in split", s.UserID)
		}
		seen[s.UserID] = struct{}{}
		if math.IsNaN(s.Ratio) || math.IsInf(s.Ratio, 0) || s.Ratio < 0 {
			return ErrInvalidSplit.WithMessage("ratio for user %s must be zero or greater", s.UserID)
		}
		if !isMember(s.UserID) {
			return ErrInvalidSplit.WithMessage("user %s is not a member of this group", s.UserID)
		}
		sum += s.Ratio
	}
	if math.Abs(sum-1) > SplitTolerance {
		return ErrInvalidSplit.WithMessage("split ratios must sum to 1, got %.4f", sum)
	}
	return nil
}
