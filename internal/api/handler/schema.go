package handler

import (
	"time"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// errorResponse mirrors the envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// --- Auth ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Groups and roster ---

type createGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

type joinGroupRequest struct {
	GroupIDOrCode string `json:"group_id_or_code" validate:"required"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"omitempty,oneof=admin member"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

type groupResponse struct {
	Group *domain.Group `json:"group"`
}

type membershipsResponse struct {
	Groups []domain.Membership `json:"groups"`
}

type categoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

// --- Invites ---

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"omitempty,oneof=admin member"`
}

type inviteResponse struct {
	Status string         `json:"status"`
	Group  *domain.Group  `json:"group,omitempty"`
	Invite *domain.Invite `json:"invite,omitempty"`
	Token  string         `json:"token,omitempty"`
	Link   string         `json:"link,omitempty"`
}

func toInviteResponse(r *ports.InviteResult) inviteResponse {
	return inviteResponse{
		Status: string(r.Status),
		Group:  r.Group,
		Invite: r.Invite,
		Token:  r.Token,
		Link:   r.Link,
	}
}

type invitesResponse struct {
	Invites []*domain.Invite `json:"invites"`
}

// --- Expenses ---

type splitShareRequest struct {
	UserID string  `json:"user_id" validate:"required"`
	Ratio  float64 `json:"ratio"   validate:"gte=0"`
}

type expenseRequest struct {
	Amount     float64             `json:"amount"      validate:"gte=0"`
	CategoryID string              `json:"category_id" validate:"required"`
	Date       string              `json:"date"        validate:"required"`
	PaidBy     string              `json:"paid_by"`
	Notes      string              `json:"notes"       validate:"max=500"`
	Split      []splitShareRequest `json:"split"       validate:"dive"`
}

func (r expenseRequest) toInput() (ports.ExpenseInput, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return ports.ExpenseInput{}, err
	}
	in := ports.ExpenseInput{
		Amount:     r.Amount,
		CategoryID: r.CategoryID,
		Date:       date,
		PaidBy:     r.PaidBy,
		Notes:      r.Notes,
	}
	for _, s := range r.Split {
		in.Split = append(in.Split, domain.SplitShare{UserID: s.UserID, Ratio: s.Ratio})
	}
	return in, nil
}

type expenseResponse struct {
	Expense *domain.Expense `json:"expense"`
}

type expensesResponse struct {
	Expenses []*domain.Expense `json:"expenses"`
}

// --- Balances ---

type memberBalanceResponse struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Paid       float64 `json:"paid"`
	Owes       float64 `json:"owes"`
	Balance    float64 `json:"balance"`
	Standing   string  `json:"standing"`
	Unassigned bool    `json:"unassigned,omitempty"`
}

type transferResponse struct {
	FromUserID string  `json:"from_user_id"`
	FromName   string  `json:"from_name"`
	ToUserID   string  `json:"to_user_id"`
	ToName     string  `json:"to_name"`
	Amount     float64 `json:"amount"`
}

type categoryTotalResponse struct {
	CategoryID string  `json:"category_id"`
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
}

type balancesResponse struct {
	GroupID     string                  `json:"group_id"`
	GroupName   string                  `json:"group_name"`
	TotalSpent  float64                 `json:"total_spent"`
	Balances    []memberBalanceResponse `json:"balances"`
	Settlements []transferResponse      `json:"settlements"`
	ByCategory  []categoryTotalResponse `json:"by_category"`
	ComputedAt  time.Time               `json:"computed_at"`
}

func toBalancesResponse(b *ports.GroupBalances, at time.Time) balancesResponse {
	out := balancesResponse{
		GroupID:     b.GroupID,
		GroupName:   b.GroupName,
		TotalSpent:  b.Report.TotalSpent,
		Balances:    make([]memberBalanceResponse, 0, len(b.Report.Balances)),
		Settlements: make([]transferResponse, 0, len(b.Settlements)),
		ByCategory:  make([]categoryTotalResponse, 0, len(b.ByCategory)),
		ComputedAt:  at,
	}
	for _, m := range b.Report.Balances {
		out.Balances = append(out.Balances, memberBalanceResponse{
			UserID:     m.UserID,
			Name:       m.Name,
			Paid:       m.Paid,
			Owes:       m.Owes,
			Balance:    m.Balance,
			Standing:   string(m.Standing),
			Unassigned: m.Unassigned,
		})
	}
	for _, t := range b.Settlements {
		out.Settlements = append(out.Settlements, transferResponse(t))
	}
	for _, c := range b.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalResponse(c))
	}
	return out
}
