package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

type request struct {
	method string
	target string
	body   string
	userID string
	params map[string]string
}

func (r request) context() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.target, body)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if r.userID != "" {
		c.Set(ContextUserID, r.userID)
	}
	if len(r.params) > 0 {
		names := make([]string, 0, len(r.params))
		values := make([]string, 0, len(r.params))
		for name, value := range r.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubAuthService struct {
	registerFn func(ctx context.Context, name, email, password string) (string, *domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
	deleteFn   func(ctx context.Context, userID string) error
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (string, *domain.User, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.deleteFn(ctx, userID)
}

// stubMembershipService embeds the interface so tests only set what they
// exercise; calling anything else panics.
type stubMembershipService struct {
	ports.MembershipService

	createFn  func(ctx context.Context, creatorID, name string) (*domain.Group, error)
	joinFn    func(ctx context.Context, userID, code string) (*domain.Group, error)
	addFn     func(ctx context.Context, actorID, groupID, email string, role domain.Role) (*domain.Group, error)
	roleFn    func(ctx context.Context, actorID, groupID, userID string, role domain.Role) (*domain.Group, error)
	leaveFn   func(ctx context.Context, userID, groupID string) error
	inviteFn  func(ctx context.Context, actorID, groupID, email string, role domain.Role) (*ports.InviteResult, error)
	acceptFn  func(ctx context.Context, userID, token string) (*domain.Group, error)
	revokeFn  func(ctx context.Context, actorID, groupID, inviteID string) error
	getFn     func(ctx context.Context, actorID, groupID string) (*domain.Group, error)
	mineFn    func(ctx context.Context, userID string) ([]domain.Membership, error)
	invitesFn func(ctx context.Context, groupID string) ([]*domain.Invite, error)
}

func (s *stubMembershipService) CreateGroup(ctx context.Context, creatorID, name string) (*domain.Group, error) {
	return s.createFn(ctx, creatorID, name)
}

func (s *stubMembershipService) JoinByIDOrCode(ctx context.Context, userID, code string) (*domain.Group, error) {
	return s.joinFn(ctx, userID, code)
}

func (s *stubMembershipService) AddMember(ctx context.Context, actorID, groupID, email string, role domain.Role) (*domain.Group, error) {
	return s.addFn(ctx, actorID, groupID, email, role)
}

func (s *stubMembershipService) ChangeRole(ctx context.Context, actorID, groupID, userID string, role domain.Role) (*domain.Group, error) {
	return s.roleFn(ctx, actorID, groupID, userID, role)
}

func (s *stubMembershipService) LeaveGroup(ctx context.Context, userID, groupID string) error {
	return s.leaveFn(ctx, userID, groupID)
}

func (s *stubMembershipService) InviteMember(ctx context.Context, actorID, groupID, email string, role domain.Role) (*ports.InviteResult, error) {
	return s.inviteFn(ctx, actorID, groupID, email, role)
}

func (s *stubMembershipService) AcceptInvite(ctx context.Context, userID, token string) (*domain.Group, error) {
	return s.acceptFn(ctx, userID, token)
}

func (s *stubMembershipService) RevokeInvite(ctx context.Context, actorID, groupID, inviteID string) error {
	return s.revokeFn(ctx, actorID, groupID, inviteID)
}

func (s *stubMembershipService) GetGroup(ctx context.Context, actorID, groupID string) (*domain.Group, error) {
	return s.getFn(ctx, actorID, groupID)
}

func (s *stubMembershipService) ListMyGroups(ctx context.Context, userID string) ([]domain.Membership, error) {
	return s.mineFn(ctx, userID)
}

func (s *stubMembershipService) ListInvites(ctx context.Context, groupID string) ([]*domain.Invite, error) {
	return s.invitesFn(ctx, groupID)
}

type stubExpenseService struct {
	ports.ExpenseService

	createFn func(ctx context.Context, actorID, groupID string, in ports.ExpenseInput) (*domain.Expense, error)
	updateFn func(ctx context.Context, actorID, groupID, expenseID string, in ports.ExpenseInput) (*domain.Expense, error)
	listFn   func(ctx context.Context, actorID string, in ports.ListExpensesInput) ([]*domain.Expense, error)
}

func (s *stubExpenseService) CreateExpense(ctx context.Context, actorID, groupID string, in ports.ExpenseInput) (*domain.Expense, error) {
	return s.createFn(ctx, actorID, groupID, in)
}

func (s *stubExpenseService) UpdateExpense(ctx context.Context, actorID, groupID, expenseID string, in ports.ExpenseInput) (*domain.Expense, error) {
	return s.updateFn(ctx, actorID, groupID, expenseID, in)
}

func (s *stubExpenseService) ListExpenses(ctx context.Context, actorID string, in ports.ListExpensesInput) ([]*domain.Expense, error) {
	return s.listFn(ctx, actorID, in)
}

type stubBalanceService struct {
	fn func(ctx context.Context, actorID, groupID string) (*ports.GroupBalances, error)
}

func (s *stubBalanceService) GroupBalances(ctx context.Context, actorID, groupID string) (*ports.GroupBalances, error) {
	return s.fn(ctx, actorID, groupID)
}
