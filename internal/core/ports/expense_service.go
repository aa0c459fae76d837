package ports

import (
	"context"
	"time"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
)

// ExpenseInput carries the writable fields of an expense.
type ExpenseInput struct {
	Amount     float64
	CategoryID string
	Date       time.Time
	PaidBy     string
	Notes      string
	Split      []domain.SplitShare
}

// ListExpensesInput scopes a listing to one group with optional filters.
type ListExpensesInput struct {
	GroupID    string
	CategoryID string
	DateFrom   time.Time
	DateTo     time.Time
}

// ExpenseService is the expense ledger. Every write revalidates category,
// payer and split against the current roster.
type ExpenseService interface {
	CreateExpense(ctx context.Context, actorID, groupID string, in ExpenseInput) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, actorID, groupID, expenseID string, in ExpenseInput) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, actorID, groupID, expenseID string) error
	GetExpense(ctx context.Context, actorID, groupID, expenseID string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, actorID string, in ListExpensesInput) ([]*domain.Expense, error)
}
