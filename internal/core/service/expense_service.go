package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// ExpenseService implements ports.ExpenseService.
type ExpenseService struct {
	repos  Repositories
	locker ports.GroupLocker
	log    zerolog.Logger
	now    func() time.Time
}

func NewExpenseService(repos Repositories, locker ports.GroupLocker, log zerolog.Logger) *ExpenseService {
	return &ExpenseService{
		repos:  repos,
		locker: locker,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateExpense records an expense. An empty payer defaults to the actor.
func (s *ExpenseService) CreateExpense(ctx context.Context, actorID, groupID string, in ports.ExpenseInput) (*domain.Expense, error) {
	if _, err := s.repos.Groups.FindByID(ctx, groupID); err != nil {
		return nil, err
	}

	var created *domain.Expense
	err := s.locked(ctx, groupID, func() error {
		in, err := s.validate(ctx, actorID, groupID, in)
		if err != nil {
			return err
		}
		now := s.now()
		e := &domain.Expense{
			GroupID:    groupID,
			Amount:     in.Amount,
			CategoryID: in.CategoryID,
			Date:       in.Date,
			PaidBy:     in.PaidBy,
			Notes:      in.Notes,
			Split:      in.Split,
			CreatedBy:  actorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repos.Expenses.Create(ctx, e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		created = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("group_id", groupID).
		Str("expense_id", created.ID).
		Float64("amount", created.Amount).
		Str("paid_by", created.PaidBy).
		Msg("expense created")
	return created, nil
}

// UpdateExpense replaces the writable fields of an existing expense and
// revalidates them against the current roster.
func (s *ExpenseService) UpdateExpense(ctx context.Context, actorID, groupID, expenseID string, in ports.ExpenseInput) (*domain.Expense, error) {
	if _, err := s.repos.Groups.FindByID(ctx, groupID); err != nil {
		return nil, err
	}

	var updated *domain.Expense
	err := s.locked(ctx, groupID, func() error {
		existing, err := s.find(ctx, groupID, expenseID)
		if err != nil {
			return err
		}
		in, err := s.validate(ctx, actorID, groupID, in)
		if err != nil {
			return err
		}
		existing.Amount = in.Amount
		existing.CategoryID = in.CategoryID
		existing.Date = in.Date
		existing.PaidBy = in.PaidBy
		existing.Notes = in.Notes
		existing.Split = in.Split
		existing.UpdatedAt = s.now()
		if err := s.repos.Expenses.Update(ctx, existing); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("group_id", groupID).Str("expense_id", expenseID).Str("actor_id", actorID).Msg("expense updated")
	return updated, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, actorID, groupID, expenseID string) error {
	if err := s.requireMember(ctx, actorID, groupID); err != nil {
		return err
	}
	err := s.locked(ctx, groupID, func() error {
		if _, err := s.find(ctx, groupID, expenseID); err != nil {
			return err
		}
		return s.repos.Expenses.Delete(ctx, expenseID)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("group_id", groupID).Str("expense_id", expenseID).Str("actor_id", actorID).Msg("expense deleted")
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, actorID, groupID, expenseID string) (*domain.Expense, error) {
	if err := s.requireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	return s.find(ctx, groupID, expenseID)
}

// ListExpenses returns the group's expenses, newest first, filtered by
// category and an inclusive date range when given.
func (s *ExpenseService) ListExpenses(ctx context.Context, actorID string, in ports.ListExpensesInput) ([]*domain.Expense, error) {
	if err := s.requireMember(ctx, actorID, in.GroupID); err != nil {
		return nil, err
	}
	if !in.DateFrom.IsZero() && !in.DateTo.IsZero() && in.DateFrom.After(in.DateTo) {
		return nil, domain.Validation("INVALID_DATE_RANGE", "from", "from must not be after to")
	}
	return s.repos.Expenses.List(ctx, ports.ExpenseFilter{
		GroupID:    in.GroupID,
		CategoryID: in.CategoryID,
		DateFrom:   in.DateFrom,
		DateTo:     in.DateTo,
	})
}

// validate checks an expense write against the roster as it is now. It runs
// under the group lock so a concurrent removal cannot slip in between.
func (s *ExpenseService) validate(ctx context.Context, actorID, groupID string, in ports.ExpenseInput) (ports.ExpenseInput, error) {
	roster, err := s.repos.Memberships.ListByGroup(ctx, groupID)
	if err != nil {
		return in, fmt.Errorf("load roster: %w", err)
	}
	isMember := func(userID string) bool {
		_, ok := domain.FindMembership(roster, userID)
		return ok
	}

	if !isMember(actorID) {
		return in, domain.ErrNotGroupMember
	}
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return in, err
	}
	if in.Date.IsZero() {
		return in, domain.ErrInvalidDate
	}

	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if in.CategoryID == "" {
		return in, domain.ErrInvalidCategory
	}
	cat, err := s.repos.Categories.FindByID(ctx, in.CategoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return in, domain.ErrInvalidCategory
	}
	if err != nil {
		return in, fmt.Errorf("load category: %w", err)
	}
	if cat.GroupID != groupID {
		return in, domain.ErrInvalidCategory.WithMessage("category does not belong to this group")
	}

	in.PaidBy = strings.TrimSpace(in.PaidBy)
	if in.PaidBy == "" {
		in.PaidBy = actorID
	}
	if !isMember(in.PaidBy) {
		return in, domain.ErrInvalidPayer
	}

	if err := domain.ValidateSplit(in.Split, isMember); err != nil {
		return in, err
	}
	in.Notes = strings.TrimSpace(in.Notes)
	return in, nil
}

func (s *ExpenseService) find(ctx context.Context, groupID, expenseID string) (*domain.Expense, error) {
	e, err := s.repos.Expenses.FindByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e.GroupID != groupID {
		return nil, domain.ErrExpenseNotFound
	}
	return e, nil
}

func (s *ExpenseService) requireMember(ctx context.Context, actorID, groupID string) error {
	if _, err := s.repos.Groups.FindByID(ctx, groupID); err != nil {
		return err
	}
	_, err := s.repos.Memberships.Find(ctx, groupID, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotGroupMember
	}
	return err
}

func (s *ExpenseService) locked(ctx context.Context, groupID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, groupID)
	if err != nil {
		return fmt.Errorf("lock group %s: %w", groupID, err)
	}
	defer unlock()
	return fn()
}
