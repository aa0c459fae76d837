package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/groupsplit/internal/core/balance"
	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// BalanceService implements ports.BalanceService on top of the balance engine.
type BalanceService struct {
	repos Repositories
	log   zerolog.Logger
}

func NewBalanceService(repos Repositories, log zerolog.Logger) *BalanceService {
	return &BalanceService{repos: repos, log: log}
}

// GroupBalances loads the current roster and every expense of the group and
// computes the ledger, a settlement plan and per-category totals.
func (s *BalanceService) GroupBalances(ctx context.Context, actorID, groupID string) (*ports.GroupBalances, error) {
	start := time.Now()

	group, err := s.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Memberships.Find(ctx, groupID, actorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotGroupMember
		}
		return nil, err
	}

	roster, err := s.repos.Memberships.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group balances: roster: %w", err)
	}
	expenses, err := s.repos.Expenses.List(ctx, ports.ExpenseFilter{GroupID: groupID})
	if err != nil {
		return nil, fmt.Errorf("group balances: expenses: %w", err)
	}
	categories, err := s.repos.Categories.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group balances: categories: %w", err)
	}

	ids := make([]string, 0, len(roster)+len(expenses))
	for _, m := range roster {
		ids = append(ids, m.UserID)
	}
	for _, e := range expenses {
		ids = append(ids, e.PaidBy)
		for _, sh := range e.Split {
			ids = append(ids, sh.UserID)
		}
	}
	users, err := s.repos.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("group balances: users: %w", err)
	}
	nameOf := func(id string) string {
		if u, ok := users[id]; ok {
			return u.Name
		}
		return ""
	}

	members := make([]balance.Member, 0, len(roster))
	for _, m := range roster {
		members = append(members, balance.Member{UserID: m.UserID, Name: nameOf(m.UserID)})
	}
	input := make([]balance.Expense, 0, len(expenses))
	for _, e := range expenses {
		be := balance.Expense{
			Amount:     e.Amount,
			PayerID:    e.PaidBy,
			PayerName:  nameOf(e.PaidBy),
			CategoryID: e.CategoryID,
		}
		for _, sh := range e.Split {
			be.Split = append(be.Split, balance.Share{UserID: sh.UserID, Name: nameOf(sh.UserID), Ratio: sh.Ratio})
		}
		input = append(input, be)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	report := balance.Compute(members, input)
	out := &ports.GroupBalances{
		GroupID:     group.ID,
		GroupName:   group.Name,
		Report:      report,
		Settlements: balance.Settle(report.Balances),
		ByCategory:  balance.ByCategory(input, names),
	}

	s.log.Debug().
		Str("group_id", groupID).
		Int("members", len(members)).
		Int("expenses", len(input)).
		Dur("took", time.Since(start)).
		Msg("balances computed")
	return out, nil
}
