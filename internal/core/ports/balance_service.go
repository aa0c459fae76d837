package ports

import (
	"context"

	"github.com/sirpyerre/groupsplit/internal/core/balance"
)

// GroupBalances is the reporting view for one group.
type GroupBalances struct {
	GroupID     string
	GroupName   string
	Report      balance.Report
	Settlements []balance.Transfer
	ByCategory  []balance.CategoryTotal
}

// BalanceService feeds the roster and the expense set into the balance engine.
type BalanceService interface {
	GroupBalances(ctx context.Context, actorID, groupID string) (*GroupBalances, error)
}
