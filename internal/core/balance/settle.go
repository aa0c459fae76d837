package balance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is one payment in a settlement plan.
type Transfer struct {
	FromUserID string
	FromName   string
	ToUserID   string
	ToName     string
	Amount     float64
}

type party struct {
	id     string
	name   string
	amount decimal.Decimal
}

// Settle builds a settlement plan by repeatedly matching the largest debtor
// with the largest creditor. It is not guaranteed to be minimal. Amounts are
// rounded to cents; residue within SettledEpsilon is dropped.
func Settle(balances []MemberBalance) []Transfer {
	var debtors, creditors []*party
	for _, b := range balances {
		net := decimal.NewFromFloat(b.Balance)
		if standing(net) == Settled {
			continue
		}
		p := &party{id: b.UserID, name: b.Name, amount: net.Abs()}
		if net.IsNegative() {
			debtors = append(debtors, p)
		} else {
			creditors = append(creditors, p)
		}
	}
	byAmount := func(ps []*party) {
		sort.Slice(ps, func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].id < ps[j].id
		})
	}
	byAmount(debtors)
	byAmount(creditors)

	var plan []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := debtors[i], creditors[j]
		amount := decimal.Min(d.amount, c.amount)
		if amount.GreaterThan(epsilon) {
			plan = append(plan, Transfer{
				FromUserID: d.id,
				FromName:   d.name,
				ToUserID:   c.id,
				ToName:     c.name,
				Amount:     amount.Round(2).InexactFloat64(),
			})
		}
		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)
		if d.amount.LessThanOrEqual(epsilon) {
			i++
		}
		if c.amount.LessThanOrEqual(epsilon) {
			j++
		}
	}
	return plan
}
