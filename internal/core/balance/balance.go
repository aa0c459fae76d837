// Package balance turns a group roster and its expenses into a zero-sum
// ledger of who paid, who owes, and the net position of every member.
//
// Everything here is a pure function of its inputs: no storage, no clock, no
// errors. Malformed input (a payer or split participant missing from the
// roster) lands in an "Unassigned/<name>" bucket instead of failing the read.
package balance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SettledEpsilon is the largest absolute balance still reported as settled.
const SettledEpsilon = 0.01

const unassignedPrefix = "Unassigned/"

var epsilon = decimal.NewFromFloat(SettledEpsilon)

// Member is one roster entry.
type Member struct {
	UserID string
	Name   string
}

// Share is one participant's ratio of an expense. Name is only used to label
// a stale participant's bucket.
type Share struct {
	UserID string
	Name   string
	Ratio  float64
}

// Expense is the minimal view of a recorded expense the engine needs.
// PayerName is only used to label a stale payer's bucket.
type Expense struct {
	Amount     float64
	PayerID    string
	PayerName  string
	CategoryID string
	Split      []Share
}

// Standing classifies a net balance.
type Standing string

const (
	Creditor Standing = "creditor"
	Debtor   Standing = "debtor"
	Settled  Standing = "settled"
)

// MemberBalance is one row of the ledger. Balance = Paid - Owes.
type MemberBalance struct {
	UserID     string
	Name       string
	Paid       float64
	Owes       float64
	Balance    float64
	Standing   Standing
	Unassigned bool // true for a bucket created for someone outside the roster
}

// Report is the output of Compute. Balances are ordered most negative first.
type Report struct {
	Balances   []MemberBalance
	TotalSpent float64
}

type account struct {
	name       string
	stale      string // smallest non-empty name seen for an unassigned bucket
	paid       decimal.Decimal
	owes       decimal.Decimal
	unassigned bool
}

func (a *account) net() decimal.Decimal { return a.paid.Sub(a.owes) }

// Compute aggregates expenses over the roster. The result does not depend on
// the order of either slice.
func Compute(members []Member, expenses []Expense) Report {
	book := make(map[string]*account, len(members))
	for _, m := range members {
		book[m.UserID] = &account{name: m.Name}
	}

	// Unassigned labels are resolved after aggregation so the first expense
	// to mention an id does not decide its name.
	bucket := func(id, name string) *account {
		a, ok := book[id]
		if !ok {
			a = &account{unassigned: true}
			book[id] = a
		}
		if a.unassigned && name != "" && (a.stale == "" || name < a.stale) {
			a.stale = name
		}
		return a
	}

	headcount := int64(len(members))
	if headcount == 0 {
		headcount = 1
	}
	divisor := decimal.NewFromInt(headcount)

	total := decimal.Zero
	for _, e := range expenses {
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)

		payer := bucket(e.PayerID, e.PayerName)
		payer.paid = payer.paid.Add(amount)

		if len(e.Split) > 0 {
			for _, s := range e.Split {
				a := bucket(s.UserID, s.Name)
				a.owes = a.owes.Add(amount.Mul(decimal.NewFromFloat(s.Ratio)))
			}
			continue
		}

		// Even split across the roster as it stands now.
		share := amount.Div(divisor)
		for _, m := range members {
			a := book[m.UserID]
			a.owes = a.owes.Add(share)
		}
	}

	type row struct {
		id  string
		acc *account
	}
	rows := make([]row, 0, len(book))
	for id, a := range book {
		if a.unassigned {
			label := a.stale
			if label == "" {
				label = id
			}
			a.name = unassignedPrefix + label
		}
		rows = append(rows, row{id: id, acc: a})
	}
	sort.Slice(rows, func(i, j int) bool {
		ni, nj := rows[i].acc.net(), rows[j].acc.net()
		if c := ni.Cmp(nj); c != 0 {
			return c < 0
		}
		return rows[i].id < rows[j].id
	})

	out := Report{
		Balances:   make([]MemberBalance, 0, len(rows)),
		TotalSpent: total.InexactFloat64(),
	}
	for _, r := range rows {
		net := r.acc.net()
		out.Balances = append(out.Balances, MemberBalance{
			UserID:     r.id,
			Name:       r.acc.name,
			Paid:       r.acc.paid.InexactFloat64(),
			Owes:       r.acc.owes.InexactFloat64(),
			Balance:    net.InexactFloat64(),
			Standing:   standing(net),
			Unassigned: r.acc.unassigned,
		})
	}
	return out
}

// IsSettled reports whether an amount is within SettledEpsilon of zero.
func IsSettled(amount float64) bool {
	return standing(decimal.NewFromFloat(amount)) == Settled
}

func standing(net decimal.Decimal) Standing {
	switch {
	case net.Abs().LessThanOrEqual(epsilon):
		return Settled
	case net.IsPositive():
		return Creditor
	default:
		return Debtor
	}
}
