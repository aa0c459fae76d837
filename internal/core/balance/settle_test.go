package balance

import (
	"math"
	"testing"
)

func TestSettle_TwoMembers(t *testing.T) {
	r := Compute(roster, []Expense{{Amount: 100, PayerID: "a"}})
	plan := Settle(r.Balances)

	if len(plan) != 1 {
		t.Fatalf("expected one transfer, got %+v", plan)
	}
	if plan[0].FromUserID != "b" || plan[0].ToUserID != "a" || plan[0].Amount != 50 {
		t.Errorf("unexpected transfer: %+v", plan[0])
	}
}

func TestSettle_ClearsEveryBalance(t *testing.T) {
	members := []Member{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}, {UserID: "d"}}
	r := Compute(members, []Expense{
		{Amount: 120, PayerID: "a"},
		{Amount: 60, PayerID: "b", Split: []Share{{UserID: "c", Ratio: 0.5}, {UserID: "d", Ratio: 0.5}}},
	})
	plan := Settle(r.Balances)

	net := make(map[string]float64)
	for _, b := range r.Balances {
		net[b.UserID] = b.Balance
	}
	for _, tr := range plan {
		net[tr.FromUserID] += tr.Amount
		net[tr.ToUserID] -= tr.Amount
	}
	for id, v := range net {
		if math.Abs(v) > SettledEpsilon {
			t.Errorf("member %s not settled after plan: %v", id, v)
		}
	}
	if len(plan) > len(members)-1 {
		t.Errorf("expected at most %d transfers, got %d", len(members)-1, len(plan))
	}
}

func TestSettle_NothingOwed(t *testing.T) {
	if plan := Settle(Compute(roster, nil).Balances); len(plan) != 0 {
		t.Errorf("expected empty plan, got %+v", plan)
	}
}

func TestByCategory(t *testing.T) {
	totals := ByCategory([]Expense{
		{Amount: 10, CategoryID: "food"},
		{Amount: 50, CategoryID: "rent"},
		{Amount: 5.5, CategoryID: "food"},
	}, map[string]string{"food": "Food", "rent": "Rent"})

	if len(totals) != 2 {
		t.Fatalf("expected 2 categories, got %+v", totals)
	}
	if totals[0].CategoryID != "rent" || totals[0].Total != 50 || totals[0].Name != "Rent" {
		t.Errorf("unexpected first total: %+v", totals[0])
	}
	if totals[1].Count != 2 || math.Abs(totals[1].Total-15.5) > 1e-9 {
		t.Errorf("unexpected food total: %+v", totals[1])
	}
}
