package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirpyerre/groupsplit/internal/core/balance"
	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

func TestExpenseHandler_Create_MapsPayload(t *testing.T) {
	stub := &stubExpenseService{
		createFn: func(ctx context.Context, actorID, groupID string, in ports.ExpenseInput) (*domain.Expense, error) {
			if groupID != "g1" || in.Amount != 42.5 || in.CategoryID != "c1" {
				t.Fatalf("unexpected input: %s %+v", groupID, in)
			}
			if !in.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected date: %v", in.Date)
			}
			if len(in.Split) != 2 || in.Split[1].UserID != "u2" || in.Split[1].Ratio != 0.25 {
				t.Fatalf("unexpected split: %+v", in.Split)
			}
			return &domain.Expense{ID: "e1", GroupID: groupID, Amount: in.Amount}, nil
		},
	}
	handler := NewExpenseHandler(stub, nil)

	c, rec := request{
		method: http.MethodPost,
		target: "/v1/groups/g1/expenses",
		body:   `{"amount":42.5,"category_id":"c1","date":"2024-03-01","split":[{"user_id":"u1","ratio":0.75},{"user_id":"u2","ratio":0.25}]}`,
		userID: "u1",
		params: map[string]string{"groupId": "g1"},
	}.context()

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestExpenseHandler_Create_BadInput(t *testing.T) {
	stub := &stubExpenseService{
		createFn: func(ctx context.Context, actorID, groupID string, in ports.ExpenseInput) (*domain.Expense, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewExpenseHandler(stub, nil)

	cases := map[string]string{
		"negative amount":  `{"amount":-1,"category_id":"c1","date":"2024-03-01"}`,
		"missing category": `{"amount":1,"date":"2024-03-01"}`,
		"unparsable date":  `{"amount":1,"category_id":"c1","date":"March 1st"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := request{
				method: http.MethodPost,
				target: "/v1/groups/g1/expenses",
				body:   body,
				userID: "u1",
				params: map[string]string{"groupId": "g1"},
			}.context()
			if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got: %v", err)
			}
		})
	}
}

func TestExpenseHandler_List_Filters(t *testing.T) {
	stub := &stubExpenseService{
		listFn: func(ctx context.Context, actorID string, in ports.ListExpensesInput) ([]*domain.Expense, error) {
			if in.GroupID != "g1" || in.CategoryID != "c1" {
				t.Fatalf("unexpected filter: %+v", in)
			}
			if in.DateFrom.IsZero() || in.DateTo.IsZero() {
				t.Fatalf("expected both bounds, got: %+v", in)
			}
			return []*domain.Expense{}, nil
		},
	}
	handler := NewExpenseHandler(stub, nil)

	c, rec := request{
		method: http.MethodGet,
		target: "/v1/groups/g1/expenses?category_id=c1&from=2024-01-01&to=2024-01-31",
		userID: "u1",
		params: map[string]string{"groupId": "g1"},
	}.context()

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestExpenseHandler_Update_NotFound(t *testing.T) {
	stub := &stubExpenseService{
		updateFn: func(ctx context.Context, actorID, groupID, expenseID string, in ports.ExpenseInput) (*domain.Expense, error) {
			if expenseID != "e9" {
				t.Fatalf("unexpected expense id: %q", expenseID)
			}
			return nil, domain.ErrExpenseNotFound
		},
	}
	handler := NewExpenseHandler(stub, nil)

	c, _ := request{
		method: http.MethodPut,
		target: "/v1/groups/g1/expenses/e9",
		body:   `{"amount":1,"category_id":"c1","date":"2024-03-01"}`,
		userID: "u1",
		params: map[string]string{"groupId": "g1", "expenseId": "e9"},
	}.context()

	if err := handler.Update(c); !errors.Is(err, domain.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got: %v", err)
	}
}

func TestExpenseHandler_Balances(t *testing.T) {
	stub := &stubBalanceService{
		fn: func(ctx context.Context, actorID, groupID string) (*ports.GroupBalances, error) {
			return &ports.GroupBalances{
				GroupID:   groupID,
				GroupName: "Trip",
				Report: balance.Report{
					TotalSpent: 100,
					Balances: []balance.MemberBalance{
						{UserID: "u2", Name: "Bob", Owes: 50, Balance: -50, Standing: balance.Debtor},
						{UserID: "u1", Name: "Alice", Paid: 100, Owes: 50, Balance: 50, Standing: balance.Creditor},
					},
				},
				Settlements: []balance.Transfer{{FromUserID: "u2", FromName: "Bob", ToUserID: "u1", ToName: "Alice", Amount: 50}},
			}, nil
		},
	}
	handler := NewExpenseHandler(nil, stub)

	c, rec := request{
		method: http.MethodGet,
		target: "/v1/groups/g1/balances",
		userID: "u1",
		params: map[string]string{"groupId": "g1"},
	}.context()

	if err := handler.Balances(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp balancesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.TotalSpent != 100 || len(resp.Balances) != 2 || resp.Balances[0].Standing != "debtor" {
		t.Fatalf("unexpected balances: %+v", resp)
	}
	if len(resp.Settlements) != 1 || resp.Settlements[0].Amount != 50 {
		t.Fatalf("unexpected settlements: %+v", resp.Settlements)
	}
	if resp.ByCategory == nil {
		t.Fatalf("expected by_category to be an empty array")
	}
}
