package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/groupsplit/internal/api/metrics"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

type ExpenseHandler struct {
	expenses ports.ExpenseService
	balances ports.BalanceService
}

func NewExpenseHandler(expenses ports.ExpenseService, balances ports.BalanceService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, balances: balances}
}

// Create handles POST /v1/groups/:groupId/expenses.
//
// @Summary      Record an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string          true  "Group id"
// @Param        body     body      expenseRequest  true  "Expense"
// @Success      201      {object}  expenseResponse
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /v1/groups/{groupId}/expenses [post]
func (h *ExpenseHandler) Create(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	in, err := bindExpense(c)
	if err != nil {
		return err
	}

	e, err := h.expenses.CreateExpense(c.Request().Context(), userID, c.Param("groupId"), in)
	if err != nil {
		return err
	}
	metrics.ExpensesTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, expenseResponse{Expense: e})
}

// Update handles PUT /v1/groups/:groupId/expenses/:expenseId.
//
// @Summary      Replace an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupId    path      string          true  "Group id"
// @Param        expenseId  path      string          true  "Expense id"
// @Param        body       body      expenseRequest  true  "Expense"
// @Success      200        {object}  expenseResponse
// @Failure      400        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /v1/groups/{groupId}/expenses/{expenseId} [put]
func (h *ExpenseHandler) Update(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	in, err := bindExpense(c)
	if err != nil {
		return err
	}

	e, err := h.expenses.UpdateExpense(c.Request().Context(), userID, c.Param("groupId"), c.Param("expenseId"), in)
	if err != nil {
		return err
	}
	metrics.ExpensesTotal.WithLabelValues("updated").Inc()
	return c.JSON(http.StatusOK, expenseResponse{Expense: e})
}

// Delete handles DELETE /v1/groups/:groupId/expenses/:expenseId.
//
// @Summary      Delete an expense
// @Tags         expenses
// @Security     BearerAuth
// @Param        groupId    path  string  true  "Group id"
// @Param        expenseId  path  string  true  "Expense id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/groups/{groupId}/expenses/{expenseId} [delete]
func (h *ExpenseHandler) Delete(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.expenses.DeleteExpense(c.Request().Context(), userID, c.Param("groupId"), c.Param("expenseId")); err != nil {
		return err
	}
	metrics.ExpensesTotal.WithLabelValues("deleted").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/groups/:groupId/expenses/:expenseId.
//
// @Summary      Get an expense
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        groupId    path      string  true  "Group id"
// @Param        expenseId  path      string  true  "Expense id"
// @Success      200        {object}  expenseResponse
// @Failure      404        {object}  errorResponse
// @Router       /v1/groups/{groupId}/expenses/{expenseId} [get]
func (h *ExpenseHandler) Get(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	e, err := h.expenses.GetExpense(c.Request().Context(), userID, c.Param("groupId"), c.Param("expenseId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expenseResponse{Expense: e})
}

// List handles GET /v1/groups/:groupId/expenses.
//
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        groupId      path      string  true   "Group id"
// @Param        category_id  query     string  false  "Only this category"
// @Param        from         query     string  false  "Earliest date, inclusive (YYYY-MM-DD)"
// @Param        to           query     string  false  "Latest date, inclusive (YYYY-MM-DD)"
// @Success      200          {object}  expensesResponse
// @Failure      400          {object}  errorResponse
// @Router       /v1/groups/{groupId}/expenses [get]
func (h *ExpenseHandler) List(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	from, err := parseDate("from", c.QueryParam("from"))
	if err != nil {
		return err
	}
	to, err := parseDate("to", c.QueryParam("to"))
	if err != nil {
		return err
	}

	list, err := h.expenses.ListExpenses(c.Request().Context(), userID, ports.ListExpensesInput{
		GroupID:    c.Param("groupId"),
		CategoryID: c.QueryParam("category_id"),
		DateFrom:   from,
		DateTo:     to,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expensesResponse{Expenses: list})
}

// Balances handles GET /v1/groups/:groupId/balances.
//
// @Summary      Group balances and settlement plan
// @Tags         balances
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string  true  "Group id"
// @Success      200      {object}  balancesResponse
// @Failure      403      {object}  errorResponse
// @Router       /v1/groups/{groupId}/balances [get]
func (h *ExpenseHandler) Balances(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}

	start := time.Now()
	b, err := h.balances.GroupBalances(c.Request().Context(), userID, c.Param("groupId"))
	if err != nil {
		return err
	}
	metrics.BalanceComputeDuration.Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, toBalancesResponse(b, time.Now().UTC()))
}

func bindExpense(c echo.Context) (ports.ExpenseInput, error) {
	var req expenseRequest
	if err := bind(c, &req); err != nil {
		return ports.ExpenseInput{}, err
	}
	return req.toInput()
}
