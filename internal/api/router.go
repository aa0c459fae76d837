package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/sirpyerre/groupsplit/internal/api/handler"
	"github.com/sirpyerre/groupsplit/internal/api/middleware"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

const metricsSubsystem = "groupsplit"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth        ports.AuthService
	Memberships ports.MembershipService
	Expenses    ports.ExpenseService
	Balances    ports.BalanceService
	Probes      []handler.Probe
	JWTSecret   string
	Log         zerolog.Logger
	// Registry receives the HTTP request metrics; nil uses the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	promMiddleware, metricsHandler := prometheusHooks(d.Registry)
	e.Use(promMiddleware)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	groupHandler := handler.NewGroupHandler(d.Memberships)
	inviteHandler := handler.NewInviteHandler(d.Memberships)
	expenseHandler := handler.NewExpenseHandler(d.Expenses, d.Balances)

	authMiddleware := middleware.Auth(d.JWTSecret)
	member := middleware.RequireGroupMember(d.Memberships, "groupId")
	admin := middleware.RequireGroupAdmin(d.Memberships, "groupId")

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, authMiddleware)
	e.DELETE("/auth/me", authHandler.DeleteMe, authMiddleware)

	v1 := e.Group("/v1", authMiddleware)

	// --- Groups ---
	v1.POST("/groups", groupHandler.Create)
	v1.GET("/groups/mine", groupHandler.Mine)
	v1.POST("/groups/join", groupHandler.Join)
	v1.GET("/groups/:groupId", groupHandler.Get)
	v1.DELETE("/groups/:groupId", groupHandler.Delete, admin)
	v1.GET("/groups/:groupId/categories", groupHandler.Categories, member)
	v1.POST("/groups/:groupId/leave", groupHandler.Leave)

	// --- Roster (admin) ---
	v1.POST("/groups/:groupId/members", groupHandler.AddMember, admin)
	v1.DELETE("/groups/:groupId/members/:userId", groupHandler.RemoveMember, admin)
	v1.PATCH("/groups/:groupId/members/:userId", groupHandler.ChangeRole, admin)

	// --- Invites ---
	v1.POST("/groups/:groupId/invites", inviteHandler.Create, admin)
	v1.GET("/groups/:groupId/invites", inviteHandler.List, admin)
	v1.DELETE("/groups/:groupId/invites/:inviteId", inviteHandler.Revoke, admin)
	v1.POST("/invites/:token/accept", inviteHandler.Accept)

	// --- Expenses and balances (membership checked by the services) ---
	v1.POST("/groups/:groupId/expenses", expenseHandler.Create)
	v1.GET("/groups/:groupId/expenses", expenseHandler.List)
	v1.GET("/groups/:groupId/expenses/:expenseId", expenseHandler.Get)
	v1.PUT("/groups/:groupId/expenses/:expenseId", expenseHandler.Update)
	v1.DELETE("/groups/:groupId/expenses/:expenseId", expenseHandler.Delete)
	v1.GET("/groups/:groupId/balances", expenseHandler.Balances)

	// --- Health probes and ops (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Probes...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func prometheusHooks(reg *prometheus.Registry) (echo.MiddlewareFunc, echo.HandlerFunc) {
	if reg == nil {
		return echoprometheus.NewMiddleware(metricsSubsystem), echoprometheus.NewHandler()
	}
	mw := echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: reg,
	})
	return mw, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
