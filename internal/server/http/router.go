package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dnsforyou/idgw/internal/health"
	"github.com/dnsforyou/idgw/internal/keycloak"
	"github.com/dnsforyou/idgw/internal/observability"
	"github.com/dnsforyou/idgw/internal/server/http/middleware"
	"github.com/dnsforyou/idgw/internal/store"
)

// Router wires the gateway operations, projection store and operational
// endpoints onto a gin engine.
type Router struct {
	service   keycloak.Service
	store     store.Store
	checker   *health.Checker
	validator middleware.TokenValidator
	limiter   *middleware.RateLimiter
	adminRole string
	logger    observability.Logger
}

// RouterOptions carries the router's dependencies. Validator and Limiter are
// optional; when nil the corresponding middleware is not installed.
type RouterOptions struct {
	Service   keycloak.Service
	Store     store.Store
	Checker   *health.Checker
	Validator middleware.TokenValidator
	Limiter   *middleware.RateLimiter
	AdminRole string
	Logger    observability.Logger
}

// NewRouter creates a Router from the given options.
func NewRouter(opts RouterOptions) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Router{
		service:   opts.Service,
		store:     opts.Store,
		checker:   opts.Checker,
		validator: opts.Validator,
		limiter:   opts.Limiter,
		adminRole: opts.AdminRole,
		logger:    logger,
	}
}

// Register installs all routes and middleware on the engine.
func (r *Router) Register(engine *gin.Engine) {
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(r.logger),
		middleware.Logging(r.logger),
		metricsMiddleware(),
	)

	if r.checker != nil {
		engine.GET("/healthz", gin.WrapF(r.checker.HealthHandler()))
		engine.GET("/readyz", gin.WrapF(r.checker.ReadinessHandler()))
	}
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := engine.Group("/auth")
	{
		// Login and register are reachable without a token; they are the
		// only endpoints that get a rate limit.
		auth.POST("/login", r.rateLimited(r.login)...)
		auth.POST("/register", r.rateLimited(r.register)...)
		auth.POST("/logout", r.authenticated(r.logout)...)
	}

	users := engine.Group("/users")
	{
		users.GET("/:userId", r.authenticated(r.userByID)...)
		users.GET("/by-username/:username", r.authenticated(r.userByUsername)...)
		users.GET("/by-email/:email", r.authenticated(r.userByEmail)...)
		users.PUT("/:userId", r.adminOnly(r.updateUser)...)
		users.DELETE("/:userId", r.adminOnly(r.deleteUser)...)
	}

	roles := engine.Group("/roles")
	{
		roles.GET("", r.authenticated(r.realmRoles)...)
		roles.POST("/:userId", r.adminOnly(r.assignRoles)...)
		roles.DELETE("/:userId", r.adminOnly(r.removeRoles)...)
	}

	groups := engine.Group("/groups")
	{
		groups.GET("", r.authenticated(r.listGroups)...)
		groups.PUT("/:userId/:groupId", r.adminOnly(r.assignToGroup)...)
		groups.DELETE("/:userId/:groupId", r.adminOnly(r.removeFromGroup)...)
	}
}

// rateLimited wraps a handler with the rate limiter when one is configured.
func (r *Router) rateLimited(handler gin.HandlerFunc) []gin.HandlerFunc {
	if r.limiter == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{r.limiter.Middleware(), handler}
}

// authenticated wraps a handler with the bearer token guard. When no
// validator is configured the guard is skipped entirely.
func (r *Router) authenticated(handler gin.HandlerFunc) []gin.HandlerFunc {
	if r.validator == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{middleware.Auth(r.validator, r.logger), handler}
}

// adminOnly additionally requires the configured admin realm role.
func (r *Router) adminOnly(handler gin.HandlerFunc) []gin.HandlerFunc {
	if r.validator == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{
		middleware.Auth(r.validator, r.logger),
		middleware.RequireRole(r.adminRole),
		handler,
	}
}
