package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"

	_ "github.com/aussiebroadwan/appraisal/api/appraisal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// DevLogin registers POST /auth/dev-login. Never enable outside ENV=dev.
	DevLogin bool

	// SecureCookies marks the login state cookie Secure.
	SecureCookies bool

	// Limits are the rate limit profiles routes are registered under.
	Limits httpx.RateLimits

	SessionService      *service.SessionService
	UserService         *service.UserService
	OrganizationService *service.OrganizationService
	MembershipService   *service.MembershipService
	ClientService       *service.ClientService
	OrderService        *service.OrderService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Limits:       httpx.DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMe()
	r.registerOrganizations()
	r.registerMembership()
	r.registerClients()
	r.registerOrders()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Appraisal Organization Service API
//	@version		0.1.0
//	@description	Organizations, membership, clients and orders for appraisal firms.
//	@description
//	@description				Every JSON response is wrapped as {"data": ..., "error": null | {code, message, details}}.
//	@description				Session tokens are EdDSA JWTs and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/appraisal
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed wraps h with bearer authentication and a per-user rate limit.
func (r *Router) authed(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return r.authedBy(h, limit, httpx.UserOrIP)
}

func (r *Router) authedBy(h http.HandlerFunc, limit httpx.RateLimitConfig, key httpx.KeyFunc) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.keys.Verifier),
		httpx.RateLimit(limit, key),
	)
}

// public limits unauthenticated routes by client address.
func (r *Router) public(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h, httpx.RateLimit(limit, httpx.ClientIP))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		SessionService: r.SessionService,
		SecureCookies:  r.SecureCookies,
	}

	r.Mux.Handle("GET /auth/login", r.public(http.HandlerFunc(h.HandleLogin), r.Limits.Strict))
	r.Mux.Handle("GET /auth/callback", r.public(http.HandlerFunc(h.HandleCallback), r.Limits.Strict))

	if r.DevLogin {
		r.logger.Warn("dev login enabled, any caller can sign in as any email")
		r.Mux.Handle("POST /auth/dev-login", r.public(http.HandlerFunc(h.HandleDevLogin), r.Limits.Strict))
	}
}

func (r *Router) registerMe() {
	h := &MeHandler{UserService: r.UserService}

	r.Mux.Handle("GET /me", r.authed(h.HandleGet, r.Limits.Lenient))
	r.Mux.Handle("PATCH /me", r.authed(h.HandleUpdate, r.Limits.Moderate))
}

func (r *Router) registerOrganizations() {
	h := &OrganizationHandler{OrganizationService: r.OrganizationService}

	r.Mux.Handle("GET /organization", r.authed(h.HandleList, r.Limits.Lenient))
	r.Mux.Handle("POST /organization", r.authed(h.HandleCreate, r.Limits.Moderate))
	r.Mux.Handle("GET /organization/{id}", r.authed(h.HandleGet, r.Limits.Lenient))
	r.Mux.Handle("PATCH /organization/{id}", r.authed(h.HandleUpdate, r.Limits.Moderate))
	r.Mux.Handle("DELETE /organization/{id}", r.authed(h.HandleDelete, r.Limits.Moderate))
	r.Mux.Handle("GET /organization/{id}/members", r.authed(h.HandleListMembers, r.Limits.Lenient))
	r.Mux.Handle("GET /organization/{id}/invitations", r.authed(h.HandleListInvitations, r.Limits.Lenient))
}

func (r *Router) registerMembership() {
	h := &MembershipHandler{MembershipService: r.MembershipService}

	r.Mux.Handle("POST /organization/{id}/invite", r.authed(h.HandleInvite, r.Limits.Moderate))
	// Join redeems a bearer secret: strict, and counted per organization.
	r.Mux.Handle("POST /organization/{id}/join",
		r.authedBy(h.HandleJoin, r.Limits.Strict, httpx.PerPathValue(httpx.UserOrIP, "id")))
	r.Mux.Handle("POST /organization/{id}/leave", r.authed(h.HandleLeave, r.Limits.Moderate))
	r.Mux.Handle("POST /organization/{id}/transfer-ownership", r.authed(h.HandleTransferOwnership, r.Limits.Moderate))
	r.Mux.Handle("GET /organization/{id}/permissions", r.authed(h.HandlePermissions, r.Limits.Lenient))
	r.Mux.Handle("PATCH /organization/{id}/members/{userId}", r.authed(h.HandleChangeRole, r.Limits.Moderate))
	r.Mux.Handle("DELETE /organization/{id}/members/{userId}", r.authed(h.HandleRemoveMember, r.Limits.Moderate))
}

func (r *Router) registerClients() {
	h := &ClientsHandler{ClientService: r.ClientService}

	r.Mux.Handle("GET /organization/{id}/clients", r.authed(h.HandleList, r.Limits.Lenient))
	r.Mux.Handle("POST /organization/{id}/clients", r.authed(h.HandleCreate, r.Limits.Moderate))
	r.Mux.Handle("GET /organization/{id}/clients/{clientId}", r.authed(h.HandleGet, r.Limits.Lenient))
	r.Mux.Handle("PATCH /organization/{id}/clients/{clientId}", r.authed(h.HandleUpdate, r.Limits.Moderate))
}

func (r *Router) registerOrders() {
	h := &OrdersHandler{OrderService: r.OrderService}

	r.Mux.Handle("GET /organization/{id}/orders", r.authed(h.HandleList, r.Limits.Lenient))
	r.Mux.Handle("POST /organization/{id}/orders", r.authed(h.HandleCreate, r.Limits.Moderate))
	r.Mux.Handle("GET /organization/{id}/orders/{orderId}", r.authed(h.HandleGet, r.Limits.Lenient))
	r.Mux.Handle("PATCH /organization/{id}/orders/{orderId}", r.authed(h.HandleUpdate, r.Limits.Moderate))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json", r.public(JWKSHandler(r.keys.KeySet), r.Limits.Public))
	r.Mux.Handle("GET /livez", r.public(LivezHandler(r.startTime, r.buildVersion), r.Limits.Public))
	r.Mux.Handle("GET /readyz",
		r.public(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys.KeySet), r.Limits.Public))
}
