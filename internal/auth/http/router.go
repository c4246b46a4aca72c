// Package http wires the auth service's handlers onto a ServeMux with the
// middleware each route needs, and maps service failures onto wire errors.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tuckshop-au/tuckshop/internal/auth/kv"
	"github.com/tuckshop-au/tuckshop/internal/auth/service"
	"github.com/tuckshop-au/tuckshop/internal/auth/store"
	"github.com/tuckshop-au/tuckshop/pkg/httpx"
	"github.com/tuckshop-au/tuckshop/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	kv    kv.Store

	Authenticator *service.Authenticator
	Lifecycle     *service.LifecycleManager

	// AllowInsecureLogin disables the secure-transport check on login, for
	// local development and tests only.
	AllowInsecureLogin bool
}

func NewRouter(
	buildVersion string,
	st store.Store,
	kvStore kv.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		kv:           kvStore,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /login - strict limit keyed by IP; credential guessing is the
	// thing rate limiting exists for here.
	loginHandler := &LoginHandler{
		Authenticator: r.Authenticator,
		AllowInsecure: r.AllowInsecureLogin,
	}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - rotation is cheap but still gated moderately.
	refreshHandler := &RefreshHandler{Lifecycle: r.Lifecycle}
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Authenticated session management.
	logoutHandler := &LogoutHandler{Lifecycle: r.Lifecycle}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(logoutHandler.HandleLogout),
			httpx.AuthnMiddleware(r.Lifecycle, writeTokenError),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout-all",
		httpx.Chain(http.HandlerFunc(logoutHandler.HandleLogoutAll),
			httpx.AuthnMiddleware(r.Lifecycle, writeTokenError),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	passwordHandler := &PasswordHandler{Authenticator: r.Authenticator}
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(passwordHandler,
			httpx.AuthnMiddleware(r.Lifecycle, writeTokenError),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	userinfoHandler := &UserInfoHandler{}
	r.Mux.Handle("GET /v1/auth/userinfo",
		httpx.Chain(userinfoHandler,
			httpx.AuthnMiddleware(r.Lifecycle, writeTokenError),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.kv),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
