// Package api wires the HTTP surface: routes, middleware, and the
// services behind them.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/happenit/server/internal/api/handlers"
	"github.com/happenit/server/internal/api/middleware"
	"github.com/happenit/server/internal/auth"
	"github.com/happenit/server/internal/config"
	"github.com/happenit/server/internal/domain/events"
	"github.com/happenit/server/internal/domain/users"
	"github.com/happenit/server/internal/media"
	"github.com/happenit/server/internal/messages"
	"github.com/happenit/server/internal/metrics"
	"github.com/happenit/server/internal/storage/postgres"
)

// Deps carries everything the router needs that outlives a request.
type Deps struct {
	Pool      *pgxpool.Pool
	Media     media.Store
	Mailer    users.WelcomeMailer
	Catalog   *messages.Catalog
	Version   string
	GitCommit string
}

// NewRouter assembles the full handler chain. The returned handler is
// ready to be mounted on an http.Server.
func NewRouter(cfg config.Config, logger zerolog.Logger, deps Deps) (http.Handler, error) {
	repo, err := postgres.NewRepository(deps.Pool)
	if err != nil {
		return nil, err
	}

	usersService := users.NewService(repo.Users(), deps.Media, deps.Mailer, logger)
	eventsService := events.NewService(repo.Events(), deps.Media, logger)
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	usersHandler := handlers.NewUsersHandler(usersService, deps.Catalog, cfg.Environment)
	authHandler := handlers.NewAuthHandler(usersService, tokenIssuer, deps.Catalog, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, deps.Catalog, cfg.Environment)
	health := handlers.NewHealthChecker(deps.Pool, deps.Version, deps.GitCommit)

	// One limiter store shared by every route; the login route is
	// tagged with its own tier before the limiter reads the context.
	rateLimit := middleware.RateLimit(cfg.RateLimit)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	jsonBody := middleware.PublicRequestSize()
	uploadBody := middleware.UploadRequestSize()
	limited := func(h http.Handler) http.Handler { return rateLimit(h) }
	limitedLogin := func(h http.Handler) http.Handler { return loginTier(rateLimit(h)) }

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", health.Readyz())
	mux.Handle("/health", health.Health())

	mux.Handle("/api/v1/users", methodMux(map[string]http.Handler{
		http.MethodPost: limited(jsonBody(http.HandlerFunc(usersHandler.Register))),
	}))
	mux.Handle("/api/v1/login", methodMux(map[string]http.Handler{
		http.MethodPost: limitedLogin(jsonBody(http.HandlerFunc(authHandler.Login))),
	}))
	mux.Handle("/api/v1/users/{id}/profile-image", methodMux(map[string]http.Handler{
		http.MethodPut: limited(uploadBody(http.HandlerFunc(usersHandler.UploadProfileImage))),
	}))
	mux.Handle("/api/v1/users/{id}/profile", methodMux(map[string]http.Handler{
		http.MethodPut: limited(uploadBody(http.HandlerFunc(usersHandler.UpdateProfile))),
	}))
	mux.Handle("/api/v1/users/{id}/events", methodMux(map[string]http.Handler{
		http.MethodGet: limited(http.HandlerFunc(eventsHandler.ListByOwner)),
	}))
	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  limited(http.HandlerFunc(eventsHandler.List)),
		http.MethodPost: limited(uploadBody(http.HandlerFunc(eventsHandler.Create))),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: limited(http.HandlerFunc(eventsHandler.Get)),
		http.MethodPut: limited(jsonBody(http.HandlerFunc(eventsHandler.Update))),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	if cfg.Tracing.Enabled {
		handler = middleware.Tracing(handler)
	}
	handler = middleware.CorrelationID(logger)(handler)

	return handler, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
