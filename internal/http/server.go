package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server is the HTTP boundary. Every API route runs behind the
// trace, security-header, auth and per-user rate-limit middleware;
// only the health probes are reachable anonymously.
type Server struct {
	httpServer *http.Server

	repo         *storage.Repository
	categories   *services.CategoryService
	transactions *services.TransactionService
	analytics    *services.AnalyticsService
	profiles     *services.ProfileService

	authProvider auth.Provider
	limiter      *ratelimit.Limiter

	// provisioned remembers users whose profile row already exists, so
	// the per-request auto-provision check skips the database.
	provisioned  sync.Map
	shutdownOnce sync.Once
}

// Deps bundles everything the server needs. All fields are required.
type Deps struct {
	Repo         *storage.Repository
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Analytics    *services.AnalyticsService
	Profiles     *services.ProfileService
	Auth         auth.Provider
	Limiter      *ratelimit.Limiter
}

// NewServer creates the server and wires its routes and middleware.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		repo:         deps.Repo,
		categories:   deps.Categories,
		transactions: deps.Transactions,
		analytics:    deps.Analytics,
		profiles:     deps.Profiles,
		authProvider: deps.Auth,
		limiter:      deps.Limiter,
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler builds the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /categories", s.handleListCategories)
	api.HandleFunc("POST /categories", s.handleCreateCategory)
	api.HandleFunc("GET /categories/stats", s.handleCategoryStats)
	api.HandleFunc("GET /categories/{id}", s.handleGetCategory)
	api.HandleFunc("PUT /categories/{id}", s.handleUpdateCategory)
	api.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)

	api.HandleFunc("GET /transactions", s.handleListTransactions)
	api.HandleFunc("POST /transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /transactions/analytics", s.handleTransactionStats)
	api.HandleFunc("GET /transactions/analytics/monthly", s.handleMonthlyAnalytics)
	api.HandleFunc("GET /transactions/analytics/categories", s.handleCategorySpending)
	api.HandleFunc("GET /transactions/analytics/budget", s.handleBudgetAnalytics)
	api.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	api.HandleFunc("GET /profile", s.handleGetProfile)
	api.HandleFunc("PUT /profile", s.handleUpdateProfile)

	api.HandleFunc("GET /budgets", s.handleListBudgets)
	api.HandleFunc("POST /budgets", s.handleCreateBudget)
	api.HandleFunc("DELETE /budgets/{id}", s.handleDeleteBudget)

	api.HandleFunc("GET /goals", s.handleListGoals)
	api.HandleFunc("POST /goals", s.handleCreateGoal)
	api.HandleFunc("DELETE /goals/{id}", s.handleDeleteGoal)

	rateLimited := s.limiter.Middleware(rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		Fail(http.StatusTooManyRequests, msgRateLimited).Write(w)
	})

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/", s.withAuth(rateLimited(api)))

	traceMW := trace.NewMiddleware(clientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	return traceMW.Middleware(headers.Middleware(root))
}

// Start begins serving. It blocks until the listener closes.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

type ctxKey int

const userIDKey ctxKey = iota

// withAuth resolves the caller's identity, provisions the profile row on
// first sight and stores the user id in the request context.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.authProvider.CurrentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if _, ok := s.provisioned.Load(userID); !ok {
			if _, err := s.profiles.Ensure(r.Context(), userID); err != nil {
				writeError(w, r, err)
				return
			}
			s.provisioned.Store(userID, struct{}{})
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user id stored by withAuth.
func currentUser(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// rateLimitKey keys the rate limiter by authenticated user.
func rateLimitKey(r *http.Request) string {
	return currentUser(r)
}

// clientIP prefers the proxy-set forwarding headers over the socket peer.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		Fail(http.StatusServiceUnavailable, "Database unavailable").Write(w)
		return
	}
	OK().Data(map[string]string{"status": "ready"}).Write(w)
}
