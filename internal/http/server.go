// Package http serves the JSON API: bearer-token auth, per-user CRUD
// collections, preferences and monthly reports.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Deps collects the collaborators the server routes to.
type Deps struct {
	Auth        *services.AuthService
	Categories  *services.CategoryService
	Expenses    *services.ExpenseService
	Goals       *services.GoalService
	Preferences *services.PreferencesService
	Tokens      *auth.TokenIssuer
	Repo        storage.Repository
	Logger      *log.Logger
}

type Server struct {
	http.Server

	auth        *services.AuthService
	categories  *services.CategoryService
	expenses    *services.ExpenseService
	goals       *services.GoalService
	preferences *services.PreferencesService
	tokens      *auth.TokenIssuer
	repo        storage.Repository
	logger      *log.Logger

	// Month overviews are cached per user and month; any expense or
	// category mutation wipes the user's slice of the cache.
	reportCache *cache.LRUCache[report.MonthOverview]
	caches      *cache.Manager
	limiter     *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer wires routes and the middleware chain, returning a
// ready-to-run server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		auth:        deps.Auth,
		categories:  deps.Categories,
		expenses:    deps.Expenses,
		goals:       deps.Goals,
		preferences: deps.Preferences,
		tokens:      deps.Tokens,
		repo:        deps.Repo,
		logger:      deps.Logger.WithComponent(log.ComponentHTTP),
		reportCache: cache.NewLRUCache[report.MonthOverview](256, 5*time.Minute),
		caches:      cache.NewManager(),
	}

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerMinute = cfg.RequestsPerMinute
	s.limiter = ratelimit.NewLimiter(limiterCfg)

	s.caches.Register(s.reportCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /api/categories", s.requireAuth(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.requireAuth(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.requireAuth(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.requireAuth(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.requireAuth(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/savings", s.requireAuth(s.handleListGoals))
	mux.HandleFunc("POST /api/savings", s.requireAuth(s.handleCreateGoal))
	mux.HandleFunc("PUT /api/savings/{id}", s.requireAuth(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/savings/{id}", s.requireAuth(s.handleDeleteGoal))
	mux.HandleFunc("PATCH /api/savings/{id}/progress", s.requireAuth(s.handleGoalProgress))

	mux.HandleFunc("GET /api/preferences", s.requireAuth(s.handleGetPreferences))
	mux.HandleFunc("PUT /api/preferences", s.requireAuth(s.handleUpdatePreferences))

	mux.HandleFunc("GET /api/reports/monthly", s.requireAuth(s.handleMonthlyReport))

	detector := security.NewDetector()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(detector.ExtractClientIP)

	var handler http.Handler = mux
	handler = log.Middleware(s.logger)(handler)
	handler = tracer.Middleware(handler)
	handler = s.limiter.Middleware(detector.ExtractClientIP, rateLimited)(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "60")
	respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady probes the repository so a broken database keeps the
// instance out of rotation.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ListCategories(r.Context(), "readiness-probe"); err != nil {
		respondError(w, http.StatusServiceUnavailable, "storage not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// invalidateReports drops the user's cached report entries after a write.
func (s *Server) invalidateReports(uid string) {
	s.reportCache.DeletePrefix(uid + ":")
}

// Shutdown stops the background cleanup loops and drains in-flight
// requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
