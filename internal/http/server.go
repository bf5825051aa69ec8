// Package http exposes the expense tracker as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"nomoney/internal/cache"
	"nomoney/internal/core"
	"nomoney/internal/middleware/ratelimit"
	"nomoney/internal/middleware/security"
	"nomoney/internal/middleware/trace"
)

// ExpenseService is the expense surface the handlers need.
// *services.ExpenseService satisfies it; tests use fakes.
type ExpenseService interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	ListExpensesByDate(ctx context.Context, date core.Date) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// CategoryService is the category surface the handlers need.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	CreateCategory(ctx context.Context, name, color string) (core.Category, error)
	UpdateCategory(ctx context.Context, id int64, name, color string) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ResetDefaultCategories(ctx context.Context) ([]core.Category, error)
}

// StatisticsService is the read-model surface the handlers need.
type StatisticsService interface {
	MonthlyStats(ctx context.Context, year, month int) (core.MonthlyStats, error)
	DailyBreakdown(ctx context.Context, year, month int) ([]core.DailyExpenses, error)
	CalendarGrid(ctx context.Context, year, month int) ([]core.DayCell, error)
}

// CacheConfig sizes the month-keyed response caches.
type CacheConfig struct {
	TTL     time.Duration
	Entries int
}

type Server struct {
	http.Server

	expenses   ExpenseService
	categories CategoryService
	stats      StatisticsService

	tracer      *trace.Middleware
	rateLimiter *ratelimit.Limiter

	// Month-keyed response caches, invalidated on expense mutations.
	statsCache    *cache.LRUCache[core.MonthlyStats]
	dailyCache    *cache.LRUCache[[]core.DailyExpenses]
	calendarCache *cache.LRUCache[[]core.DayCell]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, expenses ExpenseService, categories CategoryService, stats StatisticsService, cc CacheConfig) *Server {
	if cc.TTL <= 0 {
		cc.TTL = 5 * time.Minute
	}
	if cc.Entries <= 0 {
		cc.Entries = 100
	}

	s := &Server{
		expenses:   expenses,
		categories: categories,
		stats:      stats,

		tracer:      trace.NewMiddleware(trace.ClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),

		statsCache:    cache.NewLRUCache[core.MonthlyStats](cc.Entries, cc.TTL),
		dailyCache:    cache.NewLRUCache[[]core.DailyExpenses](cc.Entries, cc.TTL),
		calendarCache: cache.NewLRUCache[[]core.DayCell](cc.Entries, cc.TTL),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.statsCache)
	s.cacheManager.Register(s.dailyCache)
	s.cacheManager.Register(s.calendarCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.withRateLimit(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.withRateLimit(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withRateLimit(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/expenses/date/{date}", s.handleListExpensesByDate)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.withRateLimit(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.withRateLimit(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withRateLimit(s.handleDeleteCategory))
	mux.HandleFunc("POST /api/categories/reset-defaults", s.withRateLimit(s.handleResetDefaultCategories))

	mux.HandleFunc("GET /api/statistics/monthly/{year}/{month}", s.handleMonthlyStats)
	mux.HandleFunc("GET /api/statistics/daily/{year}/{month}", s.handleDailyBreakdown)
	mux.HandleFunc("GET /api/calendar/{year}/{month}", s.handleCalendarGrid)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Middleware(headers.Middleware(mux)),
	}

	return s
}

// withRateLimit applies the per-IP limiter to mutating endpoints.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(trace.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondMessage(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next(w, r)
	}
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Requests   trace.Metrics  `json:"requests"`
		CacheSizes map[string]int `json:"cacheSizes"`
	}{
		Requests: s.tracer.GetMetrics(),
		CacheSizes: map[string]int{
			"statistics": s.statsCache.Size(),
			"daily":      s.dailyCache.Size(),
			"calendar":   s.calendarCache.Size(),
		},
	})
}

func monthKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// invalidateMonth drops the cached read models of one month.
func (s *Server) invalidateMonth(d core.Date) {
	key := monthKey(d.Year(), d.Month())
	s.statsCache.Delete(key)
	s.dailyCache.Delete(key)
	s.calendarCache.Delete(key)
}
