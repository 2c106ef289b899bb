package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "stockmanager/docs"
	"stockmanager/internal/api/auth"
	"stockmanager/internal/api/stock"
	"stockmanager/internal/domain"
	"stockmanager/internal/pkg/cache"
	"stockmanager/internal/pkg/logger"
	"stockmanager/internal/pkg/middleware"
)

// Deps reúne os handlers e a infraestrutura usados pelo roteador.
// RateLimitCache nil desliga o rate limiter.
type Deps struct {
	StockHandler    *stock.Handler
	AuthHandler     *auth.Handler
	TokenValidator  middleware.TokenValidator
	RateLimitCache  cache.Client
	RateLimitMax    int
	RateLimitPeriod time.Duration
	Logger          logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authMw := middleware.NewAuthMiddleware(d.TokenValidator)
	protect := func(h http.HandlerFunc, roles ...domain.UserRole) http.HandlerFunc {
		return authMw(middleware.PermissionMiddleware(roles...)(h))
	}
	readers := []domain.UserRole{domain.RoleAdmin, domain.RoleOperator, domain.RoleViewer}
	writers := []domain.UserRole{domain.RoleAdmin, domain.RoleOperator}

	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("POST /v1/auth/login", d.AuthHandler.LoginHandler)

	sh := d.StockHandler
	mux.HandleFunc("GET /v1/stocks", protect(sh.ListStocksHandler, readers...))
	mux.HandleFunc("POST /v1/stocks", protect(sh.CreateStockHandler, writers...))
	mux.HandleFunc("DELETE /v1/stocks", protect(sh.RemoveAllStocksHandler, domain.RoleAdmin))
	mux.HandleFunc("GET /v1/stocks/lookup", protect(sh.LookupHandler, readers...))
	mux.HandleFunc("GET /v1/stocks/report", protect(sh.ReportHandler, readers...))
	mux.HandleFunc("GET /v1/stocks/{id}", protect(sh.GetStockHandler, readers...))
	mux.HandleFunc("PATCH /v1/stocks/{id}", protect(sh.EditStockHandler, writers...))
	mux.HandleFunc("DELETE /v1/stocks/{id}", protect(sh.RemoveStockHandler, writers...))
	mux.HandleFunc("POST /v1/stocks/{id}/add", protect(sh.AddStockHandler, writers...))
	mux.HandleFunc("POST /v1/stocks/{id}/sell", protect(sh.SellStockHandler, writers...))
	mux.HandleFunc("GET /v1/stocks/{id}/stats", protect(sh.StatsHandler, readers...))

	var handler http.Handler = mux
	if d.RateLimitCache != nil && d.RateLimitMax > 0 {
		handler = middleware.RateLimiter(d.RateLimitCache, d.RateLimitMax, d.RateLimitPeriod, d.Logger)(handler)
	}
	return middleware.RequestLogger(d.Logger)(handler)
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
