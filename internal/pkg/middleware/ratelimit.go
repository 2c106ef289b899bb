package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"stockmanager/internal/pkg/cache"
	"stockmanager/internal/pkg/logger"
)

// RateLimiter limita requisições por IP numa janela fixa guardada no Redis.
// Se o Redis falhar a requisição segue: o limite não pode derrubar a API de estoque.
func RateLimiter(client cache.Client, limit int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			count, err := client.Incr(ctx, key)
			if err != nil {
				log.Warn("Rate limiter indisponível, requisição liberada.", map[string]interface{}{"ip": ip, "error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				// primeira requisição da janela: fixa a expiração sem tocar no contador
				if err := client.Expire(ctx, key, window); err != nil {
					log.Warn("Falha ao definir janela do rate limiter.", map[string]interface{}{"ip": ip, "error": err.Error()})
				}
			}

			if int(count) > limit {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-int(count)))
			next.ServeHTTP(w, r)
		})
	}
}
