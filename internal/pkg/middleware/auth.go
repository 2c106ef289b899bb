package middleware

import (
	"context"
	"net/http"
	"strings"

	"stockmanager/internal/domain"
	apperror "stockmanager/internal/errors"
	"stockmanager/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto do middleware.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims são os dados do operador extraídos do JWT e anexados ao contexto.
type UserClaims struct {
	Username string
	Role     domain.UserRole
}

// TokenValidator é o contrato de validação necessário para o middleware.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewAuthMiddleware valida o Bearer token e anexa as claims ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenValidator) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || tokenString == "" {
				writeAuthError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."), http.StatusUnauthorized)
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				writeAuthError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, UserClaims{
				Username: claims.Subject,
				Role:     domain.UserRole(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserClaimsFromContext extrai as claims anexadas pelo NewAuthMiddleware.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware só deixa passar operadores com um dos papéis informados.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."), http.StatusUnauthorized)
				return
			}

			for _, role := range requiredRoles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, apperror.NewUnauthorizedError("Acesso negado. Você não tem a permissão necessária."), http.StatusForbidden)
		}
	}
}

func writeAuthError(w http.ResponseWriter, err error, status int) {
	http.Error(w, err.Error(), status)
}
