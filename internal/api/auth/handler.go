package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"stockmanager/internal/api/response"
	"stockmanager/internal/domain"
	apperror "stockmanager/internal/errors"
	"stockmanager/internal/pkg/logger"
)

// AuthService define o contrato de login esperado pelo Handler.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
}

// TokenResponse é o corpo devolvido por um login bem-sucedido.
type TokenResponse struct {
	Token string `json:"token"`
}

// Handler agrupa os handlers de autenticação.
type Handler struct {
	Service AuthService
	Logger  logger.Logger
}

func NewHandler(svc AuthService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// LoginHandler godoc
// @Summary Autentica um operador
// @Description Confere usuário e senha e devolve um JWT.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body domain.Credentials true "Usuário e senha"
// @Success 200 {object} auth.TokenResponse "Token emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /auth/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	tok, err := h.Service.Login(r.Context(), creds)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	response.JSON(w, h.Logger, http.StatusOK, TokenResponse{Token: tok})
}
