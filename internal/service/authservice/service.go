package authservice

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"stockmanager/internal/domain"
	apperror "stockmanager/internal/errors"
	"stockmanager/internal/pkg/logger"
)

// Account é um operador configurado por variável de ambiente.
type Account struct {
	Username     string
	PasswordHash string
	Role         domain.UserRole
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(subject string, role domain.UserRole) (string, error)
}

// Service autentica operadores do balcão e emite JWTs.
type Service struct {
	accounts map[string]Account
	tokenSvc TokenService
	logger   logger.Logger
}

// NewService indexa as contas por username. Contas sem username ou hash são ignoradas.
func NewService(accounts []Account, tokenSvc TokenService, log logger.Logger) *Service {
	idx := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		if a.Username == "" || a.PasswordHash == "" {
			continue
		}
		idx[strings.ToLower(a.Username)] = a
	}
	return &Service{accounts: idx, tokenSvc: tokenSvc, logger: log}
}

// Login confere a senha com o hash bcrypt e devolve um token assinado.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if creds.Username == "" || creds.Password == "" {
		return "", apperror.NewUnauthorizedError("Usuário e senha são obrigatórios.")
	}

	account, ok := s.accounts[strings.ToLower(creds.Username)]
	if !ok {
		s.logger.Warn("Login com usuário desconhecido.", map[string]interface{}{"username": creds.Username})
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		s.logger.Warn("Senha incorreta no login.", map[string]interface{}{"username": creds.Username})
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.tokenSvc.GenerateToken(account.Username, account.Role)
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Operador autenticado.", map[string]interface{}{"username": account.Username, "role": string(account.Role)})
	return tokenString, nil
}
