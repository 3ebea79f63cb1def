package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

// RoleAdmin único rol emitido: el servicio tiene un solo operador configurado.
const RoleAdmin = "admin"

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AdminCredentials credenciales configuradas (ADMIN_EMAIL, ADMIN_PASSWORD_HASH).
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// AuthUseCase login del administrador.
type AuthUseCase struct {
	admin  AdminCredentials
	jwtCfg JWTConfig
	now    func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(admin AdminCredentials, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{admin: admin, jwtCfg: jwtCfg, now: time.Now}
}

// Login verifica email/password contra el hash bcrypt y emite un JWT.
// Cualquier discrepancia devuelve domain.ErrUnauthorized sin indicar cuál campo falló.
func (uc *AuthUseCase) Login(_ context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if uc.admin.PasswordHash == "" {
		return nil, domain.ErrUnauthorized
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(uc.admin.Email))) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(uc.admin.PasswordHash), []byte(in.Password))
	if !emailOK || passErr != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, email, RoleAdmin, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: uc.now().Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute).UTC(),
	}, nil
}
