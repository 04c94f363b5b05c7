// Handles administrator login.

package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maruel/storefront/internal/server/dto"
	"github.com/maruel/storefront/internal/server/reqctx"
)

const tokenExpiration = 24 * time.Hour

// AdminSubject is the subject of every administrator token.
const AdminSubject = "admin"

// AuthHandler handles authentication requests.
type AuthHandler struct {
	cfg *Config
	now func() time.Time
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(cfg *Config) *AuthHandler {
	return &AuthHandler{cfg: cfg, now: time.Now}
}

// Login checks the administrator password and returns a JWT token.
func (h *AuthHandler) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if h.cfg.AdminPasswordHash == "" {
		return nil, dto.Unauthorized("Admin login is not configured")
	}
	if !h.cfg.CheckAdminPassword(req.Password) {
		slog.WarnContext(ctx, "Failed admin login", "ip", reqctx.ClientIP(ctx), "userAgent", reqctx.UserAgent(ctx))
		return nil, dto.Unauthorized("Invalid credentials")
	}
	token, exp, err := h.GenerateToken()
	if err != nil {
		return nil, dto.InternalWithError("Failed to generate token", err)
	}
	slog.InfoContext(ctx, "Admin logged in", "ip", reqctx.ClientIP(ctx))
	return &dto.LoginResponse{Token: token, ExpiresAt: exp}, nil
}

// GenerateToken signs an administrator token.
func (h *AuthHandler) GenerateToken() (string, time.Time, error) {
	now := h.now()
	exp := now.Add(tokenExpiration).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": AdminSubject,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	s, err := token.SignedString(h.cfg.JWTSecret)
	return s, exp, err
}
