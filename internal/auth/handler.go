package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"estate-backend/internal/engine"
	"estate-backend/internal/metrics"
	"estate-backend/internal/store"
)

type Handler struct {
	store  *store.Store
	secret string
}

func NewHandler(s *store.Store, secret string) *Handler {
	return &Handler{store: s, secret: secret}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login verifies credentials and issues a token pair. Bad email and bad
// password produce the same response.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return engine.InvalidPayloadError("Request body must be valid JSON")
	}
	if req.Email == "" || req.Password == "" {
		return engine.InvalidPayloadError("email and password are required")
	}

	row, err := store.QueryRow(c.Context(), h.store.Pool,
		"SELECT id, email, password_hash, active FROM _users WHERE email = $1", req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("failed").Inc()
			return engine.UnauthorizedError("Invalid credentials")
		}
		return err
	}

	if active, ok := row["active"].(bool); ok && !active {
		metrics.LoginAttempts.WithLabelValues("failed").Inc()
		return engine.UnauthorizedError("Invalid credentials")
	}

	hash, _ := row["password_hash"].(string)
	if !CheckPassword(req.Password, hash) {
		metrics.LoginAttempts.WithLabelValues("failed").Inc()
		return engine.UnauthorizedError("Invalid credentials")
	}

	userID, _ := row["id"].(string)
	email, _ := row["email"].(string)
	pair, err := h.issueTokens(c, userID, email)
	if err != nil {
		return err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return c.JSON(pair)
}

// Refresh rotates a refresh token: the presented token is consumed and a
// fresh pair is issued. A reused token gets a 401.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return engine.InvalidPayloadError("refresh_token is required")
	}

	row, err := store.QueryRow(c.Context(), h.store.Pool,
		`SELECT rt.user_id, rt.expires_at, u.email, u.active
		 FROM _refresh_tokens rt JOIN _users u ON u.id = rt.user_id
		 WHERE rt.token = $1`, req.RefreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.UnauthorizedError("Invalid refresh token")
		}
		return err
	}

	// Single use. Delete before checking expiry so a stale token is
	// cleaned up either way.
	if _, err := store.Exec(c.Context(), h.store.Pool,
		"DELETE FROM _refresh_tokens WHERE token = $1", req.RefreshToken); err != nil {
		return err
	}

	if expires, ok := row["expires_at"].(time.Time); ok && time.Now().After(expires) {
		return engine.UnauthorizedError("Refresh token expired")
	}
	if active, ok := row["active"].(bool); ok && !active {
		return engine.UnauthorizedError("Invalid refresh token")
	}

	userID, _ := row["user_id"].(string)
	email, _ := row["email"].(string)
	pair, err := h.issueTokens(c, userID, email)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

// Logout revokes all refresh tokens for the authenticated user.
func (h *Handler) Logout(c *fiber.Ctx) error {
	user := engine.GetUser(c)
	if _, err := store.Exec(c.Context(), h.store.Pool,
		"DELETE FROM _refresh_tokens WHERE user_id = $1", user.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// MyPermissions returns the caller's canonical permission documents so a
// client can shape its UI without probing endpoints.
func (h *Handler) MyPermissions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"permissions":       engine.GetPerms(c),
		"field_permissions": engine.GetFieldPerms(c),
	})
}

func (h *Handler) issueTokens(c *fiber.Ctx, userID, email string) (*TokenPair, error) {
	access, err := GenerateAccessToken(userID, email, h.secret)
	if err != nil {
		return nil, err
	}

	refresh := GenerateRefreshToken()
	expires := time.Now().Add(RefreshTokenTTL)
	if _, err := store.Exec(c.Context(), h.store.Pool,
		"INSERT INTO _refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)",
		refresh, userID, expires); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	}, nil
}

// RegisterAuthRoutes mounts the auth endpoints. Login and refresh are
// public; logout and the permission view require a verified token.
func RegisterAuthRoutes(app *fiber.App, h *Handler, guard *Guard) {
	app.Post("/api/auth/login", h.Login)
	app.Post("/api/auth/refresh", h.Refresh)
	app.Post("/api/auth/logout", guard.Authenticate(), h.Logout)
	app.Get("/api/me/permissions", guard.Authenticate(), h.MyPermissions)
}
