package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"estate-backend/internal/audit"
	"estate-backend/internal/engine"
	"estate-backend/internal/metadata"
	"estate-backend/internal/metrics"
	"estate-backend/internal/store"
)

// Guard enforces the authentication/authorization pipeline: token
// verification, permission lookup, normalization, and the module decision.
// Everything it decides happens before any handler side effect.
type Guard struct {
	store    *store.Store
	secret   string
	recorder *audit.Recorder
}

func NewGuard(s *store.Store, secret string, rec *audit.Recorder) *Guard {
	return &Guard{store: s, secret: secret, recorder: rec}
}

// Authenticate verifies the token and attaches the user plus both
// normalized permission documents to the request. No module decision is
// made; this is the guard's "no specific module requested" mode.
func (g *Guard) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := g.authenticate(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// Require authorizes requests against a fixed module name.
func (g *Guard) Require(module string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return g.requireModule(c, module)
	}
}

// RequireParam authorizes requests against the :module route parameter.
func (g *Guard) RequireParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return g.requireModule(c, c.Params("module"))
	}
}

func (g *Guard) requireModule(c *fiber.Ctx, module string) error {
	start := time.Now()

	if err := g.authenticate(c); err != nil {
		return err
	}

	action, err := engine.ResolveAction(c.Method())
	if err != nil {
		// Routing misconfiguration; neither allow nor deny.
		return err
	}

	user := engine.GetUser(c)
	doc := engine.GetPerms(c)
	decision := engine.Authorize(doc, module, action)

	if !decision.Allowed {
		cause := audit.CauseActionDenied
		if _, ok := doc[module]; !ok {
			cause = audit.CauseModuleAbsent
		}
		g.observe(audit.Event{
			UserID:     user.ID,
			Module:     module,
			Action:     action,
			Decision:   audit.DecisionDeny,
			Cause:      cause,
			Method:     c.Method(),
			Path:       c.Path(),
			DurationMs: msSince(start),
		})
		return engine.PermissionDeniedError(module, engine.GrantedActions(doc, module))
	}

	c.Locals(engine.LocalCanViewAll, decision.CanViewAll)
	g.observe(audit.Event{
		UserID:     user.ID,
		Module:     module,
		Action:     action,
		Decision:   audit.DecisionAllow,
		Method:     c.Method(),
		Path:       c.Path(),
		DurationMs: msSince(start),
	})
	return c.Next()
}

// authenticate runs token verification and the per-request permission
// fetch. All failures look identical to the client; the audit trail and
// log keep the real cause.
func (g *Guard) authenticate(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return g.reject(c, audit.CauseMissingToken, nil)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return g.reject(c, audit.CauseMalformedToken, nil)
	}

	ident, err := ParseAccessToken(parts[1], g.secret)
	if err != nil {
		return g.reject(c, audit.CauseInvalidToken, err)
	}

	row, err := loadPermissionRow(c.Context(), g.store, ident.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Valid token for a deleted account; same wire response.
			return g.reject(c, audit.CauseUserMissing, nil)
		}
		return err
	}

	if active, ok := row["active"].(bool); ok && !active {
		return g.reject(c, audit.CauseUserInactive, nil)
	}

	email, _ := row["email"].(string)
	c.Locals(engine.LocalUser, &metadata.UserContext{ID: ident.UserID, Email: email})
	c.Locals(engine.LocalPerms, engine.NormalizeDoc(row["permissions"]))
	c.Locals(engine.LocalFieldPerms, engine.NormalizeFieldDoc(row["field_permissions"]))
	return nil
}

func (g *Guard) reject(c *fiber.Ctx, cause string, err error) error {
	if err != nil {
		log.Printf("auth: rejected request (%s): %v", cause, err)
	}
	metrics.AuthDecisions.WithLabelValues("", "", "unauthorized").Inc()
	g.recorder.Record(audit.Event{
		Decision: audit.DecisionDeny,
		Cause:    cause,
		Method:   c.Method(),
		Path:     c.Path(),
	})
	return engine.UnauthorizedError("Invalid or missing auth token")
}

func (g *Guard) observe(e audit.Event) {
	outcome := e.Decision
	metrics.AuthDecisions.WithLabelValues(e.Module, e.Action, outcome).Inc()
	g.recorder.Record(e)
}

// loadPermissionRow is the permission store accessor: one read per request,
// no cross-request caching, so an admin edit takes effect on the next call.
func loadPermissionRow(ctx context.Context, s *store.Store, userID string) (map[string]any, error) {
	return store.QueryRow(ctx, s.Pool,
		"SELECT email, active, permissions, field_permissions FROM _users WHERE id = $1", userID)
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
