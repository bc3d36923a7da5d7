package admin

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"estate-backend/internal/auth"
	"estate-backend/internal/engine"
	"estate-backend/internal/metadata"
	"estate-backend/internal/store"
)

// Handler serves the administrative API: user accounts and the permission
// documents attached to them. Access is gated on the "users" module grant.
type Handler struct {
	store    *store.Store
	registry *metadata.Registry
}

func NewHandler(s *store.Store, reg *metadata.Registry) *Handler {
	return &Handler{store: s, registry: reg}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Active   *bool   `json:"active"`
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	rows, err := store.QueryRows(c.Context(), h.store.Pool,
		"SELECT id, email, name, active, created_at, updated_at FROM _users ORDER BY email")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	row, err := h.fetchUser(c, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(row)
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return engine.InvalidPayloadError("Request body must be valid JSON")
	}
	if req.Email == "" || req.Password == "" {
		return engine.InvalidPayloadError("email and password are required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	_, err = store.Exec(c.Context(), h.store.Pool,
		`INSERT INTO _users (id, email, password_hash, name, active, permissions, field_permissions)
		 VALUES ($1, $2, $3, $4, TRUE, '{}', '{}')`,
		id, req.Email, hash, req.Name)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return engine.ConflictError("A user with that email already exists")
		}
		return err
	}

	row, err := h.fetchUser(c, id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(row)
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.fetchUser(c, id); err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return engine.InvalidPayloadError("Request body must be valid JSON")
	}

	if req.Name != nil {
		if _, err := store.Exec(c.Context(), h.store.Pool,
			"UPDATE _users SET name = $1, updated_at = NOW() WHERE id = $2", *req.Name, id); err != nil {
			return err
		}
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		if _, err := store.Exec(c.Context(), h.store.Pool,
			"UPDATE _users SET password_hash = $1, updated_at = NOW() WHERE id = $2", hash, id); err != nil {
			return err
		}
	}
	if req.Active != nil {
		if _, err := store.Exec(c.Context(), h.store.Pool,
			"UPDATE _users SET active = $1, updated_at = NOW() WHERE id = $2", *req.Active, id); err != nil {
			return err
		}
		if !*req.Active {
			// Deactivation revokes sessions immediately.
			if _, err := store.Exec(c.Context(), h.store.Pool,
				"DELETE FROM _refresh_tokens WHERE user_id = $1", id); err != nil {
				return err
			}
		}
	}

	row, err := h.fetchUser(c, id)
	if err != nil {
		return err
	}
	return c.JSON(row)
}

// GetPermissions returns the stored document in canonical form. Legacy
// pipe-delimited values round-trip through the normalizer here, so the
// editor always sees token arrays.
func (h *Handler) GetPermissions(c *fiber.Ctx) error {
	raw, err := h.fetchRawColumn(c, c.Params("id"), "permissions")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"permissions": engine.NormalizeDoc(raw)})
}

// SavePermissions replaces the user's whole permission document. The
// payload is normalized before persisting, so the store only ever holds
// canonical documents going forward.
func (h *Handler) SavePermissions(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.fetchUser(c, id); err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError("Request body must be valid JSON")
	}
	raw, ok := body["permissions"]
	if !ok {
		return engine.InvalidPayloadError("permissions is required")
	}

	doc := engine.NormalizeDoc(raw)
	if err := h.validateModules(doc); err != nil {
		return err
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := store.Exec(c.Context(), h.store.Pool,
		"UPDATE _users SET permissions = $1, updated_at = NOW() WHERE id = $2", encoded, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"permissions": doc})
}

func (h *Handler) GetFieldPermissions(c *fiber.Ctx) error {
	raw, err := h.fetchRawColumn(c, c.Params("id"), "field_permissions")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"field_permissions": engine.NormalizeFieldDoc(raw)})
}

func (h *Handler) SaveFieldPermissions(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.fetchUser(c, id); err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError("Request body must be valid JSON")
	}
	raw, ok := body["field_permissions"]
	if !ok {
		return engine.InvalidPayloadError("field_permissions is required")
	}

	doc := engine.NormalizeFieldDoc(raw)
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := store.Exec(c.Context(), h.store.Pool,
		"UPDATE _users SET field_permissions = $1, updated_at = NOW() WHERE id = $2", encoded, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"field_permissions": doc})
}

// GetSchema lists every module with its editable fields, for the
// permission editor to render its grids from.
func (h *Handler) GetSchema(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"modules": h.registry.ModuleSchemas()})
}

func (h *Handler) fetchUser(c *fiber.Ctx, id string) (map[string]any, error) {
	row, err := store.QueryRow(c.Context(), h.store.Pool,
		"SELECT id, email, name, active, created_at, updated_at FROM _users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, engine.NotFoundError("users", id)
		}
		return nil, err
	}
	return row, nil
}

func (h *Handler) fetchRawColumn(c *fiber.Ctx, id, column string) (any, error) {
	row, err := store.QueryRow(c.Context(), h.store.Pool,
		"SELECT "+column+" FROM _users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, engine.NotFoundError("users", id)
		}
		return nil, err
	}
	return row[column], nil
}

// validateModules rejects grants for modules the registry does not know.
// Unknown modules in stored documents are harmless at decision time, but
// catching them at save time turns typos into errors instead of silently
// dead grants.
func (h *Handler) validateModules(doc engine.PermissionDoc) error {
	var details []engine.ErrorDetail
	for name := range doc {
		if h.registry.GetModule(name) == nil {
			details = append(details, engine.ErrorDetail{
				Field:   name,
				Rule:    "unknown_module",
				Message: "No such module: " + name,
			})
		}
	}
	if len(details) > 0 {
		return engine.ValidationError(details)
	}
	return nil
}

// RegisterAdminRoutes mounts the admin API behind the supplied guards.
func RegisterAdminRoutes(app *fiber.App, h *Handler, guards ...fiber.Handler) {
	grp := app.Group("/api/_admin", guards...)

	grp.Get("/schema", h.GetSchema)
	grp.Get("/users", h.ListUsers)
	grp.Post("/users", h.CreateUser)
	grp.Get("/users/:id", h.GetUser)
	grp.Put("/users/:id", h.UpdateUser)
	grp.Get("/users/:id/permissions", h.GetPermissions)
	grp.Put("/users/:id/permissions", h.SavePermissions)
	grp.Get("/users/:id/field-permissions", h.GetFieldPermissions)
	grp.Put("/users/:id/field-permissions", h.SaveFieldPermissions)
}
