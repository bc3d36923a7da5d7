package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"estate-backend/internal/metadata"
	"estate-backend/internal/store"
)

// Locals keys set by the auth guard and read here.
const (
	LocalUser       = "user"
	LocalPerms      = "perms"
	LocalFieldPerms = "fieldPerms"
	LocalCanViewAll = "canViewAll"
)

type Handler struct {
	store    *store.Store
	registry *metadata.Registry
}

func NewHandler(s *store.Store, reg *metadata.Registry) *Handler {
	return &Handler{store: s, registry: reg}
}

// List handles GET /api/:module
func (h *Handler) List(c *fiber.Ctx) error {
	module, err := h.resolveModule(c)
	if err != nil {
		return err
	}

	plan, err := ParseQueryParams(c, module)
	if err != nil {
		return err
	}

	// Callers without the all-grant only see their own records.
	if !CanViewAll(c) && module.OwnerField != "" {
		plan.Filters = append(plan.Filters, WhereClause{
			Field:    module.OwnerField,
			Operator: "eq",
			Value:    GetUser(c).ID,
		})
	}

	qr := BuildSelectSQL(plan)
	rows, err := store.QueryRows(c.Context(), h.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		return fmt.Errorf("list %s: %w", module.Name, err)
	}

	cr := BuildCountSQL(plan)
	countRow, err := store.QueryRow(c.Context(), h.store.Pool, cr.SQL, cr.Params...)
	if err != nil {
		return fmt.Errorf("count %s: %w", module.Name, err)
	}
	total := countRow["count"]

	rows = h.projectRows(c, module, rows)
	if rows == nil {
		rows = []map[string]any{}
	}

	return c.JSON(fiber.Map{
		"data": rows,
		"meta": fiber.Map{
			"page":     plan.Page,
			"per_page": plan.PerPage,
			"total":    total,
		},
	})
}

// GetByID handles GET /api/:module/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	module, err := h.resolveModule(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	row, err := h.fetchRecord(c, module, id)
	if err != nil {
		return err
	}

	row = h.projectRow(c, module, row)
	return c.JSON(fiber.Map{"data": row})
}

// Create handles POST /api/:module
func (h *Handler) Create(c *fiber.Ctx) error {
	module, err := h.resolveModule(c)
	if err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	body = h.screenFieldPolicy(c, module, ActionCreate, body)

	fields, validationErrs := ScreenWriteBody(module, body, true)
	if len(validationErrs) > 0 {
		return ValidationError(validationErrs)
	}

	if errs := EvaluateRules(h.registry, module.Name, "before_write", fields, nil, true); len(errs) > 0 {
		return ValidationError(errs)
	}

	if err := EnsureSlug(c.Context(), h.store.Pool, module, fields); err != nil {
		return fmt.Errorf("generate slug: %w", err)
	}

	fields[module.PrimaryKey] = uuid.New().String()
	if module.OwnerField != "" {
		fields[module.OwnerField] = GetUser(c).ID
	}

	qr := BuildInsertSQL(module, fields)
	record, err := store.QueryRow(c.Context(), h.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return ConflictError("A record with this value already exists")
		}
		return fmt.Errorf("create %s: %w", module.Name, err)
	}

	return c.Status(201).JSON(fiber.Map{"data": h.projectRow(c, module, record)})
}

// Update handles PUT /api/:module/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	module, err := h.resolveModule(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	current, err := h.fetchRecord(c, module, id)
	if err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	body = h.screenFieldPolicy(c, module, ActionUpdate, body)

	fields, validationErrs := ScreenWriteBody(module, body, false)
	if len(validationErrs) > 0 {
		return ValidationError(validationErrs)
	}
	if len(fields) == 0 {
		return NewAppError("INVALID_PAYLOAD", 400, "No updatable fields in body")
	}

	if errs := EvaluateRules(h.registry, module.Name, "before_write", fields, current, false); len(errs) > 0 {
		return ValidationError(errs)
	}

	if slug, ok := fields[slugField(module)]; ok {
		if s, ok := slug.(string); ok {
			fields[slugField(module)] = Slugify(s)
		}
	}

	qr := BuildUpdateSQL(module, id, fields)
	record, err := store.QueryRow(c.Context(), h.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(module.Name, id)
		}
		if store.IsUniqueViolation(err) {
			return ConflictError("A record with this value already exists")
		}
		return fmt.Errorf("update %s/%s: %w", module.Name, id, err)
	}

	return c.JSON(fiber.Map{"data": h.projectRow(c, module, record)})
}

// Delete handles DELETE /api/:module/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	module, err := h.resolveModule(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if _, err := h.fetchRecord(c, module, id); err != nil {
		return err
	}

	var qr QueryResult
	if module.SoftDelete {
		qr = BuildSoftDeleteSQL(module, id)
	} else {
		qr = BuildHardDeleteSQL(module, id)
	}

	affected, err := store.Exec(c.Context(), h.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", module.Name, id, err)
	}
	if affected == 0 {
		return NotFoundError(module.Name, id)
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// fetchRecord loads one record by id and enforces record scope: without the
// all-grant a caller only reaches records they own. Non-owned records read
// as NOT_FOUND so their existence is not leaked.
func (h *Handler) fetchRecord(c *fiber.Ctx, module *metadata.Module, id string) (map[string]any, error) {
	pb := &paramBuilder{}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		joinPublicColumns(module), module.Table, module.PrimaryKey, pb.Add(id))
	if module.SoftDelete {
		sql += " AND deleted_at IS NULL"
	}

	row, err := store.QueryRow(c.Context(), h.store.Pool, sql, pb.params...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError(module.Name, id)
		}
		return nil, fmt.Errorf("fetch %s/%s: %w", module.Name, id, err)
	}

	if !CanViewAll(c) && module.OwnerField != "" {
		owner, _ := row[module.OwnerField].(string)
		if owner != GetUser(c).ID {
			return nil, NotFoundError(module.Name, id)
		}
	}
	return row, nil
}

func (h *Handler) resolveModule(c *fiber.Ctx) (*metadata.Module, error) {
	name := c.Params("module")
	module := h.registry.GetModule(name)
	if module == nil || module.Internal {
		return nil, UnknownModuleError(name)
	}
	return module, nil
}

// screenFieldPolicy drops write-forbidden fields when a field policy is
// configured for the module. Callers with no policy entry for the module
// are not field-restricted; the all-grant is record scope, not field scope.
func (h *Handler) screenFieldPolicy(c *fiber.Ctx, module *metadata.Module, action string, body map[string]any) map[string]any {
	fieldDoc := GetFieldPerms(c)
	if !HasModulePolicy(fieldDoc, module.Name) {
		return body
	}
	return WritableFields(fieldDoc, module.Name, action, body)
}

func (h *Handler) projectRow(c *fiber.Ctx, module *metadata.Module, row map[string]any) map[string]any {
	fieldDoc := GetFieldPerms(c)
	if row == nil || !HasModulePolicy(fieldDoc, module.Name) {
		return row
	}
	return ReadableFields(fieldDoc, module.Name, module.PrimaryKey, row)
}

func (h *Handler) projectRows(c *fiber.Ctx, module *metadata.Module, rows []map[string]any) []map[string]any {
	fieldDoc := GetFieldPerms(c)
	if !HasModulePolicy(fieldDoc, module.Name) {
		return rows
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = ReadableFields(fieldDoc, module.Name, module.PrimaryKey, row)
	}
	return out
}

// GetUser extracts the authenticated user from the request context.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals(LocalUser).(*metadata.UserContext)
	return user
}

// GetPerms extracts the caller's canonical permission document.
func GetPerms(c *fiber.Ctx) PermissionDoc {
	doc, _ := c.Locals(LocalPerms).(PermissionDoc)
	return doc
}

// GetFieldPerms extracts the caller's field permission document.
func GetFieldPerms(c *fiber.Ctx) FieldPermissionDoc {
	doc, _ := c.Locals(LocalFieldPerms).(FieldPermissionDoc)
	return doc
}

// CanViewAll reports whether the guard granted unrestricted record scope.
func CanViewAll(c *fiber.Ctx) bool {
	v, _ := c.Locals(LocalCanViewAll).(bool)
	return v
}

func joinPublicColumns(module *metadata.Module) string {
	cols := module.PublicFieldNames()
	out := cols[0]
	for _, col := range cols[1:] {
		out += ", " + col
	}
	return out
}

func slugField(module *metadata.Module) string {
	if module.Slug == nil {
		return ""
	}
	return module.Slug.Field
}
