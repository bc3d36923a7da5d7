package admin

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"estate-backend/internal/engine"
	"estate-backend/internal/metadata"
)

func testRegistry() *metadata.Registry {
	reg := metadata.NewRegistry()
	reg.LoadModules(metadata.BuiltinModules())
	return reg
}

func TestGetSchemaListsModules(t *testing.T) {
	h := NewHandler(nil, testRegistry())
	app := fiber.New()
	app.Get("/api/_admin/schema", h.GetSchema)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/_admin/schema", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Modules []metadata.ModuleSchema `json:"modules"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Modules) != 6 {
		t.Fatalf("expected 6 modules, got %d", len(body.Modules))
	}
	for _, m := range body.Modules {
		if m.Module == "users" {
			for _, f := range m.Fields {
				if f == "password_hash" || f == "permissions" {
					t.Errorf("secret field %s exposed in schema", f)
				}
			}
		}
	}
}

func TestValidateModulesRejectsUnknown(t *testing.T) {
	h := NewHandler(nil, testRegistry())

	doc := engine.NormalizeDoc(map[string]any{
		"properties": "read",
		"warehouse":  "all",
	})
	err := h.validateModules(doc)
	if err == nil {
		t.Fatal("expected validation error for unknown module")
	}
	appErr, ok := err.(*engine.AppError)
	if !ok || appErr.Code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestValidateModulesAcceptsKnown(t *testing.T) {
	h := NewHandler(nil, testRegistry())
	doc := engine.NormalizeDoc(map[string]any{"properties": "read|create", "users": "all"})
	if err := h.validateModules(doc); err != nil {
		t.Errorf("known modules should validate: %v", err)
	}
}
