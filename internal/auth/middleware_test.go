package auth

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"estate-backend/internal/engine"
)

func guardTestApp(guard *Guard) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *engine.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/protected", guard.Authenticate(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}

func TestGuardMissingToken(t *testing.T) {
	app := guardTestApp(NewGuard(nil, "secret", nil))
	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}

	var body engine.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == nil || body.Error.Code != "UNAUTHORIZED" {
		t.Errorf("unexpected error body %+v", body.Error)
	}
}

func TestGuardMalformedHeader(t *testing.T) {
	app := guardTestApp(NewGuard(nil, "secret", nil))
	for _, header := range []string{"Basic abc", "Bearer", "just-a-token"} {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("test request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != 401 {
			t.Errorf("header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}

func TestGuardInvalidToken(t *testing.T) {
	app := guardTestApp(NewGuard(nil, "secret", nil))

	// Signed with a different secret; parse fails before any user lookup.
	token, err := GenerateAccessToken("u1", "alice@example.com", "other-secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGuardRejectionsLookIdentical(t *testing.T) {
	app := guardTestApp(NewGuard(nil, "secret", nil))

	read := func(header string) string {
		req := httptest.NewRequest("GET", "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("test request: %v", err)
		}
		defer resp.Body.Close()
		var body engine.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.Error.Message
	}

	missing := read("")
	malformed := read("Basic abc")
	invalid := read("Bearer nope")
	if missing != malformed || malformed != invalid {
		t.Errorf("rejection messages must not leak the cause: %q / %q / %q", missing, malformed, invalid)
	}
}
