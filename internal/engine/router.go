package engine

import "github.com/gofiber/fiber/v2"

// RegisterModuleRoutes mounts the module CRUD under /api. The guards run
// first: authentication plus a permission decision against the :module
// route parameter.
func RegisterModuleRoutes(app *fiber.App, h *Handler, guards ...fiber.Handler) {
	api := app.Group("/api", guards...)

	api.Get("/:module", h.List)
	api.Get("/:module/:id", h.GetByID)
	api.Post("/:module", h.Create)
	api.Put("/:module/:id", h.Update)
	api.Delete("/:module/:id", h.Delete)
}
