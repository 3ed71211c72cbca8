package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docsmanager/internal/http/middleware"
	"docsmanager/internal/service"
)

// Deps carries everything RegisterRoutes wires into handlers.
type Deps struct {
	DB        *sql.DB
	Documents service.DocumentService
	Comments  service.CommentService
	Auth      service.AuthService
	Cookie    CookieConfig
	Log       *zap.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Everything under /documents requires an authenticated session.
func RegisterRoutes(app *fiber.App, d Deps) {
	log := logger(d.Log)

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/users/", fiber.StatusMovedPermanently)
	})

	users := app.Group("/users")
	users.Get("/", LoginFormDescriptor())
	users.Post("/", Login(d.Auth, d.Cookie, log))
	users.Post("/logout/", Logout(d.Auth, d.Cookie, log))

	docs := app.Group("/documents", middleware.Auth(d.Auth, d.Cookie.Name))
	docs.Get("/", ListDocuments(d.Documents, log))
	// registered before /:id/ so "upload" is never parsed as an id
	docs.Get("/upload/", UploadFormDescriptor(d.Documents))
	docs.Post("/upload/", UploadDocument(d.Documents, log))
	docs.Get("/:id/", GetDocument(d.Documents, d.Comments, log))
	docs.Post("/:id/", AddComment(d.Comments, log))
	docs.Post("/:id/edit/", EditDocument(d.Documents, log))
	docs.Post("/:id/delete/", DeleteDocument(d.Documents, log))
	docs.Get("/:id/download/", DownloadDocument(d.Documents, log))
}
