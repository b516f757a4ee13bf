// Package api exposes the webmail service over HTTP using Fiber.
//
// Identity comes from a JWT bearer token issued at login; mail routes
// operate on the authenticated user's mailbox only.
package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	webmail "github.com/emailapp/webmail"
)

// Default configuration values.
const (
	DefaultTokenTTL = 24 * time.Hour
)

// Server wires webmail service operations to HTTP routes.
type Server struct {
	svc      webmail.Service
	logger   *slog.Logger
	jwtKey   []byte
	tokenTTL time.Duration
}

// ServerOption configures the API server.
type ServerOption func(*Server)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTokenTTL sets the JWT lifetime.
func WithTokenTTL(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

// NewServer creates an API server backed by the given service.
// jwtKey signs and verifies session tokens and must not be empty.
func NewServer(svc webmail.Service, jwtKey []byte, opts ...ServerOption) (*Server, error) {
	if svc == nil {
		return nil, errors.New("api: service is required")
	}
	if len(jwtKey) == 0 {
		return nil, errors.New("api: jwt key is required")
	}

	s := &Server{
		svc:      svc,
		logger:   slog.Default(),
		jwtKey:   jwtKey,
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// App builds a fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "webmail",
		ErrorHandler: s.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	s.RegisterRoutes(app)
	return app
}

// RegisterRoutes registers all API routes on the fiber app.
func (s *Server) RegisterRoutes(app *fiber.App) {
	auth := app.Group("/api/auth")
	auth.Post("/login", s.login)
	auth.Get("/validate", s.validate)

	users := app.Group("/api/users")
	users.Post("/signup", s.signup)
	users.Get("/me", s.requireAuth, s.currentUser)
	users.Get("/:userId", s.requireAuth, s.getUser)

	mails := app.Group("/api/mails", s.requireAuth)
	mails.Post("/send", s.sendMail)
	mails.Get("/inbox", s.listFolder(webmail.FolderInbox))
	mails.Get("/sent", s.listFolder(webmail.FolderSent))
	mails.Get("/trash", s.listFolder(webmail.FolderTrash))
	mails.Get("/unread", s.unreadCount)
	mails.Get("/:mailId", s.getMail)
	mails.Put("/:mailId/read", s.markRead)
	mails.Put("/:mailId/star", s.toggleStar)
	mails.Delete("/:mailId", s.deleteMail)
	mails.Get("/:mailId/summary", s.mailSummary)
	mails.Get("/:mailId/replies", s.smartReplies)

	app.Get("/healthz", s.health)
}

// health reports service readiness.
func (s *Server) health(c *fiber.Ctx) error {
	if !s.svc.IsConnected() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "not connected"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorHandler maps service errors to HTTP status codes.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
	}
	return c.Status(statusFor(err)).JSON(ErrorResponse{Error: publicMessage(err)})
}

// statusFor classifies a service error into an HTTP status.
func statusFor(err error) int {
	switch {
	case webmail.IsNotFound(err):
		return fiber.StatusNotFound
	case webmail.IsInvalidArgument(err):
		return fiber.StatusBadRequest
	case webmail.IsConflict(err):
		return fiber.StatusConflict
	case errors.Is(err, webmail.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, webmail.ErrNotConnected):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// publicMessage returns the error text safe to expose. Internal failures
// collapse to a generic message.
func publicMessage(err error) string {
	if statusFor(err) == fiber.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// fail converts a service error to a JSON error response.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: publicMessage(err)})
}
