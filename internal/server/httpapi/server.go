// Package httpapi exposes the service over a JSON HTTP API. It owns transport
// concerns only: token extraction, request decoding, and mapping service
// errors to status codes. All authorization decisions live in the services
// and access packages.
package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Kayvinh/messagely/internal/logging"
	"github.com/Kayvinh/messagely/internal/server/access"
	"github.com/Kayvinh/messagely/internal/server/models"
	"github.com/Kayvinh/messagely/internal/server/services"
)

// UserProvider is the slice of UserService the HTTP layer consumes.
type UserProvider interface {
	Register(ctx context.Context, params services.RegisterParams) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	IssueToken(username string) (string, error)
	Get(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	MessagesFrom(ctx context.Context, username string) ([]models.MessageWithProfile, error)
	MessagesTo(ctx context.Context, username string) ([]models.MessageWithProfile, error)
}

// MessageProvider is the slice of MessageService the HTTP layer consumes.
type MessageProvider interface {
	Send(ctx context.Context, id access.Identity, toUsername, body string) (*models.Message, error)
	Get(ctx context.Context, id access.Identity, messageID string) (*models.MessageWithProfile, error)
	MarkRead(ctx context.Context, id access.Identity, messageID string) (*models.Message, error)
}

type Server struct {
	app       *fiber.App
	address   string
	logger    logging.Logger
	users     UserProvider
	messages  MessageProvider
	jwtSecret []byte
}

func NewServer(address string, l logging.Logger, us UserProvider, ms MessageProvider, secretKey string) *Server {
	s := &Server{
		app:       fiber.New(fiber.Config{DisableStartupMessage: true}),
		address:   address,
		logger:    l.With("module", "httpapi"),
		users:     us,
		messages:  ms,
		jwtSecret: []byte(secretKey),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Post("/auth/register", s.handleRegister)
	s.app.Post("/auth/login", s.handleLogin)

	authed := s.app.Group("", s.bearerAuth)
	authed.Get("/users", s.handleListUsers)
	authed.Get("/users/:username", s.handleGetUser)
	authed.Get("/users/:username/to", s.handleMessagesTo)
	authed.Get("/users/:username/from", s.handleMessagesFrom)
	authed.Get("/messages/:id", s.handleGetMessage)
	authed.Post("/messages", s.handleSendMessage)
	authed.Post("/messages/:id/read", s.handleMarkRead)
}

// App exposes the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = s.app.ShutdownWithTimeout(5 * time.Second)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	return s.app.Listen(s.address)
}
