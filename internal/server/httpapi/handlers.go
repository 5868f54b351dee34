package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Kayvinh/messagely/internal/server/access"
	"github.com/Kayvinh/messagely/internal/server/services"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sendMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

// handleRegister creates a user and logs them in, returning a bearer token.
func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c)
	}

	user, err := s.users.Register(c.UserContext(), services.RegisterParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	token, err := s.users.IssueToken(user.Username)
	if err != nil {
		return s.writeError(c, err)
	}

	s.logger.Info(c.UserContext(), "user registered", "username", user.Username)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	token, err := s.users.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.users.List(c.UserContext())
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"users": users})
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	user, err := s.users.Get(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

// handleMessagesTo lists the inbox; only its owner may read it.
func (s *Server) handleMessagesTo(c *fiber.Ctx) error {
	id, ok := identityFromCtx(c)
	if !ok {
		return unauthorized(c)
	}

	username := c.Params("username")
	if err := access.CanViewUserMessages(id, username); err != nil {
		return s.writeError(c, err)
	}

	msgs, err := s.users.MessagesTo(c.UserContext(), username)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"messages": msgs})
}

// handleMessagesFrom lists the outbox; only its owner may read it.
func (s *Server) handleMessagesFrom(c *fiber.Ctx) error {
	id, ok := identityFromCtx(c)
	if !ok {
		return unauthorized(c)
	}

	username := c.Params("username")
	if err := access.CanViewUserMessages(id, username); err != nil {
		return s.writeError(c, err)
	}

	msgs, err := s.users.MessagesFrom(c.UserContext(), username)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"messages": msgs})
}

func (s *Server) handleGetMessage(c *fiber.Ctx) error {
	id, ok := identityFromCtx(c)
	if !ok {
		return unauthorized(c)
	}

	msg, err := s.messages.Get(c.UserContext(), id, c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": msg})
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	id, ok := identityFromCtx(c)
	if !ok {
		return unauthorized(c)
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}
	if req.ToUsername == "" || req.Body == "" {
		return badRequest(c)
	}

	msg, err := s.messages.Send(c.UserContext(), id, req.ToUsername, req.Body)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

func (s *Server) handleMarkRead(c *fiber.Ctx) error {
	id, ok := identityFromCtx(c)
	if !ok {
		return unauthorized(c)
	}

	msg, err := s.messages.MarkRead(c.UserContext(), id, c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"message": msg})
}
