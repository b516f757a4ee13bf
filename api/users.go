package api

import (
	"github.com/gofiber/fiber/v2"

	webmail "github.com/emailapp/webmail"
)

// signup registers a new account.
func (s *Server) signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := s.svc.Register(c.Context(), webmail.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// currentUser returns the authenticated account.
func (s *Server) currentUser(c *fiber.Ctx) error {
	user, err := s.svc.GetUser(c.Context(), authedUserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toUserResponse(user))
}

// getUser returns a public account profile by ID.
func (s *Server) getUser(c *fiber.Ctx) error {
	user, err := s.svc.GetUser(c.Context(), c.Params("userId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toUserResponse(user))
}
