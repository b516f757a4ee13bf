package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// userIDKey is the fiber locals key holding the authenticated user ID.
const userIDKey = "webmail_user_id"

// issueToken signs a session token for the user.
func (s *Server) issueToken(userID, username string, now time.Time) (string, time.Time, error) {
	expires := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    "webmail",
		Audience:  jwt.ClaimStrings{username},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

// parseToken verifies a token and returns the user ID it names.
func (s *Server) parseToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.jwtKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("missing subject claim")
	}
	return claims.Subject, nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// requireAuth rejects requests without a valid bearer token and stores the
// authenticated user ID in the request locals.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	raw, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "missing bearer token"})
	}

	userID, err := s.parseToken(raw)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "invalid token"})
	}

	c.Locals(userIDKey, userID)
	return c.Next()
}

// authedUserID returns the user ID set by requireAuth.
func authedUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// login verifies credentials and issues a session token.
func (s *Server) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	user, err := s.svc.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		return s.fail(c, err)
	}

	token, expires, err := s.issueToken(user.ID, user.Username, time.Now().UTC())
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      toUserResponse(user),
	})
}

// validate checks a bearer token and returns the account it belongs to.
func (s *Server) validate(c *fiber.Ctx) error {
	raw, ok := bearerToken(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "missing bearer token"})
	}

	userID, err := s.parseToken(raw)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "invalid token"})
	}

	user, err := s.svc.GetUser(c.Context(), userID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(toUserResponse(user))
}
