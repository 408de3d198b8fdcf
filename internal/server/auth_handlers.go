package server

import (
	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account. Does not start a session.
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} object{user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.sessions.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Verify credentials and set the session cookie. Replaces any
// @Description earlier session of the same user.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} object{user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	token, user, err := s.sessions.IssueSession(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.setSessionCookie(c, token)
	return c.JSON(fiber.Map{"user": user})
}

// Logout handles POST /api/auth/logout. The cookie is always cleared.
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	token := c.Cookies(SessionCookieName)

	if token != "" {
		if userID, err := s.sessions.ResolveSession(ctx, token); err == nil {
			if err := s.sessions.RevokeSession(ctx, userID, token); err != nil {
				middleware.Logger.WarnContext(ctx, "session revoke failed", "error", err.Error())
			}
		}
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// CheckSession handles GET /api/auth/check-session
func (s *Server) CheckSession(c *fiber.Ctx) error {
	user, err := s.sessions.CheckSession(c.UserContext(), c.Cookies(SessionCookieName))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"user": user})
}
