package server

import (
	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/service"

	"github.com/gofiber/fiber/v2"
)

// updateProfileRequest lists the editable profile fields; anything else in
// the body is ignored.
type updateProfileRequest struct {
	Username      *string `json:"username"`
	Bio           *string `json:"bio"`
	Pfp           *string `json:"pfp"`
	BackgroundImg *string `json:"background_img"`
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.users.GetMe(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.users.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:        currentUserID(c),
		Username:      req.Username,
		Bio:           req.Bio,
		Pfp:           req.Pfp,
		BackgroundImg: req.BackgroundImg,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(user)
}

// UploadAvatar handles POST /api/users/me/avatar (multipart field "avatar")
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	url, err := s.saveUpload(c, file)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	user, err := s.users.SetAvatar(c.UserContext(), currentUserID(c), url)
	if err != nil {
		if delErr := s.media.DeleteImage(c.UserContext(), url); delErr != nil {
			middleware.Logger.WarnContext(c.UserContext(), "avatar cleanup failed", "url", url, "error", delErr.Error())
		}
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(user)
}

// SearchUsers handles GET /api/users/search?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.search.SearchUsers(c.UserContext(), c.Query("q"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.users.GetProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/users/:id/posts?page=&limit=
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.posts.ListUserPosts(c.UserContext(), id, currentUserID(c), parsePage(c, service.ProfilePageSize))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(page)
}

// GetUserFriends handles GET /api/users/:id/friends?limit=
func (s *Server) GetUserFriends(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	friends, err := s.friends.ListFriends(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(friends)
}
