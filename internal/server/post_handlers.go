package server

import (
	"io"
	"mime/multipart"
	"strings"

	"feeds/internal/models"
	"feeds/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Content string   `json:"content"`
	Media   []string `json:"media" validate:"max=4"`
	Privacy string   `json:"privacy" validate:"privacy"`
}

type updatePostRequest struct {
	Content *string  `json:"content"`
	Media   []string `json:"media" validate:"omitempty,max=4"`
	Privacy *string  `json:"privacy"`
}

type privacyRequest struct {
	Privacy string `json:"privacy" validate:"required,privacy"`
}

type reactRequest struct {
	Type string `json:"type" validate:"required,max=32"`
}

// GetFeed handles GET /api/posts/feed?page=&limit=
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.posts.Feed(c.UserContext(), currentUserID(c), parsePage(c, service.FeedPageSize))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(page)
}

// SearchPosts handles GET /api/posts/search?q=
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.search.SearchPosts(c.UserContext(), currentUserID(c), c.Query("q"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts. Accepts JSON or a multipart form whose
// "media" files are stored before the post is created.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{UserID: currentUserID(c)}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		in.Content = c.FormValue("content")
		in.Privacy = c.FormValue("privacy")

		files := form.File["media"]
		if len(files) > maxPostMediaFiles {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Too many media files"))
		}
		for _, fh := range files {
			url, err := s.saveUpload(c, fh)
			if err != nil {
				return models.RespondWithError(c, mapServiceError(err), err)
			}
			in.Media = append(in.Media, url)
		}
	} else {
		var req createPostRequest
		if err := parseBody(c, &req); err != nil {
			return nil
		}
		in.Content, in.Media, in.Privacy = req.Content, req.Media, req.Privacy
	}

	post, err := s.posts.CreatePost(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// saveUpload reads one uploaded file and stores it through the media service.
func (s *Server) saveUpload(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, s.media.MaxBytes()+1))
	if err != nil {
		return "", models.NewValidationError("Unable to read uploaded file")
	}
	upload, err := s.media.SaveImage(c.UserContext(), content)
	if err != nil {
		return "", err
	}
	return upload.URL, nil
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.posts.GetPost(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.posts.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  currentUserID(c),
		PostID:  id,
		Content: req.Content,
		Media:   req.Media,
		Privacy: req.Privacy,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(post)
}

// SetPostPrivacy handles PATCH /api/posts/:id/privacy
func (s *Server) SetPostPrivacy(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req privacyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.posts.SetPrivacy(c.UserContext(), currentUserID(c), id, req.Privacy)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.posts.DeletePost(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReactToPost handles POST /api/posts/:id/react. {"type":"none"} removes
// the caller's reaction.
func (s *Server) ReactToPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reactRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.posts.React(c.UserContext(), currentUserID(c), id, req.Type)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(post)
}
