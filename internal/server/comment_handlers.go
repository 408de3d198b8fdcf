package server

import (
	"feeds/internal/models"
	"feeds/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	Content  string `json:"content" validate:"required"`
	ParentID *uint  `json:"parent_id"`
}

type updateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// GetComments handles GET /api/posts/:id/comments?page=&limit=
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.comments.ListComments(c.UserContext(), currentUserID(c), postID, parsePage(c, service.CommentPageSize))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(page)
}

// PreviewComments handles GET /api/posts/:id/comments/preview
func (s *Server) PreviewComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.comments.PreviewComments(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(comments)
}

// CountComments handles GET /api/posts/:id/comments/count
func (s *Server) CountComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.comments.CountComments(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.comments.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   currentUserID(c),
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetReplies handles GET /api/comments/:id/replies
func (s *Server) GetReplies(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	replies, err := s.comments.ListReplies(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(replies)
}

// UpdateComment handles PUT /api/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.comments.UpdateComment(c.UserContext(), currentUserID(c), id, req.Content)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id. Replies below the comment
// are removed with it.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	removed, err := s.comments.DeleteComment(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"deleted": removed})
}

// ReactToComment handles POST /api/comments/:id/react
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reactRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.comments.React(c.UserContext(), currentUserID(c), id, req.Type)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(comment)
}
