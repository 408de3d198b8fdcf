package service

import (
	"context"
	"strings"

	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/notifications"
	"feeds/internal/observability"
	"feeds/internal/repository"
)

// CreateCommentInput is a new comment or reply.
type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

// CommentService manages comment threads. Reads are gated by the
// visibility of the parent post.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	visibility  *Visibility
	hydrate     hydrator
	events      EventPublisher
}

// NewCommentService returns a new CommentService. events may be nil.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	friendRepo repository.FriendRepository,
	events EventPublisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		visibility:  NewVisibility(friendRepo),
		hydrate:     hydrator{users: userRepo},
		events:      events,
	}
}

func cleanCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Comment content is required")
	}
	return content, nil
}

// CreateComment adds a comment to a post the caller can see. A reply's
// parent must belong to the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (_ *models.CommentView, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.CreateComment", observability.UserAttr(in.UserID))
	defer func() { observability.EndSpan(span, err) }()

	content, err := cleanCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	post, err := loadVisiblePost(ctx, s.postRepo, s.visibility, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:   in.UserID,
		PostID:   post.ID,
		ParentID: in.ParentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	view, err := s.hydrate.comment(ctx, comment)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		publish(ctx, s.events, post.UserID, notifications.EventCommentCreated, map[string]any{
			"post_id": post.ID,
			"comment": view,
		})
	}
	return view, nil
}

// commentOnVisiblePost loads a comment whose post viewer can see.
func (s *CommentService) commentOnVisiblePost(ctx context.Context, viewerID, commentID uint) (*models.Comment, *models.Post, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}
	post, err := loadVisiblePost(ctx, s.postRepo, s.visibility, viewerID, comment.PostID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, nil, err
	}
	return comment, post, nil
}

// UpdateComment edits the caller's comment.
func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, content string) (*models.CommentView, error) {
	content, err := cleanCommentContent(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.hydrate.comment(ctx, comment)
}

// DeleteComment removes a comment and every reply below it. The comment's
// author and the post's author may delete. Returns the removed ids.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) (_ []uint, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.DeleteComment", observability.UserAttr(userID))
	defer func() { observability.EndSpan(span, err) }()

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return nil, err
		}
		if post.UserID != userID {
			return nil, models.NewForbiddenError("You can only delete your own comments")
		}
	}

	removed, err := s.commentRepo.DeleteCascade(ctx, commentID)
	if err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "comment deleted", "comment_id", commentID, "removed", len(removed))
	return removed, nil
}

// ListComments pages a post's top-level comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, viewerID, postID uint, page PageRequest) (models.Page[models.CommentView], error) {
	if _, err := loadVisiblePost(ctx, s.postRepo, s.visibility, viewerID, postID); err != nil {
		return models.Page[models.CommentView]{}, err
	}
	comments, total, err := s.commentRepo.ListTopLevel(ctx, postID, page.Size, page.Offset())
	if err != nil {
		return models.Page[models.CommentView]{}, err
	}
	views, err := s.hydrate.comments(ctx, comments)
	if err != nil {
		return models.Page[models.CommentView]{}, err
	}
	return models.NewPage(views, page.Page, page.Size, total), nil
}

// PreviewComments returns the most recent top-level comments of a post.
func (s *CommentService) PreviewComments(ctx context.Context, viewerID, postID uint) ([]models.CommentView, error) {
	page, err := s.ListComments(ctx, viewerID, postID, PageRequest{Page: 1, Size: CommentPreviewSize})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CountComments counts every comment on a post, replies included.
func (s *CommentService) CountComments(ctx context.Context, viewerID, postID uint) (int64, error) {
	if _, err := loadVisiblePost(ctx, s.postRepo, s.visibility, viewerID, postID); err != nil {
		return 0, err
	}
	return s.commentRepo.CountByPost(ctx, postID)
}

// ListReplies returns the direct replies to a comment, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, viewerID, commentID uint) ([]models.CommentView, error) {
	if _, _, err := s.commentOnVisiblePost(ctx, viewerID, commentID); err != nil {
		return nil, err
	}
	replies, err := s.commentRepo.ListReplies(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.hydrate.comments(ctx, replies)
}

// React toggles actor's reaction on a comment.
func (s *CommentService) React(ctx context.Context, actorID, commentID uint, reactionType string) (_ *models.CommentView, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.React", observability.UserAttr(actorID))
	defer func() { observability.EndSpan(span, err) }()

	reactionType, err = normalizeReactionType(reactionType)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.commentOnVisiblePost(ctx, actorID, commentID); err != nil {
		return nil, err
	}

	var effect ReactionEffect
	comment, err := s.commentRepo.UpdateReactions(ctx, commentID, func(current []models.Reaction) []models.Reaction {
		var next []models.Reaction
		next, effect = ApplyReaction(current, actorID, reactionType)
		return next
	})
	if err != nil {
		return nil, err
	}
	observability.ReactionWrites.WithLabelValues("comment", string(effect)).Inc()
	return s.hydrate.comment(ctx, comment)
}
