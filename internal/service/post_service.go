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

// CreatePostInput is a new post request.
type CreatePostInput struct {
	UserID  uint
	Content string
	Media   []string
	Privacy string
}

// UpdatePostInput edits a post. Nil fields are left unchanged.
type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content *string
	Media   []string
	Privacy *string
}

// PostService manages posts and their visibility-filtered listings.
type PostService struct {
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
	visibility *Visibility
	hydrate    hydrator
	events     EventPublisher
}

// NewPostService returns a new PostService. events may be nil.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, friendRepo repository.FriendRepository, events EventPublisher) *PostService {
	return &PostService{
		postRepo:   postRepo,
		userRepo:   userRepo,
		visibility: NewVisibility(friendRepo),
		hydrate:    hydrator{users: userRepo},
		events:     events,
	}
}

func cleanMedia(media []string) []string {
	out := make([]string, 0, len(media))
	for _, m := range media {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func checkPostBody(content string, media []string) error {
	if content == "" && len(media) == 0 {
		return models.NewValidationError("Post must have content or media")
	}
	return nil
}

// CreatePost stores a post for in.UserID.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost", observability.UserAttr(in.UserID))
	defer func() { observability.EndSpan(span, err) }()

	privacy, err := models.ParsePrivacy(in.Privacy)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		UserID:    in.UserID,
		Content:   strings.TrimSpace(in.Content),
		Media:     cleanMedia(in.Media),
		Privacy:   privacy,
		Reactions: []models.Reaction{},
	}
	if err := checkPostBody(post.Content, post.Media); err != nil {
		return nil, err
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "privacy", post.Privacy)
	return s.hydrate.post(ctx, post)
}

// GetPost returns a post visible to viewer. Hidden posts are reported missing.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID uint) (*models.PostView, error) {
	post, err := loadVisiblePost(ctx, s.postRepo, s.visibility, viewerID, postID)
	if err != nil {
		return nil, err
	}
	return s.hydrate.post(ctx, post)
}

func (s *PostService) ownedPost(ctx context.Context, userID, postID uint, action string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only " + action + " your own posts")
	}
	return post, nil
}

// UpdatePost edits content, media or privacy of the caller's post.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.PostView, error) {
	post, err := s.ownedPost(ctx, in.UserID, in.PostID, "edit")
	if err != nil {
		return nil, err
	}
	if in.Content != nil {
		post.Content = strings.TrimSpace(*in.Content)
	}
	if in.Media != nil {
		post.Media = cleanMedia(in.Media)
	}
	if in.Privacy != nil {
		if post.Privacy, err = models.ParsePrivacy(*in.Privacy); err != nil {
			return nil, err
		}
	}
	if err := checkPostBody(post.Content, post.Media); err != nil {
		return nil, err
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.hydrate.post(ctx, post)
}

// SetPrivacy changes the privacy level of the caller's post.
func (s *PostService) SetPrivacy(ctx context.Context, userID, postID uint, privacy string) (*models.PostView, error) {
	if strings.TrimSpace(privacy) == "" {
		return nil, models.NewValidationError("Privacy is required")
	}
	return s.UpdatePost(ctx, UpdatePostInput{UserID: userID, PostID: postID, Privacy: &privacy})
}

// DeletePost removes the caller's post and all of its comments.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost", observability.UserAttr(userID))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.ownedPost(ctx, userID, postID, "delete"); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", postID)
	return nil
}

// Feed pages the posts of other users that viewer may see, newest first.
func (s *PostService) Feed(ctx context.Context, viewerID uint, page PageRequest) (_ models.Page[models.PostView], err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Feed", observability.UserAttr(viewerID))
	defer func() { observability.EndSpan(span, err) }()

	posts, total, err := s.postRepo.Feed(ctx, viewerID, page.Size, page.Offset())
	if err != nil {
		return models.Page[models.PostView]{}, err
	}
	return s.postPage(ctx, posts, page, total)
}

// ListUserPosts pages ownerID's posts as seen by viewer.
func (s *PostService) ListUserPosts(ctx context.Context, ownerID, viewerID uint, page PageRequest) (_ models.Page[models.PostView], err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ListUserPosts", observability.UserAttr(viewerID))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		return models.Page[models.PostView]{}, err
	}
	posts, total, err := s.postRepo.ListByUser(ctx, ownerID, viewerID, page.Size, page.Offset())
	if err != nil {
		return models.Page[models.PostView]{}, err
	}
	return s.postPage(ctx, posts, page, total)
}

func (s *PostService) postPage(ctx context.Context, posts []models.Post, page PageRequest, total int64) (models.Page[models.PostView], error) {
	views, err := s.hydrate.posts(ctx, posts)
	if err != nil {
		return models.Page[models.PostView]{}, err
	}
	return models.NewPage(views, page.Page, page.Size, total), nil
}

// React toggles actor's reaction on a post actor can see.
func (s *PostService) React(ctx context.Context, actorID, postID uint, reactionType string) (_ *models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.React", observability.UserAttr(actorID))
	defer func() { observability.EndSpan(span, err) }()

	reactionType, err = normalizeReactionType(reactionType)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisiblePost(ctx, s.postRepo, s.visibility, actorID, postID); err != nil {
		return nil, err
	}

	var effect ReactionEffect
	post, err := s.postRepo.UpdateReactions(ctx, postID, func(current []models.Reaction) []models.Reaction {
		var next []models.Reaction
		next, effect = ApplyReaction(current, actorID, reactionType)
		return next
	})
	if err != nil {
		return nil, err
	}
	observability.ReactionWrites.WithLabelValues("post", string(effect)).Inc()

	view, err := s.hydrate.post(ctx, post)
	if err != nil {
		return nil, err
	}
	if effect != ReactionNoop && post.UserID != actorID {
		publish(ctx, s.events, post.UserID, notifications.EventPostReactionUpdated, map[string]any{
			"post_id":   post.ID,
			"user_id":   actorID,
			"reaction":  reactionType,
			"reactions": view.Reactions,
		})
	}
	return view, nil
}
