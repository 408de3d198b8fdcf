package service

import (
	"context"
	"strings"

	"feeds/internal/models"
	"feeds/internal/repository"
)

// SearchService runs substring searches over users and visible posts.
type SearchService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
	hydrate  hydrator
}

// NewSearchService returns a new SearchService.
func NewSearchService(userRepo repository.UserRepository, postRepo repository.PostRepository) *SearchService {
	return &SearchService{userRepo: userRepo, postRepo: postRepo, hydrate: hydrator{users: userRepo}}
}

func searchQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", models.NewValidationError("Search query is required")
	}
	return q, nil
}

// SearchUsers matches usernames case-insensitively.
func (s *SearchService) SearchUsers(ctx context.Context, q string) ([]*models.UserSummary, error) {
	q, err := searchQuery(q)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.Search(ctx, q, SearchLimit)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// SearchPosts matches post content among the posts viewer may see.
func (s *SearchService) SearchPosts(ctx context.Context, viewerID uint, q string) ([]models.PostView, error) {
	q, err := searchQuery(q)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.Search(ctx, viewerID, q, SearchLimit)
	if err != nil {
		return nil, err
	}
	return s.hydrate.posts(ctx, posts)
}
