package service

import (
	"context"

	"feeds/internal/models"
	"feeds/internal/repository"
)

// IsVisible decides whether viewer may read a post owned by owner.
func IsVisible(viewer, owner uint, privacy models.Privacy, areFriends bool) bool {
	switch privacy {
	case models.PrivacyPublic:
		return true
	case models.PrivacyPrivate:
		return viewer == owner
	case models.PrivacyFriends:
		return viewer == owner || areFriends
	}
	return false
}

// Visibility applies IsVisible with the social graph as the friendship source.
type Visibility struct {
	friends repository.FriendRepository
}

// NewVisibility returns a Visibility backed by friends.
func NewVisibility(friends repository.FriendRepository) *Visibility {
	return &Visibility{friends: friends}
}

// CanView reports whether viewer may read post. The graph is only consulted
// for friends-only posts of other users.
func (v *Visibility) CanView(ctx context.Context, viewer uint, post *models.Post) (bool, error) {
	if post.Privacy != models.PrivacyFriends || viewer == post.UserID {
		return IsVisible(viewer, post.UserID, post.Privacy, false), nil
	}
	friends, err := v.friends.AreFriends(ctx, viewer, post.UserID)
	if err != nil {
		return false, err
	}
	return IsVisible(viewer, post.UserID, post.Privacy, friends), nil
}

// loadVisiblePost fetches a post and reports it as missing when viewer may
// not see it.
func loadVisiblePost(ctx context.Context, posts repository.PostRepository, v *Visibility, viewer, postID uint) (*models.Post, error) {
	post, err := posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	ok, err := v.CanView(ctx, viewer, post)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}
