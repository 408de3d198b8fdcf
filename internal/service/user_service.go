package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"feeds/internal/cache"
	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/repository"
	"feeds/internal/storage"
	"feeds/internal/validation"

	"github.com/redis/go-redis/v9"
)

// UserService serves profiles and profile edits.
type UserService struct {
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	rdb        *redis.Client
	media      *MediaService
}

// UpdateProfileInput carries the editable profile fields. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	UserID        uint
	Username      *string
	Bio           *string
	Pfp           *string
	BackgroundImg *string
}

// NewUserService returns a UserService. rdb and media may be nil; without
// media, replaced avatars are kept.
func NewUserService(userRepo repository.UserRepository, friendRepo repository.FriendRepository, rdb *redis.Client, media *MediaService) *UserService {
	return &UserService{userRepo: userRepo, friendRepo: friendRepo, rdb: rdb, media: media}
}

// GetMe returns the caller's own record.
func (s *UserService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// GetProfile returns a user's public profile with friend count, cached
// per user.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	return cache.Aside(ctx, s.rdb, cache.UserKey(userID), cache.UserTTL, func(ctx context.Context) (*models.PublicProfile, error) {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		count, err := s.friendRepo.CountFriends(ctx, userID)
		if err != nil {
			return nil, err
		}
		return user.Profile(count), nil
	})
}

// UpdateProfile applies the editable fields and drops the cached profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = username
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > validation.MaxBioLength {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = bio
	}
	previousPfp := user.Pfp
	if in.Pfp != nil {
		pfp := strings.TrimSpace(*in.Pfp)
		// Stored uploads only become avatars through SetAvatar, which owns
		// their deletion.
		if _, uploaded := storage.KeyFromURL(pfp); uploaded && pfp != user.Pfp {
			return nil, models.NewValidationError("Upload avatars through /api/users/me/avatar")
		}
		user.Pfp = pfp
	}
	if in.BackgroundImg != nil {
		user.BackgroundImg = strings.TrimSpace(*in.BackgroundImg)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	cache.InvalidateUsers(ctx, s.rdb, user.ID)
	s.dropAvatar(ctx, previousPfp, user.Pfp)
	return user, nil
}

// SetAvatar stores url, an upload made by the caller, as their profile
// picture and removes the uploaded image it replaces.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, url string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Pfp
	user.Pfp = url

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	cache.InvalidateUsers(ctx, s.rdb, user.ID)
	s.dropAvatar(ctx, previous, url)
	return user, nil
}

func (s *UserService) dropAvatar(ctx context.Context, previous, next string) {
	if s.media == nil || previous == "" || previous == next {
		return
	}
	if err := s.media.DeleteImage(ctx, previous); err != nil {
		middleware.Logger.WarnContext(ctx, "avatar cleanup failed", "url", previous, "error", err.Error())
	}
}
