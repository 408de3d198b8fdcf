package repository

import (
	"context"

	"feeds/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines interface for post operations. Listing methods
// apply the visibility rules in SQL.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Feed(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, int64, error)
	ListByUser(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]models.Post, int64, error)
	Search(ctx context.Context, viewerID uint, query string, limit int) ([]models.Post, error)
	UpdateReactions(ctx context.Context, id uint, apply func([]models.Reaction) []models.Reaction) (*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// friendsOf matches rows whose user_id is an accepted friend of viewerID.
const friendsOf = "(user_id IN (SELECT addressee_id FROM friendships WHERE requester_id = ? AND status = ?)" +
	" OR user_id IN (SELECT requester_id FROM friendships WHERE addressee_id = ? AND status = ?))"

// sharedWith restricts posts to those a non-owner viewer may see: public, or
// friends-only from one of the viewer's friends.
func sharedWith(viewerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(privacy = ? OR (privacy = ? AND "+friendsOf+"))",
			models.PrivacyPublic, models.PrivacyFriends,
			viewerID, models.FriendshipStatusAccepted,
			viewerID, models.FriendshipStatusAccepted)
	}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Model(post).Select("content", "media", "privacy").Updates(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post and every comment on it.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
}

func (r *postRepository) page(q *gorm.DB, limit, offset int) ([]models.Post, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	posts := []models.Post{}
	if total == 0 || int64(offset) >= total {
		return posts, total, nil
	}
	if err := q.Scopes(newestFirst).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Feed lists posts by other users that viewerID may see, newest first.
func (r *postRepository) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id <> ?", viewerID).
		Scopes(sharedWith(viewerID))
	return r.page(q, limit, offset)
}

// ListByUser lists ownerID's posts as seen by viewerID.
func (r *postRepository) ListByUser(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", ownerID)
	if ownerID != viewerID {
		q = q.Scopes(sharedWith(viewerID))
	}
	return r.page(q, limit, offset)
}

// Search matches content case-insensitively among posts viewerID may see,
// including the viewer's own.
func (r *postRepository) Search(ctx context.Context, viewerID uint, query string, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).
		Where("LOWER(content) LIKE ? ESCAPE '\\'", likePattern(query)).
		Where("(user_id = ? OR privacy = ? OR (privacy = ? AND "+friendsOf+"))",
			viewerID, models.PrivacyPublic, models.PrivacyFriends,
			viewerID, models.FriendshipStatusAccepted,
			viewerID, models.FriendshipStatusAccepted).
		Scopes(newestFirst).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// UpdateReactions applies fn to the post's reactions under a row lock.
func (r *postRepository) UpdateReactions(ctx context.Context, id uint, apply func([]models.Reaction) []models.Reaction) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&post, id).Error; err != nil {
			return notFoundOr(err, "Post", id)
		}
		post.Reactions = apply(post.Reactions)
		if err := tx.Model(&post).Select("reactions").Updates(&post).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}
