package repository

import (
	"context"
	"errors"

	"feeds/internal/models"

	"gorm.io/gorm"
)

// CommentRepository stores comment trees. Each comment keeps the ids of its
// direct replies in Children.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, int64, error)
	ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	DeleteCascade(ctx context.Context, id uint) ([]uint, error)
	UpdateReactions(ctx context.Context, id uint, apply func([]models.Reaction) []models.Reaction) (*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts comment and, for a reply, appends its id to the parent's
// children in the same transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Comment
		if comment.ParentID != nil {
			if err := forUpdate(tx).First(&parent, *comment.ParentID).Error; err != nil {
				return notFoundOr(err, "Comment", *comment.ParentID)
			}
			if parent.PostID != comment.PostID {
				return models.NewValidationError("Parent comment belongs to a different post")
			}
		}
		if comment.Children == nil {
			comment.Children = []uint{}
		}
		if comment.Reactions == nil {
			comment.Reactions = []models.Reaction{}
		}
		if err := tx.Create(comment).Error; err != nil {
			return models.NewInternalError(err)
		}
		if comment.ParentID == nil {
			return nil
		}
		parent.Children = append(parent.Children, comment.ID)
		if err := tx.Model(&parent).Select("children").Updates(&parent).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	if len(ids) == 0 {
		return comments, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Model(comment).Select("content").Updates(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListTopLevel pages a post's root comments, newest first.
func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ? AND parent_id IS NULL", postID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	comments := []models.Comment{}
	if total == 0 || int64(offset) >= total {
		return comments, total, nil
	}
	if err := q.Scopes(newestFirst).Limit(limit).Offset(offset).Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

// ListReplies returns the direct replies to parentID, oldest first.
func (r *commentRepository) ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// CountByPost counts every comment on a post, replies included.
func (r *commentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// DeleteCascade removes the comment and all of its descendants, detaches it
// from its parent and returns the removed ids.
func (r *commentRepository) DeleteCascade(ctx context.Context, id uint) ([]uint, error) {
	var removed []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := forUpdate(tx).First(&root, id).Error; err != nil {
			return notFoundOr(err, "Comment", id)
		}

		removed = []uint{root.ID}
		frontier := []uint{root.ID}
		for len(frontier) > 0 {
			var next []uint
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
				return models.NewInternalError(err)
			}
			removed = append(removed, next...)
			frontier = next
		}

		if err := tx.Where("id IN ?", removed).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}

		if root.ParentID == nil {
			return nil
		}
		var parent models.Comment
		if err := forUpdate(tx).First(&parent, *root.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return models.NewInternalError(err)
		}
		parent.Children = removeID(parent.Children, root.ID)
		if err := tx.Model(&parent).Select("children").Updates(&parent).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// UpdateReactions applies fn to the comment's reactions under a row lock.
func (r *commentRepository) UpdateReactions(ctx context.Context, id uint, apply func([]models.Reaction) []models.Reaction) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&comment, id).Error; err != nil {
			return notFoundOr(err, "Comment", id)
		}
		comment.Reactions = apply(comment.Reactions)
		if err := tx.Model(&comment).Select("reactions").Updates(&comment).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func removeID(ids []uint, id uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
