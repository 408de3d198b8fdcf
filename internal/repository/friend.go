package repository

import (
	"context"
	"errors"

	"feeds/internal/models"

	"gorm.io/gorm"
)

// FriendRepository stores the social graph as friendship rows.
type FriendRepository interface {
	CreateRequest(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error)
	GetBetween(ctx context.Context, userID1, userID2 uint) ([]models.Friendship, error)
	AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
	Accept(ctx context.Context, requesterID, addresseeID uint) error
	DeletePending(ctx context.Context, requesterID, addresseeID uint) (bool, error)
	RemoveFriendship(ctx context.Context, userID1, userID2 uint) (bool, error)
	GetFriends(ctx context.Context, userID uint, limit int) ([]models.User, error)
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
	CountFriends(ctx context.Context, userID uint) (int64, error)
	GetPendingRequests(ctx context.Context, userID uint) ([]models.User, error)
	GetSentRequests(ctx context.Context, userID uint) ([]models.User, error)
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	friendship := &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipStatusPending,
	}
	if err := r.db.WithContext(ctx).Create(friendship).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateRequest
		}
		return nil, models.NewInternalError(err)
	}
	return friendship, nil
}

// GetBetween returns every row linking the two users in either direction.
func (r *friendRepository) GetBetween(ctx context.Context, userID1, userID2 uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			userID1, userID2, userID2, userID1).
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("status = ? AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))",
			models.FriendshipStatusAccepted, userID1, userID2, userID2, userID1).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Accept turns the pending requester->addressee row into a friendship and
// drops any crossing addressee->requester request, in one transaction.
func (r *friendRepository) Accept(ctx context.Context, requesterID, addresseeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending models.Friendship
		err := forUpdate(tx).
			Where("requester_id = ? AND addressee_id = ? AND status = ?",
				requesterID, addresseeID, models.FriendshipStatusPending).
			First(&pending).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrRequestNotFound
			}
			return models.NewInternalError(err)
		}

		if err := tx.Model(&pending).Update("status", models.FriendshipStatusAccepted).Error; err != nil {
			return models.NewInternalError(err)
		}

		if err := tx.
			Where("requester_id = ? AND addressee_id = ?", addresseeID, requesterID).
			Delete(&models.Friendship{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// DeletePending removes the pending requester->addressee row and reports
// whether one existed.
func (r *friendRepository) DeletePending(ctx context.Context, requesterID, addresseeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("requester_id = ? AND addressee_id = ? AND status = ?",
			requesterID, addresseeID, models.FriendshipStatusPending).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RemoveFriendship deletes accepted rows between the users.
func (r *friendRepository) RemoveFriendship(ctx context.Context, userID1, userID2 uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))",
			models.FriendshipStatusAccepted, userID1, userID2, userID2, userID1).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetFriends lists friends in the order the friendships were formed.
// limit <= 0 returns all.
func (r *friendRepository) GetFriends(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).
		Joins("JOIN friendships f ON ((f.requester_id = ? AND f.addressee_id = users.id) OR (f.addressee_id = ? AND f.requester_id = users.id))",
			userID, userID).
		Where("f.status = ?", models.FriendshipStatusAccepted).
		Order("f.created_at ASC").
		Order("f.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *friendRepository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var rows []models.Friendship
	if err := r.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)",
			models.FriendshipStatusAccepted, userID, userID).
		Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].Other(userID))
	}
	return ids, nil
}

func (r *friendRepository) CountFriends(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)",
			models.FriendshipStatusAccepted, userID, userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// GetPendingRequests returns the users waiting on userID's decision, oldest first.
func (r *friendRepository) GetPendingRequests(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN friendships f ON f.requester_id = users.id").
		Where("f.addressee_id = ? AND f.status = ?", userID, models.FriendshipStatusPending).
		Order("f.created_at ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// GetSentRequests returns the users userID is waiting on, oldest first.
func (r *friendRepository) GetSentRequests(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN friendships f ON f.addressee_id = users.id").
		Where("f.requester_id = ? AND f.status = ?", userID, models.FriendshipStatusPending).
		Order("f.created_at ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
