package repository

import (
	"context"
	"errors"

	"feeds/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetBySessionToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetSessionToken(ctx context.Context, userID uint, token *string) error
	ClearSessionToken(ctx context.Context, token string) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	ListExcluding(ctx context.Context, exclude []uint, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func duplicateUserError(err error) error {
	switch uniqueViolationField(err) {
	case "username":
		return models.NewConflictError("Username already taken")
	case "email":
		return models.NewConflictError("Email already registered")
	}
	return models.NewConflictError("User already exists")
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return duplicateUserError(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) GetBySessionToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthorizedError("Session not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).Select("username", "bio", "pfp", "background_img").Updates(user).Error
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateUserError(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// SetSessionToken stores token as the user's only session; nil clears it.
func (r *userRepository) SetSessionToken(ctx context.Context, userID uint, token *string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("session_token", token)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

// ClearSessionToken invalidates token server-side. Unknown tokens are ignored.
func (r *userRepository) ClearSessionToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("session_token = ?", token).Update("session_token", nil).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\'", likePattern(query)).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListExcluding returns users whose id is not in exclude, newest accounts first.
func (r *userRepository) ListExcluding(ctx context.Context, exclude []uint, limit int) ([]models.User, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
