// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Password holds the bcrypt hash, which embeds
// its own salt. SessionToken is the single currently valid session.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Password      string         `gorm:"not null" json:"-"`
	SessionToken  *string        `gorm:"uniqueIndex;size:64" json:"-"`
	Bio           string         `gorm:"type:text" json:"bio"`
	Pfp           string         `json:"pfp"`
	BackgroundImg string         `json:"background_img"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Pfp      string `json:"pfp"`
}

// Summary returns the reference form of u.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Pfp: u.Pfp}
}

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Bio           string    `json:"bio"`
	Pfp           string    `json:"pfp"`
	BackgroundImg string    `json:"background_img"`
	FriendCount   int64     `json:"friend_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Profile builds the public view of u.
func (u *User) Profile(friendCount int64) *PublicProfile {
	return &PublicProfile{
		ID:            u.ID,
		Username:      u.Username,
		Bio:           u.Bio,
		Pfp:           u.Pfp,
		BackgroundImg: u.BackgroundImg,
		FriendCount:   friendCount,
		CreatedAt:     u.CreatedAt,
	}
}
