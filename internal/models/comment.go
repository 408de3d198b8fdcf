package models

import "time"

// Comment is a reply to a post or, when ParentID is set, to another comment.
type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	PostID    uint       `gorm:"not null;index" json:"post_id"`
	ParentID  *uint      `gorm:"index" json:"parent_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Reactions []Reaction `gorm:"type:text;serializer:json" json:"reactions"`
	Children  []uint     `gorm:"type:text;serializer:json" json:"children"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CommentView is a comment with its author and reactors populated.
type CommentView struct {
	*Comment
	Author    *UserSummary   `json:"author"`
	Reactions []ReactionView `json:"reactions"`
}
