package models

import (
	"strings"
	"time"
)

// Privacy is the visibility class of a post.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
	PrivacyFriends Privacy = "friends"
)

// Valid reports whether p is one of the known privacy levels.
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyFriends:
		return true
	}
	return false
}

// ParsePrivacy normalizes s; empty input yields PrivacyPublic.
func ParsePrivacy(s string) (Privacy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PrivacyPublic, nil
	}
	p := Privacy(s)
	if !p.Valid() {
		return "", NewValidationError("Privacy must be one of public, private, friends")
	}
	return p, nil
}

// Post represents a post in the feed.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Content   string     `gorm:"type:text" json:"content"`
	Media     []string   `gorm:"type:text;serializer:json" json:"media"`
	Privacy   Privacy    `gorm:"type:varchar(10);not null;default:'public';index" json:"privacy"`
	Reactions []Reaction `gorm:"type:text;serializer:json" json:"reactions"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PostView is a post with its author and reactors populated.
type PostView struct {
	*Post
	Author    *UserSummary   `json:"author"`
	Reactions []ReactionView `json:"reactions"`
}
