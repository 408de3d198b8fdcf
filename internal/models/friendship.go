package models

import "time"

// FriendshipStatus represents the status of a friendship request.
type FriendshipStatus string

const (
	// FriendshipStatusPending marks a request awaiting the addressee.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted marks a symmetric friendship.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// Friendship is one edge of the social graph. A pending row is directed
// (requester asked addressee); an accepted row is read in both directions.
type Friendship struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uint             `gorm:"not null;uniqueIndex:idx_friendship_users" json:"requester_id"`
	AddresseeID uint             `gorm:"not null;uniqueIndex:idx_friendship_users;index" json:"addressee_id"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// Other returns the participant that is not userID.
func (f *Friendship) Other(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// FriendState is the relationship between a viewer and another user.
type FriendState string

const (
	FriendStateNone            FriendState = "none"
	FriendStatePendingSent     FriendState = "pending_sent"
	FriendStatePendingReceived FriendState = "pending_received"
	FriendStateFriends         FriendState = "friends"
	FriendStateSelf            FriendState = "self"
)
