package models

// ReactionNone is the reaction type that removes the caller's reaction.
const ReactionNone = "none"

// Reaction is embedded in posts and comments. At most one per user.
type Reaction struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"type"`
}

// ReactionView is a reaction with its reactor populated.
type ReactionView struct {
	UserID uint         `json:"user_id"`
	Type   string       `json:"type"`
	User   *UserSummary `json:"user,omitempty"`
}
