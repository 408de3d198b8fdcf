package service

import (
	"strings"

	"feeds/internal/models"
	"feeds/internal/validation"
)

// ReactionEffect describes what ApplyReaction did.
type ReactionEffect string

const (
	ReactionAdded    ReactionEffect = "added"
	ReactionReplaced ReactionEffect = "replaced"
	ReactionRemoved  ReactionEffect = "removed"
	ReactionNoop     ReactionEffect = "noop"
)

// ApplyReaction toggles userID's reaction in reactions. A type of
// models.ReactionNone removes it. Each user holds at most one reaction and
// repeating a call is a no-op.
func ApplyReaction(reactions []models.Reaction, userID uint, reactionType string) ([]models.Reaction, ReactionEffect) {
	out := make([]models.Reaction, 0, len(reactions)+1)
	out = append(out, reactions...)

	for i := range out {
		if out[i].UserID != userID {
			continue
		}
		switch {
		case reactionType == models.ReactionNone:
			return append(out[:i], out[i+1:]...), ReactionRemoved
		case out[i].Type == reactionType:
			return out, ReactionNoop
		default:
			out[i].Type = reactionType
			return out, ReactionReplaced
		}
	}

	if reactionType == models.ReactionNone {
		return out, ReactionNoop
	}
	return append(out, models.Reaction{UserID: userID, Type: reactionType}), ReactionAdded
}

// normalizeReactionType trims and validates a requested reaction type.
func normalizeReactionType(reactionType string) (string, error) {
	reactionType = strings.TrimSpace(reactionType)
	if err := validation.ValidateReactionType(reactionType); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return reactionType, nil
}
