package service

import (
	"testing"

	"feeds/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestApplyReaction(t *testing.T) {
	like := func(id uint) models.Reaction { return models.Reaction{UserID: id, Type: "like"} }

	tests := []struct {
		name       string
		current    []models.Reaction
		user       uint
		reaction   string
		want       []models.Reaction
		wantEffect ReactionEffect
	}{
		{
			name:       "Add to empty",
			user:       1,
			reaction:   "like",
			want:       []models.Reaction{like(1)},
			wantEffect: ReactionAdded,
		},
		{
			name:       "Same type twice is a no-op",
			current:    []models.Reaction{like(1)},
			user:       1,
			reaction:   "like",
			want:       []models.Reaction{like(1)},
			wantEffect: ReactionNoop,
		},
		{
			name:       "Replace keeps position",
			current:    []models.Reaction{like(2), like(1), like(3)},
			user:       1,
			reaction:   "love",
			want:       []models.Reaction{like(2), {UserID: 1, Type: "love"}, like(3)},
			wantEffect: ReactionReplaced,
		},
		{
			name:       "None removes",
			current:    []models.Reaction{like(2), like(1)},
			user:       1,
			reaction:   models.ReactionNone,
			want:       []models.Reaction{like(2)},
			wantEffect: ReactionRemoved,
		},
		{
			name:       "None without reaction is a no-op",
			current:    []models.Reaction{like(2)},
			user:       1,
			reaction:   models.ReactionNone,
			want:       []models.Reaction{like(2)},
			wantEffect: ReactionNoop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]models.Reaction(nil), tt.current...)
			got, effect := ApplyReaction(tt.current, tt.user, tt.reaction)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantEffect, effect)
			assert.Equal(t, original, tt.current, "input must not be mutated")
		})
	}
}

func TestApplyReaction_LikeLikeNoneSequence(t *testing.T) {
	var rs []models.Reaction
	rs, _ = ApplyReaction(rs, 5, "like")
	rs, _ = ApplyReaction(rs, 5, "like")
	assert.Equal(t, []models.Reaction{{UserID: 5, Type: "like"}}, rs)

	rs, _ = ApplyReaction(rs, 5, models.ReactionNone)
	assert.Empty(t, rs)

	rs, effect := ApplyReaction(rs, 5, models.ReactionNone)
	assert.Empty(t, rs)
	assert.Equal(t, ReactionNoop, effect)
}

func TestNormalizeReactionType(t *testing.T) {
	got, err := normalizeReactionType("  like ")
	assert.NoError(t, err)
	assert.Equal(t, "like", got)

	_, err = normalizeReactionType("   ")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = normalizeReactionType("this-reaction-name-is-way-too-long-to-store")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}
