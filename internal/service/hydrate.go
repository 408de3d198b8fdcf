package service

import (
	"context"

	"feeds/internal/models"
	"feeds/internal/repository"
)

// hydrator batch-loads the users referenced by posts and comments.
type hydrator struct {
	users repository.UserRepository
}

func (h hydrator) summaries(ctx context.Context, ids []uint) (map[uint]*models.UserSummary, error) {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := h.users.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]*models.UserSummary, len(users))
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

func reactionViews(reactions []models.Reaction, users map[uint]*models.UserSummary) []models.ReactionView {
	views := make([]models.ReactionView, 0, len(reactions))
	for _, r := range reactions {
		views = append(views, models.ReactionView{UserID: r.UserID, Type: r.Type, User: users[r.UserID]})
	}
	return views
}

func (h hydrator) posts(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	var ids []uint
	for i := range posts {
		ids = append(ids, posts[i].UserID)
		for _, r := range posts[i].Reactions {
			ids = append(ids, r.UserID)
		}
	}
	users, err := h.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		if p.Media == nil {
			p.Media = []string{}
		}
		views = append(views, models.PostView{
			Post:      p,
			Author:    users[p.UserID],
			Reactions: reactionViews(p.Reactions, users),
		})
	}
	return views, nil
}

func (h hydrator) post(ctx context.Context, post *models.Post) (*models.PostView, error) {
	views, err := h.posts(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (h hydrator) comments(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	var ids []uint
	for i := range comments {
		ids = append(ids, comments[i].UserID)
		for _, r := range comments[i].Reactions {
			ids = append(ids, r.UserID)
		}
	}
	users, err := h.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		if c.Children == nil {
			c.Children = []uint{}
		}
		views = append(views, models.CommentView{
			Comment:   c,
			Author:    users[c.UserID],
			Reactions: reactionViews(c.Reactions, users),
		})
	}
	return views, nil
}

func (h hydrator) comment(ctx context.Context, comment *models.Comment) (*models.CommentView, error) {
	views, err := h.comments(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
