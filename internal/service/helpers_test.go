package service

import (
	"context"
	"sync"
	"testing"

	"feeds/internal/models"
	"feeds/internal/repository"
	"feeds/internal/testutil"

	"gorm.io/gorm"
)

type publishedEvent struct {
	UserID  uint
	Type    string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, userID uint, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType, Payload: payload})
	return nil
}

func (p *recordingPublisher) types(userID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.UserID == userID {
			out = append(out, e.Type)
		}
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	friends  repository.FriendRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	events   *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		friends:  repository.NewFriendRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		events:   &recordingPublisher{},
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	return testutil.CreateUser(t, e.db, name)
}

func (e *testEnv) friendService() *FriendService {
	return NewFriendService(e.friends, e.users, e.events, nil)
}

func (e *testEnv) postService() *PostService {
	return NewPostService(e.posts, e.users, e.friends, e.events)
}

func (e *testEnv) commentService() *CommentService {
	return NewCommentService(e.comments, e.posts, e.users, e.friends, e.events)
}
