// Package seed creates demo data for development databases. It is not used
// by the server at request time.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var reactionTypes = []string{"like", "love", "haha", "wow", "sad"}

// Factory builds entities and persists them through the repositories.
// In DryRun mode nothing is written and ids are synthetic.
type Factory struct {
	users    repository.UserRepository
	friends  repository.FriendRepository
	posts    repository.PostRepository
	comments repository.CommentRepository

	opts   Options
	faker  *gofakeit.Faker
	rng    *rand.Rand
	hash   string
	nextID uint
	seq    int
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f := &Factory{
		opts:   opts,
		faker:  gofakeit.New(seed),
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404: demo data
		nextID: 1000,
	}
	if db != nil {
		f.users = repository.NewUserRepository(db)
		f.friends = repository.NewFriendRepository(db)
		f.posts = repository.NewPostRepository(db)
		f.comments = repository.NewCommentRepository(db)
	}
	return f
}

func (f *Factory) dryRun() bool {
	return f.opts.DryRun || f.users == nil
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

// passwordHash hashes DefaultPassword once. SkipBcrypt uses the minimum cost
// so seeded accounts can still log in.
func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.hash = string(h)
	return f.hash, nil
}

// username returns a unique handle that passes the username rules.
func (f *Factory) username() string {
	f.seq++
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, f.faker.Username())
	suffix := fmt.Sprintf("_%d", f.seq)
	if limit := 30 - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	if len(base) < 3 {
		base = "user"
	}
	return base + suffix
}

// createdAt spreads timestamps over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Int63n(int64(maxDays) * int64(24*time.Hour)))
	return time.Now().Add(-back)
}

// CreateUser builds and stores a user. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	name := f.username()
	user := &models.User{
		Username: name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: hash,
		Bio:      f.faker.Sentence(10),
		Pfp:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.dryRun() {
		user.ID = f.syntheticID()
		middleware.Logger.Debug("[dry-run] create user", "id", user.ID, "username", user.Username)
		return user, nil
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateFriendship stores a pending request from requester to addressee, and
// accepts it when accepted is true.
func (f *Factory) CreateFriendship(ctx context.Context, requester, addressee *models.User, accepted bool) error {
	if f.dryRun() {
		return nil
	}
	if _, err := f.friends.CreateRequest(ctx, requester.ID, addressee.ID); err != nil {
		return err
	}
	if !accepted {
		return nil
	}
	return f.friends.Accept(ctx, requester.ID, addressee.ID)
}

// randomPrivacy is weighted toward public posts.
func (f *Factory) randomPrivacy() models.Privacy {
	switch n := f.rng.Intn(100); {
	case n < 60:
		return models.PrivacyPublic
	case n < 85:
		return models.PrivacyFriends
	default:
		return models.PrivacyPrivate
	}
}

// BuildPost constructs a post for user without storing it.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	media := []string{}
	for i := f.rng.Intn(3); i > 0; i-- {
		media = append(media, fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()))
	}
	post := &models.Post{
		UserID:    user.ID,
		Content:   f.faker.Paragraph(1, 3, 8, "\n"),
		Media:     media,
		Privacy:   f.randomPrivacy(),
		Reactions: []models.Reaction{},
		CreatedAt: f.createdAt(),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and stores a post for user.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if f.dryRun() {
		post.ID = f.syntheticID()
		return post, nil
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment stores a comment by user on post. A non-nil parent makes it a
// reply and records it in the parent's children.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:    user.ID,
		PostID:    post.ID,
		Content:   f.faker.Sentence(8),
		Reactions: []models.Reaction{},
		Children:  []uint{},
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}

	if f.dryRun() {
		comment.ID = f.syntheticID()
	} else if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if parent != nil {
		parent.Children = append(parent.Children, comment.ID)
	}
	return comment, nil
}

// React records user's reaction on post, replacing any earlier one.
func (f *Factory) React(ctx context.Context, user *models.User, post *models.Post, reactionType string) error {
	apply := func(rs []models.Reaction) []models.Reaction {
		out := make([]models.Reaction, 0, len(rs)+1)
		for _, r := range rs {
			if r.UserID != user.ID {
				out = append(out, r)
			}
		}
		return append(out, models.Reaction{UserID: user.ID, Type: reactionType})
	}
	if f.dryRun() {
		post.Reactions = apply(post.Reactions)
		return nil
	}
	updated, err := f.posts.UpdateReactions(ctx, post.ID, apply)
	if err != nil {
		return err
	}
	post.Reactions = updated.Reactions
	return nil
}

func (f *Factory) randomReaction() string {
	return reactionTypes[f.rng.Intn(len(reactionTypes))]
}
