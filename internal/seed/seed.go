package seed

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"feeds/internal/middleware"
	"feeds/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Options controls how much data a Seeder generates. Presets and YAML preset
// files fill the same struct.
type Options struct {
	Users           int     `yaml:"users"`
	Posts           int     `yaml:"posts"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	ReplyRatio      float64 `yaml:"reply_ratio"`
	FriendRatio     float64 `yaml:"friend_ratio"`
	PendingRatio    float64 `yaml:"pending_ratio"`
	MaxReactions    int     `yaml:"max_reactions"`
	MaxDays         int     `yaml:"max_days"`
	SkipBcrypt      bool    `yaml:"skip_bcrypt"`
	Seed            int64   `yaml:"seed"`
	DryRun          bool    `yaml:"-"`
}

// Presets are the built-in seed sizes.
var Presets = map[string]Options{
	"small": {
		Users:           10,
		Posts:           40,
		CommentsPerPost: 3,
		ReplyRatio:      0.4,
		FriendRatio:     0.3,
		PendingRatio:    0.1,
		MaxReactions:    4,
		MaxDays:         30,
		SkipBcrypt:      true,
	},
	"medium": {
		Users:           100,
		Posts:           600,
		CommentsPerPost: 5,
		ReplyRatio:      0.5,
		FriendRatio:     0.08,
		PendingRatio:    0.02,
		MaxReactions:    8,
		MaxDays:         90,
		SkipBcrypt:      true,
	},
}

// PresetNames lists the built-in presets in stable order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvePreset returns a built-in preset by name, or loads name as a YAML
// file when no preset matches.
func ResolvePreset(name string) (Options, error) {
	if opts, ok := Presets[name]; ok {
		return opts, nil
	}
	return LoadPresetFile(name)
}

// LoadPresetFile reads Options from a YAML file. Omitted keys keep the
// "small" preset's values.
func LoadPresetFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read preset %s: %w", path, err)
	}
	opts := Presets["small"]
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if opts.Users < 0 || opts.Posts < 0 || opts.CommentsPerPost < 0 {
		return Options{}, fmt.Errorf("preset %s: counts must not be negative", path)
	}
	return opts, nil
}

// Result counts what a run created.
type Result struct {
	Users       int
	Friendships int
	Requests    int
	Posts       int
	Comments    int
	Reactions   int
}

// Seeder populates a database using a Factory.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder. db may be nil in DryRun mode.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the seeder's factory for callers adding custom data.
func (s *Seeder) Factory() *Factory { return s.factory }

// Clean removes all feed data. Users are hard-deleted so usernames and
// emails can be reused.
func (s *Seeder) Clean(ctx context.Context) error {
	if s.db == nil || s.opts.DryRun {
		return nil
	}
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
	for _, m := range []any{&models.Comment{}, &models.Post{}, &models.Friendship{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clean %T: %w", m, err)
		}
	}
	middleware.Logger.Info("seed: existing data removed")
	return nil
}

// Run generates users, the friend graph, posts, reactions and comment
// threads in that order.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	log := middleware.Logger.With("dry_run", s.opts.DryRun)
	log.Info("seed: starting", "users", s.opts.Users, "posts", s.opts.Posts)

	users, err := s.seedUsers(ctx, res)
	if err != nil {
		return res, err
	}
	if err := s.seedFriendGraph(ctx, users, res); err != nil {
		return res, err
	}
	posts, err := s.seedPosts(ctx, users, res)
	if err != nil {
		return res, err
	}
	if err := s.seedComments(ctx, users, posts, res); err != nil {
		return res, err
	}

	log.Info("seed: done",
		"users", res.Users,
		"friendships", res.Friendships,
		"requests", res.Requests,
		"posts", res.Posts,
		"comments", res.Comments,
		"reactions", res.Reactions,
		"elapsed", time.Since(start).String(),
	)
	return res, nil
}

func (s *Seeder) seedUsers(ctx context.Context, res *Result) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.factory.CreateUser(ctx)
		if err != nil {
			return users, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
		res.Users++
	}
	return users, nil
}

// seedFriendGraph visits every unordered pair once, so no pair gets both a
// friendship and a request.
func (s *Seeder) seedFriendGraph(ctx context.Context, users []*models.User, res *Result) error {
	rng := s.factory.rng
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			a, b := users[i], users[j]
			if rng.Intn(2) == 0 {
				a, b = b, a
			}
			switch p := rng.Float64(); {
			case p < s.opts.FriendRatio:
				if err := s.factory.CreateFriendship(ctx, a, b, true); err != nil {
					return fmt.Errorf("create friendship: %w", err)
				}
				res.Friendships++
			case p < s.opts.FriendRatio+s.opts.PendingRatio:
				if err := s.factory.CreateFriendship(ctx, a, b, false); err != nil {
					return fmt.Errorf("create friend request: %w", err)
				}
				res.Requests++
			}
		}
	}
	return nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, res *Result) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	rng := s.factory.rng
	posts := make([]*models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		author := users[rng.Intn(len(users))]
		p, err := s.factory.CreatePost(ctx, author)
		if err != nil {
			return posts, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, p)
		res.Posts++

		if s.opts.MaxReactions <= 0 {
			continue
		}
		for _, idx := range rng.Perm(len(users))[:rng.Intn(min(s.opts.MaxReactions, len(users))+1)] {
			if err := s.factory.React(ctx, users[idx], p, s.factory.randomReaction()); err != nil {
				return posts, fmt.Errorf("react: %w", err)
			}
			res.Reactions++
		}
	}
	return posts, nil
}

// seedComments gives each post up to CommentsPerPost comments. With
// probability ReplyRatio a comment replies to an earlier one on the same post.
func (s *Seeder) seedComments(ctx context.Context, users []*models.User, posts []*models.Post, res *Result) error {
	if len(users) == 0 || s.opts.CommentsPerPost <= 0 {
		return nil
	}
	rng := s.factory.rng
	for _, p := range posts {
		var thread []*models.Comment
		for n := rng.Intn(s.opts.CommentsPerPost + 1); n > 0; n-- {
			var parent *models.Comment
			if len(thread) > 0 && rng.Float64() < s.opts.ReplyRatio {
				parent = thread[rng.Intn(len(thread))]
			}
			c, err := s.factory.CreateComment(ctx, users[rng.Intn(len(users))], p, parent)
			if err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
			thread = append(thread, c)
			res.Comments++
		}
	}
	return nil
}
