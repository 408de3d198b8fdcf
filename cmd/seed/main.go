// Command seed fills a development database with demo users, friendships,
// posts and comment threads.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"feeds/internal/config"
	"feeds/internal/database"
	"feeds/internal/middleware"
	"feeds/internal/seed"

	"gorm.io/gorm"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	comments := flag.Int("comments", 4, "Maximum comments per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Preset name ("+strings.Join(seed.PresetNames(), ", ")+") or YAML file")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	fast := flag.Bool("fast", true, "Hash passwords at minimum bcrypt cost")
	flag.Parse()

	log := middleware.Logger

	opts := seed.Options{
		Users:           *numUsers,
		Posts:           *numPosts,
		CommentsPerPost: *comments,
		ReplyRatio:      0.4,
		FriendRatio:     0.1,
		PendingRatio:    0.03,
		MaxReactions:    5,
		MaxDays:         90,
		SkipBcrypt:      *fast,
	}
	if *preset != "" {
		p, err := seed.ResolvePreset(*preset)
		if err != nil {
			log.Error("Invalid preset", "preset", *preset, "error", err.Error())
			os.Exit(1)
		}
		log.Info("Applying preset, count flags ignored", "preset", *preset)
		opts = p
	}
	opts.DryRun = *dryRun

	var db *gorm.DB
	if !opts.DryRun {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Error("Failed to load configuration", "error", err.Error())
			os.Exit(1)
		}
		if cfg.IsProduction() {
			log.Error("Refusing to seed a production database")
			os.Exit(1)
		}
		db, err = database.Connect(cfg)
		if err != nil {
			log.Error("Failed to connect to database", "error", err.Error())
			os.Exit(1)
		}
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, opts)

	if *shouldClean {
		if err := s.Clean(ctx); err != nil {
			log.Error("Cleanup failed", "error", err.Error())
			os.Exit(1)
		}
	}

	res, err := s.Run(ctx)
	if err != nil {
		log.Error("Seeding failed", "error", err.Error())
		os.Exit(1)
	}

	log.Info("Seeding finished",
		"users", res.Users,
		"posts", res.Posts,
		"comments", res.Comments,
		"password", seed.DefaultPassword,
	)
}
