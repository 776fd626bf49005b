// Command main runs the database seeder for Pulse.
package main

import (
	"context"
	"flag"
	"log"

	"pulse/internal/config"
	"pulse/internal/database"
	"pulse/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", opts.PostsPerUser, "Posts per user")
	flag.IntVar(&opts.MaxFollows, "follows", opts.MaxFollows, "Maximum follows per user")
	flag.IntVar(&opts.MaxLikes, "likes", opts.MaxLikes, "Maximum likes per user")
	flag.IntVar(&opts.MaxComments, "comments", opts.MaxComments, "Maximum comments per post")
	flag.BoolVar(&opts.ShouldClean, "clean", opts.ShouldClean, "Clean database before seeding")
	flag.StringVar(&opts.Password, "password", opts.Password, "Password for every seeded account")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed for reproducibility (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Printf("Seeding %d users with %d posts each (clean=%v)", opts.NumUsers, opts.PostsPerUser, opts.ShouldClean)

	sum, err := seed.NewSeeder(db, opts.Seed).Run(context.Background(), opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeding complete: %s", sum)
}
