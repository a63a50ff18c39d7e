// Command seed fills the database with demo data.
package main

import (
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numGroups := flag.Int("groups", 5, "Number of groups to create")
	numPosts := flag.Int("posts", 150, "Number of posts to create")
	maxComments := flag.Int("comments", 4, "Maximum comments per post")
	maxFollows := flag.Int("follows", 5, "Maximum follows per user")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	fast := flag.Bool("fast", true, "Hash the demo password with the minimum bcrypt cost")
	rngSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	log.Printf("Seeding: %d users, %d groups, %d posts, clean=%v", *numUsers, *numGroups, *numPosts, *shouldClean)

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

	s, err := seed.NewSeeder(db, seed.FactoryOptions{SkipBcrypt: *fast, Seed: *rngSeed})
	if err != nil {
		log.Fatalf("Failed to prepare seeder: %v", err)
	}

	sum, err := s.Run(seed.Options{
		NumUsers:    *numUsers,
		NumGroups:   *numGroups,
		NumPosts:    *numPosts,
		MaxComments: *maxComments,
		MaxFollows:  *maxFollows,
		ShouldClean: *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d users, %d groups, %d posts, %d comments, %d follows",
		sum.Users, sum.Groups, sum.Posts, sum.Comments, sum.Follows)
	log.Printf("All seeded users have the password %q", seed.DefaultPassword)
}
