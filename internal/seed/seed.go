package seed

import (
	"fmt"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	NumUsers    int
	NumGroups   int
	NumPosts    int
	MaxComments int // per post
	MaxFollows  int // per user
	ShouldClean bool
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seeder fills the database with demo users, groups, posts, comments and follows.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts FactoryOptions) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: f}, nil
}

// ClearAll deletes every row of every application table, children first.
func (s *Seeder) ClearAll() error {
	tables := []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}}
	for _, t := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	middleware.Logger.Info("seed: cleared existing data")
	return nil
}

// Run seeds according to opts.
func (s *Seeder) Run(opts Options) (*Summary, error) {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	f := s.factory

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	groups := make([]*models.Group, 0, opts.NumGroups)
	for i := 0; i < opts.NumGroups; i++ {
		g, err := f.CreateGroup()
		if err != nil {
			return nil, fmt.Errorf("create group: %w", err)
		}
		groups = append(groups, g)
	}
	sum.Groups = len(groups)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rnd.Intn(len(users))]
		var group *models.Group
		// Roughly a third of posts stay outside any group.
		if len(groups) > 0 && f.rnd.Intn(3) > 0 {
			group = groups[f.rnd.Intn(len(groups))]
		}
		posts = append(posts, f.BuildPost(author, group))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	if opts.MaxComments > 0 {
		for _, p := range posts {
			for n := f.rnd.Intn(opts.MaxComments + 1); n > 0; n-- {
				if _, err := f.CreateComment(users[f.rnd.Intn(len(users))], p); err != nil {
					return nil, fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
			}
		}
	}

	if opts.MaxFollows > 0 && len(users) > 1 {
		for _, u := range users {
			seen := map[uint]bool{u.ID: true}
			for n := f.rnd.Intn(opts.MaxFollows + 1); n > 0; n-- {
				author := users[f.rnd.Intn(len(users))]
				if seen[author.ID] {
					continue
				}
				seen[author.ID] = true
				if err := f.CreateFollow(u, author); err != nil {
					return nil, fmt.Errorf("create follow: %w", err)
				}
				sum.Follows++
			}
		}
	}

	middleware.Logger.Info("seed: completed",
		slog.Int("users", sum.Users),
		slog.Int("groups", sum.Groups),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("follows", sum.Follows),
	)
	return sum, nil
}
