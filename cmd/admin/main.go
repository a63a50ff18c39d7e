// Command admin provides management utilities for Yatube: migrations,
// accounts, groups, moderation and the page cache.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/featureflags"
	"yatube/internal/media"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

type admin struct {
	cfg *config.Config
	db  *gorm.DB
}

func main() {
	a := &admin{}

	app := cli.NewApp()
	app.Name = "yatube-admin"
	app.Usage = "Manage a Yatube installation"
	app.Before = a.load
	app.Commands = []*cli.Command{
		{
			Name:   "migrate",
			Usage:  "Create or update the database schema",
			Action: a.migrate,
		},
		{
			Name:      "create-user",
			Usage:     "Create an account",
			ArgsUsage: "<username>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email"},
				&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"YATUBE_ADMIN_PASSWORD"}},
				&cli.BoolFlag{Name: "staff", Usage: "Grant moderation rights"},
			},
			Action: a.createUser,
		},
		{
			Name:      "promote",
			Usage:     "Grant moderation rights",
			ArgsUsage: "<username>",
			Action:    a.setStaff(true),
		},
		{
			Name:      "demote",
			Usage:     "Revoke moderation rights",
			ArgsUsage: "<username>",
			Action:    a.setStaff(false),
		},
		{
			Name:   "list-users",
			Usage:  "List accounts",
			Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 50}, &cli.IntFlag{Name: "offset"}},
			Action: a.listUsers,
		},
		{
			Name:      "delete-user",
			Usage:     "Delete an account with its posts, comments and follows",
			ArgsUsage: "<username>",
			Action:    a.deleteUser,
		},
		{
			Name:      "create-group",
			Usage:     "Create a community",
			ArgsUsage: "<slug>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Required: true},
				&cli.StringFlag{Name: "description"},
			},
			Action: a.createGroup,
		},
		{
			Name:      "delete-group",
			Usage:     "Delete a community; its posts stay without a group",
			ArgsUsage: "<slug>",
			Action:    a.deleteGroup,
		},
		{
			Name:      "delete-post",
			Usage:     "Remove a post and its image",
			ArgsUsage: "<post_id>",
			Action:    a.deletePost,
		},
		{
			Name:   "clear-cache",
			Usage:  "Drop every cached page",
			Action: a.clearCache,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func (a *admin) load(*cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *admin) database() (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.Connect(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	cache.InitRedis(a.cfg.RedisURL)
	a.db = db
	return db, nil
}

func (a *admin) users() (*service.UserService, error) {
	db, err := a.database()
	if err != nil {
		return nil, err
	}
	return service.NewUserService(repository.NewUserRepository(db)), nil
}

func (a *admin) groups() (*service.GroupService, error) {
	db, err := a.database()
	if err != nil {
		return nil, err
	}
	return service.NewGroupService(repository.NewGroupRepository(db)), nil
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 || c.Args().First() == "" {
		return "", cli.Exit(fmt.Sprintf("missing <%s>; usage: %s %s", name, c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return c.Args().First(), nil
}

func (a *admin) migrate(*cli.Context) error {
	db, err := a.database()
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Println("Schema is up to date")
	return nil
}

func (a *admin) createUser(c *cli.Context) error {
	username, err := requireArg(c, "username")
	if err != nil {
		return err
	}
	svc, err := a.users()
	if err != nil {
		return err
	}
	user, err := svc.CreateUser(c.Context, service.CreateUserInput{
		Username: username,
		Email:    c.String("email"),
		Password: c.String("password"),
		IsStaff:  c.Bool("staff"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created user %s (ID: %d, staff: %v)\n", user.Username, user.ID, user.IsStaff)
	return nil
}

func (a *admin) setStaff(staff bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		username, err := requireArg(c, "username")
		if err != nil {
			return err
		}
		svc, err := a.users()
		if err != nil {
			return err
		}
		user, err := svc.SetStaff(c.Context, username, staff)
		if err != nil {
			return err
		}
		fmt.Printf("User %s (ID: %d) staff: %v\n", user.Username, user.ID, user.IsStaff)
		return nil
	}
}

func (a *admin) listUsers(c *cli.Context) error {
	svc, err := a.users()
	if err != nil {
		return err
	}
	users, err := svc.ListUsers(c.Context, c.Int("limit"), c.Int("offset"))
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}
	for _, u := range users {
		fmt.Printf("ID: %d | Username: %s | Email: %s | Staff: %v\n", u.ID, u.Username, u.Email, u.IsStaff)
	}
	return nil
}

func (a *admin) deleteUser(c *cli.Context) error {
	username, err := requireArg(c, "username")
	if err != nil {
		return err
	}
	svc, err := a.users()
	if err != nil {
		return err
	}
	if err := svc.DeleteUser(c.Context, username); err != nil {
		return err
	}
	fmt.Printf("Deleted user %s\n", username)
	return nil
}

func (a *admin) createGroup(c *cli.Context) error {
	slug, err := requireArg(c, "slug")
	if err != nil {
		return err
	}
	svc, err := a.groups()
	if err != nil {
		return err
	}
	group, err := svc.CreateGroup(c.Context, service.CreateGroupInput{
		Title:       c.String("title"),
		Slug:        slug,
		Description: c.String("description"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created group %q at /group/%s/\n", group.Title, group.Slug)
	return nil
}

func (a *admin) deleteGroup(c *cli.Context) error {
	slug, err := requireArg(c, "slug")
	if err != nil {
		return err
	}
	svc, err := a.groups()
	if err != nil {
		return err
	}
	if err := svc.DeleteGroup(c.Context, slug); err != nil {
		return err
	}
	fmt.Printf("Deleted group %s\n", slug)
	return nil
}

func (a *admin) deletePost(c *cli.Context) error {
	raw, err := requireArg(c, "post_id")
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return cli.Exit(fmt.Sprintf("invalid post id %q", raw), 2)
	}

	db, err := a.database()
	if err != nil {
		return err
	}
	storage, err := media.NewStorage(a.cfg)
	if err != nil {
		return err
	}
	flags := featureflags.NewManager(a.cfg.FeatureFlags)
	svc := service.NewPostService(service.PostRepositories{
		Posts:    repository.NewPostRepository(db),
		Groups:   repository.NewGroupRepository(db),
		Users:    repository.NewUserRepository(db),
		Comments: repository.NewCommentRepository(db),
		Follows:  repository.NewFollowRepository(db),
	}, media.NewService(storage, flags.EnabledGlobally(featureflags.ImageThumbnails)), a.cfg.PostsPerPage)

	post, err := svc.RemovePost(c.Context, uint(id))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted post %d by user %d\n", post.ID, post.AuthorID)
	return nil
}

func (a *admin) clearCache(*cli.Context) error {
	cache.InitRedis(a.cfg.RedisURL)
	client := cache.GetClient()
	if client == nil {
		fmt.Println("Redis is not configured; running servers keep their in-process page cache")
		return nil
	}
	defer cache.Close()

	if err := cache.NewPageStore(client).Reset(); err != nil {
		return fmt.Errorf("clear page cache: %w", err)
	}
	fmt.Println("Page cache cleared")
	return nil
}
