package server

import (
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/render"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index lists all posts, newest first.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.ListIndex(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return render.Page(c, fiber.StatusOK, "posts/index.html", fiber.Map{
		"page_obj": page,
	})
}

// GroupPosts lists the posts of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.postService.ListGroup(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return render.Page(c, fiber.StatusOK, "posts/group_list.html", fiber.Map{
		"group":    group,
		"page_obj": page,
	})
}

// Profile lists an author's posts with the follow controls.
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	view, err := s.postService.ListProfile(ctx, service.ProfileInput{
		Username: c.Params("username"),
		Page:     c.Query("page"),
	})
	if err != nil {
		return err
	}
	following, err := s.followService.IsFollowing(ctx, middleware.CurrentUserID(c), view.Author.ID)
	if err != nil {
		return err
	}
	return render.Page(c, fiber.StatusOK, "posts/profile.html", fiber.Map{
		"author":          view.Author,
		"page_obj":        view.Posts,
		"post_count":      view.PostCount,
		"followers":       view.Followers,
		"following_count": view.Following,
		"following":       following,
	})
}

// PostDetail shows a post with its comments and an empty comment form.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.postService.GetDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return render.Page(c, fiber.StatusOK, "posts/post_detail.html", fiber.Map{
		"post":       detail.Post,
		"comments":   detail.Comments,
		"post_count": detail.AuthorPostCount,
		"form":       forms.NewCommentForm(),
	})
}

// PostCreate renders the new post form and saves valid submissions.
func (s *Server) PostCreate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := middleware.CurrentUser(c)

	groups, err := s.groupService.ListGroups(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(groups, s.config.MaxUploadBytes())

	if c.Method() == fiber.MethodPost {
		form.Bind(postValues(c))
		if form.IsValid() {
			var draft models.Post
			form.Apply(&draft)
			_, err := s.postService.CreatePost(ctx, service.CreatePostInput{
				AuthorID: user.ID,
				Text:     draft.Text,
				GroupID:  draft.GroupID,
				Image:    form.Upload(),
			})
			switch {
			case err == nil:
				return c.Redirect(profileURL(user.Username), fiber.StatusFound)
			case models.HasCode(err, models.CodeValidation):
				form.Text.AddError(errorMessage(err))
			default:
				return err
			}
		}
	}

	return render.Page(c, fiber.StatusOK, "posts/create_post.html", fiber.Map{
		"form":    form,
		"is_edit": false,
	})
}

// PostEdit lets the author change a post; everyone else is sent to the post page.
func (s *Server) PostEdit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := middleware.CurrentUser(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != user.ID {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	groups, err := s.groupService.ListGroups(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(groups, s.config.MaxUploadBytes())
	form.SetInitial(post)

	if c.Method() == fiber.MethodPost {
		form.Bind(postValues(c))
		if form.IsValid() {
			var draft models.Post
			form.Apply(&draft)
			_, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
				UserID:  user.ID,
				PostID:  post.ID,
				Text:    draft.Text,
				GroupID: draft.GroupID,
				Image:   form.Upload(),
			})
			switch {
			case err == nil:
				return c.Redirect(postURL(post.ID), fiber.StatusFound)
			case models.HasCode(err, models.CodeForbidden):
				return c.Redirect(postURL(post.ID), fiber.StatusFound)
			case models.HasCode(err, models.CodeValidation):
				form.Text.AddError(errorMessage(err))
			default:
				return err
			}
		}
	}

	return render.Page(c, fiber.StatusOK, "posts/create_post.html", fiber.Map{
		"form":    form,
		"is_edit": true,
		"post":    post,
	})
}

// PostDelete removes a post of the current user and returns to their profile.
func (s *Server) PostDelete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{UserID: user.ID, PostID: id})
	if err != nil {
		if models.HasCode(err, models.CodeForbidden) {
			return c.Redirect(postURL(id), fiber.StatusFound)
		}
		return err
	}

	author := post.Author.Username
	if author == "" {
		author = user.Username
	}
	return c.Redirect(profileURL(author), fiber.StatusFound)
}

// AddComment stores a valid comment. It always returns to the post page.
func (s *Server) AddComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user := middleware.CurrentUser(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return err
	}
	if _, err := s.postService.Get(ctx, id); err != nil {
		return err
	}

	form := forms.NewCommentForm()
	form.Bind(c.FormValue("text"))
	if form.IsValid() {
		draft := form.Comment(id, user.ID)
		_, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
			AuthorID: draft.AuthorID,
			PostID:   draft.PostID,
			Text:     draft.Text,
		})
		if err != nil && !models.HasCode(err, models.CodeValidation) {
			return err
		}
	}

	return c.Redirect(postURL(id), fiber.StatusFound)
}

// FollowIndex lists posts by the authors the current user follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.postService.ListFeed(c.UserContext(), middleware.CurrentUserID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return render.Page(c, fiber.StatusOK, "posts/follow.html", fiber.Map{
		"page_obj": page,
	})
}

// ProfileFollow subscribes the current user to an author.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	res, err := s.followService.Follow(c.UserContext(), service.FollowInput{
		UserID:         middleware.CurrentUserID(c),
		AuthorUsername: c.Params("username"),
	})
	if err != nil {
		return err
	}
	return c.Redirect(profileURL(res.Author.Username), fiber.StatusFound)
}

// ProfileUnfollow removes the subscription if there is one.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	res, err := s.followService.Unfollow(c.UserContext(), service.FollowInput{
		UserID:         middleware.CurrentUserID(c),
		AuthorUsername: c.Params("username"),
	})
	if err != nil {
		return err
	}
	return c.Redirect(profileURL(res.Author.Username), fiber.StatusFound)
}
