// Package service implements the business rules on top of the repositories.
package service

import (
	"context"
	"strings"

	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/paginator"
	"yatube/internal/repository"
)

// PostPage is one page of a post listing.
type PostPage = paginator.Page[models.Post]

type PostService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	media       *media.Service
	perPage     int
}

type PostRepositories struct {
	Posts    repository.PostRepository
	Groups   repository.GroupRepository
	Users    repository.UserRepository
	Comments repository.CommentRepository
	Follows  repository.FollowRepository
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *media.Upload
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Text    string
	GroupID *uint
	Image   *media.Upload
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

type ProfileInput struct {
	Username string
	Page     string
}

// ProfileView is an author's page: their posts and follow counters.
type ProfileView struct {
	Author    *models.User
	Posts     *PostPage
	PostCount int64
	Followers int64
	Following int64
}

// PostDetail is a post with its comments and its author's post count.
type PostDetail struct {
	Post            *models.Post
	Comments        []models.Comment
	AuthorPostCount int64
}

// NewPostService wires the post rules. mediaSvc may be nil when uploads are disabled.
func NewPostService(repos PostRepositories, mediaSvc *media.Service, perPage int) *PostService {
	if perPage <= 0 {
		perPage = 10
	}
	return &PostService{
		postRepo:    repos.Posts,
		groupRepo:   repos.Groups,
		userRepo:    repos.Users,
		commentRepo: repos.Comments,
		followRepo:  repos.Follows,
		media:       mediaSvc,
		perPage:     perPage,
	}
}

func (s *PostService) list(ctx context.Context, filter repository.PostFilter, rawPage string) (*PostPage, error) {
	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginator.Paginate(ctx, total, s.perPage, rawPage,
		func(ctx context.Context, limit, offset int) ([]models.Post, error) {
			return s.postRepo.List(ctx, filter, limit, offset)
		})
}

// ListIndex returns a page of all posts, newest first.
func (s *PostService) ListIndex(ctx context.Context, rawPage string) (*PostPage, error) {
	return s.list(ctx, repository.PostFilter{}, rawPage)
}

// ListGroup returns the group identified by slug and a page of its posts.
func (s *PostService) ListGroup(ctx context.Context, slug, rawPage string) (*models.Group, *PostPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.list(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return group, page, nil
}

// ListProfile returns an author's posts with their follower and following counts.
func (s *PostService) ListProfile(ctx context.Context, in ProfileInput) (*ProfileView, error) {
	author, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	page, err := s.list(ctx, repository.PostFilter{AuthorID: author.ID}, in.Page)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{Author: author, Posts: page, PostCount: page.Total}
	if view.Followers, err = s.followRepo.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if view.Following, err = s.followRepo.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	return view, nil
}

// ListFeed returns posts by the authors userID follows. An anonymous viewer gets an empty page.
func (s *PostService) ListFeed(ctx context.Context, userID uint, rawPage string) (*PostPage, error) {
	if userID == 0 {
		return paginator.Paginate[models.Post](ctx, 0, s.perPage, rawPage, nil)
	}
	return s.list(ctx, repository.PostFilter{FollowerID: userID}, rawPage)
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// GetDetail loads a post with its comments, oldest first.
func (s *PostService) GetDetail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPostCount: count}, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, end := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer end(&err)

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Post text is required")
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	post = &models.Post{Text: text, AuthorID: in.AuthorID, GroupID: in.GroupID}
	if err := s.storeImage(ctx, post, in.Image); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.removeImage(ctx, post.Image, post.ImageThumb)
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("post").Inc()
	return post, nil
}

// UpdatePost edits a post in place. Only the author may edit; the image is
// replaced only when a new one is uploaded.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, end := observability.StartServiceSpan(ctx, "PostService", "UpdatePost")
	defer end(&err)

	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Post text is required")
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	oldImage, oldThumb := post.Image, post.ImageThumb
	post.Text = text
	post.GroupID = in.GroupID
	post.Group = nil
	if err := s.storeImage(ctx, post, in.Image); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if in.Image != nil {
			s.removeImage(ctx, post.Image, post.ImageThumb)
		}
		return nil, err
	}
	if in.Image != nil {
		s.removeImage(ctx, oldImage, oldThumb)
	}
	return post, nil
}

// DeletePost removes a post and its comments. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (post *models.Post, err error) {
	ctx, end := observability.StartServiceSpan(ctx, "PostService", "DeletePost")
	defer end(&err)

	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.remove(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// RemovePost deletes a post without an ownership check. It backs moderation tooling.
func (s *PostService) RemovePost(ctx context.Context, id uint) (post *models.Post, err error) {
	ctx, end := observability.StartServiceSpan(ctx, "PostService", "RemovePost")
	defer end(&err)

	post, err = s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.remove(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) remove(ctx context.Context, post *models.Post) error {
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}
	s.removeImage(ctx, post.Image, post.ImageThumb)
	return nil
}

func (s *PostService) checkGroup(ctx context.Context, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
		if models.IsNotFound(err) {
			return models.NewValidationError("Unknown group")
		}
		return err
	}
	return nil
}

func (s *PostService) storeImage(ctx context.Context, post *models.Post, up *media.Upload) error {
	if up == nil {
		return nil
	}
	if s.media == nil {
		return models.NewValidationError("Image uploads are disabled")
	}
	image, thumb, err := s.media.Store(ctx, up)
	if err != nil {
		return models.NewInternalError(err)
	}
	post.Image, post.ImageThumb = image, thumb
	return nil
}

func (s *PostService) removeImage(ctx context.Context, keys ...string) {
	if s.media == nil {
		return
	}
	s.media.Remove(ctx, keys...)
}
