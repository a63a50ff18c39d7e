package service

import (
	"context"

	"yatube/internal/featureflags"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	flags      *featureflags.Manager
}

type FollowInput struct {
	UserID         uint
	AuthorUsername string
}

// FollowResult reports the target author and whether the edge set changed.
type FollowResult struct {
	Author  *models.User
	Changed bool
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, flags *featureflags.Manager) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, flags: flags}
}

// Follow creates the (user, author) edge. Following twice is a no-op.
// Following yourself is allowed unless the forbid_self_follow flag is on.
func (s *FollowService) Follow(ctx context.Context, in FollowInput) (*FollowResult, error) {
	author, err := s.userRepo.GetByUsername(ctx, in.AuthorUsername)
	if err != nil {
		return nil, err
	}
	if author.ID == in.UserID && s.flags.Enabled(featureflags.ForbidSelfFollow, in.UserID) {
		return &FollowResult{Author: author}, nil
	}

	created, err := s.followRepo.Follow(ctx, in.UserID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.ContentCreated.WithLabelValues("follow").Inc()
	}
	return &FollowResult{Author: author, Changed: created}, nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, in FollowInput) (*FollowResult, error) {
	author, err := s.userRepo.GetByUsername(ctx, in.AuthorUsername)
	if err != nil {
		return nil, err
	}
	removed, err := s.followRepo.Unfollow(ctx, in.UserID, author.ID)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Author: author, Changed: removed}, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.followRepo.IsFollowing(ctx, userID, authorID)
}
