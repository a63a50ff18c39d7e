package service

import (
	"context"
	"strings"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateGroup_Validation(t *testing.T) {
	t.Parallel()

	svc := NewGroupService(noopGroupRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateGroupInput
	}{
		{"empty title", CreateGroupInput{Slug: "cats"}},
		{"title too long", CreateGroupInput{Title: strings.Repeat("x", 201), Slug: "cats"}},
		{"empty slug", CreateGroupInput{Title: "Cats"}},
		{"slug with spaces", CreateGroupInput{Title: "Cats", Slug: "cute cats"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreateGroup(ctx, tc.input)
			assertValidationError(t, err)
		})
	}
}

func TestGroupService_CreateGroup_Success(t *testing.T) {
	t.Parallel()

	var stored *models.Group
	groups := noopGroupRepo()
	groups.createFn = func(_ context.Context, g *models.Group) error {
		g.ID = 3
		stored = g
		return nil
	}
	svc := NewGroupService(groups)

	group, err := svc.CreateGroup(context.Background(), CreateGroupInput{Title: " Cats ", Slug: "cats", Description: "all about cats"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint(3), group.ID)
	assert.Equal(t, "Cats", group.Title)
}

func TestGroupService_DeleteGroup(t *testing.T) {
	t.Parallel()

	var deleted string
	groups := noopGroupRepo()
	groups.deleteFn = func(_ context.Context, slug string) error {
		deleted = slug
		return nil
	}
	svc := NewGroupService(groups)

	require.NoError(t, svc.DeleteGroup(context.Background(), "cats"))
	assert.Equal(t, "cats", deleted)
}
