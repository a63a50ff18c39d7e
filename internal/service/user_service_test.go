package service

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_Signup_Validation(t *testing.T) {
	t.Parallel()

	svc := NewUserService(noopUserRepo()).WithBcryptCost(bcrypt.MinCost)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SignupInput
	}{
		{"empty username", SignupInput{Password: "Str0ngPass!", PasswordConfirm: "Str0ngPass!"}},
		{"username with spaces", SignupInput{Username: "leo tolstoy", Password: "Str0ngPass!", PasswordConfirm: "Str0ngPass!"}},
		{"bad email", SignupInput{Username: "leo", Email: "not-an-email", Password: "Str0ngPass!", PasswordConfirm: "Str0ngPass!"}},
		{"password mismatch", SignupInput{Username: "leo", Password: "Str0ngPass!", PasswordConfirm: "Other0ne!"}},
		{"short password", SignupInput{Username: "leo", Password: "abc", PasswordConfirm: "abc"}},
		{"numeric password", SignupInput{Username: "leo", Password: "1234567890", PasswordConfirm: "1234567890"}},
		{"password contains username", SignupInput{Username: "tolstoy", Password: "tolstoy2024", PasswordConfirm: "tolstoy2024"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Signup(ctx, tc.input)
			assertValidationError(t, err)
		})
	}
}

func TestUserService_Signup_HashesPassword(t *testing.T) {
	t.Parallel()

	var stored *models.User
	users := noopUserRepo()
	users.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 1
		stored = u
		return nil
	}
	svc := NewUserService(users).WithBcryptCost(bcrypt.MinCost)

	user, err := svc.Signup(context.Background(), SignupInput{
		Username:        " leo ",
		Email:           "leo@example.com",
		FirstName:       "Leo",
		Password:        "War&Peace1869",
		PasswordConfirm: "War&Peace1869",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "leo", user.Username)
	assert.NotEqual(t, "War&Peace1869", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("War&Peace1869")))
}

func TestUserService_Signup_DuplicateUsername(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.createFn = func(_ context.Context, _ *models.User) error {
		return models.NewValidationError("A user with that username already exists.")
	}
	svc := NewUserService(users).WithBcryptCost(bcrypt.MinCost)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "leo", Password: "War&Peace1869", PasswordConfirm: "War&Peace1869"})
	assertValidationError(t, err)
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("War&Peace1869"), bcrypt.MinCost)
	require.NoError(t, err)
	users := noopUserRepo()
	users.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		if username != "leo" {
			return nil, models.NewNotFoundError("User", username)
		}
		return &models.User{ID: 1, Username: "leo", Password: string(hash)}, nil
	}
	svc := NewUserService(users)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "leo", "War&Peace1869")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, err = svc.Authenticate(ctx, "leo", "wrong")
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "ghost", "War&Peace1869")
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "", "")
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestUserService_SetStaff(t *testing.T) {
	t.Parallel()

	var gotID uint
	var gotStaff bool
	users := noopUserRepo()
	users.setStaffFn = func(_ context.Context, id uint, staff bool) error {
		gotID, gotStaff = id, staff
		return nil
	}
	svc := NewUserService(users)

	user, err := svc.SetStaff(context.Background(), "leo", true)
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.Equal(t, uint(1), gotID)
	assert.True(t, gotStaff)
}

func TestUserService_CreateUser_RequiresPassword(t *testing.T) {
	t.Parallel()

	svc := NewUserService(noopUserRepo()).WithBcryptCost(bcrypt.MinCost)
	_, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "admin"})
	assertValidationError(t, err)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "admin", Password: "x", IsStaff: true})
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
}
