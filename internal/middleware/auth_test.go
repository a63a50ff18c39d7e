package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRedirectURL(t *testing.T) {
	assert.Equal(t, "/auth/login/?next=/create/", LoginRedirectURL("/create/"))
	assert.Equal(t, "/auth/login/?next=/posts/3/edit/", LoginRedirectURL("/posts/3/edit/"))
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", LoginRedirectURL("/follow/?page=2"))
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/create/", "/create/"},
		{"/profile/leo/?page=2", "/profile/leo/?page=2"},
		{"", "/"},
		{"https://evil.example.com/", "/"},
		{"//evil.example.com/", "/"},
		{"/\\evil.example.com", "/"},
		{"create/", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeNext(tt.next, "/"), tt.next)
	}
}

func TestLoginRequired(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User") != "" {
			SetCurrentUser(c, &models.User{ID: 7, Username: c.Get("X-User")})
		}
		return c.Next()
	})
	app.Get("/create", LoginRequired(), func(c *fiber.Ctx) error {
		return c.SendString(CurrentUser(c).Username)
	})

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/create/", resp.Header.Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.Header.Set("X-User", "leo")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCurrentUserAnonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.Nil(t, CurrentUser(c))
		assert.Zero(t, CurrentUserID(c))
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
