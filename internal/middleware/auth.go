package middleware

import (
	"net/url"
	"strings"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CurrentUserKey is the fiber Locals key holding the logged-in *models.User.
const CurrentUserKey = "currentUser"

// LoginURL is where LoginRequired sends anonymous visitors.
const LoginURL = "/auth/login/"

// SetCurrentUser records the authenticated user for handlers, rate limiting and logging.
func SetCurrentUser(c *fiber.Ctx, user *models.User) {
	c.Locals(CurrentUserKey, user)
	c.Locals("userID", user.ID)
	WithUserID(c, user.ID)
}

// CurrentUser returns the logged-in user, or nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(CurrentUserKey).(*models.User)
	return u
}

// CurrentUserID returns the logged-in user's ID, or 0 for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

// LoginRequired redirects anonymous requests to the login page, carrying
// the original path and query in "next".
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) != nil {
			return c.Next()
		}
		return c.Redirect(LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
	}
}

// LoginRedirectURL builds "/auth/login/?next=<next>" leaving slashes readable.
func LoginRedirectURL(next string) string {
	return LoginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext returns next when it is a local path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}
