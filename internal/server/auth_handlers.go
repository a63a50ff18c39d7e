package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/render"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SignupPage renders the empty registration form.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return render.Page(c, fiber.StatusOK, "users/signup.html", fiber.Map{
		"values": service.SignupInput{},
	})
}

// Signup registers a user and logs them in straight away.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.SignupInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		FirstName:       c.FormValue("first_name"),
		LastName:        c.FormValue("last_name"),
		Password:        c.FormValue("password1"),
		PasswordConfirm: c.FormValue("password2"),
	}

	user, err := s.userService.Signup(c.UserContext(), in)
	if err != nil {
		if !models.HasCode(err, models.CodeValidation) {
			return err
		}
		in.Password, in.PasswordConfirm = "", ""
		return render.Page(c, fiber.StatusOK, "users/signup.html", fiber.Map{
			"values": in,
			"error":  errorMessage(err),
		})
	}

	if err := s.sessions.Issue(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// LoginPage renders the login form, keeping the page to return to.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return render.Page(c, fiber.StatusOK, "users/login.html", fiber.Map{
		"next": c.Query("next"),
	})
}

// Login checks the credentials and sends the user back to next.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := c.FormValue("next", c.Query("next"))

	user, err := s.userService.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		if !models.HasCode(err, models.CodeUnauthorized) && !models.HasCode(err, models.CodeValidation) {
			return err
		}
		return render.Page(c, fiber.StatusOK, "users/login.html", fiber.Map{
			"error":    errorMessage(err),
			"username": username,
			"next":     next,
		})
	}

	if err := s.sessions.Issue(c, user); err != nil {
		return err
	}
	return c.Redirect(middleware.SafeNext(next, "/"), fiber.StatusFound)
}

// Logout ends the session.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.sessions.Revoke(c)
	return render.Page(c, fiber.StatusOK, "users/logged_out.html", fiber.Map{})
}
