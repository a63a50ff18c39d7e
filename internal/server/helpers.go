package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/render"

	"github.com/gofiber/fiber/v2"
)

// parseID reads a positive numeric route parameter. Anything else is a 404,
// matching a route that only accepts integers.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// postValues collects the raw post form fields. A missing file is not an error.
func postValues(c *fiber.Ctx) forms.PostValues {
	v := forms.PostValues{
		Text:  c.FormValue("text"),
		Group: c.FormValue("group"),
	}
	if fh, err := c.FormFile("image"); err == nil {
		v.Image = fh
	}
	return v
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// ErrorHandler renders 404s with the custom page and everything else as plain text.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	var appErr *models.AppError
	switch {
	case errors.As(err, &fe):
		status, message = fe.Code, fe.Message
	case errors.As(err, &appErr):
		status = appErr.Status()
		if status < fiber.StatusInternalServerError {
			message = appErr.Message
		}
	}

	if status == fiber.StatusNotFound {
		if rerr := render.Page(c, fiber.StatusNotFound, "core/404.html", fiber.Map{"path": c.Path()}); rerr == nil {
			return nil
		}
		message = "Not Found"
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		message = "Internal Server Error"
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(status).SendString(message)
}

// errorMessage is the user-facing message of an AppError.
func errorMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
