package render

import (
	"html/template"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"yatube/internal/models"
)

var monthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"date":          formatDate,
		"linebreaksbr":  linebreaksbr,
		"truncatechars": truncateChars,
		"pageURL":       pageURL,
		"mediaURL":      func(key string) string { return "/media/" + key },
		"add":           func(a, b int) int { return a + b },
		"isAuthor":      isAuthor,
	}
}

// formatDate renders "2 января 2006".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.Itoa(t.Day()) + " " + monthsGenitive[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

func linebreaksbr(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")) //nolint:gosec // input escaped above
}

func truncateChars(n int, s string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

func pageURL(n int) string {
	return "?page=" + strconv.Itoa(n)
}

// isAuthor reports whether user (nil when anonymous) wrote the post with authorID.
func isAuthor(user *models.User, authorID uint) bool {
	return user != nil && user.ID == authorID
}
