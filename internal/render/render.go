// Package render implements fiber.Views over embedded html/template pages.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates
var templateFS embed.FS

const (
	layoutDir  = "layouts"
	includeDir = "includes"
	rootName   = "base"
)

// CSRFKey is the fiber Locals key the csrf middleware stores its token under.
const CSRFKey = "csrf"

// Engine renders pages. Every page is parsed together with the shared
// layout and includes into its own template set.
type Engine struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu     sync.RWMutex
	pages  map[string]*template.Template
	loaded bool
}

var _ fiber.Views = (*Engine)(nil)

// New returns an engine over the embedded templates.
func New() *Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return &Engine{fsys: sub, funcs: defaultFuncs()}
}

// AddFunc registers a template function; call before Load.
func (e *Engine) AddFunc(name string, fn any) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.funcs[name] = fn
	return e
}

// Load parses all pages. fiber calls it once at startup.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	shared, err := e.sharedFiles()
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template)
	err = fs.WalkDir(e.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" || isShared(p) {
			return nil
		}
		t, err := template.New(p).Funcs(e.funcs).ParseFS(e.fsys, append(shared, p)...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		pages[p] = t
		return nil
	})
	if err != nil {
		return err
	}

	e.pages = pages
	e.loaded = true
	return nil
}

func (e *Engine) sharedFiles() ([]string, error) {
	var files []string
	for _, dir := range []string{layoutDir, includeDir} {
		matches, err := fs.Glob(e.fsys, dir+"/*.html")
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func isShared(p string) bool {
	return strings.HasPrefix(p, layoutDir+"/") || strings.HasPrefix(p, includeDir+"/")
}

// Render executes the page name (e.g. "posts/index.html") inside the base layout.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("render: template %q does not exist", name)
	}
	return t.ExecuteTemplate(w, rootName, binding)
}

// Context adds the values every page receives: the current year,
// the logged-in user, the CSRF token and the request path.
func Context(c *fiber.Ctx, data fiber.Map) fiber.Map {
	out := fiber.Map{
		"year":         time.Now().Year(),
		"request_path": c.OriginalURL(),
		"user":         (*models.User)(nil),
		"csrf_token":   "",
	}
	if u := middleware.CurrentUser(c); u != nil {
		out["user"] = u
	}
	if token, ok := c.Locals(CSRFKey).(string); ok {
		out["csrf_token"] = token
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// Page renders name with the context processor applied.
func Page(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	c.Status(status)
	return c.Render(name, Context(c, data))
}
