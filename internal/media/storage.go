package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadObject is one object to store under Prefix.
type UploadObject struct {
	Prefix   string
	FileName string
	Mime     string
	Data     []byte
}

// Storage persists media objects and resolves them to public URLs.
type Storage interface {
	// Save stores the object and returns its key, which is unique within the storage.
	Save(ctx context.Context, object *UploadObject) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Name() string
}

type localStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage stores objects under root and serves them from baseURL.
func NewLocalStorage(root, baseURL string) Storage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &localStorage{root: root, baseURL: baseURL}
}

func (s *localStorage) Name() string { return "local" }

// Save keeps the client file name and appends a short random suffix on collision.
func (s *localStorage) Save(_ context.Context, object *UploadObject) (string, error) {
	key := path.Join(object.Prefix, object.FileName)
	abs, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return "", err
	}

	for attempt := 0; attempt < 5; attempt++ {
		f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			ext := path.Ext(object.FileName)
			stem := strings.TrimSuffix(object.FileName, ext)
			key = path.Join(object.Prefix, fmt.Sprintf("%s_%s%s", stem, uuid.NewString()[:7], ext))
			if abs, err = s.path(key); err != nil {
				return "", err
			}
			continue
		}
		if err != nil {
			return "", err
		}
		_, werr := f.Write(object.Data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(abs)
			return "", errors.Join(werr, cerr)
		}
		return key, nil
	}
	return "", fmt.Errorf("media: no free name for %s", object.FileName)
}

func (s *localStorage) Delete(_ context.Context, key string) error {
	abs, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *localStorage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + key
}

func (s *localStorage) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("media: invalid key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
