package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallGIF is a 2x1 GIF image.
var smallGIF, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAgABAIAAAAAAAP///yH5BAAAAAAALAAAAAACAAEAAAICDAoAOw==")

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	up, err := Inspect("small.gif", smallGIF)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", up.ContentType)
	assert.Equal(t, "small.gif", up.Name)
	assert.Equal(t, 2, up.Width)

	_, err = Inspect("notes.txt", []byte("plain text, not an image"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = Inspect("empty.png", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "cat.png", SanitizeName("../../etc/cat.png", "png"))
	assert.Equal(t, "my_cat.jpeg", SanitizeName(`C:\photos\my cat.jpeg`, "jpeg"))
	assert.Equal(t, "image.gif", SanitizeName("...", "gif"))
	assert.Equal(t, "photo.png", SanitizeName("photo", "png"))
}

func TestLocalStorageSaveKeepsNameAndAvoidsCollisions(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStorage(root, "/media")
	ctx := context.Background()

	key, err := store.Save(ctx, &UploadObject{Prefix: PostsPrefix, FileName: "small.gif", Data: smallGIF})
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", key)
	assert.Equal(t, "/media/posts/small.gif", store.URL(key))

	again, err := store.Save(ctx, &UploadObject{Prefix: PostsPrefix, FileName: "small.gif", Data: smallGIF})
	require.NoError(t, err)
	assert.NotEqual(t, key, again)
	assert.Regexp(t, `^posts/small_[0-9a-f-]{7}\.gif$`, again)

	onDisk, err := os.ReadFile(filepath.Join(root, "posts", "small.gif"))
	require.NoError(t, err)
	assert.Equal(t, smallGIF, onDisk)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "posts", "small.gif"))
	assert.True(t, os.IsNotExist(err))
}

func TestServiceStoreWithThumbnail(t *testing.T) {
	store := NewLocalStorage(t.TempDir(), "/media/")
	svc := NewService(store, true)

	up, err := Inspect("wide.png", pngBytes(t, 2000, 10))
	require.NoError(t, err)

	imageKey, thumbKey, err := svc.Store(context.Background(), up)
	require.NoError(t, err)
	assert.Equal(t, "posts/wide.png", imageKey)
	assert.Equal(t, "posts/thumbs/wide.webp", thumbKey)
	assert.Equal(t, "/media/posts/thumbs/wide.webp", svc.URL(thumbKey))
}

func TestThumbnailFitsBounds(t *testing.T) {
	data, err := Thumbnail(pngBytes(t, 2000, 1000))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, ThumbMaxSize, cfg.Width)
	assert.Equal(t, ThumbMaxSize/2, cfg.Height)
}
