package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatedListings(t *testing.T) {
	env := setupServer(t, func(c *config.Config) { c.IndexCacheTTL = 0 })
	author := env.createUser("leo")
	group := env.createGroup("cats")
	env.createPosts(author, group, 13)

	for _, base := range []string{"/", "/group/cats/", "/profile/leo/"} {
		t.Run(base, func(t *testing.T) {
			status, body, _ := env.get(base, nil)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, 10, strings.Count(body, `class="post-card"`))
			assert.Contains(t, body, "Post number 12")

			status, body, _ = env.get(base+"?page=2", nil)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, 3, strings.Count(body, `class="post-card"`))
			assert.Contains(t, body, "Post number 0")

			status, body, _ = env.get(base+"?page=99", nil)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, 3, strings.Count(body, `class="post-card"`))
		})
	}
}

func TestGroupPageListsOnlyGroupPosts(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	cats := env.createGroup("cats")
	dogs := env.createGroup("dogs")
	env.createPosts(author, cats, 1)
	require.NoError(t, env.db.Create(&models.Post{Text: "about dogs", AuthorID: author.ID, GroupID: &dogs.ID}).Error)

	status, body, _ := env.get("/group/cats/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Group cats")
	assert.Contains(t, body, "Post number 0")
	assert.NotContains(t, body, "about dogs")
}

func TestPostDetail(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	post := env.createPosts(author, nil, 1)[0]
	require.NoError(t, env.db.Create(&models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "first!"}).Error)

	status, body, _ := env.get(postURL(post.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Post number 0")
	assert.Contains(t, body, "first!")
	assert.NotContains(t, body, `name="text"`, "anonymous visitors get no comment form")

	_, body, _ = env.get(postURL(post.ID), author)
	assert.Contains(t, body, `name="text"`)
	assert.Contains(t, body, fmt.Sprintf("/posts/%d/edit", post.ID))
}

func TestCreatePost(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	group := env.createGroup("cats")

	status, body, _ := env.get("/create/", author)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `enctype="multipart/form-data"`)

	status, _, resp := env.postForm("/create/", url.Values{
		"text":  {"A brand new post"},
		"group": {fmt.Sprint(group.ID)},
	}, author)
	require.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	assert.EqualValues(t, 1, env.count(&models.Post{}))

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	assert.Equal(t, "A brand new post", post.Text)
	assert.Equal(t, author.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
}

func TestCreatePostInvalidForm(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")

	status, body, _ := env.postForm("/create/", url.Values{"text": {"   "}}, author)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Обязательное поле.")
	assert.EqualValues(t, 0, env.count(&models.Post{}))

	status, body, _ = env.postForm("/create/", url.Values{"text": {"hi"}, "group": {"999"}}, author)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "field-error")
	assert.EqualValues(t, 0, env.count(&models.Post{}))
}

func TestCreatePostWithImage(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")

	req := multipartPost(t, "/create/", map[string]string{"text": "with a picture"}, "small.gif", smallGIF(t))
	status, _, _ := env.do(req, author)
	require.Equal(t, http.StatusFound, status)

	var post models.Post
	require.NoError(t, env.db.First(&post).Error)
	assert.Equal(t, "posts/small.gif", post.Image)

	for _, path := range []string{"/", "/profile/leo/", postURL(post.ID)} {
		require.NoError(t, env.server.PageCache().Reset())
		_, body, _ := env.get(path, nil)
		assert.Contains(t, body, `src="/media/posts/small.gif"`, path)
	}

	status, _, _ = env.get("/media/posts/small.gif", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCreatePostRejectsNonImage(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")

	req := multipartPost(t, "/create/", map[string]string{"text": "not a picture"}, "notes.txt", []byte("plain text"))
	status, _, _ := env.do(req, author)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, env.count(&models.Post{}))
}

func TestEditPost(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	other := env.createUser("mia")
	post := env.createPosts(author, nil, 1)[0]
	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)

	t.Run("author sees the prefilled form", func(t *testing.T) {
		status, body, _ := env.get(editURL, author)
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Post number 0")
		assert.Contains(t, body, editURL)
	})

	t.Run("other users are redirected to the post", func(t *testing.T) {
		status, _, resp := env.get(editURL, other)
		require.Equal(t, http.StatusFound, status)
		assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))

		status, _, _ = env.postForm(editURL, url.Values{"text": {"hijacked"}}, other)
		require.Equal(t, http.StatusFound, status)

		var stored models.Post
		require.NoError(t, env.db.First(&stored, post.ID).Error)
		assert.Equal(t, "Post number 0", stored.Text)
	})

	t.Run("author saves changes", func(t *testing.T) {
		status, _, resp := env.postForm(editURL, url.Values{"text": {"edited text"}}, author)
		require.Equal(t, http.StatusFound, status)
		assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))

		var stored models.Post
		require.NoError(t, env.db.First(&stored, post.ID).Error)
		assert.Equal(t, "edited text", stored.Text)
		assert.EqualValues(t, 1, env.count(&models.Post{}))
	})
}

func TestDeletePost(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	other := env.createUser("mia")
	post := env.createPosts(author, nil, 1)[0]
	deleteURL := fmt.Sprintf("/posts/%d/delete/", post.ID)

	status, _, resp := env.postForm(deleteURL, url.Values{}, other)
	require.Equal(t, http.StatusFound, status)
	assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
	assert.EqualValues(t, 1, env.count(&models.Post{}))

	status, _, resp = env.postForm(deleteURL, url.Values{}, author)
	require.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	assert.EqualValues(t, 0, env.count(&models.Post{}))
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	post := env.createPosts(author, nil, 1)[0]

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/create/"},
		{http.MethodPost, "/create/"},
		{http.MethodGet, fmt.Sprintf("/posts/%d/edit/", post.ID)},
		{http.MethodPost, fmt.Sprintf("/posts/%d/edit/", post.ID)},
		{http.MethodPost, fmt.Sprintf("/posts/%d/comment/", post.ID)},
		{http.MethodGet, "/follow/"},
		{http.MethodGet, "/profile/leo/follow/"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var (
				status int
				resp   *http.Response
			)
			if tc.method == http.MethodGet {
				status, _, resp = env.get(tc.path, nil)
			} else {
				status, _, resp = env.postForm(tc.path, url.Values{"text": {"sneaky"}}, nil)
			}
			require.Equal(t, http.StatusFound, status)
			assert.Equal(t, "/auth/login/?next="+tc.path, resp.Header.Get("Location"))
		})
	}

	assert.EqualValues(t, 1, env.count(&models.Post{}))
	assert.EqualValues(t, 0, env.count(&models.Comment{}))
	assert.EqualValues(t, 0, env.count(&models.Follow{}))

	var stored models.Post
	require.NoError(t, env.db.First(&stored, post.ID).Error)
	assert.Equal(t, "Post number 0", stored.Text)
}

func TestAddComment(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	reader := env.createUser("mia")
	post := env.createPosts(author, nil, 1)[0]
	commentURL := fmt.Sprintf("/posts/%d/comment/", post.ID)

	status, _, resp := env.postForm(commentURL, url.Values{"text": {"Nice post"}}, reader)
	require.Equal(t, http.StatusFound, status)
	assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
	assert.EqualValues(t, 1, env.count(&models.Comment{}))

	status, _, _ = env.postForm(commentURL, url.Values{"text": {"  "}}, reader)
	require.Equal(t, http.StatusFound, status)
	assert.EqualValues(t, 1, env.count(&models.Comment{}), "empty comments are dropped")

	_, body, _ := env.get(postURL(post.ID), nil)
	assert.Contains(t, body, "Nice post")

	status, _, _ = env.postForm("/posts/999/comment/", url.Values{"text": {"lost"}}, reader)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIndexPageCache(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	env.createPosts(author, nil, 1)

	_, first, resp := env.get("/", nil)
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))

	require.NoError(t, env.db.Create(&models.Post{Text: "fresh post", AuthorID: author.ID}).Error)

	_, cached, resp := env.get("/", nil)
	assert.Equal(t, "hit", resp.Header.Get("X-Cache"))
	assert.Equal(t, first, cached)
	assert.NotContains(t, cached, "fresh post")

	require.NoError(t, env.server.PageCache().Reset())

	_, fresh, _ := env.get("/", nil)
	assert.NotEqual(t, first, fresh)
	assert.Contains(t, fresh, "fresh post")
}

func TestIndexPageCacheIsPerViewer(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")

	_, anon, _ := env.get("/", nil)
	_, logged, resp := env.get("/", author)
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))
	assert.NotContains(t, anon, "/create/")
	assert.Contains(t, logged, "/create/")
}

func TestFollowAndFeed(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("leo")
	reader := env.createUser("mia")
	stranger := env.createUser("kit")
	require.NoError(t, env.db.Create(&models.Post{Text: "for followers", AuthorID: author.ID}).Error)

	for i := 0; i < 2; i++ {
		status, _, resp := env.get("/profile/leo/follow/", reader)
		require.Equal(t, http.StatusFound, status)
		assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	}
	assert.EqualValues(t, 1, env.count(&models.Follow{}, "user_id = ? AND author_id = ?", reader.ID, author.ID))

	_, body, _ := env.get("/profile/leo/", reader)
	assert.Contains(t, body, "/profile/leo/unfollow")

	_, feed, _ := env.get("/follow/", reader)
	assert.Contains(t, feed, "for followers")

	_, other, _ := env.get("/follow/", stranger)
	assert.NotContains(t, other, "for followers")

	for i := 0; i < 2; i++ {
		status, _, _ := env.get("/profile/leo/unfollow/", reader)
		require.Equal(t, http.StatusFound, status)
	}
	assert.EqualValues(t, 0, env.count(&models.Follow{}))

	_, feed, _ = env.get("/follow/", reader)
	assert.NotContains(t, feed, "for followers")
}

func TestSelfFollow(t *testing.T) {
	tests := []struct {
		name  string
		flags string
		want  int64
	}{
		{"allowed by default", "", 1},
		{"forbidden by flag", "forbid_self_follow=on", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupServer(t, func(c *config.Config) { c.FeatureFlags = tt.flags })
			user := env.createUser("leo")

			status, _, _ := env.get("/profile/leo/follow/", user)
			require.Equal(t, http.StatusFound, status)
			assert.Equal(t, tt.want, env.count(&models.Follow{}))
		})
	}
}

func TestNonASCIIUsernameRoutes(t *testing.T) {
	env := setupServer(t)
	author := env.createUser("Иван")
	reader := env.createUser("mia")
	require.NoError(t, env.db.Create(&models.Post{Text: "Привет, мир", AuthorID: author.ID}).Error)

	profile := "/profile/" + url.PathEscape("Иван") + "/"
	require.Equal(t, "/profile/%D0%98%D0%B2%D0%B0%D0%BD/", profile)

	status, body, _ := env.get(profile, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Привет, мир")

	status, _, resp := env.get(profile+"follow/", reader)
	require.Equal(t, http.StatusFound, status)
	assert.Equal(t, profile, resp.Header.Get("Location"))
	assert.EqualValues(t, 1, env.count(&models.Follow{}, "user_id = ? AND author_id = ?", reader.ID, author.ID))

	_, body, _ = env.get("/profile/mia/", reader)
	assert.Contains(t, body, "Подписок: 1")

	status, _, resp = env.get(profile+"unfollow/", reader)
	require.Equal(t, http.StatusFound, status)
	assert.Equal(t, profile, resp.Header.Get("Location"))
	assert.EqualValues(t, 0, env.count(&models.Follow{}))

	status, _, resp = env.postForm("/create/", url.Values{"text": {"Новый пост"}}, author)
	require.Equal(t, http.StatusFound, status)
	assert.Equal(t, profile, resp.Header.Get("Location"))
}
