package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, app *App, token, text, visibility string) postResponse {
	t.Helper()
	rec := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]string{
		"text":       text,
		"visibility": visibility,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post postResponse
	decodeBody(t, rec, &post)
	return post
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)
	aliceToken, aliceID := registerUser(t, app, "alice")

	t.Run("defaults to public", func(t *testing.T) {
		post := createPost(t, app, aliceToken, "hello world", "")
		require.Equal(t, "public", post.Visibility)
		require.Equal(t, aliceID, post.UserID)
		require.Equal(t, "alice", post.AuthorUsername)
	})

	t.Run("empty post rejected", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, map[string]string{"text": "   "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bogus visibility rejected", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, map[string]string{
			"text":       "hi",
			"visibility": "everyone-but-dave",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("multipart post with attachments", func(t *testing.T) {
		body, contentType := multipartBody(t,
			map[string]string{"text": "beach day", "visibility": "friends"},
			"attachments",
			map[string][]byte{"beach.png": pngBytes},
		)
		req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+aliceToken)
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var post postResponse
		decodeBody(t, rec, &post)
		require.Equal(t, "friends", post.Visibility)
		require.Len(t, post.Attachments, 1)
		require.Equal(t, "image/png", post.Attachments[0].MimeType)
	})
}

func TestPostVisibility(t *testing.T) {
	app := newTestApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")
	carolToken, _ := registerUser(t, app, "carol")
	edgeID := makeFriends(t, app, aliceToken, bobToken, "bob")

	public := createPost(t, app, aliceToken, "for everyone", "public")
	friendsOnly := createPost(t, app, aliceToken, "for friends", "friends")
	private := createPost(t, app, aliceToken, "for me", "private")

	getStatus := func(token, postID string) int {
		return doJSON(t, app, http.MethodGet, "/api/posts/"+postID, token, nil).Code
	}

	t.Run("owner sees everything", func(t *testing.T) {
		for _, post := range []postResponse{public, friendsOnly, private} {
			require.Equal(t, http.StatusOK, getStatus(aliceToken, post.ID))
		}
	})

	t.Run("friend sees public and friends-only", func(t *testing.T) {
		require.Equal(t, http.StatusOK, getStatus(bobToken, public.ID))
		require.Equal(t, http.StatusOK, getStatus(bobToken, friendsOnly.ID))
		require.Equal(t, http.StatusForbidden, getStatus(bobToken, private.ID))
	})

	t.Run("stranger sees public only", func(t *testing.T) {
		require.Equal(t, http.StatusOK, getStatus(carolToken, public.ID))
		require.Equal(t, http.StatusForbidden, getStatus(carolToken, friendsOnly.ID))
		require.Equal(t, http.StatusForbidden, getStatus(carolToken, private.ID))
	})

	t.Run("feed applies the same rule", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodGet, "/api/posts/feed", bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Posts []postResponse `json:"posts"`
		}
		decodeBody(t, rec, &resp)
		ids := make([]string, 0, len(resp.Posts))
		for _, post := range resp.Posts {
			ids = append(ids, post.ID)
		}
		require.ElementsMatch(t, []string{public.ID, friendsOnly.ID}, ids)
	})

	t.Run("unfriending revokes friends-only access", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodDelete, "/api/friends/"+edgeID, bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		require.Equal(t, http.StatusForbidden, getStatus(bobToken, friendsOnly.ID))
		require.Equal(t, http.StatusOK, getStatus(bobToken, public.ID))
	})
}

func TestFeedPagination(t *testing.T) {
	app := newTestApp(t)
	aliceToken, _ := registerUser(t, app, "alice")

	for i := 0; i < 25; i++ {
		createPost(t, app, aliceToken, fmt.Sprintf("post %d", i), "public")
	}

	fetch := func(page int) (posts []postResponse, pagination paginationResponse) {
		rec := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/feed?page=%d", page), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Posts      []postResponse     `json:"posts"`
			Pagination paginationResponse `json:"pagination"`
		}
		decodeBody(t, rec, &resp)
		return resp.Posts, resp.Pagination
	}

	posts, pagination := fetch(1)
	require.Len(t, posts, 10)
	require.Equal(t, "post 24", posts[0].Text)
	require.EqualValues(t, 25, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)
	require.True(t, pagination.HasMore)

	posts, pagination = fetch(3)
	require.Len(t, posts, 5)
	require.Equal(t, "post 0", posts[4].Text)
	require.False(t, pagination.HasMore)

	t.Run("page past the end is empty, not an error", func(t *testing.T) {
		posts, pagination := fetch(4)
		require.Empty(t, posts)
		require.False(t, pagination.HasMore)
	})

	t.Run("bad page rejected", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodGet, "/api/posts/feed?page=0", aliceToken, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLikes(t *testing.T) {
	app := newTestApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")
	post := createPost(t, app, aliceToken, "like this", "public")

	toggle := func(token string) (liked bool, likes int64) {
		rec := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/like", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Liked bool  `json:"liked"`
			Likes int64 `json:"likes"`
		}
		decodeBody(t, rec, &resp)
		return resp.Liked, resp.Likes
	}

	liked, likes := toggle(bobToken)
	require.True(t, liked)
	require.EqualValues(t, 1, likes)

	liked, likes = toggle(aliceToken)
	require.True(t, liked)
	require.EqualValues(t, 2, likes)

	t.Run("toggling off removes only the caller's like", func(t *testing.T) {
		liked, likes := toggle(bobToken)
		require.False(t, liked)
		require.EqualValues(t, 1, likes)
	})

	t.Run("post response reflects the viewer", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, aliceToken, nil)
		var got postResponse
		decodeBody(t, rec, &got)
		require.True(t, got.UserLiked)
		require.EqualValues(t, 1, got.Likes)

		rec = doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, bobToken, nil)
		decodeBody(t, rec, &got)
		require.False(t, got.UserLiked)
	})

	t.Run("liking an invisible post is forbidden", func(t *testing.T) {
		hidden := createPost(t, app, aliceToken, "secret", "private")
		rec := doJSON(t, app, http.MethodPost, "/api/posts/"+hidden.ID+"/like", bobToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestDeletePost(t *testing.T) {
	app := newTestApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")
	post := createPost(t, app, aliceToken, "short-lived", "public")

	t.Run("only the owner may delete", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID, bobToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner deletes and the post is gone", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, aliceToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
