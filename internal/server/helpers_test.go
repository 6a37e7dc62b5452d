package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sofianehd/linkup/internal/config"
	"github.com/sofianehd/linkup/internal/storage/sqlite"
)

// pngBytes starts with the PNG signature so content sniffing accepts it.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), []byte("not a real image body")...)

func newTestApp(t *testing.T) *App {
	t.Helper()

	store, err := sqlite.NewStore(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(t.Context()))

	cfg := config.ServerConfig{
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Issuer:     "linkup-test",
			Expiration: time.Hour,
		},
		Uploads: config.UploadConfig{
			Dir:      t.TempDir(),
			MaxBytes: 1 << 20,
		},
	}
	return NewApp(cfg, store)
}

func doJSON(t *testing.T, app *App, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

// registerUser creates an account through the API and returns its token and
// the user's ID.
func registerUser(t *testing.T, app *App, username string) (token, userID string) {
	t.Helper()
	rec := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp authResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

// makeFriends runs the request/accept flow and returns the friendship ID.
func makeFriends(t *testing.T, app *App, requesterToken, addresseeToken, addresseeUsername string) string {
	t.Helper()
	rec := doJSON(t, app, http.MethodPost, "/api/friends/request", requesterToken, map[string]string{"username": addresseeUsername})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var edge friendshipResponse
	decodeBody(t, rec, &edge)

	rec = doJSON(t, app, http.MethodPut, "/api/friends/"+edge.ID+"/accept", addresseeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return edge.ID
}

func multipartBody(t *testing.T, fields map[string]string, fileField string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, data := range files {
		part, err := writer.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error.Code
}
