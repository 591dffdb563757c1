package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/babbageLabs/insta-lite/internal/bootstrap"
	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/server"
	"github.com/babbageLabs/insta-lite/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testPassword = "Sunny-Day-2024!"

var userSeq atomic.Int64

// setupApp builds the full API over an in-memory SQLite database, an
// in-memory blob store and no Redis.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           "integration-secret-0123456789abcdef0123456789",
		FeatureFlags:        "follow_notifications=on",
		FeedSyncFanoutLimit: 1000,
	}
	srv, err := server.NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil,
		bootstrap.BuildOptions{Store: testutil.NewMemoryBlobStore()})
	require.NoError(t, err)
	return srv.NewApp()
}

type account struct {
	ID       uint
	Username string
	Email    string
	Token    string
}

func signup(t *testing.T, app *fiber.App, prefix string) account {
	t.Helper()
	n := userSeq.Add(1)
	acc := account{
		Username: fmt.Sprintf("%s_%d", prefix, n),
		Email:    fmt.Sprintf("%s_%d@example.com", prefix, n),
	}
	res := call(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": acc.Username,
		"email":    acc.Email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, readBody(t, res))

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decode(t, res, &body)
	acc.ID, acc.Token = body.User.ID, body.Token
	return acc
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
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
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func upload(t *testing.T, app *fiber.App, token string, image []byte, description string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", "pic.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("description", description))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decode(t *testing.T, res *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	raw, _ := io.ReadAll(res.Body)
	res.Body = io.NopCloser(bytes.NewReader(raw))
	return string(raw)
}
