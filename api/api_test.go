package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	webmail "github.com/emailapp/webmail"
	"github.com/emailapp/webmail/store/memory"
	"github.com/emailapp/webmail/summary"
)

var testJWTKey = []byte("0123456789abcdef0123456789abcdef")

func setupApp(t *testing.T) (*fiber.App, webmail.Service) {
	t.Helper()

	svc, err := webmail.NewService(
		webmail.WithStore(memory.New()),
		webmail.WithSummarizer(&summary.Static{
			Summary: "Meeting moved to Friday.",
			Replies: []string{"Works for me.", "I'll be there.", "Can we talk first?"},
		}),
	)
	require.NoError(t, err)
	require.NoError(t, svc.Connect(context.Background()))
	t.Cleanup(func() { svc.Close(context.Background()) })

	srv, err := NewServer(svc, testJWTKey)
	require.NoError(t, err)
	return srv.App(), svc
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func signup(t *testing.T, app *fiber.App, username string) UserResponse {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/users/signup", "", SignupRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[UserResponse](t, resp)
}

func login(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", LoginRequest{
		Username: username,
		Password: "correct-horse",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return decode[LoginResponse](t, resp).Token
}

func TestNewServer(t *testing.T) {
	svc, err := webmail.NewService(webmail.WithStore(memory.New()))
	require.NoError(t, err)

	_, err = NewServer(nil, testJWTKey)
	require.Error(t, err)

	_, err = NewServer(svc, nil)
	require.Error(t, err)

	srv, err := NewServer(svc, testJWTKey)
	require.NoError(t, err)
	require.NotNil(t, srv)
}

func TestSignupAndLogin(t *testing.T) {
	app, _ := setupApp(t)

	user := signup(t, app, "alice")
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEmpty(t, user.ID)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/users/signup", "", SignupRequest{
			Username: "alice",
			Email:    "other@example.com",
			Password: "correct-horse",
		})
		require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("short password rejected", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/users/signup", "", SignupRequest{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "short",
		})
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login issues token", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", LoginRequest{
			Username: "alice",
			Password: "correct-horse",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decode[LoginResponse](t, resp)
		require.NotEmpty(t, body.Token)
		require.Equal(t, user.ID, body.User.ID)
	})

	t.Run("wrong password unauthorized", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", LoginRequest{
			Username: "alice",
			Password: "wrong-password",
		})
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user unauthorized", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", LoginRequest{
			Username: "nobody",
			Password: "correct-horse",
		})
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestTokenValidation(t *testing.T) {
	app, _ := setupApp(t)
	signup(t, app, "alice")
	token := login(t, app, "alice")

	t.Run("validate returns account", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/auth/validate", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, "alice", decode[UserResponse](t, resp).Username)
	})

	t.Run("me returns account", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/users/me", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, "alice", decode[UserResponse](t, resp).Username)
	})

	t.Run("missing token", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/users/me", "", nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/users/me", "not.a.token", nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		otherSvc, err := webmail.NewService(webmail.WithStore(memory.New()))
		require.NoError(t, err)
		other, err := NewServer(otherSvc, []byte("another-key-entirely-32-bytes!!!"))
		require.NoError(t, err)
		forged, _, err := other.issueToken("some-user", "alice", time.Now().UTC())
		require.NoError(t, err)

		resp := doJSON(t, app, fiber.MethodGet, "/api/users/me", forged, nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMailRoutes(t *testing.T) {
	app, _ := setupApp(t)

	signup(t, app, "alice")
	bob := signup(t, app, "bob")
	aliceToken := login(t, app, "alice")
	bobToken := login(t, app, "bob")

	var mailID string

	t.Run("send", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/mails/send", aliceToken, SendMailRequest{
			Recipients: []string{"bob@example.com"},
			Subject:    "Standup",
			Body:       "Moved to 10am.",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decode[SendMailResponse](t, resp)
		require.NotEmpty(t, body.MailID)
		require.Equal(t, []string{bob.ID}, body.RecipientIDs)
		mailID = body.MailID
	})

	t.Run("send requires auth", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/mails/send", "", SendMailRequest{
			Recipients: []string{bob.ID},
			Subject:    "x",
			Body:       "y",
		})
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown recipient is not found", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/mails/send", aliceToken, SendMailRequest{
			Recipients: []string{"ghost@example.com"},
			Subject:    "x",
			Body:       "y",
		})
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("empty subject is a bad request", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/mails/send", aliceToken, SendMailRequest{
			Recipients: []string{bob.ID},
			Subject:    "   ",
			Body:       "y",
		})
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("inbox", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/mails/inbox", bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decode[MailListResponse](t, resp)
		require.Equal(t, 1, body.Count)
		require.Equal(t, "Standup", body.Mails[0].Subject)
		require.Equal(t, "alice@example.com", body.Mails[0].SenderEmail)
		require.False(t, body.Mails[0].IsRead)
	})

	t.Run("sent", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/mails/sent", aliceToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, 1, decode[MailListResponse](t, resp).Count)
	})

	t.Run("unread count", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/mails/unread", bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, int64(1), decode[UnreadCountResponse](t, resp).UnreadCount)
	})

	t.Run("get mail", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/mails/"+mailID, bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, "Moved to 10am.", decode[MailResponse](t, resp).Body)
	})

	t.Run("other users cannot see the mail", func(t *testing.T) {
		signup(t, app, "carol")
		carolToken := login(t, app, "carol")

		resp := doJSON(t, app, fiber.MethodGet, "/api/mails/"+mailID, carolToken, nil)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("mark read", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, "/api/mails/"+mailID+"/read", bobToken, nil)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		resp = doJSON(t, app, fiber.MethodGet, "/api/mails/unread", bobToken, nil)
		require.Equal(t, int64(0), decode[UnreadCountResponse](t, resp).UnreadCount)
	})

	t.Run("toggle star", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, "/api/mails/"+mailID+"/star", bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.True(t, decode[StarResponse](t, resp).IsStarred)

		resp = doJSON(t, app, fiber.MethodPut, "/api/mails/"+mailID+"/star", bobToken, nil)
		require.False(t, decode[StarResponse](t, resp).IsStarred)
	})

	t.Run("summary and replies", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/mails/"+mailID+"/summary", bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, "Meeting moved to Friday.", decode[SummaryResponse](t, resp).Summary)

		resp = doJSON(t, app, fiber.MethodGet, "/api/mails/"+mailID+"/replies", bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Len(t, decode[SmartRepliesResponse](t, resp).Replies, 3)
	})

	t.Run("delete to trash then purge path", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodDelete, "/api/mails/"+mailID, bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decode[DeleteResponse](t, resp)
		require.True(t, body.Trashed)
		require.False(t, body.Purged)

		resp = doJSON(t, app, fiber.MethodGet, "/api/mails/trash", bobToken, nil)
		require.Equal(t, 1, decode[MailListResponse](t, resp).Count)

		resp = doJSON(t, app, fiber.MethodDelete, "/api/mails/"+mailID, bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.False(t, decode[DeleteResponse](t, resp).Trashed)

		resp = doJSON(t, app, fiber.MethodDelete, "/api/mails/"+mailID, bobToken, nil)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown mail id", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/mails/3f0e8f2a-9a1e-4b57-8e43-2f0a9c1b7d11", aliceToken, nil)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	app, svc := setupApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/healthz", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, svc.Close(context.Background()))

	resp = doJSON(t, app, fiber.MethodGet, "/healthz", "", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestErrorPayload(t *testing.T) {
	app, _ := setupApp(t)

	resp := doJSON(t, app, fiber.MethodPost, "/api/users/signup", "", SignupRequest{
		Username: "x",
		Email:    "bad",
		Password: "correct-horse",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decode[ErrorResponse](t, resp)
	require.NotEmpty(t, body.Error)
	require.NotContains(t, body.Error, "internal")
}

func ExampleNewServer() {
	svc, _ := webmail.NewService(webmail.WithStore(memory.New()))
	srv, _ := NewServer(svc, []byte("example-signing-key"))
	app := srv.App()
	fmt.Println(app != nil)
	// Output: true
}
