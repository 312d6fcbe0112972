package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/services"
)

func newTestHandler(t *testing.T) (*Handler, *mocks.MockIAuthService, *mocks.MockIChatService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	authMock := mocks.NewMockIAuthService(ctrl)
	chatMock := mocks.NewMockIChatService(ctrl)
	return New(slog.Default(), authMock, chatMock), authMock, chatMock
}

func do(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Signup(t *testing.T) {
	t.Run("should create the account and return 201 with a token", func(t *testing.T) {
		req := require.New(t)
		handler, authMock, _ := newTestHandler(t)

		authMock.EXPECT().
			Register("alice", "alice@example.com", "ComplexPass123!").
			Return(services.Token("jwt-token"), repositories.User{ID: "user-1", Username: "alice"}, nil)

		rec := do(t, handler, http.MethodPost, "/api/auth/signup",
			`{"username":"alice","email":"alice@example.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusCreated, rec.Code)
		var resp AuthResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.True(resp.Success)
		req.Equal("jwt-token", resp.Token)
		req.Equal("user-1", resp.User.ID)
		req.Equal("alice", resp.User.Username)
	})

	t.Run("should return 409 when the email is taken", func(t *testing.T) {
		req := require.New(t)
		handler, authMock, _ := newTestHandler(t)

		authMock.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(services.Token(""), repositories.User{}, errors.ErrUserAlreadyExists)

		rec := do(t, handler, http.MethodPost, "/api/auth/signup",
			`{"username":"alice","email":"taken@example.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusConflict, rec.Code)
	})

	t.Run("should return 400 on a weak password", func(t *testing.T) {
		req := require.New(t)
		handler, authMock, _ := newTestHandler(t)

		authMock.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(services.Token(""), repositories.User{}, errors.ErrInvalidPassword)

		rec := do(t, handler, http.MethodPost, "/api/auth/signup",
			`{"username":"alice","email":"alice@example.com","password":"weak"}`)

		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("should return 400 on malformed JSON without touching the service", func(t *testing.T) {
		req := require.New(t)
		handler, _, _ := newTestHandler(t)

		rec := do(t, handler, http.MethodPost, "/api/auth/signup", `{not json`)

		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("should reject GET", func(t *testing.T) {
		req := require.New(t)
		handler, _, _ := newTestHandler(t)

		rec := do(t, handler, http.MethodGet, "/api/auth/signup", "")

		req.Equal(http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandler_Login(t *testing.T) {
	t.Run("should return 200 with a token on valid credentials", func(t *testing.T) {
		req := require.New(t)
		handler, authMock, _ := newTestHandler(t)

		authMock.EXPECT().
			Login("alice@example.com", "ComplexPass123!").
			Return(services.Token("jwt-token"), repositories.User{ID: "user-1", Username: "alice"}, nil)

		rec := do(t, handler, http.MethodPost, "/api/auth/login",
			`{"email":"alice@example.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusOK, rec.Code)
		var resp AuthResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.True(resp.Success)
		req.Equal("jwt-token", resp.Token)
	})

	t.Run("should return the same 401 body for any failure", func(t *testing.T) {
		req := require.New(t)
		handler, authMock, _ := newTestHandler(t)

		authMock.EXPECT().
			Login(gomock.Any(), gomock.Any()).
			Return(services.Token(""), repositories.User{}, errors.ErrInvalidCredentials).
			Times(2)

		unknownEmail := do(t, handler, http.MethodPost, "/api/auth/login",
			`{"email":"ghost@example.com","password":"ComplexPass123!"}`)
		wrongPassword := do(t, handler, http.MethodPost, "/api/auth/login",
			`{"email":"alice@example.com","password":"WrongPass123!"}`)

		req.Equal(http.StatusUnauthorized, unknownEmail.Code)
		req.Equal(http.StatusUnauthorized, wrongPassword.Code)
		// Identical body in both cases prevents user enumeration.
		req.Equal(unknownEmail.Body.String(), wrongPassword.Body.String())
	})
}

func TestHandler_Messages(t *testing.T) {
	t.Run("should return a page with its cursor", func(t *testing.T) {
		req := require.New(t)
		handler, _, chatMock := newTestHandler(t)

		before := "cursor-0"
		next := "cursor-1"
		expected := []chat.Message{
			{ID: uuid.New(), SenderID: "user-1", SenderName: "alice", Text: "hi", CreatedAt: time.Now().UTC()},
		}
		chatMock.EXPECT().
			GetMessages(chat.GetMessagesCommand{Limit: 10, Before: &before}).
			Return(expected, &next, nil)

		rec := do(t, handler, http.MethodGet, "/api/chat/messages?limit=10&before=cursor-0", "")

		req.Equal(http.StatusOK, rec.Code)
		var resp MessagesResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.True(resp.Success)
		req.Len(resp.Messages, 1)
		req.Equal("hi", resp.Messages[0].Text)
		req.NotNil(resp.Next)
		req.Equal(next, *resp.Next)
	})

	t.Run("should return 503 when the store is down", func(t *testing.T) {
		req := require.New(t)
		handler, _, chatMock := newTestHandler(t)

		chatMock.EXPECT().
			GetMessages(gomock.Any()).
			Return(nil, nil, errors.ErrStoreUnavailable)

		rec := do(t, handler, http.MethodGet, "/api/chat/messages", "")

		req.Equal(http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandler_Search(t *testing.T) {
	t.Run("should return matches for the query terms", func(t *testing.T) {
		req := require.New(t)
		handler, _, chatMock := newTestHandler(t)

		expected := []chat.Message{{ID: uuid.New(), Text: "pipeline is green"}}
		chatMock.EXPECT().
			SearchMessages(gomock.Any(), chat.SearchMessagesCommand{Terms: "pipeline", Limit: 5}).
			Return(expected, nil)

		rec := do(t, handler, http.MethodGet, "/api/chat/messages/search?q=pipeline&limit=5", "")

		req.Equal(http.StatusOK, rec.Code)
		var resp MessagesResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.Len(resp.Messages, 1)
	})

	t.Run("should return 400 without q", func(t *testing.T) {
		req := require.New(t)
		handler, _, _ := newTestHandler(t)

		rec := do(t, handler, http.MethodGet, "/api/chat/messages/search", "")

		req.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Health(t *testing.T) {
	req := require.New(t)
	handler, _, _ := newTestHandler(t)

	rec := do(t, handler, http.MethodGet, "/healthz", "")

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("ok", rec.Body.String())
}
