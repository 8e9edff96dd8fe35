package authapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invox/internal/auth"
	"github.com/MrJamesThe3rd/invox/internal/http/authapi"
	"github.com/MrJamesThe3rd/invox/internal/http/authmw"
	"github.com/MrJamesThe3rd/invox/internal/user"
)

func newTestServer(t *testing.T, repo *user.MockRepository) (http.Handler, *auth.TokenManager) {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := authapi.NewHandler(user.NewService(repo, tokens))

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		handler.PublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(tokens))
			handler.ProtectedRoutes(r)
		})
	})

	return router, tokens
}

func doRequest(handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().UsernameExists(gomock.Any(), "alice").Return(false, nil)
	repo.EXPECT().EmailInUse(gomock.Any(), "alice@x.io", int64(0)).Return(false, nil)
	repo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *user.User) error {
			u.ID = 1
			return nil
		})

	handler, _ := newTestServer(t, repo)

	rec := doRequest(handler, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice","email":"alice@x.io","password":"pw1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Registration successful!","userId":1}`, rec.Body.String())
}

func TestHandler_Register_DuplicateEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().UsernameExists(gomock.Any(), "alice2").Return(false, nil)
	repo.EXPECT().EmailInUse(gomock.Any(), "alice@x.io", int64(0)).Return(true, nil)

	handler, _ := newTestServer(t, repo)

	// Same normalized email as an existing account.
	rec := doRequest(handler, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice2","email":"ALICE@x.io","password":"pw1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Login(t *testing.T) {
	hash, salt, err := auth.HashPassword("pw1")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		GetUserByEmail(gomock.Any(), "alice@x.io").
		Return(&user.User{ID: 1, Username: "alice", Email: "alice@x.io", PasswordHash: hash, PasswordSalt: salt}, nil)

	handler, tokens := newTestServer(t, repo)

	rec := doRequest(handler, http.MethodPost, "/api/auth/login", "",
		`{"email":"alice@x.io","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The body is the bare token as a JSON string.
	var token string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
}

func TestHandler_Login_BadCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		GetUserByEmail(gomock.Any(), "nobody@x.io").
		Return(nil, user.ErrNotFound)

	handler, _ := newTestServer(t, repo)

	rec := doRequest(handler, http.MethodPost, "/api/auth/login", "",
		`{"email":"nobody@x.io","password":"pw1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
}

func TestHandler_Me(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		GetUserByID(gomock.Any(), int64(1)).
		Return(&user.User{ID: 1, Username: "alice", Email: "alice@x.io", PasswordHash: []byte("h"), PasswordSalt: []byte("s")}, nil)

	handler, tokens := newTestServer(t, repo)

	token, err := tokens.Issue(1, "alice", "alice@x.io")
	require.NoError(t, err)

	rec := doRequest(handler, http.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Only username and email leave the service; never hash or salt.
	assert.JSONEq(t, `{"username":"alice","email":"alice@x.io"}`, rec.Body.String())
}

func TestHandler_Me_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, _ := newTestServer(t, user.NewMockRepository(ctrl))

	rec := doRequest(handler, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ChangePassword(t *testing.T) {
	hash, salt, err := auth.HashPassword("old")
	require.NoError(t, err)

	stored := &user.User{ID: 1, PasswordHash: hash, PasswordSalt: salt}

	t.Run("WrongOld", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := user.NewMockRepository(ctrl)
		repo.EXPECT().GetUserByID(gomock.Any(), int64(1)).Return(stored, nil)

		handler, tokens := newTestServer(t, repo)
		token, err := tokens.Issue(1, "alice", "alice@x.io")
		require.NoError(t, err)

		rec := doRequest(handler, http.MethodPost, "/api/auth/change-password", token,
			`{"oldPassword":"wrong","newPassword":"new"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "old password is incorrect")
	})

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := user.NewMockRepository(ctrl)
		repo.EXPECT().GetUserByID(gomock.Any(), int64(1)).Return(stored, nil)
		repo.EXPECT().UpdatePassword(gomock.Any(), int64(1), gomock.Any(), gomock.Any()).Return(nil)

		handler, tokens := newTestServer(t, repo)
		token, err := tokens.Issue(1, "alice", "alice@x.io")
		require.NoError(t, err)

		rec := doRequest(handler, http.MethodPost, "/api/auth/change-password", token,
			`{"oldPassword":"old","newPassword":"new"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandler_UpdateEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().EmailInUse(gomock.Any(), "new@x.io", int64(1)).Return(false, nil)
	repo.EXPECT().UpdateEmail(gomock.Any(), int64(1), "new@x.io").Return(nil)

	handler, tokens := newTestServer(t, repo)
	token, err := tokens.Issue(1, "alice", "alice@x.io")
	require.NoError(t, err)

	// The body is a bare JSON string.
	rec := doRequest(handler, http.MethodPost, "/api/auth/update-email", token, `"NEW@x.io"`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"new@x.io","message":"Email updated successfully."}`, rec.Body.String())
}
