package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chapter-participation-api/internal/middleware"
	"github.com/noah-isme/chapter-participation-api/internal/models"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
)

type authServiceMock struct {
	last models.LoginRequest
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.last = req
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", ExpiresIn: 3600, IssuedAt: time.Unix(0, 0).UTC()}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	mock := &authServiceMock{}
	c, w := newTestContext(http.MethodPost, "/auth/login", []byte(`{"username":"advisor","password":"secret"}`))

	NewAuthHandler(mock).Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "advisor", mock.last.Username)
	var res models.LoginResponse
	decodeData(t, w, &res)
	assert.Equal(t, "token", res.AccessToken)
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	c, w := newTestContext(http.MethodPost, "/auth/login", []byte(`{"username":"advisor","password":"nope"}`))

	NewAuthHandler(&authServiceMock{}).Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{})

	c, w := newTestContext(http.MethodGet, "/auth/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "advisor"})
	handler.Me(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"advisor"`)
}
