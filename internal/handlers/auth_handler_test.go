package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"examportal/internal/config"
	"examportal/internal/models"
	"examportal/internal/services/dto"
	"examportal/internal/validator"
	"examportal/pkg/apperrors"
	"examportal/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeAuthService returns canned results so the handler's HTTP behavior can
// be tested in isolation.
type fakeAuthService struct {
	refreshErr   error
	seenRefresh  string
	refreshCalls int
}

func (s *fakeAuthService) Register(_ *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, string, error) {
	return &dto.AuthResponse{
		ID:          "user-1",
		Name:        req.Name,
		Email:       req.Email,
		Role:        models.UserRoleStudent,
		AccessToken: "access-token-1",
	}, "refresh-token-1", nil
}

func (s *fakeAuthService) Login(_ *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, string, error) {
	if req.Password != "password123" {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	return &dto.AuthResponse{
		ID:          "user-1",
		Email:       req.Email,
		Role:        models.UserRoleStudent,
		AccessToken: "access-token-1",
	}, "refresh-token-1", nil
}

func (s *fakeAuthService) Refresh(_ *gorm.DB, refreshToken string) (*dto.RefreshResponse, string, error) {
	s.refreshCalls++
	s.seenRefresh = refreshToken
	if s.refreshErr != nil {
		return nil, "", s.refreshErr
	}
	return &dto.RefreshResponse{AccessToken: "access-token-2"}, "refresh-token-2", nil
}

func (s *fakeAuthService) VerifyEmail(_ *gorm.DB, userID, code string) (*models.User, error) {
	if code != "123456" {
		return nil, apperrors.ErrInvalidCode
	}
	user := &models.User{EmailVerified: true}
	user.ID = userID
	return user, nil
}

func (s *fakeAuthService) ResendVerification(_ *gorm.DB, _ string) error { return nil }

func (s *fakeAuthService) Profile(_ *gorm.DB, userID string) (*models.User, error) {
	user := &models.User{Email: "alice@test.com"}
	user.ID = userID
	return user, nil
}

func (s *fakeAuthService) UpdateProfile(_ *gorm.DB, userID string, _ *dto.UpdateProfileRequest) (*models.User, error) {
	user := &models.User{}
	user.ID = userID
	return user, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "development"
	cfg.JWT.RefreshCookieMaxAgeHours = 168
	return cfg
}

func newAuthTestRouter(svc *fakeAuthService, authenticatedAs string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(string(contextkeys.DBContextKey), &gorm.DB{})
		if authenticatedAs != "" {
			c.Set("userID", authenticatedAs)
		}
		c.Next()
	})

	handler := NewAuthHandler(NewBaseHandler(validator.New()), svc, testConfig())
	router.POST("/api/auth/register", handler.Register)
	router.POST("/api/auth/login", handler.Login)
	router.POST("/api/auth/refresh", handler.Refresh)
	router.POST("/api/auth/logout", handler.Logout)
	router.POST("/api/auth/verify-email", handler.VerifyEmail)
	return router
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestLogin_SetsRefreshCookie(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@test.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access-token-1")
	assert.NotContains(t, rec.Body.String(), "refresh-token-1")

	cookie := findCookie(rec, "jid")
	require.NotNil(t, cookie)
	assert.Equal(t, "refresh-token-1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)
	assert.Equal(t, 168*3600, cookie.MaxAge)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@test.com","password":"wrong-password"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.Nil(t, findCookie(rec, "jid"))
}

func TestLogin_ValidationFailure(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_SetsCookieAndReturns201(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Alice","email":"alice@test.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, findCookie(rec, "jid"))
}

func TestRefresh_WithoutCookie(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{}
	router := newAuthTestRouter(svc, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.refreshCalls)
}

func TestRefresh_RotatesCookie(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{}
	router := newAuthTestRouter(svc, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "jid", Value: "refresh-token-1"})
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-token-1", svc.seenRefresh)
	assert.Contains(t, rec.Body.String(), "access-token-2")

	cookie := findCookie(rec, "jid")
	require.NotNil(t, cookie)
	assert.Equal(t, "refresh-token-2", cookie.Value)
}

func TestRefresh_InvalidatedToken(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{refreshErr: apperrors.ErrTokenInvalidated}
	router := newAuthTestRouter(svc, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "jid", Value: "stolen-token"})
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged out")

	cookie := findCookie(rec, "jid")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestVerifyEmail_ReturnsUpdatedUser(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "user-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-email",
		strings.NewReader(`{"code":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email verified successfully")
	assert.Contains(t, rec.Body.String(), `"emailVerified":true`)
}

func TestVerifyEmail_RequiresAuthentication(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-email",
		strings.NewReader(`{"code":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	t.Parallel()

	router := newAuthTestRouter(&fakeAuthService{}, "user-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-email",
		strings.NewReader(`{"code":"654321"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
