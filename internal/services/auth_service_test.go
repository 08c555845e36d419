package services

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"examportal/internal/auth"
	"examportal/internal/email"
	"examportal/internal/models"
	"examportal/internal/repositories"
	"examportal/internal/services/dto"
	"examportal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeUserRepo is an in-memory UserRepository. It ignores the db handle, so
// tests pass nil.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) FindByID(_ *gorm.DB, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(_ *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.FaceDescriptor = user.FaceDescriptor
	return nil
}

func (r *fakeUserRepo) SetVerificationCode(_ *gorm.DB, userID, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.VerificationCode = &code
	user.VerificationExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) MarkVerified(_ *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) RotateRefreshTokenVersion(_ *gorm.DB, userID string, currentVersion int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.RefreshTokenVersion != currentVersion {
		return 0, repositories.ErrVersionConflict
	}
	user.RefreshTokenVersion++
	return user.RefreshTokenVersion, nil
}

// mutate runs fn against the stored record, bypassing the repository API.
func (r *fakeUserRepo) mutate(userID string, fn func(u *models.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		fn(user)
	}
}

// capturedMail records enqueued messages instead of sending them.
type capturedMail struct {
	mu   sync.Mutex
	sent []*email.Email
}

func (m *capturedMail) Enqueue(e *email.Email) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
}

func (m *capturedMail) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestAuthService(t *testing.T) (AuthService, *fakeUserRepo, *capturedMail, *auth.TokenIssuer) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(auth.IssuerConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	repo := newFakeUserRepo()
	mail := &capturedMail{}
	svc := NewAuthService(repo, issuer, mail, 10*time.Minute, time.Minute)
	return svc, repo, mail, issuer
}

func registerStudent(t *testing.T, svc AuthService) (*dto.AuthResponse, string) {
	t.Helper()
	resp, refreshToken, err := svc.Register(nil, &dto.RegisterRequest{
		Name:     "Alice Smith",
		Email:    "alice@test.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return resp, refreshToken
}

func TestRegister_CreatesStudentWithVerificationCode(t *testing.T) {
	t.Parallel()

	svc, repo, mail, issuer := newTestAuthService(t)
	resp, refreshToken := registerStudent(t, svc)

	assert.Equal(t, "Alice Smith", resp.Name)
	assert.Equal(t, "alice@test.com", resp.Email)
	assert.Equal(t, models.UserRoleStudent, resp.Role)
	assert.False(t, resp.EmailVerified)

	claims, err := issuer.ParseAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)

	refreshClaims, err := issuer.ParseRefreshToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, 0, refreshClaims.Version)

	stored, err := repo.FindByID(nil, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationCode)
	require.NotNil(t, stored.VerificationExpiresAt)
	assert.Len(t, *stored.VerificationCode, 6)
	assert.Equal(t, 1, mail.count())
}

func TestRegister_NormalizesEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)
	resp, _, err := svc.Register(nil, &dto.RegisterRequest{
		Name:     "Bob",
		Email:    "  Bob@Test.COM ",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@test.com", resp.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)
	registerStudent(t, svc)

	_, _, err := svc.Register(nil, &dto.RegisterRequest{
		Name:     "Alice Again",
		Email:    "alice@test.com",
		Password: "password456",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)
	registerStudent(t, svc)

	resp, refreshToken, err := svc.Login(nil, &dto.LoginRequest{
		Email:    "alice@test.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, refreshToken)
}

func TestLogin_BadPasswordAndUnknownEmailCollapse(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)
	registerStudent(t, svc)

	_, _, badPass := svc.Login(nil, &dto.LoginRequest{
		Email:    "alice@test.com",
		Password: "wrong-password",
	})
	_, _, unknown := svc.Login(nil, &dto.LoginRequest{
		Email:    "nobody@test.com",
		Password: "password123",
	})

	// Both failures must be indistinguishable to the caller.
	assert.ErrorIs(t, badPass, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, apperrors.ErrInvalidCredentials)
}

func TestRefresh_RotatesVersionExactlyOnce(t *testing.T) {
	t.Parallel()

	svc, repo, _, issuer := newTestAuthService(t)
	resp, refreshToken := registerStudent(t, svc)

	refreshed, newRefreshToken, err := svc.Refresh(nil, refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	stored, err := repo.FindByID(nil, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RefreshTokenVersion)

	newClaims, err := issuer.ParseRefreshToken(newRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, newClaims.Version)
}

func TestRefresh_ReplayedTokenIsInvalidated(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)
	_, refreshToken := registerStudent(t, svc)

	_, _, err := svc.Refresh(nil, refreshToken)
	require.NoError(t, err)

	// The first rotation moved the stored version past the old snapshot.
	_, _, err = svc.Refresh(nil, refreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalidated)
}

func TestRefresh_ChainOfRotations(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestAuthService(t)
	resp, refreshToken := registerStudent(t, svc)

	for i := 1; i <= 3; i++ {
		_, next, err := svc.Refresh(nil, refreshToken)
		require.NoError(t, err)
		refreshToken = next

		stored, err := repo.FindByID(nil, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, i, stored.RefreshTokenVersion)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)

	_, _, err := svc.Refresh(nil, "not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestRefresh_DeletedUser(t *testing.T) {
	t.Parallel()

	svc, _, _, issuer := newTestAuthService(t)

	ghost := &models.User{RefreshTokenVersion: 0}
	ghost.ID = uuid.NewString()
	token, err := issuer.IssueRefreshToken(ghost)
	require.NoError(t, err)

	_, _, err = svc.Refresh(nil, token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestVerifyEmail_Success(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	stored, err := repo.FindByID(nil, resp.ID)
	require.NoError(t, err)
	code := *stored.VerificationCode

	user, err := svc.VerifyEmail(nil, resp.ID, code)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)

	stored, err = repo.FindByID(nil, resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.Nil(t, stored.VerificationCode)
	assert.Nil(t, stored.VerificationExpiresAt)
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	stored, err := repo.FindByID(nil, resp.ID)
	require.NoError(t, err)
	wrong := "000000"
	if *stored.VerificationCode == wrong {
		wrong = "000001"
	}

	_, err = svc.VerifyEmail(nil, resp.ID, wrong)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	var code string
	repo.mutate(resp.ID, func(u *models.User) {
		code = *u.VerificationCode
		expired := time.Now().Add(-time.Minute)
		u.VerificationExpiresAt = &expired
	})

	_, err := svc.VerifyEmail(nil, resp.ID, code)
	assert.ErrorIs(t, err, apperrors.ErrCodeExpired)
}

func TestVerifyEmail_NoActiveRequest(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	repo.mutate(resp.ID, func(u *models.User) {
		u.VerificationCode = nil
		u.VerificationExpiresAt = nil
	})

	_, err := svc.VerifyEmail(nil, resp.ID, "123456")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveRequest)
}

func TestVerifyEmail_SecondSubmitIsAlreadyVerified(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	stored, err := repo.FindByID(nil, resp.ID)
	require.NoError(t, err)
	code := *stored.VerificationCode

	_, err = svc.VerifyEmail(nil, resp.ID, code)
	require.NoError(t, err)

	_, err = svc.VerifyEmail(nil, resp.ID, code)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVerified)
}

func TestResendVerification_CooldownBlocksImmediateResend(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	err := svc.ResendVerification(nil, resp.ID)
	assert.ErrorIs(t, err, apperrors.ErrResendTooSoon)
}

func TestResendVerification_ReplacesCodeAfterCooldown(t *testing.T) {
	t.Parallel()

	svc, repo, mail, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	var oldCode string
	repo.mutate(resp.ID, func(u *models.User) {
		oldCode = *u.VerificationCode
		// Backdate the expiry so the derived issue time clears the cooldown.
		backdated := u.VerificationExpiresAt.Add(-2 * time.Minute)
		u.VerificationExpiresAt = &backdated
	})

	require.NoError(t, svc.ResendVerification(nil, resp.ID))
	assert.Equal(t, 2, mail.count())

	stored, err := repo.FindByID(nil, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationCode)
	assert.True(t, stored.VerificationExpiresAt.After(time.Now()))

	// The old code is dead once replaced, even when it differs.
	if *stored.VerificationCode != oldCode {
		_, err = svc.VerifyEmail(nil, resp.ID, oldCode)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
	}
}

func TestResendVerification_AlreadyVerified(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	repo.mutate(resp.ID, func(u *models.User) {
		u.EmailVerified = true
	})

	err := svc.ResendVerification(nil, resp.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVerified)
}

func TestUpdateProfile_EmailConflict(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)
	resp, _ := registerStudent(t, svc)

	_, _, err := svc.Register(nil, &dto.RegisterRequest{
		Name:     "Carol",
		Email:    "carol@test.com",
		Password: "password123",
	})
	require.NoError(t, err)

	taken := "carol@test.com"
	_, err = svc.UpdateProfile(nil, resp.ID, &dto.UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestGenerateOTP_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}
