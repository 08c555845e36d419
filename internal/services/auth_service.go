package services

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"examportal/internal/auth"
	"examportal/internal/email"
	"examportal/internal/logger"
	"examportal/internal/models"
	"examportal/internal/repositories"
	"examportal/internal/services/dto"
	"examportal/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MailQueue is the slice of the dispatcher the auth service needs: hand a
// message off, fire-and-forget.
type MailQueue interface {
	Enqueue(email *email.Email)
}

type AuthService interface {
	// Register creates the credential, issues a verification code, and
	// returns the auth response plus the refresh token for the cookie.
	Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, string, error)
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, string, error)

	// Refresh runs the rotation state machine over one presented refresh
	// token and returns the new access token plus the rotated refresh token.
	Refresh(db *gorm.DB, refreshToken string) (*dto.RefreshResponse, string, error)

	VerifyEmail(db *gorm.DB, userID, code string) (*models.User, error)
	ResendVerification(db *gorm.DB, userID string) error

	Profile(db *gorm.DB, userID string) (*models.User, error)
	UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error)
}

type AuthServiceImpl struct {
	userRepo       repositories.UserRepository
	issuer         *auth.TokenIssuer
	mail           MailQueue
	codeTTL        time.Duration
	resendCooldown time.Duration
}

func NewAuthService(
	userRepo repositories.UserRepository,
	issuer *auth.TokenIssuer,
	mail MailQueue,
	codeTTL time.Duration,
	resendCooldown time.Duration,
) AuthService {
	return &AuthServiceImpl{
		userRepo:       userRepo,
		issuer:         issuer,
		mail:           mail,
		codeTTL:        codeTTL,
		resendCooldown: resendCooldown,
	}
}

func (s *AuthServiceImpl) Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, string, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, "", apperrors.NewBadRequestError(err.Error())
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}

	user := &models.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          normalizeEmail(req.Email),
		PasswordHash:   hashedPassword,
		Role:           models.UserRoleStudent,
		FaceDescriptor: encodeDescriptor(req.FaceDescriptor),
	}

	if err := s.userRepo.Create(db, user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, "", apperrors.ErrEmailAlreadyExists
		}
		return nil, "", apperrors.InternalError(err)
	}

	if err := s.issueVerification(db, user); err != nil {
		return nil, "", err
	}

	return s.buildAuthResponse(user)
}

func (s *AuthServiceImpl) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, string, error) {
	user, err := s.userRepo.FindByEmail(db, normalizeEmail(req.Email))
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	return s.buildAuthResponse(user)
}

// Refresh: Presented -> Verified -> {Rotated | Rejected}. The compare-and-swap
// on the stored version guarantees at most one winning rotation per token
// generation; a replayed or raced token loses with TokenInvalidated.
func (s *AuthServiceImpl) Refresh(db *gorm.DB, refreshToken string) (*dto.RefreshResponse, string, error) {
	claims, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, "", apperrors.ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(db, claims.UserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", apperrors.ErrUnauthenticated
		}
		return nil, "", apperrors.InternalError(err)
	}

	if claims.Version != user.RefreshTokenVersion {
		return nil, "", apperrors.ErrTokenInvalidated
	}

	newVersion, err := s.userRepo.RotateRefreshTokenVersion(db, user.ID, claims.Version)
	if err != nil {
		if apperrors.Is(err, repositories.ErrVersionConflict) {
			// A concurrent refresh with the same token won the swap.
			return nil, "", apperrors.ErrTokenInvalidated
		}
		return nil, "", apperrors.InternalError(err)
	}
	user.RefreshTokenVersion = newVersion

	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}
	newRefreshToken, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}

	return &dto.RefreshResponse{
		AccessToken:   accessToken,
		EmailVerified: user.EmailVerified,
	}, newRefreshToken, nil
}

func (s *AuthServiceImpl) VerifyEmail(db *gorm.DB, userID, code string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if user.EmailVerified {
		return nil, apperrors.ErrAlreadyVerified
	}
	if user.VerificationCode == nil || user.VerificationExpiresAt == nil {
		return nil, apperrors.ErrNoActiveRequest
	}
	if time.Now().After(*user.VerificationExpiresAt) {
		return nil, apperrors.ErrCodeExpired
	}
	// Exact string match, no normalization.
	if *user.VerificationCode != code {
		return nil, apperrors.ErrInvalidCode
	}

	if err := s.userRepo.MarkVerified(db, user.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationExpiresAt = nil

	return user, nil
}

func (s *AuthServiceImpl) ResendVerification(db *gorm.DB, userID string) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if user.EmailVerified {
		return apperrors.ErrAlreadyVerified
	}

	// Server-side minimum interval between issues. The issue time is the
	// stored expiry minus the code TTL.
	if user.VerificationExpiresAt != nil {
		issuedAt := user.VerificationExpiresAt.Add(-s.codeTTL)
		if time.Since(issuedAt) < s.resendCooldown {
			return apperrors.ErrResendTooSoon
		}
	}

	return s.issueVerification(db, user)
}

func (s *AuthServiceImpl) Profile(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *AuthServiceImpl) UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && *req.Email != "" {
		newEmail := normalizeEmail(*req.Email)
		if newEmail != user.Email {
			if _, err := s.userRepo.FindByEmail(db, newEmail); err == nil {
				return nil, apperrors.ErrEmailAlreadyExists
			}
			user.Email = newEmail
		}
	}
	if req.Password != nil && *req.Password != "" {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			return nil, apperrors.NewBadRequestError(err.Error())
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		user.PasswordHash = hashed
	}
	if req.FaceDescriptor != nil {
		user.FaceDescriptor = encodeDescriptor(req.FaceDescriptor)
	}

	if err := s.userRepo.Update(db, user); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

// issueVerification generates a fresh code, persists code+expiry as a pair,
// and queues the email. Delivery is best-effort; only persistence failures
// surface to the caller.
func (s *AuthServiceImpl) issueVerification(db *gorm.DB, user *models.User) error {
	code, err := generateOTP()
	if err != nil {
		return apperrors.InternalError(err)
	}
	expiresAt := time.Now().Add(s.codeTTL)

	if err := s.userRepo.SetVerificationCode(db, user.ID, code, expiresAt); err != nil {
		return apperrors.InternalError(err)
	}
	user.VerificationCode = &code
	user.VerificationExpiresAt = &expiresAt

	if s.mail == nil {
		return nil
	}
	msg, err := email.NewVerificationEmail(user.Email, user.Name, code, s.codeTTL)
	if err != nil {
		logger.Error("failed to build verification email", "user_id", user.ID, "error", err.Error())
		return nil
	}
	s.mail.Enqueue(msg)
	return nil
}

func (s *AuthServiceImpl) buildAuthResponse(user *models.User) (*dto.AuthResponse, string, error) {
	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}
	refreshToken, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}

	return &dto.AuthResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		FaceDescriptor: decodeDescriptor(user.FaceDescriptor),
		EmailVerified:  user.EmailVerified,
		AccessToken:    accessToken,
	}, refreshToken, nil
}

// generateOTP draws a 6-digit code uniformly from [100000, 999999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func encodeDescriptor(descriptor []float64) datatypes.JSON {
	if descriptor == nil {
		return nil
	}
	raw, err := json.Marshal(descriptor)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func decodeDescriptor(raw datatypes.JSON) []float64 {
	if len(raw) == 0 {
		return nil
	}
	var descriptor []float64
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return nil
	}
	return descriptor
}
