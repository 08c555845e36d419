package repositories

import (
	"errors"
	"time"

	"examportal/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrVersionConflict means the compare-and-swap on refresh_token_version
	// matched no row: the presented snapshot was already rotated away.
	ErrVersionConflict = errors.New("refresh token version conflict")
)

type UserRepository interface {
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	Create(db *gorm.DB, user *models.User) error
	Update(db *gorm.DB, user *models.User) error

	// SetVerificationCode replaces any stored code/expiry pair.
	SetVerificationCode(db *gorm.DB, userID, code string, expiresAt time.Time) error
	// MarkVerified sets email_verified and clears the code/expiry pair in one write.
	MarkVerified(db *gorm.DB, userID string) error

	// RotateRefreshTokenVersion atomically increments refresh_token_version
	// iff it still equals currentVersion, returning the new version. A
	// concurrent rotation of the same generation loses with
	// ErrVersionConflict; at most one caller wins per generation.
	RotateRefreshTokenVersion(db *gorm.DB, userID string, currentVersion int) (int, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	var existing models.User
	if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return ErrUserAlreadyExists
	}
	return db.Create(user).Error
}

func (r *UserRepositoryImpl) Update(db *gorm.DB, user *models.User) error {
	result := db.Model(user).Updates(map[string]interface{}{
		"name":            user.Name,
		"email":           user.Email,
		"password_hash":   user.PasswordHash,
		"face_descriptor": user.FaceDescriptor,
		"updated_at":      time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) SetVerificationCode(db *gorm.DB, userID, code string, expiresAt time.Time) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"verification_code":       code,
		"verification_expires_at": expiresAt,
		"updated_at":              time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) MarkVerified(db *gorm.DB, userID string) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"email_verified":          true,
		"verification_code":       nil,
		"verification_expires_at": nil,
		"updated_at":              time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) RotateRefreshTokenVersion(db *gorm.DB, userID string, currentVersion int) (int, error) {
	result := db.Model(&models.User{}).
		Where("id = ? AND refresh_token_version = ?", userID, currentVersion).
		UpdateColumn("refresh_token_version", gorm.Expr("refresh_token_version + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return currentVersion + 1, nil
}
