package dto

import (
	"examportal/internal/models"
)

type RegisterRequest struct {
	Name           string    `json:"name" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	Password       string    `json:"password" validate:"required,min=6"`
	FaceDescriptor []float64 `json:"faceDescriptor"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}

type UpdateProfileRequest struct {
	Name           *string   `json:"name"`
	Email          *string   `json:"email" validate:"omitempty,email"`
	Password       *string   `json:"password" validate:"omitempty,min=6"`
	FaceDescriptor []float64 `json:"faceDescriptor"`
}

// AuthResponse is the register/login body: the public identity plus a fresh
// access token. The refresh token travels only in the jid cookie.
type AuthResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           models.UserRole `json:"role"`
	FaceDescriptor []float64       `json:"faceDescriptor,omitempty"`
	EmailVerified  bool            `json:"emailVerified"`
	AccessToken    string          `json:"accessToken"`
}

type RefreshResponse struct {
	AccessToken   string `json:"accessToken"`
	EmailVerified bool   `json:"emailVerified"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
