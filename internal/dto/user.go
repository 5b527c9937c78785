package dto

import (
	"time"

	"ai-receipt/internal/models"

	"github.com/google/uuid"
)

// UpdateProfileRequest changes the caller's email and preferred currency.
// Blank or absent fields are left untouched.
type UpdateProfileRequest struct {
	Email    *string `json:"email" validate:"omitempty,max=255"`
	Currency *string `json:"currency" validate:"omitempty,max=8"`
}

type UserProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

func NewUserProfileResponse(u *models.User) *UserProfileResponse {
	return &UserProfileResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Currency:  u.Currency,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}
