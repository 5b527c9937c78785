package handlers

import (
	"context"

	"ai-receipt/internal/dto"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Profiles interface {
	GetProfile(ctx context.Context, principal string) (*dto.UserProfileResponse, error)
	GetProfileByUsername(ctx context.Context, username, principal string) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, principal string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	UpdateProfileByUsername(ctx context.Context, username, principal string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
}

type UserHandler struct {
	profiles Profiles
	validate *validator.Validate
	logger   *zap.Logger
}

func NewUserHandler(profiles Profiles, validate *validator.Validate, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		validate: validate,
		logger:   logger,
	}
}

// GetMyProfile godoc
// @Summary Get my profile
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.UserProfileResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.profiles.GetProfile(c.UserContext(), principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to get profile", err)
	}
	return c.JSON(resp)
}

// UpdateMyProfile godoc
// @Summary Update my profile
// @Description Changes email and preferred currency; blank fields are ignored
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "Profile changes"
// @Security Bearer
// @Success 200 {object} dto.UserProfileResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/users/me [put]
func (h *UserHandler) UpdateMyProfile(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	req, msg := h.profileRequest(c)
	if req == nil {
		return badRequest(c, msg)
	}

	resp, err := h.profiles.UpdateProfile(c.UserContext(), principal, req)
	if err != nil {
		return respondError(c, h.logger, "Failed to update profile", err)
	}
	return c.JSON(resp)
}

// GetProfile godoc
// @Summary Get a profile by username
// @Description Only the owner of the profile may read it
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Security Bearer
// @Success 200 {object} dto.UserProfileResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/users/{username} [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.profiles.GetProfileByUsername(c.UserContext(), c.Params("username"), principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to get profile", err)
	}
	return c.JSON(resp)
}

// UpdateProfile godoc
// @Summary Update a profile by username
// @Description Only the owner of the profile may change it
// @Tags users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param request body dto.UpdateProfileRequest true "Profile changes"
// @Security Bearer
// @Success 200 {object} dto.UserProfileResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/users/{username} [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	req, msg := h.profileRequest(c)
	if req == nil {
		return badRequest(c, msg)
	}

	resp, err := h.profiles.UpdateProfileByUsername(c.UserContext(), c.Params("username"), principal, req)
	if err != nil {
		return respondError(c, h.logger, "Failed to update profile", err)
	}
	return c.JSON(resp)
}

// profileRequest decodes and validates the update body. On failure it
// returns nil and the client message.
func (h *UserHandler) profileRequest(c *fiber.Ctx) (*dto.UpdateProfileRequest, string) {
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil, "Invalid request body"
	}
	if err := h.validate.Struct(&req); err != nil {
		return nil, validationMessage(err)
	}
	return &req, ""
}
