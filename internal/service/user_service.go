package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/dto"
	"ai-receipt/internal/models"
	"ai-receipt/internal/repository"

	"go.uber.org/zap"
)

const emailInUseMessage = "Email is already in use"

// UserService reads and edits profiles. Users may only see and change their
// own profile, whether addressed as "me" or by username.
type UserService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUserService(store repository.Store, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

func (s *UserService) GetProfile(ctx context.Context, principal string) (*dto.UserProfileResponse, error) {
	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}
	return dto.NewUserProfileResponse(user), nil
}

func (s *UserService) GetProfileByUsername(ctx context.Context, username, principal string) (*dto.UserProfileResponse, error) {
	user, err := s.lookupSelf(ctx, username, principal)
	if err != nil {
		return nil, err
	}
	return dto.NewUserProfileResponse(user), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, principal string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, user, req)
}

func (s *UserService) UpdateProfileByUsername(ctx context.Context, username, principal string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	user, err := s.lookupSelf(ctx, username, principal)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, user, req)
}

// lookupSelf loads the user named username and checks that the principal
// is that user.
func (s *UserService) lookupSelf(ctx context.Context, username, principal string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	principal = strings.TrimSpace(principal)
	if principal == "" || principal == "anonymousUser" {
		return nil, apperr.Validation("Unauthorized")
	}

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if principal != user.Email && principal != user.Username {
		s.logger.Debug("Profile access denied",
			zap.String("principal", principal),
			zap.String("username", username),
		)
		return nil, apperr.Forbidden("Forbidden")
	}
	return user, nil
}

// update applies req to user. A request that changes nothing is rejected.
func (s *UserService) update(ctx context.Context, user *models.User, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	if req == nil {
		return nil, apperr.Validation("Invalid request body")
	}

	changed := false

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && !strings.EqualFold(email, user.Email) {
			exists, err := s.store.Users().ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, apperr.Validation(emailInUseMessage)
			}
			user.Email = email
			changed = true
		}
	}

	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if currency != "" && currency != user.Currency {
			user.Currency = currency
			changed = true
		}
	}

	if !changed {
		return nil, apperr.Validation("No profile changes to apply")
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Validation(emailInUseMessage)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("Profile updated", zap.String("user_id", user.ID.String()))
	return dto.NewUserProfileResponse(user), nil
}
