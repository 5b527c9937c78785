package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/models"
	"ai-receipt/internal/repository"
)

// resolveUser looks the principal up by email, then by username.
func resolveUser(ctx context.Context, users repository.UserRepository, principal string) (*models.User, error) {
	principal = strings.TrimSpace(principal)
	if principal == "" || principal == "anonymousUser" {
		return nil, apperr.Validation("Unauthorized")
	}

	user, err := users.GetByEmail(ctx, principal)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	user, err = users.GetByUsername(ctx, principal)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	return nil, fmt.Errorf("failed to look up user by username: %w", err)
}
