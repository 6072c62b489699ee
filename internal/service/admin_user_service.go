package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pagination"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCannotDeleteAdmin   = errors.New("admin accounts cannot be deleted")
	ErrCannotDeleteSelf    = errors.New("you cannot delete your own account")
	ErrCannotChangeOwnRole = errors.New("you cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
)

// AdminUserService backs the back-office user table.
type AdminUserService interface {
	ListUsers(ctx context.Context, search string, page pagination.Offset) ([]*domain.User, int, error)
	ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type adminUserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAdminUserService(users repository.UserRepository, logger *zap.Logger) AdminUserService {
	return &adminUserService{users: users, logger: logger}
}

func (s *adminUserService) ListUsers(ctx context.Context, search string, page pagination.Offset) ([]*domain.User, int, error) {
	users, total, err := s.users.List(ctx, strings.TrimSpace(search), page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *adminUserService) ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, ErrInvalidRole
	}
	if actorID == userID {
		return nil, ErrCannotChangeOwnRole
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("User role changed",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", role),
	)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// DeleteUser refuses to delete the caller or any admin.
func (s *adminUserService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return ErrCannotDeleteSelf
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsAdmin() {
		return ErrCannotDeleteAdmin
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", userID.String()),
	)
	return nil
}
