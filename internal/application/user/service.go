package user

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/logging"

	"go.uber.org/zap"
)

// Service covers the admin user management surface: listing, role updates
// and deletion. It has no bearing on settlement.
type Service struct {
	users domain.Repository
}

func NewService(users domain.Repository) *Service {
	return &Service{users: users}
}

func (s *Service) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *Service) UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.SetRole(role); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("user_role_updated",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.users.DeleteByID(ctx, userID); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("user_deleted", zap.String("user_id", userID))
	return nil
}
