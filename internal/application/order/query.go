package order

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/logging"

	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, newValidation("order id is required")
	}
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return nil, newValidation("user id is required")
	}
	return s.orders.FindByUser(ctx, userID)
}

// ListAll is the admin listing with paging and status/search filters.
func (s *Service) ListAll(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, int, error) {
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	return s.orders.List(ctx, filter)
}

// UpdateStatus advances a pending order to confirmed or rejected. Settled
// state never regresses; the entity enforces the transition.
func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.Status) error {
	logger := logging.FromContext(ctx).With(
		zap.String("component", componentWorkflow),
		zap.String("order_id", id),
	)
	if id == "" {
		return newValidation("order id is required")
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := o.AdvanceStatus(next); err != nil {
		return err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		logger.Error("order_status_save_failed", zap.Error(err))
		return err
	}
	logger.Info("order_status_updated", zap.String("status", string(next)))
	return nil
}
