package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStatusService changes order statuses and publishes the change so that
// subscribers such as the OrderStatusHandler can react
type OrderStatusService struct {
	orders    integration.OrderRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewOrderStatusService creates an OrderStatusService
func NewOrderStatusService(orders integration.OrderRepository, publisher shared.EventPublisher, logger *zap.Logger) *OrderStatusService {
	return &OrderStatusService{
		orders:    orders,
		publisher: publisher,
		logger:    logger.Named("order_status"),
	}
}

// ChangeStatus stores the new status and publishes OrderStatusChanged. Setting
// the current status again is a no-op and publishes nothing. A failing
// subscriber does not roll the status back; its error is returned wrapped.
func (s *OrderStatusService) ChangeStatus(ctx context.Context, orderID uuid.UUID, status string) (bool, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return false, shared.NewDomainError("INVALID_INPUT", "status is required")
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order.Status == status {
		return false, nil
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return false, &integration.PersistenceError{Op: "update order status", Err: err}
	}
	s.logger.Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("old_status", order.Status),
		zap.String("new_status", status),
	)

	if err := s.publisher.Publish(ctx, integration.NewOrderStatusChanged(orderID, order.Status, status)); err != nil {
		return true, fmt.Errorf("order status changed but a subscriber failed: %w", err)
	}
	return true, nil
}
