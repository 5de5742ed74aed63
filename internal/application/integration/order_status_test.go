package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func TestOrderStatusService_ChangeStatus(t *testing.T) {
	orders := newFakeOrders()
	id := orders.add(integration.Order{Number: "1", Status: "processing"})
	pub := &recordingPublisher{}
	svc := NewOrderStatusService(orders, pub, zap.NewNop())
	ctx := context.Background()

	changed, err := svc.ChangeStatus(ctx, id, " completed ")
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, pub.events, 1)

	event, ok := pub.events[0].(*integration.OrderStatusChanged)
	require.True(t, ok)
	assert.Equal(t, id, event.OrderID)
	assert.Equal(t, "processing", event.OldStatus)
	assert.Equal(t, "completed", event.NewStatus)
	assert.Equal(t, integration.EventTypeOrderStatusChanged, event.EventType())

	changed, err = svc.ChangeStatus(ctx, id, "completed")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, pub.events, 1)
}

func TestOrderStatusService_Errors(t *testing.T) {
	orders := newFakeOrders()
	id := orders.add(integration.Order{Number: "1", Status: "processing"})
	ctx := context.Background()

	svc := NewOrderStatusService(orders, &recordingPublisher{}, zap.NewNop())

	_, err := svc.ChangeStatus(ctx, id, "  ")
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)

	_, err = svc.ChangeStatus(ctx, uuid.New(), "completed")
	assert.ErrorIs(t, err, integration.ErrOrderNotFound)

	subscriberErr := errors.New("export failed")
	svc = NewOrderStatusService(orders, &recordingPublisher{err: subscriberErr}, zap.NewNop())
	changed, err := svc.ChangeStatus(ctx, id, "completed")
	assert.True(t, changed)
	assert.ErrorIs(t, err, subscriberErr)

	order, err := orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "completed", order.Status)
}
