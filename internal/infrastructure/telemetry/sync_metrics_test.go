package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	appintegration "github.com/erp/catalogsync/internal/application/integration"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
)

var _ appintegration.SyncMetrics = (*telemetry.SyncMetrics)(nil)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestSyncMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	m, err := telemetry.NewSyncMetrics(provider.Meter("sync"))
	require.NoError(t, err)

	m.ItemSynced(ctx, appintegration.SourceScheduled, true)
	m.ItemSynced(ctx, appintegration.SourceInteractive, false)
	m.ItemFailed(ctx, appintegration.SourceScheduled)
	m.QueueRefilled(ctx, 42)
	m.DocumentExported(ctx, "invoice")

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["catalogsync_items_synced_total"])
	assert.Equal(t, int64(1), sums["catalogsync_items_failed_total"])
	assert.Equal(t, int64(42), sums["catalogsync_queue_rows_inserted_total"])
	assert.Equal(t, int64(1), sums["catalogsync_documents_exported_total"])
}

func TestNewSyncMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewSyncMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}
