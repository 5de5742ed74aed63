package handler

import (
	"context"

	appintegration "github.com/erp/catalogsync/internal/application/integration"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
)

type fakeSteps struct {
	got    appintegration.StepRequest
	result *appintegration.StepResult
	err    error
}

func (f *fakeSteps) Step(_ context.Context, req appintegration.StepRequest, _ integration.SyncSettings) (*appintegration.StepResult, error) {
	f.got = req
	return f.result, f.err
}

type fakeQueue struct {
	calls  int
	result *appintegration.QueueRunResult
	err    error
}

func (f *fakeQueue) DrainOrRefill(_ context.Context, _ integration.SyncSettings) (*appintegration.QueueRunResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeSettings struct {
	current   integration.SyncSettings
	updated   *appintegration.SettingsUpdate
	rates     []integration.Rate
	err       error
	updateErr error
}

func (f *fakeSettings) Current(context.Context) (integration.SyncSettings, error) {
	return f.current, f.err
}

func (f *fakeSettings) Update(_ context.Context, update appintegration.SettingsUpdate) (integration.SyncSettings, error) {
	if f.updateErr != nil {
		return integration.SyncSettings{}, f.updateErr
	}
	f.updated = &update
	f.current.BatchSize = update.BatchSize
	f.current.ScheduleInterval = update.ScheduleInterval
	f.current.TagFilter = update.TagFilter
	return f.current, nil
}

func (f *fakeSettings) Rates(context.Context) ([]integration.Rate, error) {
	return f.rates, f.err
}

type fakeExporter struct {
	got   uuid.UUID
	docID string
	err   error
}

func (f *fakeExporter) ExportOrder(_ context.Context, orderID uuid.UUID, _ integration.SyncSettings) (string, error) {
	f.got = orderID
	return f.docID, f.err
}

type fakeStatuses struct {
	gotID     uuid.UUID
	gotStatus string
	changed   bool
	err       error
}

func (f *fakeStatuses) ChangeStatus(_ context.Context, orderID uuid.UUID, status string) (bool, error) {
	f.gotID = orderID
	f.gotStatus = status
	return f.changed, f.err
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}
