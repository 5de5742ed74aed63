package notification

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/integration"
	"go.uber.org/zap"
)

// LogNotifier writes reports to the log. It is used when no SMTP server is
// configured.
type LogNotifier struct {
	logger *zap.Logger
}

var _ integration.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("log_notifier")}
}

// NotifyRunErrors logs the errors of an interactive run
func (n *LogNotifier) NotifyRunErrors(_ context.Context, to string, report integration.RunReport) error {
	if len(report.Errors) == 0 {
		return nil
	}
	subject, body, err := renderRunErrors(report)
	if err != nil {
		return err
	}
	n.logger.Warn(subject, zap.String("to", to), zap.String("run_id", report.RunID), zap.String("body", body))
	return nil
}

// NotifyCycleComplete logs the summary of a scheduled cycle
func (n *LogNotifier) NotifyCycleComplete(_ context.Context, to string, report integration.CycleReport) error {
	subject, body, err := renderCycleComplete(report)
	if err != nil {
		return err
	}
	n.logger.Info(subject, zap.String("to", to), zap.String("cycle_id", report.CycleID), zap.String("body", body))
	return nil
}
