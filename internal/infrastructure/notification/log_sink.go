package notification

import (
	"context"
	"log/slog"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
)

// LogSink implements port.NotificationSink by logging deliveries. notifierd
// uses it in dry-run mode.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, company model.LoanCompany, msg event.CompanyMessageSubmitted) error {
	s.logger.InfoContext(ctx, "company message logged instead of emailed",
		"message_id", msg.AggregateID(),
		"company_id", company.ID,
		"to", company.Email,
	)
	return nil
}
