package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/logicalc/loancalc/internal/application/usecase"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
	"github.com/logicalc/loancalc/internal/infrastructure/kafka"
	pkgkafka "github.com/logicalc/loancalc/pkg/kafka"
)

// messageHandler delivers consumed CompanyMessageSubmitted events. Undecodable
// messages, other event types and companies that cannot be reached are
// logged and acknowledged. Delivery failures are returned so that the
// message stays uncommitted.
func messageHandler(deliver *usecase.DeliverCompanyMessageUseCase, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		evt, ok, err := kafka.DecodeCompanyMessageSubmitted(msg)
		if err != nil {
			logger.ErrorContext(ctx, "dropping undecodable message", "key", string(msg.Key), "error", err)
			return nil
		}
		if !ok {
			return nil
		}

		err = deliver.Execute(ctx, evt)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, valueobject.ErrConfiguration), errors.Is(err, valueobject.ErrNotFound):
			logger.ErrorContext(ctx, "company message cannot be delivered",
				"message_id", evt.AggregateID(),
				"company_id", evt.CompanyID,
				"error", err,
			)
			return nil
		default:
			return err
		}
	}
}
