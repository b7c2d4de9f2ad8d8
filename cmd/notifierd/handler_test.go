package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicalc/loancalc/internal/application/usecase"
	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/infrastructure/kafka"
	"github.com/logicalc/loancalc/internal/infrastructure/memory"
	pkgkafka "github.com/logicalc/loancalc/pkg/kafka"
)

func nopLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type recordingSink struct {
	err       error
	delivered []event.CompanyMessageSubmitted
}

func (s *recordingSink) Notify(_ context.Context, _ model.LoanCompany, msg event.CompanyMessageSubmitted) error {
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, msg)
	return nil
}

func encode(t *testing.T, evt event.CompanyMessageSubmitted) pkgkafka.Message {
	t.Helper()
	payload, err := json.Marshal(evt)
	require.NoError(t, err)
	return pkgkafka.Message{
		Key:   []byte(evt.AggregateID()),
		Value: payload,
		Headers: map[string]string{
			kafka.HeaderEventType: evt.EventType(),
			kafka.HeaderEventID:   evt.EventID(),
		},
	}
}

func TestMessageHandler(t *testing.T) {
	ctx := context.Background()
	store := memory.NewReferenceStore()

	company, err := store.GetOrCreateCompany(ctx, "Acle Loans")
	require.NoError(t, err)
	company, err = store.UpdateCompanyEmail(ctx, company.ID, "quotes@acle-loans.example")
	require.NoError(t, err)
	silent, err := store.GetOrCreateCompany(ctx, "Silent Lending")
	require.NoError(t, err)

	newEvent := func(companyID string) event.CompanyMessageSubmitted {
		return event.NewCompanyMessageSubmitted("msg-1", companyID, "", "borrower@example.com", "Please call me.", time.Now())
	}

	t.Run("delivers the message", func(t *testing.T) {
		sink := &recordingSink{}
		handle := messageHandler(usecase.NewDeliverCompanyMessageUseCase(store, sink, nil), nopLogger())

		require.NoError(t, handle(ctx, encode(t, newEvent(company.ID))))
		require.Len(t, sink.delivered, 1)
		assert.Equal(t, "borrower@example.com", sink.delivered[0].Sender)
	})

	t.Run("acknowledges undeliverable messages", func(t *testing.T) {
		sink := &recordingSink{}
		handle := messageHandler(usecase.NewDeliverCompanyMessageUseCase(store, sink, nil), nopLogger())

		assert.NoError(t, handle(ctx, encode(t, newEvent(silent.ID))), "company without email")
		assert.NoError(t, handle(ctx, encode(t, newEvent("00000000-0000-0000-0000-00000000dead"))), "unknown company")
		assert.NoError(t, handle(ctx, pkgkafka.Message{Value: []byte("{")}), "garbage")
		assert.NoError(t, handle(ctx, pkgkafka.Message{
			Value:   []byte(`{}`),
			Headers: map[string]string{kafka.HeaderEventType: event.TypeRateTableImported},
		}), "other event type")
		assert.Empty(t, sink.delivered)
	})

	t.Run("returns sink failures for redelivery", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("connection refused")}
		handle := messageHandler(usecase.NewDeliverCompanyMessageUseCase(store, sink, nil), nopLogger())

		err := handle(ctx, encode(t, newEvent(company.ID)))
		assert.ErrorContains(t, err, "connection refused")
	})
}
