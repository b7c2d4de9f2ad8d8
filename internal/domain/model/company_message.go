package model

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/logicalc/loancalc/internal/domain/event"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

// MaxCompanyMessageLength bounds the body of a company message in characters.
const MaxCompanyMessageLength = 1024

// ---------------------------------------------------------------------------
// CompanyMessage aggregate root
// ---------------------------------------------------------------------------

// CompanyMessage is a borrower's request to be contacted by a loan company,
// optionally about a specific calculation.
type CompanyMessage struct {
	id            string
	companyID     string
	calculationID string
	sender        string
	message       string
	createdAt     time.Time
	domainEvents  []event.DomainEvent
}

// NewCompanyMessage validates and creates a message and records
// CompanyMessageSubmitted.
func NewCompanyMessage(companyID, calculationID, sender, message string, now time.Time) (CompanyMessage, error) {
	verr := valueobject.NewValidationError()

	if companyID == "" {
		verr.Add("company_id", "is required")
	}

	sender = strings.TrimSpace(sender)
	addr, err := mail.ParseAddress(sender)
	switch {
	case sender == "":
		verr.Add("sender", "is required")
	case err != nil || addr.Address != sender:
		verr.Add("sender", "must be a valid email address")
	}

	if utf8.RuneCountInString(message) > MaxCompanyMessageLength {
		verr.Add("message", "must be at most 1024 characters")
	}

	if err := verr.OrNil(); err != nil {
		return CompanyMessage{}, err
	}

	id := uuid.New().String()
	msg := CompanyMessage{
		id:            id,
		companyID:     companyID,
		calculationID: calculationID,
		sender:        sender,
		message:       message,
		createdAt:     now.UTC(),
	}
	msg.domainEvents = append(msg.domainEvents, event.NewCompanyMessageSubmitted(
		id, companyID, calculationID, sender, message, now,
	))
	return msg, nil
}

// ReconstructCompanyMessage rebuilds a CompanyMessage from persistence.
func ReconstructCompanyMessage(id, companyID, calculationID, sender, message string, createdAt time.Time) CompanyMessage {
	return CompanyMessage{
		id:            id,
		companyID:     companyID,
		calculationID: calculationID,
		sender:        sender,
		message:       message,
		createdAt:     createdAt,
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (m CompanyMessage) ID() string                        { return m.id }
func (m CompanyMessage) CompanyID() string                 { return m.companyID }
func (m CompanyMessage) CalculationID() string             { return m.calculationID }
func (m CompanyMessage) Sender() string                    { return m.sender }
func (m CompanyMessage) Message() string                   { return m.message }
func (m CompanyMessage) CreatedAt() time.Time              { return m.createdAt }
func (m CompanyMessage) DomainEvents() []event.DomainEvent { return m.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (m CompanyMessage) ClearEvents() CompanyMessage {
	next := m
	next.domainEvents = nil
	return next
}
