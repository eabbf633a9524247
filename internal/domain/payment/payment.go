package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/ankunda/payflow/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the payment status in the lifecycle state machine.
type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusPending   Status = "PENDING"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
)

// ParseStatus converts a string to a Status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(s)) {
	case StatusInitiated:
		return StatusInitiated, nil
	case StatusPending:
		return StatusPending, nil
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusFailed:
		return StatusFailed, nil
	}
	return "", errors.NewValidationError("status", fmt.Sprintf("unknown status %q", s))
}

// Payment represents a single payment attempt.
type Payment struct {
	ID                    uuid.UUID
	ReferenceID           string
	CustomerPhone         string
	CustomerEmail         *string
	AmountCents           int64
	Status                Status
	ProviderName          *string
	ProviderTransactionID *string

	// Catalog references. IDs are used on the write path; names are
	// denormalized on the read path.
	CurrencyID      int64
	Currency        string
	PaymentMethodID int64
	PaymentMethod   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a payment in the INITIATED state with a freshly generated
// reference id. The reference id never changes after this point.
func New(customerPhone string, customerEmail *string, amountCents int64, currencyID int64, currency string, methodID int64, method string) (*Payment, error) {
	if customerPhone == "" {
		return nil, errors.NewValidationError("customer_phone", "cannot be empty")
	}
	if amountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}

	now := time.Now()
	return &Payment{
		ID:              uuid.New(),
		ReferenceID:     NewReferenceID(),
		CustomerPhone:   customerPhone,
		CustomerEmail:   customerEmail,
		AmountCents:     amountCents,
		Status:          StatusInitiated,
		CurrencyID:      currencyID,
		Currency:        currency,
		PaymentMethodID: methodID,
		PaymentMethod:   method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// transitions is the single transition table shared by every mutating path.
// SUCCESS and FAILED are terminal.
var transitions = map[Status][]Status{
	StatusInitiated: {StatusPending, StatusFailed},
	StatusPending:   {StatusSuccess, StatusFailed},
	StatusSuccess:   {},
	StatusFailed:    {},
}

// CanTransitionTo checks whether the payment may move to newStatus.
func (p *Payment) CanTransitionTo(newStatus Status) bool {
	return ValidTransition(p.Status, newStatus)
}

// ValidTransition reports whether from -> to is a legal move.
func ValidTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionTo moves the payment to a new status, enforcing the transition
// table. Statuses only move forward; terminal states never change.
func (p *Payment) TransitionTo(newStatus Status) error {
	if !p.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			fmt.Sprintf("cannot transition payment %s from %s to %s", p.ReferenceID, p.Status, newStatus),
			errors.ErrInvalidStateTransition,
		)
	}
	p.Status = newStatus
	p.UpdatedAt = time.Now()
	return nil
}

// IsTerminal checks if the payment is in a terminal state.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusSuccess || p.Status == StatusFailed
}

// SetProviderResult records the provider routing outcome after initiation.
func (p *Payment) SetProviderResult(providerName string, providerTxID *string) {
	p.ProviderName = &providerName
	p.ProviderTransactionID = providerTxID
	p.UpdatedAt = time.Now()
}
