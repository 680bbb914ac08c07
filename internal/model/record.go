package model

import (
	"math"
	"time"
)

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypePayment  TransactionType = "PAYMENT"
	TransactionTypeRequest  TransactionType = "REQUEST"
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypeRefund   TransactionType = "REFUND"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// Financial holds the structured fields parsed from a payment notification.
// AmountMinor is in hundredths of the currency unit; nil when no amount could
// be parsed or the parsed value was out of range.
type Financial struct {
	Type           TransactionType `json:"type"`
	AmountMinor    *int64          `json:"amount_minor,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	RequiresAction bool            `json:"requires_action"`
}

// Amount returns the amount in major units.
func (f *Financial) Amount() (float64, bool) {
	if f == nil || f.AmountMinor == nil {
		return 0, false
	}
	return float64(*f.AmountMinor) / 100, true
}

func AmountToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Record is the canonical persisted form of a captured event.
type Record struct {
	PostedAt       time.Time    `json:"posted_at"`
	CapturedAt     time.Time    `json:"captured_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Financial      *Financial   `json:"financial,omitempty"`
	CorrelationKey string       `json:"correlation_key"`
	Origin         Origin       `json:"origin"`
	Package        string       `json:"package"`
	SemanticType   SemanticType `json:"semantic_type"`
	Title          string       `json:"title"`
	Body           string       `json:"body"`
	Fingerprint    string       `json:"fingerprint"`
	ID             int64        `json:"id"`
	IsCancelled    bool         `json:"is_cancelled"`
	IsMarkedRead   bool         `json:"is_marked_read"`
	IsDeleted      bool         `json:"is_deleted"`
}
