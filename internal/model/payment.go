package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider is the closed set of payment back-ends.
type Provider string

const (
	ProviderStripe   Provider = "stripe"
	ProviderRazorpay Provider = "razorpay"
	ProviderCOD      Provider = "cod"
)

// DisplayName is the human readable provider name.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderStripe:
		return "Stripe"
	case ProviderRazorpay:
		return "Razorpay"
	case ProviderCOD:
		return "Cash on Delivery"
	default:
		return string(p)
	}
}

// PaymentStatus is the state of a single payment attempt.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCompleted  PaymentStatus = "completed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentAuthorized, PaymentFailed, PaymentCompleted:
		return true
	}
	return false
}

// Payment is a record of a payment attempt. (OrderID, Provider, TransactionID)
// is unique.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OrderID       uuid.UUID       `json:"orderId" db:"order_id"`
	Provider      Provider        `json:"provider" db:"provider"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	Status        PaymentStatus   `json:"status" db:"status"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	Payload       json.RawMessage `json:"-" db:"payload"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// PaymentInstruction is what the client needs to continue payment with the
// chosen provider. Field names follow the provider SDK conventions.
type PaymentInstruction struct {
	Provider       Provider `json:"provider"`
	Status         string   `json:"status,omitempty"`
	ClientSecret   string   `json:"client_secret,omitempty"`
	PublishableKey string   `json:"publishable_key,omitempty"`
	PaymentIntent  string   `json:"payment_intent,omitempty"`
	OrderID        string   `json:"order_id,omitempty"`
	Amount         int64    `json:"amount,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	KeyID          string   `json:"key_id,omitempty"`
}
