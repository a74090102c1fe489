package credit

import "time"

const (
	EntryCredit = "credit"
	EntryDebit  = "debit"
)

const (
	CategoryPurchase         = "purchase"
	CategoryManualAdjustment = "manual_adjustment"
	CategorySession          = "session"
)

// Entry is one immutable ledger row. Exactly one is written per
// balance mutation, in the same transaction as the balance update.
type Entry struct {
	ID             int       `db:"id" json:"id"`
	UserID         int       `db:"user_id" json:"user_id"`
	Amount         int       `db:"amount" json:"amount"`
	EntryType      string    `db:"entry_type" json:"entry_type"`
	Category       string    `db:"category" json:"category"`
	Reason         string    `db:"reason" json:"reason"`
	AdminID        *int      `db:"admin_id" json:"admin_id,omitempty"`
	BookingID      *int      `db:"booking_id" json:"booking_id,omitempty"`
	IdempotencyKey *string   `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type AdjustRequest struct {
	UserID         int    `json:"user_id" binding:"required"`
	Amount         int    `json:"amount" binding:"required,min=1"`
	Type           string `json:"type" binding:"required,oneof=credit debit"`
	Category       string `json:"category" binding:"required"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotency_key"`
}

type AdjustResponse struct {
	Balance int    `json:"balance"`
	Entry   *Entry `json:"entry"`
}
