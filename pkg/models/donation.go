package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DonationStatusCreated = "created"
	DonationStatusPaid    = "paid"
	DonationStatusFailed  = "failed"
)

type Donation struct {
	bun.BaseModel `bun:"table:donations,alias:d"`

	ID               int       `bun:",pk,nullzero" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	UserID           *int      `json:"user_id"` // null for anonymous donations
	AmountMinor      int64     `bun:",nullzero" json:"amount_minor"`
	Currency         string    `bun:",nullzero" json:"currency"`
	GatewayOrderID   string    `bun:",nullzero" json:"gateway_order_id"`
	GatewayPaymentID *string   `json:"gateway_payment_id"`
	Status           string    `bun:",nullzero" json:"status"`
}
