package models

import (
	"time"

	"github.com/uptrace/bun"
)

// OTP is a single-use login code. Only the bcrypt hash of the code is stored;
// a row is dead once ConsumedAt is set or ExpiresAt has passed.
type OTP struct {
	bun.BaseModel `bun:"table:otps,alias:o"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UserID     int        `bun:",nullzero" json:"user_id"`
	CodeHash   string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
}
