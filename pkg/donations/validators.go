package donations

type CreateDonationPayload struct {
	AmountMinor int64  `json:"amount_minor" validate:"required,min=100"`
	Currency    string `json:"currency" default:"INR" validate:"required,len=3,uppercase"`
}

type VerifyPaymentPayload struct {
	OrderID   string `json:"order_id" validate:"required,max=100"`
	PaymentID string `json:"payment_id" validate:"required,max=100"`
	Signature string `json:"signature" validate:"required,max=200"`
}

type ListDonationsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=created paid failed"`
}
