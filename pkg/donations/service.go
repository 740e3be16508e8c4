package donations

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Gateway creates payment orders with the upstream payment provider. The
// signature on the provider's callback is verified locally against the
// shared secret, so the interface stays this small.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency string) (orderID string, err error)
}

// LocalGateway issues random order IDs without talking to a provider. Used in
// development and tests.
type LocalGateway struct{}

func (LocalGateway) CreateOrder(_ context.Context, _ int64, _ string) (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.WithStack(err)
	}
	return "order_" + hex.EncodeToString(buf), nil
}

type CreateDonationOptions struct {
	UserID      *int
	AmountMinor int64
	Currency    string
}

type VerifyPaymentOptions struct {
	OrderID   string
	PaymentID string
	Signature string
}

type ListDonationsOptions struct {
	Limit  *int
	Offset *int
	Status *string
}

type Service struct {
	db      *bun.DB
	gateway Gateway
	secret  []byte
}

func NewService(db *bun.DB, gateway Gateway, secret string) *Service {
	return &Service{
		db:      db,
		gateway: gateway,
		secret:  []byte(secret),
	}
}

// Create opens a donation order with the gateway and records it as pending.
func (svc *Service) Create(ctx context.Context, opts CreateDonationOptions) (*models.Donation, error) {
	orderID, err := svc.gateway.CreateOrder(ctx, opts.AmountMinor, opts.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	donation := &models.Donation{
		UserID:         opts.UserID,
		AmountMinor:    opts.AmountMinor,
		Currency:       opts.Currency,
		GatewayOrderID: orderID,
		Status:         models.DonationStatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = svc.db.NewInsert().Model(donation).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return donation, nil
}

// VerifyPayment checks the gateway callback signature and settles the
// donation. The expected signature is HMAC-SHA256 over "orderID|paymentID"
// with the gateway secret; a mismatch marks the donation failed.
func (svc *Service) VerifyPayment(ctx context.Context, opts VerifyPaymentOptions) (*models.Donation, error) {
	donation := &models.Donation{}
	err := svc.db.NewSelect().
		Model(donation).
		Where("d.gateway_order_id = ?", opts.OrderID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Donation")
		}
		return nil, errors.WithStack(err)
	}

	if donation.Status == models.DonationStatusPaid {
		// Gateways redeliver callbacks; settling twice is a no-op.
		return donation, nil
	}

	if !svc.signatureValid(opts.OrderID, opts.PaymentID, opts.Signature) {
		donation.Status = models.DonationStatusFailed
		donation.UpdatedAt = time.Now()
		_, uerr := svc.db.NewUpdate().
			Model(donation).
			Column("status", "updated_at").
			WherePK().
			Exec(ctx)
		if uerr != nil {
			return nil, errors.WithStack(uerr)
		}
		return nil, errcodes.PaymentVerificationFailed()
	}

	donation.GatewayPaymentID = &opts.PaymentID
	donation.Status = models.DonationStatusPaid
	donation.UpdatedAt = time.Now()

	_, err = svc.db.NewUpdate().
		Model(donation).
		Column("gateway_payment_id", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return donation, nil
}

func (svc *Service) signatureValid(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, svc.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (svc *Service) ListWithTotal(ctx context.Context, opts ListDonationsOptions) ([]*models.Donation, int, error) {
	donations := []*models.Donation{}

	q := svc.db.NewSelect().
		Model(&donations).
		Order("d.created_at DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Status != nil {
		q = q.Where("d.status = ?", *opts.Status)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return donations, total, nil
}
