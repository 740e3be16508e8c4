package donations

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/pkg/errors"
)

type handler struct {
	svc *Service
}

// create opens a donation order. Works for anonymous donors too; a logged-in
// user gets the donation attributed to their account.
func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	payload := CreateDonationPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	var userID *int
	if user, ok := auth.UserFromContext(c); ok {
		userID = &user.ID
	}

	donation, err := h.svc.Create(ctx, CreateDonationOptions{
		UserID:      userID,
		AmountMinor: payload.AmountMinor,
		Currency:    payload.Currency,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, donation)
}

// verify settles a donation from the gateway's payment callback.
func (h *handler) verify(c echo.Context) error {
	ctx := c.Request().Context()

	payload := VerifyPaymentPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	donation, err := h.svc.VerifyPayment(ctx, VerifyPaymentOptions{
		OrderID:   payload.OrderID,
		PaymentID: payload.PaymentID,
		Signature: payload.Signature,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, donation)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	query := ListDonationsQuery{}
	if err := c.Bind(&query); err != nil {
		return errors.WithStack(err)
	}

	donations, total, err := h.svc.ListWithTotal(ctx, ListDonationsOptions{
		Limit:  &query.Limit,
		Offset: &query.Offset,
		Status: query.Status,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"donations": donations,
		"total":     total,
	})
}
