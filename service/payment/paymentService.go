// Package payment turns provider callbacks into payment status transitions.
package paymentsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	invoicerepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/invoice"
	paymentrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/payment"
)

var ErrBadSignature = errors.New("bad callback signature")

type Invalidator interface {
	InvalidateAvailability()
}

// BookingStore is the slice of the booking repository this service needs.
type BookingStore interface {
	FindOrderByPaymentRef(ctx context.Context, ref string) ([]model.Booking, error)
	UpdatePaymentStatusByOrder(ctx context.Context, orderID string, status model.PaymentStatus) (int64, error)
}

type Service interface {
	HandleCallback(ctx context.Context, sigHeader string, raw []byte) error
}

type service struct {
	verifier paymentrepo.Repo
	bookings BookingStore
	invoices invoicerepo.Repo
	inv      Invalidator
	log      *slog.Logger
}

func New(verifier paymentrepo.Repo, b BookingStore, i invoicerepo.Repo, inv Invalidator, log *slog.Logger) Service {
	return &service{verifier: verifier, bookings: b, invoices: i, inv: inv, log: log}
}

// statusMap translates provider statuses into ours.
var statusMap = map[string]model.PaymentStatus{
	"authorized": model.PaymentAuthorized,
	"captured":   model.PaymentPaid,
	"paid":       model.PaymentPaid,
	"declined":   model.PaymentFailed,
	"failed":     model.PaymentFailed,
	"cancelled":  model.PaymentCancelled,
	"expired":    model.PaymentCancelled,
}

func (s *service) HandleCallback(ctx context.Context, sigHeader string, raw []byte) error {
	if err := s.verifier.VerifyCallbackSignature(sigHeader, raw); err != nil {
		return ErrBadSignature
	}

	var ev paymentrepo.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("bad callback json: %w", err)
	}
	if ev.PaymentID == "" || ev.Status == "" {
		return errors.New("missing callback fields")
	}

	status, ok := statusMap[ev.Status]
	if !ok {
		// unknown statuses are acknowledged and ignored
		s.log.Warn("unknown payment status", "status", ev.Status, "payment_id", ev.PaymentID)
		return nil
	}

	rows, err := s.bookings.FindOrderByPaymentRef(ctx, ev.PaymentID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("payment %s not mapped to an order", ev.PaymentID)
	}
	order := rows[0]

	// repeated events for the same status are a no-op
	if order.PaymentStatus == status {
		return nil
	}

	if _, err := s.bookings.UpdatePaymentStatusByOrder(ctx, order.OrderID, status); err != nil {
		return err
	}

	// a cancellation or failure frees the units for other windows
	if status == model.PaymentCancelled || status == model.PaymentFailed {
		s.inv.InvalidateAvailability()
	}

	if status == model.PaymentPaid {
		if _, err := s.invoices.CreateInvoice(invoicerepo.CreateInvoiceReq{
			OrderID:       order.OrderID,
			Amount:        order.TotalPrice,
			Currency:      "DKK",
			CustomerEmail: order.CustomerEmail,
		}); err != nil {
			// invoicing is best effort; the payment itself went through
			s.log.Error("invoice create failed", "order_id", order.OrderID, "err", err)
		}
	}

	return nil
}
