// model/booking.go
package model

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentPaid       PaymentStatus = "paid"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentFailed     PaymentStatus = "failed"
)

// Booking is one camera unit reserved for a date range. A checkout with
// several cameras produces several rows sharing one OrderID; the order's
// accessory instances are attached in full to every row.
type Booking struct {
	ID                   int64         `json:"id"`
	OrderID              string        `json:"order_id"`
	CameraID             *int64        `json:"camera_id,omitempty"`
	AccessoryInstanceIDs []int64       `json:"accessory_instance_ids,omitempty"`
	StartDate            time.Time     `json:"start_date"`
	EndDate              time.Time     `json:"end_date"`
	PaymentStatus        PaymentStatus `json:"payment_status"`
	TotalPrice           float64       `json:"total_price"`
	Insurance            bool          `json:"insurance"`
	CustomerEmail        string        `json:"customer_email"`
	PaymentRef           *string       `json:"payment_ref,omitempty"`
	ReturnProcessed      bool          `json:"return_processed"`
	CreatedAt            time.Time     `json:"created_at"`
}

// Active reports whether the booking still occupies its units.
func (b Booking) Active() bool { return b.PaymentStatus != PaymentCancelled }

// DateWindow is an inclusive calendar range, start <= end.
type DateWindow struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Overlaps reports whether the window conflicts with a booking on [start, end].
// Both ranges are extended past their end by buffer before the inclusive test,
// matching the store's exclusion constraint.
func (w DateWindow) Overlaps(start, end time.Time, buffer time.Duration) bool {
	return !w.Start.After(end.Add(buffer)) && !w.End.Add(buffer).Before(start)
}
