// repository/booking/bookingRepository.go
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
)

// DB matches the *pgxpool.Pool methods this repo uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	StartDate       *time.Time
	EndDate         *time.Time
	PaymentStatus   *model.PaymentStatus
	TotalPrice      *float64
	CustomerEmail   *string
	ReturnProcessed *bool
}

func (p Patch) Empty() bool {
	return p.StartDate == nil && p.EndDate == nil && p.PaymentStatus == nil &&
		p.TotalPrice == nil && p.CustomerEmail == nil && p.ReturnProcessed == nil
}

type Repo interface {
	// Occupancy reads. activeOnly excludes cancelled bookings; overlap tests
	// happen in the services, not in SQL.
	ListForCameras(ctx context.Context, cameraIDs []int64, activeOnly bool) ([]model.Booking, error)
	ListForAccessoryInstances(ctx context.Context, instanceIDs []int64, activeOnly bool) ([]model.Booking, error)

	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.Booking, error)
	List(ctx context.Context, from, to *time.Time) ([]model.Booking, error)

	// Transactional write path for checkout.
	InsertOrder(ctx context.Context, tx pgx.Tx, rows []model.Booking) ([]model.Booking, error)
	LockAccessoryInstances(ctx context.Context, tx pgx.Tx, instanceIDs []int64) error
	CountAccessoryConflicts(ctx context.Context, tx pgx.Tx, instanceIDs []int64, start, end time.Time, bufferDays int) (int64, error)

	Update(ctx context.Context, id int64, patch Patch) (*model.Booking, error)
	UpdateOrderWindow(ctx context.Context, orderID string, start, end time.Time, total float64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)

	MarkReturnsProcessed(ctx context.Context, cutoff time.Time) (int64, error)

	SetPaymentRefForOrder(ctx context.Context, orderID, ref string) error
	FindOrderByPaymentRef(ctx context.Context, ref string) ([]model.Booking, error)
	UpdatePaymentStatusByOrder(ctx context.Context, orderID string, status model.PaymentStatus) (int64, error)
}

type repo struct{ db DB }

func New(db DB) Repo { return &repo{db} }

const bookingCols = `id, order_id, camera_id, accessory_instance_ids, start_date, end_date,
	payment_status, total_price, insurance, customer_email, payment_ref, return_processed, created_at`

func scanBooking(row pgx.Row, b *model.Booking) error {
	return row.Scan(
		&b.ID, &b.OrderID, &b.CameraID, &b.AccessoryInstanceIDs, &b.StartDate, &b.EndDate,
		&b.PaymentStatus, &b.TotalPrice, &b.Insurance, &b.CustomerEmail, &b.PaymentRef,
		&b.ReturnProcessed, &b.CreatedAt,
	)
}

func scanBookings(rows pgx.Rows) ([]model.Booking, error) {
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) ListForCameras(ctx context.Context, cameraIDs []int64, activeOnly bool) ([]model.Booking, error) {
	q := `SELECT ` + bookingCols + `
		FROM bookings
		WHERE camera_id = ANY($1)`
	if activeOnly {
		q += ` AND payment_status <> 'cancelled'`
	}
	q += ` ORDER BY id`

	rows, err := r.db.Query(ctx, q, cameraIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *repo) ListForAccessoryInstances(ctx context.Context, instanceIDs []int64, activeOnly bool) ([]model.Booking, error) {
	q := `SELECT ` + bookingCols + `
		FROM bookings
		WHERE accessory_instance_ids && $1::bigint[]`
	if activeOnly {
		q += ` AND payment_status <> 'cancelled'`
	}
	q += ` ORDER BY id`

	rows, err := r.db.Query(ctx, q, instanceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	b := &model.Booking{}
	err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id), b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) ListByOrder(ctx context.Context, orderID string) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingCols+` FROM bookings WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *repo) List(ctx context.Context, from, to *time.Time) ([]model.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings`
	var conds []string
	var args []any
	if from != nil {
		args = append(args, *from)
		conds = append(conds, fmt.Sprintf("end_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conds = append(conds, fmt.Sprintf("start_date <= $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY start_date DESC, id DESC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *repo) InsertOrder(ctx context.Context, tx pgx.Tx, rows []model.Booking) ([]model.Booking, error) {
	const q = `
		INSERT INTO bookings(order_id, camera_id, accessory_instance_ids, start_date, end_date,
			payment_status, total_price, insurance, customer_email)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at`
	out := make([]model.Booking, 0, len(rows))
	for _, b := range rows {
		if err := tx.QueryRow(ctx, q,
			b.OrderID, b.CameraID, b.AccessoryInstanceIDs, b.StartDate, b.EndDate,
			b.PaymentStatus, b.TotalPrice, b.Insurance, b.CustomerEmail,
		).Scan(&b.ID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// LockAccessoryInstances serializes concurrent checkouts touching the same
// accessory instances for the duration of the transaction.
func (r *repo) LockAccessoryInstances(ctx context.Context, tx pgx.Tx, instanceIDs []int64) error {
	if len(instanceIDs) == 0 {
		return nil
	}
	const q = `SELECT pg_advisory_xact_lock(id) FROM unnest($1::bigint[]) AS id`
	rows, err := tx.Query(ctx, q, instanceIDs)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}

func (r *repo) CountAccessoryConflicts(ctx context.Context, tx pgx.Tx, instanceIDs []int64, start, end time.Time, bufferDays int) (int64, error) {
	if len(instanceIDs) == 0 {
		return 0, nil
	}
	const q = `
		SELECT count(*)
		FROM bookings
		WHERE accessory_instance_ids && $1::bigint[]
		AND payment_status <> 'cancelled'
		AND start_date <= ($3::date + $4::int)
		AND (end_date + $4::int) >= $2::date`
	var n int64
	err := tx.QueryRow(ctx, q, instanceIDs, start, end, bufferDays).Scan(&n)
	return n, err
}

func (r *repo) Update(ctx context.Context, id int64, patch Patch) (*model.Booking, error) {
	sets := make([]string, 0, 6)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	}
	if patch.PaymentStatus != nil {
		add("payment_status", *patch.PaymentStatus)
	}
	if patch.TotalPrice != nil {
		add("total_price", *patch.TotalPrice)
	}
	if patch.CustomerEmail != nil {
		add("customer_email", *patch.CustomerEmail)
	}
	if patch.ReturnProcessed != nil {
		add("return_processed", *patch.ReturnProcessed)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + bookingCols
	b := &model.Booking{}
	if err := scanBooking(r.db.QueryRow(ctx, q, args...), b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateOrderWindow moves every row of an order to the new dates and total in
// a single statement, so the order's rows can never diverge.
func (r *repo) UpdateOrderWindow(ctx context.Context, orderID string, start, end time.Time, total float64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings SET start_date = $2, end_date = $3, total_price = $4 WHERE order_id = $1`,
		orderID, start, end, total)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repo) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkReturnsProcessed flags every active booking whose rental ended on or
// before cutoff. Idempotent: already-flagged rows are skipped.
func (r *repo) MarkReturnsProcessed(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
		UPDATE bookings
		SET return_processed = true
		WHERE return_processed = false
		AND payment_status <> 'cancelled'
		AND end_date <= $1`
	tag, err := r.db.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repo) SetPaymentRefForOrder(ctx context.Context, orderID, ref string) error {
	_, err := r.db.Exec(ctx, `UPDATE bookings SET payment_ref = $2 WHERE order_id = $1`, orderID, ref)
	return err
}

func (r *repo) FindOrderByPaymentRef(ctx context.Context, ref string) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingCols+` FROM bookings WHERE payment_ref = $1 ORDER BY id`, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *repo) UpdatePaymentStatusByOrder(ctx context.Context, orderID string, status model.PaymentStatus) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE bookings SET payment_status = $2 WHERE order_id = $1`, orderID, status)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
