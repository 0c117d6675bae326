package booking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	paymentrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/payment"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/service/allocation"
)

// ----- mocks -----

type repoMock struct {
	byID      map[int64]*model.Booking
	orderRows []model.Booking

	insertErrs  []error // one per InsertOrder call; nil means success
	inserted    [][]model.Booking
	locked      [][]int64
	conflicts   int64
	updates     map[int64][]Patch
	deleted     int64
	returnCut   time.Time
	returnCount int64
	paymentRefs map[string]string
	statusSet   []string
	statusErr   error

	orderWindows   []orderWindowCall
	orderWindowErr error
}

type orderWindowCall struct {
	orderID    string
	start, end time.Time
	total      float64
}

func newRepoMock() *repoMock {
	return &repoMock{
		byID:        map[int64]*model.Booking{},
		updates:     map[int64][]Patch{},
		paymentRefs: map[string]string{},
	}
}

func (m *repoMock) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *repoMock) ListByOrder(ctx context.Context, orderID string) ([]model.Booking, error) {
	return m.orderRows, nil
}

func (m *repoMock) List(ctx context.Context, from, to *time.Time) ([]model.Booking, error) {
	return m.orderRows, nil
}

func (m *repoMock) InsertOrder(ctx context.Context, tx pgx.Tx, rows []model.Booking) ([]model.Booking, error) {
	var err error
	if len(m.insertErrs) > 0 {
		err, m.insertErrs = m.insertErrs[0], m.insertErrs[1:]
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, len(rows))
	for i, b := range rows {
		b.ID = int64(100 + i)
		b.CreatedAt = time.Now()
		out[i] = b
	}
	m.inserted = append(m.inserted, out)
	return out, nil
}

func (m *repoMock) LockAccessoryInstances(ctx context.Context, tx pgx.Tx, instanceIDs []int64) error {
	m.locked = append(m.locked, instanceIDs)
	return nil
}

func (m *repoMock) CountAccessoryConflicts(ctx context.Context, tx pgx.Tx, instanceIDs []int64, start, end time.Time, bufferDays int) (int64, error) {
	return m.conflicts, nil
}

func (m *repoMock) Update(ctx context.Context, id int64, patch Patch) (*model.Booking, error) {
	m.updates[id] = append(m.updates[id], patch)
	b, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	if patch.StartDate != nil {
		cp.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		cp.EndDate = *patch.EndDate
	}
	if patch.TotalPrice != nil {
		cp.TotalPrice = *patch.TotalPrice
	}
	if patch.PaymentStatus != nil {
		cp.PaymentStatus = *patch.PaymentStatus
	}
	if patch.CustomerEmail != nil {
		cp.CustomerEmail = *patch.CustomerEmail
	}
	m.byID[id] = &cp
	return &cp, nil
}

func (m *repoMock) UpdateOrderWindow(ctx context.Context, orderID string, start, end time.Time, total float64) (int64, error) {
	if m.orderWindowErr != nil {
		return 0, m.orderWindowErr
	}
	m.orderWindows = append(m.orderWindows, orderWindowCall{orderID: orderID, start: start, end: end, total: total})
	var n int64
	for id, b := range m.byID {
		if b.OrderID != orderID {
			continue
		}
		cp := *b
		cp.StartDate, cp.EndDate, cp.TotalPrice = start, end, total
		m.byID[id] = &cp
		n++
	}
	return n, nil
}

func (m *repoMock) Delete(ctx context.Context, id int64) (int64, error) {
	return m.deleted, nil
}

func (m *repoMock) MarkReturnsProcessed(ctx context.Context, cutoff time.Time) (int64, error) {
	m.returnCut = cutoff
	return m.returnCount, nil
}

func (m *repoMock) SetPaymentRefForOrder(ctx context.Context, orderID, ref string) error {
	m.paymentRefs[orderID] = ref
	return nil
}

func (m *repoMock) FindOrderByPaymentRef(ctx context.Context, ref string) ([]model.Booking, error) {
	return m.orderRows, nil
}

func (m *repoMock) UpdatePaymentStatusByOrder(ctx context.Context, orderID string, status model.PaymentStatus) (int64, error) {
	if m.statusErr != nil {
		return 0, m.statusErr
	}
	m.statusSet = append(m.statusSet, fmt.Sprintf("%s=%s", orderID, status))
	return 1, nil
}

type catalogMock struct {
	products    map[int64]model.Product
	accessories map[int64]model.Accessory
	cameras     map[int64]model.Camera
	instances   map[int64]model.AccessoryInstance
}

func (m *catalogMock) GetProducts(ctx context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	seen := map[int64]bool{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	return out, nil
}

func (m *catalogMock) GetAccessories(ctx context.Context, ids []int64) ([]model.Accessory, error) {
	var out []model.Accessory
	for _, id := range ids {
		if a, ok := m.accessories[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *catalogMock) GetCameras(ctx context.Context, ids []int64) ([]model.Camera, error) {
	var out []model.Camera
	for _, id := range ids {
		if c, ok := m.cameras[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *catalogMock) GetAccessoryInstances(ctx context.Context, ids []int64) ([]model.AccessoryInstance, error) {
	var out []model.AccessoryInstance
	for _, id := range ids {
		if ai, ok := m.instances[id]; ok {
			out = append(out, ai)
		}
	}
	return out, nil
}

type allocMock struct {
	cameras   map[int64][]int64
	instances map[int64][]int64
	err       error
}

func (m *allocMock) Allocate(ctx context.Context, kind allocation.Kind, id int64, quantity int, w model.DateWindow, bufferDays int) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	if kind == allocation.KindCamera {
		return m.cameras[id], nil
	}
	return m.instances[id], nil
}

type payMock struct {
	resp    *paymentrepo.CreatePaymentResp
	err     error
	calls   int
	lastReq paymentrepo.CreatePaymentReq
}

func (m *payMock) CreatePayment(req paymentrepo.CreatePaymentReq) (*paymentrepo.CreatePaymentResp, error) {
	m.calls++
	m.lastReq = req
	return m.resp, m.err
}

func (m *payMock) VerifyCallbackSignature(sigHeader string, rawBody []byte) error { return nil }

type invMock struct{ calls int }

func (m *invMock) InvalidateAvailability() { m.calls++ }

// ----- fixtures -----

func date(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}

func window(s, e int) model.DateWindow {
	return model.DateWindow{Start: date(s), End: date(e)}
}

func fixtureCatalog() *catalogMock {
	return &catalogMock{
		products: map[int64]model.Product{
			1: {ID: 1, Name: "GoPro Hero 12", PriceDaily: 100, PriceWeekly: 600, PriceTwoWeeks: 1000},
		},
		cameras: map[int64]model.Camera{
			10: {ID: 10, ProductID: 1},
			11: {ID: 11, ProductID: 1},
		},
		accessories: map[int64]model.Accessory{
			5: {ID: 5, Name: "Chest mount", Price: 25},
		},
		instances: map[int64]model.AccessoryInstance{
			50: {ID: 50, AccessoryID: 5, IsAvailable: true},
		},
	}
}

type fixture struct {
	pool pgxmock.PgxPoolIface
	repo *repoMock
	pay  *payMock
	inv  *invMock
	logs *bytes.Buffer
	svc  Service
}

var testURLs = PaymentURLs{
	Callback: "https://lejgopro.dk/v1/payment/webhook",
	Success:  "https://lejgopro.dk/checkout/success",
	Cancel:   "https://lejgopro.dk/checkout/cancel",
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := newRepoMock()
	alloc := &allocMock{
		cameras:   map[int64][]int64{1: {10, 11}},
		instances: map[int64][]int64{5: {50}},
	}
	pay := &payMock{resp: &paymentrepo.CreatePaymentResp{PaymentID: "pay_1", RedirectURL: "https://pay.example/p/1"}}
	inv := &invMock{}
	logs := &bytes.Buffer{}
	svc := New(pool, repo, fixtureCatalog(), alloc, pay, inv, 3, testURLs,
		slog.New(slog.NewJSONHandler(logs, nil)))
	return &fixture{pool: pool, repo: repo, pay: pay, inv: inv, logs: logs, svc: svc}
}

func createReq() CreateReq {
	return CreateReq{
		Window:        window(1, 2),
		Products:      []ProductLine{{ProductID: 1, Quantity: 2}},
		Accessories:   []AccessoryLine{{AccessoryID: 5, Quantity: 1}},
		CustomerEmail: "kunde@example.dk",
	}
}

// ----- Create -----

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]CreateReq{
		"missing dates":     {Products: []ProductLine{{ProductID: 1, Quantity: 1}}},
		"inverted dates":    {Window: window(5, 1), Products: []ProductLine{{ProductID: 1, Quantity: 1}}},
		"no products":       {Window: window(1, 2)},
		"zero quantity":     {Window: window(1, 2), Products: []ProductLine{{ProductID: 1, Quantity: 0}}},
		"bad accessory qty": {Window: window(1, 2), Products: []ProductLine{{ProductID: 1, Quantity: 1}}, Accessories: []AccessoryLine{{AccessoryID: 5, Quantity: -1}}},
	}
	for name, req := range cases {
		_, err := f.svc.Create(context.Background(), req)
		require.Equal(t, ErrValidation, Code(err), name)
	}
	require.Empty(t, f.repo.inserted)
	require.Zero(t, f.inv.calls)
}

func TestCreateHappyPath(t *testing.T) {
	f := newFixture(t)
	f.pool.ExpectBegin()
	f.pool.ExpectCommit()

	out, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	require.NotEmpty(t, out.OrderID)
	require.Len(t, out.Bookings, 2)
	for _, b := range out.Bookings {
		require.Equal(t, out.OrderID, b.OrderID)
		require.Equal(t, []int64{50}, b.AccessoryInstanceIDs)
		require.Equal(t, model.PaymentPending, b.PaymentStatus)
	}
	require.NotNil(t, out.Bookings[0].CameraID)
	require.Equal(t, int64(10), *out.Bookings[0].CameraID)
	require.Equal(t, int64(11), *out.Bookings[1].CameraID)

	// 2 days x 100 + second camera at 25% off + one accessory at 25
	require.InDelta(t, 375.0, out.Quote.Total, 0.001)
	require.InDelta(t, 375.0, out.Bookings[0].TotalPrice, 0.001)

	require.Equal(t, "https://pay.example/p/1", out.PaymentLink)
	require.Equal(t, "pay_1", f.repo.paymentRefs[out.OrderID])
	require.Equal(t, testURLs.Callback, f.pay.lastReq.CallbackURL)
	require.Equal(t, testURLs.Success, f.pay.lastReq.SuccessURL)
	require.Equal(t, testURLs.Cancel, f.pay.lastReq.CancelURL)
	require.Equal(t, [][]int64{{50}}, f.repo.locked)
	require.Equal(t, 1, f.inv.calls)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreateInsufficientUnitsWritesNothing(t *testing.T) {
	f := newFixture(t)
	alloc := &allocMock{err: &allocation.InsufficientUnitsError{Kind: allocation.KindCamera, ID: 1, Needed: 3, Found: 2}}
	f.svc = New(f.pool, f.repo, fixtureCatalog(), alloc, f.pay, f.inv, 3, testURLs,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := f.svc.Create(context.Background(), createReq())

	require.Equal(t, ErrInsufficientUnits, Code(err))
	var ins *allocation.InsufficientUnitsError
	require.True(t, errors.As(err, &ins))
	require.Equal(t, 3, ins.Needed)
	require.Equal(t, 2, ins.Found)

	require.Empty(t, f.repo.inserted)
	require.Zero(t, f.inv.calls)
	require.Zero(t, f.pay.calls)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func exclusionErr() error {
	return &pgconn.PgError{Code: pgerrcode.ExclusionViolation, ConstraintName: "bookings_no_camera_overlap"}
}

func TestCreateRetriesOnceOnConflict(t *testing.T) {
	f := newFixture(t)
	f.repo.insertErrs = []error{exclusionErr(), nil}
	f.pool.ExpectBegin()
	f.pool.ExpectRollback()
	f.pool.ExpectBegin()
	f.pool.ExpectCommit()

	out, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	require.Len(t, out.Bookings, 2)
	require.Len(t, f.repo.inserted, 1)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreateGivesUpAfterSecondConflict(t *testing.T) {
	f := newFixture(t)
	f.repo.insertErrs = []error{exclusionErr(), exclusionErr()}
	f.pool.ExpectBegin()
	f.pool.ExpectRollback()
	f.pool.ExpectBegin()
	f.pool.ExpectRollback()

	_, err := f.svc.Create(context.Background(), createReq())
	require.Equal(t, ErrAllocationConflict, Code(err))
	require.Zero(t, f.inv.calls)
	require.Zero(t, f.pay.calls)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreateAccessoryConflictInsideTx(t *testing.T) {
	f := newFixture(t)
	f.repo.conflicts = 1
	// the re-check fires on both attempts
	f.pool.ExpectBegin()
	f.pool.ExpectRollback()
	f.pool.ExpectBegin()
	f.pool.ExpectRollback()

	_, err := f.svc.Create(context.Background(), createReq())
	require.Equal(t, ErrAllocationConflict, Code(err))
	require.Empty(t, f.repo.inserted)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreatePaymentFailureCancelsOrder(t *testing.T) {
	f := newFixture(t)
	f.pay.err = errors.New("provider timeout")
	f.pool.ExpectBegin()
	f.pool.ExpectCommit()

	_, err := f.svc.Create(context.Background(), createReq())
	require.Equal(t, ErrPaymentProvider, Code(err))

	require.Len(t, f.repo.inserted, 1)
	require.Len(t, f.repo.statusSet, 1)
	require.Contains(t, f.repo.statusSet[0], "=cancelled")
	// once after the write, once after the cancellation
	require.Equal(t, 2, f.inv.calls)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

func TestCreateCancelFailureAfterPaymentFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.pay.err = errors.New("provider timeout")
	f.repo.statusErr = errors.New("db down")
	f.pool.ExpectBegin()
	f.pool.ExpectCommit()

	_, err := f.svc.Create(context.Background(), createReq())
	require.Equal(t, ErrPaymentProvider, Code(err))

	// the order is stuck pending and holding units; that has to be visible
	require.Contains(t, f.logs.String(), "cancel after payment failure")
	require.Equal(t, 2, f.inv.calls)
	require.NoError(t, f.pool.ExpectationsWereMet())
}

// ----- Update -----

func seedOrder(f *fixture) {
	cam10, cam11 := int64(10), int64(11)
	b7 := &model.Booking{ID: 7, OrderID: "ord-1", CameraID: &cam10, AccessoryInstanceIDs: []int64{50},
		StartDate: date(1), EndDate: date(2), PaymentStatus: model.PaymentPaid, TotalPrice: 375}
	b8 := &model.Booking{ID: 8, OrderID: "ord-1", CameraID: &cam11, AccessoryInstanceIDs: []int64{50},
		StartDate: date(1), EndDate: date(2), PaymentStatus: model.PaymentPaid, TotalPrice: 375}
	f.repo.byID[7] = b7
	f.repo.byID[8] = b8
	f.repo.orderRows = []model.Booking{*b7, *b8}
}

func TestUpdateDateChangeRepricesWholeOrder(t *testing.T) {
	f := newFixture(t)
	seedOrder(f)

	newEnd := date(7) // 7 rental days, weekly tier
	out, err := f.svc.Update(context.Background(), 7, UpdateReq{EndDate: &newEnd}, false)
	require.NoError(t, err)

	// 600 + 450 (second camera at 25% off) + 25 accessory
	require.NotNil(t, out.Quote)
	require.InDelta(t, 1075.0, out.Quote.Total, 0.001)
	require.InDelta(t, 700.0, out.PriceDelta, 0.001)

	// the whole order moves in one write
	require.Len(t, f.repo.orderWindows, 1)
	call := f.repo.orderWindows[0]
	require.Equal(t, "ord-1", call.orderID)
	require.True(t, call.end.Equal(newEnd))
	require.InDelta(t, 1075.0, call.total, 0.001)

	require.True(t, out.Booking.EndDate.Equal(newEnd))
	require.InDelta(t, 1075.0, out.Booking.TotalPrice, 0.001)
	require.Equal(t, 1, f.inv.calls)
}

func TestUpdateInvalidatesCacheEvenWhenWriteFails(t *testing.T) {
	f := newFixture(t)
	seedOrder(f)
	f.repo.orderWindowErr = errors.New("connection reset")

	newEnd := date(7)
	_, err := f.svc.Update(context.Background(), 7, UpdateReq{EndDate: &newEnd}, false)
	require.Error(t, err)
	require.Equal(t, 1, f.inv.calls, "a failed write may still have changed rows")
}

func TestUpdateCalcOnlyPersistsNothing(t *testing.T) {
	f := newFixture(t)
	seedOrder(f)

	newEnd := date(7)
	out, err := f.svc.Update(context.Background(), 7, UpdateReq{EndDate: &newEnd}, true)
	require.NoError(t, err)
	require.InDelta(t, 700.0, out.PriceDelta, 0.001)

	require.Empty(t, f.repo.updates)
	require.Empty(t, f.repo.orderWindows)
	require.Zero(t, f.inv.calls)
}

func TestUpdateStatusOnly(t *testing.T) {
	f := newFixture(t)
	seedOrder(f)

	st := model.PaymentCancelled
	out, err := f.svc.Update(context.Background(), 7, UpdateReq{PaymentStatus: &st}, false)
	require.NoError(t, err)
	require.Equal(t, model.PaymentCancelled, out.Booking.PaymentStatus)
	require.Nil(t, out.Quote)
	require.Zero(t, out.PriceDelta)
	require.Equal(t, 1, f.inv.calls)
}

func TestUpdateRejectsInvertedDates(t *testing.T) {
	f := newFixture(t)
	seedOrder(f)

	badEnd := date(1).AddDate(0, 0, -5)
	_, err := f.svc.Update(context.Background(), 7, UpdateReq{EndDate: &badEnd}, false)
	require.Equal(t, ErrValidation, Code(err))
	require.Zero(t, f.inv.calls)
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), 999, UpdateReq{}, false)
	require.Equal(t, ErrNotFound, Code(err))
}

// ----- Delete -----

func TestDeleteInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	f.repo.deleted = 1

	require.NoError(t, f.svc.Delete(context.Background(), 7))
	require.Equal(t, 1, f.inv.calls)
}

func TestDeleteNotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.deleted = 0

	err := f.svc.Delete(context.Background(), 999)
	require.Equal(t, ErrNotFound, Code(err))
	require.Zero(t, f.inv.calls)
}

// ----- Returns -----

func TestProcessReturnsCutoff(t *testing.T) {
	f := newFixture(t)
	f.repo.returnCount = 4

	n, err := f.svc.ProcessReturns(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), n)

	want := time.Now().UTC().AddDate(0, 0, -3)
	require.WithinDuration(t, want, f.repo.returnCut, time.Minute)
	require.Zero(t, f.inv.calls, "returns processing does not touch availability")
}
