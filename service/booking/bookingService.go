// Package booking coordinates booking mutations: it runs the allocator,
// writes rows, recalculates prices on date changes and clears the
// availability cache after every write.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	bookingrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/booking"
	paymentrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/payment"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/service/allocation"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/service/pricing"
)

// dto

type ProductLine struct {
	ProductID int64
	Quantity  int
}

type AccessoryLine struct {
	AccessoryID int64
	Quantity    int
}

type CreateReq struct {
	Window        model.DateWindow
	Products      []ProductLine
	Accessories   []AccessoryLine
	Insurance     bool
	CustomerEmail string
}

type Created struct {
	OrderID     string
	Bookings    []model.Booking
	Quote       pricing.Quote
	PaymentLink string
}

type UpdateReq struct {
	StartDate     *time.Time
	EndDate       *time.Time
	PaymentStatus *model.PaymentStatus
	CustomerEmail *string
}

type Updated struct {
	Booking    *model.Booking
	PriceDelta float64
	Quote      *pricing.Quote
}

// collaborators

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Patch = repository shape
type Patch = bookingrepo.Patch

type Repo interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.Booking, error)
	List(ctx context.Context, from, to *time.Time) ([]model.Booking, error)

	InsertOrder(ctx context.Context, tx pgx.Tx, rows []model.Booking) ([]model.Booking, error)
	LockAccessoryInstances(ctx context.Context, tx pgx.Tx, instanceIDs []int64) error
	CountAccessoryConflicts(ctx context.Context, tx pgx.Tx, instanceIDs []int64, start, end time.Time, bufferDays int) (int64, error)

	Update(ctx context.Context, id int64, patch Patch) (*model.Booking, error)
	UpdateOrderWindow(ctx context.Context, orderID string, start, end time.Time, total float64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	MarkReturnsProcessed(ctx context.Context, cutoff time.Time) (int64, error)

	SetPaymentRefForOrder(ctx context.Context, orderID, ref string) error
	UpdatePaymentStatusByOrder(ctx context.Context, orderID string, status model.PaymentStatus) (int64, error)
}

type CatalogRepo interface {
	GetProducts(ctx context.Context, ids []int64) ([]model.Product, error)
	GetAccessories(ctx context.Context, ids []int64) ([]model.Accessory, error)
	GetCameras(ctx context.Context, ids []int64) ([]model.Camera, error)
	GetAccessoryInstances(ctx context.Context, ids []int64) ([]model.AccessoryInstance, error)
}

type Allocator interface {
	Allocate(ctx context.Context, kind allocation.Kind, id int64, quantity int, w model.DateWindow, bufferDays int) ([]int64, error)
}

// Invalidator clears cached availability after mutations.
type Invalidator interface {
	InvalidateAvailability()
}

type Service interface {
	Create(ctx context.Context, req CreateReq) (*Created, error)

	// Update applies a partial patch to one booking. A date change recomputes
	// the order total from the stored unit mix and reports the signed delta;
	// it never re-runs the allocator. calcOnly returns the delta without
	// persisting anything.
	Update(ctx context.Context, id int64, req UpdateReq, calcOnly bool) (*Updated, error)

	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Booking, error)
	List(ctx context.Context, from, to *time.Time) ([]model.Booking, error)

	// ProcessReturns flags every active booking whose rental ended at least
	// bufferDays ago. Idempotent.
	ProcessReturns(ctx context.Context) (int64, error)
}

// PaymentURLs are handed to the provider when a payment session is created.
type PaymentURLs struct {
	Callback string
	Success  string
	Cancel   string
}

type service struct {
	db         TxBeginner
	repo       Repo
	catalog    CatalogRepo
	alloc      Allocator
	payments   paymentrepo.Repo
	inv        Invalidator
	bufferDays int
	urls       PaymentURLs
	log        *slog.Logger
}

func New(db TxBeginner, r Repo, c CatalogRepo, a Allocator, p paymentrepo.Repo, inv Invalidator, bufferDays int, urls PaymentURLs, log *slog.Logger) Service {
	return &service{db: db, repo: r, catalog: c, alloc: a, payments: p, inv: inv, bufferDays: bufferDays, urls: urls, log: log}
}

// ----- Create -----

func (s *service) Create(ctx context.Context, req CreateReq) (*Created, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	// A concurrent checkout can win the race between our allocation read and
	// the insert; the store constraint rejects the loser and we retry the
	// whole allocate+insert sequence once.
	var (
		out *Created
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		out, err = s.tryCreate(ctx, req)
		if err == nil || Code(err) != ErrAllocationConflict {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.inv.InvalidateAvailability()

	link, perr := s.startPayment(ctx, out)
	if perr != nil {
		// release the units; the order never reached the customer
		if _, cerr := s.repo.UpdatePaymentStatusByOrder(ctx, out.OrderID, model.PaymentCancelled); cerr != nil {
			// the pending order keeps holding its units until someone cancels it
			s.log.Error("cancel after payment failure", "order_id", out.OrderID, "err", cerr)
		}
		s.inv.InvalidateAvailability()
		return nil, wrapErr(ErrPaymentProvider, perr)
	}
	out.PaymentLink = link
	return out, nil
}

func validateCreate(req CreateReq) error {
	if req.Window.Start.IsZero() || req.Window.End.IsZero() {
		return makeErr(ErrValidation, "start and end dates are required")
	}
	if req.Window.End.Before(req.Window.Start) {
		return makeErr(ErrValidation, "end date before start date")
	}
	if len(req.Products) == 0 {
		return makeErr(ErrValidation, "at least one product is required")
	}
	for _, p := range req.Products {
		if p.Quantity <= 0 {
			return makeErr(ErrValidation, fmt.Sprintf("invalid quantity for product %d", p.ProductID))
		}
	}
	for _, a := range req.Accessories {
		if a.Quantity <= 0 {
			return makeErr(ErrValidation, fmt.Sprintf("invalid quantity for accessory %d", a.AccessoryID))
		}
	}
	return nil
}

func (s *service) tryCreate(ctx context.Context, req CreateReq) (out *Created, err error) {
	// allocate cameras per product, in request order
	var cameraIDs []int64
	for _, line := range req.Products {
		ids, aerr := s.alloc.Allocate(ctx, allocation.KindCamera, line.ProductID, line.Quantity, req.Window, s.bufferDays)
		if aerr != nil {
			var ins *allocation.InsufficientUnitsError
			if errors.As(aerr, &ins) {
				return nil, wrapErr(ErrInsufficientUnits, aerr)
			}
			return nil, aerr
		}
		cameraIDs = append(cameraIDs, ids...)
	}

	var instanceIDs []int64
	for _, line := range req.Accessories {
		ids, aerr := s.alloc.Allocate(ctx, allocation.KindAccessory, line.AccessoryID, line.Quantity, req.Window, s.bufferDays)
		if aerr != nil {
			var ins *allocation.InsufficientUnitsError
			if errors.As(aerr, &ins) {
				return nil, wrapErr(ErrInsufficientUnits, aerr)
			}
			return nil, aerr
		}
		instanceIDs = append(instanceIDs, ids...)
	}

	quote, err := s.quoteFor(ctx, cameraIDs, instanceIDs, req.Insurance, req.Window.Start, req.Window.End)
	if err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	rows := make([]model.Booking, len(cameraIDs))
	for i, camID := range cameraIDs {
		id := camID
		rows[i] = model.Booking{
			OrderID:              orderID,
			CameraID:             &id,
			AccessoryInstanceIDs: instanceIDs,
			StartDate:            req.Window.Start,
			EndDate:              req.Window.End,
			PaymentStatus:        model.PaymentPending,
			TotalPrice:           quote.Total,
			Insurance:            req.Insurance,
			CustomerEmail:        req.CustomerEmail,
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// re-check accessory occupancy inside the transaction; the camera
	// exclusion constraint covers cameras on insert
	if err = s.repo.LockAccessoryInstances(ctx, tx, instanceIDs); err != nil {
		return nil, err
	}
	conflicts, err := s.repo.CountAccessoryConflicts(ctx, tx, instanceIDs, req.Window.Start, req.Window.End, s.bufferDays)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		err = makeErr(ErrAllocationConflict, "accessory instance taken by a concurrent booking")
		return nil, err
	}

	inserted, err := s.repo.InsertOrder(ctx, tx, rows)
	if err != nil {
		if isExclusionViolation(err) {
			err = wrapErr(ErrAllocationConflict, err)
		}
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &Created{OrderID: orderID, Bookings: inserted, Quote: quote}, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation
}

func (s *service) startPayment(ctx context.Context, out *Created) (string, error) {
	resp, err := s.payments.CreatePayment(paymentrepo.CreatePaymentReq{
		OrderID:     out.OrderID,
		Amount:      out.Quote.Total,
		Currency:    "DKK",
		CallbackURL: s.urls.Callback,
		SuccessURL:  s.urls.Success,
		CancelURL:   s.urls.Cancel,
	})
	if err != nil {
		return "", err
	}
	if err := s.repo.SetPaymentRefForOrder(ctx, out.OrderID, resp.PaymentID); err != nil {
		return "", err
	}
	return resp.RedirectURL, nil
}

// quoteFor prices the given unit mix. The camera's price override, when set,
// replaces the product's daily rate.
func (s *service) quoteFor(ctx context.Context, cameraIDs, instanceIDs []int64, insurance bool, start, end time.Time) (pricing.Quote, error) {
	var lines []pricing.Line
	if len(cameraIDs) > 0 {
		cameras, err := s.catalog.GetCameras(ctx, cameraIDs)
		if err != nil {
			return pricing.Quote{}, fmt.Errorf("get cameras: %w", err)
		}
		productIDs := make([]int64, 0, len(cameras))
		for _, c := range cameras {
			productIDs = append(productIDs, c.ProductID)
		}
		products, err := s.catalog.GetProducts(ctx, productIDs)
		if err != nil {
			return pricing.Quote{}, fmt.Errorf("get products: %w", err)
		}
		byID := make(map[int64]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		for _, c := range cameras {
			p, ok := byID[c.ProductID]
			if !ok {
				return pricing.Quote{}, fmt.Errorf("camera %d references missing product %d", c.ID, c.ProductID)
			}
			l := pricing.Line{ProductID: p.ID, Daily: p.PriceDaily, Weekly: p.PriceWeekly, TwoWeeks: p.PriceTwoWeeks}
			if c.PriceOverride != nil {
				l.Daily = *c.PriceOverride
			}
			lines = append(lines, l)
		}
	}

	var accLines []pricing.AccessoryLine
	if len(instanceIDs) > 0 {
		instances, err := s.catalog.GetAccessoryInstances(ctx, instanceIDs)
		if err != nil {
			return pricing.Quote{}, fmt.Errorf("get accessory instances: %w", err)
		}
		counts := make(map[int64]int)
		var accIDs []int64
		for _, ai := range instances {
			if counts[ai.AccessoryID] == 0 {
				accIDs = append(accIDs, ai.AccessoryID)
			}
			counts[ai.AccessoryID]++
		}
		accessories, err := s.catalog.GetAccessories(ctx, accIDs)
		if err != nil {
			return pricing.Quote{}, fmt.Errorf("get accessories: %w", err)
		}
		for _, a := range accessories {
			accLines = append(accLines, pricing.AccessoryLine{AccessoryID: a.ID, Price: a.Price, Quantity: counts[a.ID]})
		}
	}

	return pricing.Calculate(lines, accLines, insurance, start, end), nil
}

// ----- Update -----

func (s *service) Update(ctx context.Context, id int64, req UpdateReq, calcOnly bool) (*Updated, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound, "booking not found")
		}
		return nil, err
	}

	newStart, newEnd := b.StartDate, b.EndDate
	if req.StartDate != nil {
		newStart = *req.StartDate
	}
	if req.EndDate != nil {
		newEnd = *req.EndDate
	}
	if newEnd.Before(newStart) {
		return nil, makeErr(ErrValidation, "end date before start date")
	}
	dateChange := !newStart.Equal(b.StartDate) || !newEnd.Equal(b.EndDate)

	out := &Updated{Booking: b}

	// once any write has been attempted the cache must be cleared, success or
	// not: a failed write may still have changed rows
	mutated := false
	defer func() {
		if mutated {
			s.inv.InvalidateAvailability()
		}
	}()

	if dateChange {
		// Reprice from the mix stored on the order, not from what the catalog
		// would sell today. Changing dates deliberately does not re-validate
		// unit availability for the new window.
		rows, err := s.repo.ListByOrder(ctx, b.OrderID)
		if err != nil {
			return nil, err
		}
		var cameraIDs []int64
		for _, row := range rows {
			if row.CameraID != nil {
				cameraIDs = append(cameraIDs, *row.CameraID)
			}
		}
		quote, err := s.quoteFor(ctx, cameraIDs, b.AccessoryInstanceIDs, b.Insurance, newStart, newEnd)
		if err != nil {
			return nil, err
		}
		out.Quote = &quote
		out.PriceDelta = quote.Total - b.TotalPrice

		if calcOnly {
			return out, nil
		}

		// dates and the order total live on every row of the order; one
		// statement keeps the rows from diverging
		mutated = true
		if _, err := s.repo.UpdateOrderWindow(ctx, b.OrderID, newStart, newEnd, quote.Total); err != nil {
			return nil, err
		}
	} else if calcOnly {
		return out, nil
	}

	patch := bookingrepo.Patch{PaymentStatus: req.PaymentStatus, CustomerEmail: req.CustomerEmail}
	if !patch.Empty() || dateChange {
		if !patch.Empty() {
			mutated = true
		}
		updated, err := s.repo.Update(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		out.Booking = updated
	}

	return out, nil
}

// ----- Delete -----

func (s *service) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return makeErr(ErrNotFound, "booking not found")
	}
	// the camera and accessory instances are not touched: occupancy is
	// always computed from remaining rows
	s.inv.InvalidateAvailability()
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound, "booking not found")
		}
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, from, to *time.Time) ([]model.Booking, error) {
	return s.repo.List(ctx, from, to)
}

// ----- Returns processing -----

func (s *service) ProcessReturns(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.bufferDays)
	return s.repo.MarkReturnsProcessed(ctx, cutoff)
}
