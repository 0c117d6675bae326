package booking

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/service/allocation"
	bs "github.com/Muhammed-Altan/LejGoProLive-sub000/service/booking"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

const dateLayout = "2006-01-02"

// POST /v1/bookings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid start_date"})
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid end_date"})
	}

	svcReq := bs.CreateReq{
		Window:        model.DateWindow{Start: start, End: end},
		Insurance:     req.Insurance,
		CustomerEmail: req.CustomerEmail,
	}
	for _, p := range req.Products {
		svcReq.Products = append(svcReq.Products, bs.ProductLine{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	for _, a := range req.Accessories {
		svcReq.Accessories = append(svcReq.Accessories, bs.AccessoryLine{AccessoryID: a.AccessoryID, Quantity: a.Quantity})
	}

	out, err := h.Svc.Create(c.Request().Context(), svcReq)
	if err != nil {
		return h.mapError(c, "booking create", err)
	}

	// display names follow allocation order, not unit identity
	units := make([]echo.Map, len(out.Bookings))
	for i, b := range out.Bookings {
		units[i] = echo.Map{
			"booking_id":   b.ID,
			"camera_id":    b.CameraID,
			"display_name": fmt.Sprintf("Kamera %d", i+1),
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":     out.OrderID,
		"units":        units,
		"total":        out.Quote.Total,
		"rental_days":  out.Quote.RentalDays,
		"payment_link": out.PaymentLink,
	})
}

// GET /v1/admin/bookings
func (h *Controller) List(c echo.Context) error {
	var from, to *time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid from date"})
		}
		from = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid to date"})
		}
		to = &t
	}

	rows, err := h.Svc.List(c.Request().Context(), from, to)
	if err != nil {
		h.Log.Error("booking list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/admin/bookings/:id
func (h *Controller) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, "booking get", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// PATCH /v1/admin/bookings/:id
//
// ?calculate_only=true returns the price delta of a date change without
// persisting anything.
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	svcReq := bs.UpdateReq{CustomerEmail: req.CustomerEmail}
	if req.StartDate != nil {
		t, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid start_date"})
		}
		svcReq.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid end_date"})
		}
		svcReq.EndDate = &t
	}
	if req.PaymentStatus != nil {
		st := model.PaymentStatus(*req.PaymentStatus)
		svcReq.PaymentStatus = &st
	}

	calcOnly, _ := strconv.ParseBool(c.QueryParam("calculate_only"))

	out, err := h.Svc.Update(c.Request().Context(), id, svcReq, calcOnly)
	if err != nil {
		return h.mapError(c, "booking update", err)
	}

	resp := echo.Map{"data": out.Booking, "price_delta": out.PriceDelta}
	if out.Quote != nil {
		resp["quote"] = out.Quote
	}
	return c.JSON(http.StatusOK, resp)
}

// DELETE /v1/admin/bookings/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.mapError(c, "booking delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// POST /v1/admin/returns/process
func (h *Controller) ProcessReturns(c echo.Context) error {
	n, err := h.Svc.ProcessReturns(c.Request().Context())
	if err != nil {
		h.Log.Error("process returns", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"processed": n})
}

func (h *Controller) mapError(c echo.Context, op string, err error) error {
	switch bs.Code(err) {
	case bs.ErrValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case bs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
	case bs.ErrInsufficientUnits:
		resp := echo.Map{"message": "not enough units available"}
		var ins *allocation.InsufficientUnitsError
		if errors.As(err, &ins) {
			resp["needed"] = ins.Needed
			resp["found"] = ins.Found
		}
		return c.JSON(http.StatusConflict, resp)
	case bs.ErrAllocationConflict:
		return c.JSON(http.StatusConflict, echo.Map{"message": "units taken by a concurrent booking, please retry"})
	case bs.ErrPaymentProvider:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment provider unavailable"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
