package availability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	availsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/availability"
)

type Controller struct {
	Svc        availsvc.Service
	V          *validator.Validate
	Log        *slog.Logger
	BufferDays int
}

const dateLayout = "2006-01-02"

// POST /v1/availability
func (h *Controller) Query(c echo.Context) error {
	return h.query(c, 0)
}

// POST /v1/availability/coarse
//
// Same query, but a unit stays occupied through the post-rental turnaround
// buffer after each booking's end date.
func (h *Controller) QueryCoarse(c echo.Context) error {
	return h.query(c, h.BufferDays)
}

func (h *Controller) query(c echo.Context, bufferDays int) error {
	var req QueryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid start_date"})
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid end_date"})
	}
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "start_date must be before end_date"})
	}

	results, err := h.Svc.ComputeCached(c.Request().Context(),
		model.DateWindow{Start: start, End: end}, req.ProductIDs, req.AccessoryIDs, bufferDays)
	if err != nil {
		// a store failure must never read as "nothing available"
		h.Log.Error("availability query", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": results})
}
