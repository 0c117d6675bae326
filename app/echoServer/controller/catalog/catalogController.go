package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	catalogsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/catalog"
)

type Controller struct {
	Svc catalogsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/products
func (h *Controller) ListProducts(c echo.Context) error {
	products, err := h.Svc.ListProducts(c.Request().Context())
	if err != nil {
		h.Log.Error("product list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": products})
}

// GET /v1/products/:id
func (h *Controller) GetProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	p, err := h.Svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		h.Log.Error("product get", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

// POST /v1/admin/products
func (h *Controller) CreateProduct(c echo.Context) error {
	var req CreateProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	p := &model.Product{
		Name:          req.Name,
		Quantity:      req.Quantity,
		PriceDaily:    req.PriceDaily,
		PriceWeekly:   req.PriceWeekly,
		PriceTwoWeeks: req.PriceTwoWeeks,
	}
	if err := h.Svc.CreateProduct(c.Request().Context(), p); err != nil {
		h.Log.Error("product create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": p.ID})
}

// POST /v1/admin/products/:id/units
func (h *Controller) AddCameras(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req AddUnitsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	added, err := h.Svc.AddCameras(c.Request().Context(), id, req.Count)
	if err != nil {
		h.Log.Error("add cameras", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"added": added})
}

// GET /v1/accessories
func (h *Controller) ListAccessories(c echo.Context) error {
	accessories, err := h.Svc.ListAccessories(c.Request().Context())
	if err != nil {
		h.Log.Error("accessory list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": accessories})
}

// POST /v1/admin/accessories
func (h *Controller) CreateAccessory(c echo.Context) error {
	var req CreateAccessoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	a := &model.Accessory{Name: req.Name, Quantity: req.Quantity, Price: req.Price}
	if err := h.Svc.CreateAccessory(c.Request().Context(), a); err != nil {
		h.Log.Error("accessory create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": a.ID})
}

// POST /v1/admin/accessories/:id/instances
func (h *Controller) AddAccessoryInstances(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req AddUnitsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	added, err := h.Svc.AddAccessoryInstances(c.Request().Context(), id, req.Count)
	if err != nil {
		h.Log.Error("add accessory instances", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"added": added})
}

// DELETE /v1/admin/accessories/instances/:id
//
// Retires the instance from rotation; booking history keeps referencing it.
func (h *Controller) RetireAccessoryInstance(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.RetireAccessoryInstance(c.Request().Context(), id); err != nil {
		h.Log.Error("retire accessory instance", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "retired"})
}
