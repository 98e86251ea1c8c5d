package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pitchside/pitchside/internal/cache"
	"github.com/pitchside/pitchside/internal/model"
	"github.com/pitchside/pitchside/internal/repository"
)

// FieldHandler serves the field catalogue. Reads go through the field
// cache so browsing never hits MySQL while the mirror is fresh; admin
// writes go straight to the repository and force a refresh so the
// mirror reflects the change immediately.
type FieldHandler struct {
	Cache  *cache.FieldCache
	Fields *repository.FieldRepo
}

func NewFieldHandler(c *cache.FieldCache, f *repository.FieldRepo) *FieldHandler {
	return &FieldHandler{Cache: c, Fields: f}
}

// List returns every active field, served from the mirror when fresh.
func (h *FieldHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fields, err := h.Cache.List(ctx)
	if err != nil {
		if err == cache.ErrNoFields {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "field list unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fields": fields})
}

// GetByID returns one field, preferring the mirror.
func (h *FieldHandler) GetByID(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Cache.GetByID(ctx, id)
	if err != nil {
		if err == cache.ErrFieldNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		if err == cache.ErrNoFields {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "field list unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, f)
}

type createFieldReq struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Capacity uint32 `json:"capacity"`
	Indoor   bool   `json:"indoor"`
}

// Create adds a field (admin only) and refreshes the mirror.
func (h *FieldHandler) Create(c echo.Context) error {
	var req createFieldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := model.Field{Name: req.Name, Address: req.Address, Capacity: req.Capacity, Indoor: req.Indoor}
	if err := h.Fields.Create(ctx, &f); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "field name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create field failed"})
	}
	// Push the new row into the mirror right away; a failure here only
	// delays visibility until the next refresh.
	if _, err := h.Cache.ForceRefresh(ctx); err != nil {
		c.Logger().Warnf("field mirror refresh after create failed: %v", err)
	}
	return c.JSON(http.StatusCreated, f)
}

type updateFieldReq struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Capacity *uint32 `json:"capacity"`
	Indoor   *bool   `json:"indoor"`
	IsActive *bool   `json:"is_active"`
}

// Update applies a partial update to a field (admin only) and
// refreshes the mirror.
func (h *FieldHandler) Update(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid field id"})
	}
	var req updateFieldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Capacity != nil && *req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Fields.Update(ctx, id, req.Name, req.Address, req.Capacity, req.Indoor, req.IsActive); err != nil {
		switch err {
		case repository.ErrFieldNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "field name already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update field failed"})
		}
	}
	if _, err := h.Cache.ForceRefresh(ctx); err != nil {
		c.Logger().Warnf("field mirror refresh after update failed: %v", err)
	}

	f, err := h.Fields.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load field failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// Refresh rebuilds the mirror from the database on demand (admin
// only). Unlike the read path it never serves stale data: a database
// failure is surfaced to the caller.
func (h *FieldHandler) Refresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	fields, err := h.Cache.ForceRefresh(ctx)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"refreshed": len(fields)})
}
