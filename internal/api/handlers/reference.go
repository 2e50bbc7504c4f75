package handlers

import (
	"fmt"
	"net/http"

	"capital-risk/internal/api/models"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"
	"capital-risk/internal/runs"

	"github.com/gin-gonic/gin"
)

// ReferenceHandler serves business units, products and Basel event types.
type ReferenceHandler struct {
	store      runs.Store
	log        *logger.Logger
	production bool
}

func NewReferenceHandler(store runs.Store, log *logger.Logger, production bool) *ReferenceHandler {
	return &ReferenceHandler{store: store, log: log.With("component", "ReferenceHandler"), production: production}
}

// ListBusinessUnits handles GET /api/business-units
func (h *ReferenceHandler) ListBusinessUnits(c *gin.Context) {
	units, err := h.store.BusinessUnits(c.Request.Context())
	if err != nil {
		failure(c, h.log, h.production, "retrieve business units", err)
		return
	}
	c.JSON(http.StatusOK, models.BusinessUnitsResponse{BusinessUnits: units})
}

// CreateBusinessUnit handles POST /api/business-units
func (h *ReferenceHandler) CreateBusinessUnit(c *gin.Context) {
	var bu model.BusinessUnit
	if err := c.ShouldBindJSON(&bu); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	created, err := h.store.CreateBusinessUnit(c.Request.Context(), bu)
	if err != nil {
		failure(c, h.log, h.production, "create business unit", err)
		return
	}
	msg := fmt.Sprintf("Business unit %s created successfully", bu.Name)
	if !created {
		msg = fmt.Sprintf("Business unit %s already exists", bu.Name)
	}
	c.JSON(http.StatusOK, model.CreateResult{Success: true, Message: msg})
}

// ListProducts handles GET /api/products?business_unit=
func (h *ReferenceHandler) ListProducts(c *gin.Context) {
	var q models.CatalogQuery
	_ = c.ShouldBindQuery(&q)
	products, err := h.store.Products(c.Request.Context(), q.BusinessUnit)
	if err != nil {
		failure(c, h.log, h.production, "retrieve products", err)
		return
	}
	c.JSON(http.StatusOK, models.ProductsResponse{Products: products})
}

// ListBaselEventTypes handles GET /api/basel-event-types?business_unit=
func (h *ReferenceHandler) ListBaselEventTypes(c *gin.Context) {
	var q models.CatalogQuery
	_ = c.ShouldBindQuery(&q)
	types, err := h.store.BaselEventTypes(c.Request.Context(), q.BusinessUnit)
	if err != nil {
		failure(c, h.log, h.production, "retrieve Basel event types", err)
		return
	}
	c.JSON(http.StatusOK, models.BaselEventTypesResponse{BaselEventTypes: types})
}
