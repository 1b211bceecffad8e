package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/data/repos"
	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

type BrandHandler struct {
	log    *logger.Logger
	brands repos.BrandRepo
}

func NewBrandHandler(log *logger.Logger, brands repos.BrandRepo) *BrandHandler {
	return &BrandHandler{
		log:    log.With("handler", "BrandHandler"),
		brands: brands,
	}
}

// POST /api/brands
func (h *BrandHandler) Create(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		RespondError(c, http.StatusBadRequest, "missing_name", errors.New("name is required"))
		return
	}
	brand, err := h.brands.Create(dbctx.Context{Ctx: c.Request.Context()}, &domain.Brand{
		ID:     uuid.New(),
		Name:   req.Name,
		Domain: req.Domain,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

// GET /api/brands/:brandId
func (h *BrandHandler) Get(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("brandId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brand_id", err)
		return
	}
	brand, err := h.brands.GetByID(dbctx.Context{Ctx: c.Request.Context()}, brandID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "brand_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	RespondOK(c, brand)
}
