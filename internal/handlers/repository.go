package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/modules/repository"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

// RepositoryHandler exposes the ingestion and grounding read paths.
type RepositoryHandler struct {
	log        *logger.Logger
	ingestDeps repository.IngestDeps
	grounding  *repository.GroundingService
}

func NewRepositoryHandler(log *logger.Logger, ingestDeps repository.IngestDeps, grounding *repository.GroundingService) *RepositoryHandler {
	return &RepositoryHandler{
		log:        log.With("handler", "RepositoryHandler"),
		ingestDeps: ingestDeps,
		grounding:  grounding,
	}
}

// POST /api/brands/:brandId/ingest
func (h *RepositoryHandler) Ingest(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("brandId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brand_id", err)
		return
	}
	var req struct {
		Content    string `json:"content"`
		Source     string `json:"source"`
		SourceID   string `json:"source_id"`
		SourceURL  string `json:"source_url"`
		SourcePage string `json:"source_page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	out, err := repository.Ingest(c.Request.Context(), h.ingestDeps, repository.IngestInput{
		BrandID:    brandID,
		Content:    req.Content,
		Source:     req.Source,
		SourceID:   req.SourceID,
		SourceURL:  req.SourceURL,
		SourcePage: req.SourcePage,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "brand_not_found", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "ingest_failed", err)
		return
	}
	RespondOK(c, out)
}

// POST /api/brands/:brandId/query
func (h *RepositoryHandler) QuerySimilar(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("brandId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brand_id", err)
		return
	}
	var req struct {
		Query   string                  `json:"query"`
		Filters repository.QueryFilters `json:"filters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	results, err := h.grounding.QuerySimilar(c.Request.Context(), brandID, req.Query, req.Filters)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "query_failed", err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

// POST /api/brands/:brandId/usage
func (h *RepositoryHandler) MarkUsed(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("brandId")); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brand_id", err)
		return
	}
	var req struct {
		ChunkIDs []uuid.UUID `json:"chunk_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.grounding.MarkUsed(c.Request.Context(), req.ChunkIDs); err != nil {
		RespondError(c, http.StatusInternalServerError, "usage_failed", err)
		return
	}
	RespondOK(c, gin.H{"updated": len(req.ChunkIDs)})
}
