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

// ReviewHandler exposes the human curation surface.
type ReviewHandler struct {
	log    *logger.Logger
	review *repository.ReviewService
}

func NewReviewHandler(log *logger.Logger, review *repository.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		log:    log.With("handler", "ReviewHandler"),
		review: review,
	}
}

func reviewStatus(err error) (int, string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrChunkLocked):
		return http.StatusConflict, "chunk_locked"
	case errors.Is(err, repository.ErrNotApproved):
		return http.StatusBadRequest, "not_approved"
	case errors.Is(err, repository.ErrNotClusterMember):
		return http.StatusBadRequest, "not_cluster_member"
	case errors.Is(err, repository.ErrInvalidSeverity):
		return http.StatusBadRequest, "invalid_severity"
	}
	return http.StatusInternalServerError, "review_failed"
}

type actorRequest struct {
	Actor string `json:"actor"`
}

// POST /api/chunks/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	chunkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chunk_id", err)
		return
	}
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ch, err := h.review.Approve(c.Request.Context(), chunkID, req.Actor)
	if err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, ch)
}

// POST /api/chunks/:id/deprecate
func (h *ReviewHandler) Deprecate(c *gin.Context) {
	chunkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chunk_id", err)
		return
	}
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ch, err := h.review.Deprecate(c.Request.Context(), chunkID, req.Actor)
	if err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, ch)
}

// POST /api/chunks/:id/lock
func (h *ReviewHandler) Lock(c *gin.Context) {
	h.setLocked(c, true)
}

// POST /api/chunks/:id/unlock
func (h *ReviewHandler) Unlock(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *ReviewHandler) setLocked(c *gin.Context, locked bool) {
	chunkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chunk_id", err)
		return
	}
	if locked {
		err = h.review.Lock(c.Request.Context(), chunkID)
	} else {
		err = h.review.Unlock(c.Request.Context(), chunkID)
	}
	if err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, gin.H{"locked": locked})
}

// DELETE /api/chunks/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	chunkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chunk_id", err)
		return
	}
	if err := h.review.Delete(c.Request.Context(), chunkID); err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PATCH /api/chunks/:id/classification
func (h *ReviewHandler) UpdateClassification(c *gin.Context) {
	chunkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chunk_id", err)
		return
	}
	var req repository.ClassificationEdit
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ch, err := h.review.UpdateClassification(c.Request.Context(), chunkID, req)
	if err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, ch)
}

// POST /api/clusters/:id/canonical
func (h *ReviewHandler) SetCanonical(c *gin.Context) {
	clusterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_cluster_id", err)
		return
	}
	var req struct {
		ChunkID uuid.UUID `json:"chunk_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.review.SetCanonical(c.Request.Context(), clusterID, req.ChunkID); err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, gin.H{"canonical_chunk_id": req.ChunkID})
}

// PATCH /api/clusters/:id/summary
func (h *ReviewHandler) UpdateClusterSummary(c *gin.Context) {
	clusterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_cluster_id", err)
		return
	}
	var req struct {
		Summary string `json:"summary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.review.UpdateClusterSummary(c.Request.Context(), clusterID, req.Summary); err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, gin.H{"summary": req.Summary})
}

// GET /api/brands/:brandId/conflicts
func (h *ReviewHandler) ListOpenConflicts(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("brandId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brand_id", err)
		return
	}
	conflicts, err := h.review.OpenConflicts(c.Request.Context(), brandID)
	if err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, gin.H{"conflicts": conflicts})
}

// POST /api/brands/:brandId/conflicts
func (h *ReviewHandler) ReportConflict(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("brandId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_brand_id", err)
		return
	}
	var req struct {
		ChunkAID uuid.UUID `json:"chunk_a_id"`
		ChunkBID uuid.UUID `json:"chunk_b_id"`
		Severity string    `json:"severity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	conflict, err := h.review.ReportConflict(c.Request.Context(), brandID, req.ChunkAID, req.ChunkBID, req.Severity)
	if err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	c.JSON(http.StatusCreated, conflict)
}

// POST /api/conflicts/:id/resolve
func (h *ReviewHandler) ResolveConflict(c *gin.Context) {
	conflictID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_conflict_id", err)
		return
	}
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	conflict, err := h.review.ResolveConflict(c.Request.Context(), conflictID, req.Actor)
	if err != nil {
		status, code := reviewStatus(err)
		RespondError(c, status, code, err)
		return
	}
	RespondOK(c, conflict)
}
