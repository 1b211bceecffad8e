package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/data/repos"
	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

var (
	ErrChunkLocked      = errors.New("chunk is locked")
	ErrNotApproved      = errors.New("chunk is not approved")
	ErrNotClusterMember = errors.New("chunk is not a member of the cluster")
	ErrInvalidSeverity  = errors.New("invalid conflict severity")
)

// ReviewService covers the human curation surface: status transitions,
// lock/unlock, canonical assignment, classification edits and conflict
// resolution.
type ReviewService struct {
	db        *gorm.DB
	log       *logger.Logger
	chunks    repos.ChunkRepo
	clusters  repos.ClusterRepo
	conflicts repos.ConflictRepo
}

func NewReviewService(db *gorm.DB, log *logger.Logger, chunks repos.ChunkRepo, clusters repos.ClusterRepo, conflicts repos.ConflictRepo) *ReviewService {
	return &ReviewService{
		db:        db,
		log:       log.With("service", "ReviewService"),
		chunks:    chunks,
		clusters:  clusters,
		conflicts: conflicts,
	}
}

// Approve moves a chunk to APPROVED, recording the actor. A locked chunk's
// status is immutable until unlocked.
func (s *ReviewService) Approve(ctx context.Context, chunkID uuid.UUID, actor string) (*domain.Chunk, error) {
	ch, err := s.chunks.GetByID(dbctx.Context{Ctx: ctx}, chunkID)
	if err != nil {
		return nil, fmt.Errorf("review: approve: %w", err)
	}
	if ch.Locked {
		return nil, ErrChunkLocked
	}
	now := time.Now().UTC()
	if err := s.chunks.UpdateFields(dbctx.Context{Ctx: ctx}, chunkID, map[string]interface{}{
		"status":      domain.ChunkStatusApproved,
		"approved_by": actor,
		"approved_at": now,
	}); err != nil {
		return nil, fmt.Errorf("review: approve: %w", err)
	}
	ch.Status = domain.ChunkStatusApproved
	ch.ApprovedBy = actor
	ch.ApprovedAt = &now
	return ch, nil
}

// Deprecate retires a chunk. Because only APPROVED chunks may be canonical,
// deprecation also drops the canonical flag, and clears the owning cluster's
// canonical reference when this chunk held it.
func (s *ReviewService) Deprecate(ctx context.Context, chunkID uuid.UUID, actor string) (*domain.Chunk, error) {
	ch, err := s.chunks.GetByID(dbctx.Context{Ctx: ctx}, chunkID)
	if err != nil {
		return nil, fmt.Errorf("review: deprecate: %w", err)
	}
	if ch.Locked {
		return nil, ErrChunkLocked
	}
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.chunks.UpdateFields(dbc, chunkID, map[string]interface{}{
			"status":        domain.ChunkStatusDeprecated,
			"canonical":     false,
			"deprecated_by": actor,
			"deprecated_at": now,
		}); err != nil {
			return err
		}
		if ch.ClusterID == nil {
			return nil
		}
		cl, err := s.clusters.GetByID(dbc, *ch.ClusterID)
		if err != nil {
			return err
		}
		if cl.CanonicalChunkID != nil && *cl.CanonicalChunkID == chunkID {
			return s.clusters.UpdateFields(dbc, cl.ID, map[string]interface{}{"canonical_chunk_id": nil})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("review: deprecate: %w", err)
	}
	ch.Status = domain.ChunkStatusDeprecated
	ch.Canonical = false
	ch.DeprecatedBy = actor
	ch.DeprecatedAt = &now
	return ch, nil
}

func (s *ReviewService) Lock(ctx context.Context, chunkID uuid.UUID) error {
	return s.setLocked(ctx, chunkID, true)
}

func (s *ReviewService) Unlock(ctx context.Context, chunkID uuid.UUID) error {
	return s.setLocked(ctx, chunkID, false)
}

func (s *ReviewService) setLocked(ctx context.Context, chunkID uuid.UUID, locked bool) error {
	if _, err := s.chunks.GetByID(dbctx.Context{Ctx: ctx}, chunkID); err != nil {
		return fmt.Errorf("review: lock: %w", err)
	}
	if err := s.chunks.UpdateFields(dbctx.Context{Ctx: ctx}, chunkID, map[string]interface{}{"locked": locked}); err != nil {
		return fmt.Errorf("review: lock: %w", err)
	}
	return nil
}

// Delete removes a chunk. Deletion is permitted only while unlocked.
func (s *ReviewService) Delete(ctx context.Context, chunkID uuid.UUID) error {
	ch, err := s.chunks.GetByID(dbctx.Context{Ctx: ctx}, chunkID)
	if err != nil {
		return fmt.Errorf("review: delete: %w", err)
	}
	if ch.Locked {
		return ErrChunkLocked
	}
	if err := s.chunks.Delete(dbctx.Context{Ctx: ctx}, chunkID); err != nil {
		return fmt.Errorf("review: delete: %w", err)
	}
	return nil
}

// SetCanonical promotes a chunk to its cluster's canonical representative.
// The chunk must be APPROVED and a member of the cluster; the flag is cleared
// on every other member in the same transaction.
func (s *ReviewService) SetCanonical(ctx context.Context, clusterID, chunkID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ch, err := s.chunks.GetByID(dbc, chunkID)
		if err != nil {
			return err
		}
		if ch.Status != domain.ChunkStatusApproved {
			return ErrNotApproved
		}
		if ch.ClusterID == nil || *ch.ClusterID != clusterID {
			return ErrNotClusterMember
		}
		if _, err := s.clusters.GetByID(dbc, clusterID); err != nil {
			return err
		}
		if err := s.chunks.UpdateByClusterID(dbc, clusterID, map[string]interface{}{"canonical": false}); err != nil {
			return err
		}
		if err := s.chunks.UpdateFields(dbc, chunkID, map[string]interface{}{"canonical": true}); err != nil {
			return err
		}
		return s.clusters.UpdateFields(dbc, clusterID, map[string]interface{}{"canonical_chunk_id": chunkID})
	})
	if err != nil {
		if errors.Is(err, ErrNotApproved) || errors.Is(err, ErrNotClusterMember) {
			return err
		}
		return fmt.Errorf("review: set canonical: %w", err)
	}
	s.log.Info("canonical reassigned", "cluster_id", clusterID, "chunk_id", chunkID)
	return nil
}

// ClassificationEdit carries reviewer overrides for a chunk's categorical
// metadata. Nil fields are left untouched.
type ClassificationEdit struct {
	Category    *string  `json:"category,omitempty"`
	SubCategory *string  `json:"sub_category,omitempty"`
	Channel     *string  `json:"channel,omitempty"`
	Intent      *string  `json:"intent,omitempty"`
	ToneTags    []string `json:"tone_tags,omitempty"`
}

// UpdateClassification applies reviewer edits. The locked flag guards status
// and deletion only, so classification edits are allowed on locked chunks.
func (s *ReviewService) UpdateClassification(ctx context.Context, chunkID uuid.UUID, edit ClassificationEdit) (*domain.Chunk, error) {
	ch, err := s.chunks.GetByID(dbctx.Context{Ctx: ctx}, chunkID)
	if err != nil {
		return nil, fmt.Errorf("review: update classification: %w", err)
	}
	updates := map[string]interface{}{}
	if edit.Category != nil {
		updates["category"] = *edit.Category
		ch.Category = *edit.Category
	}
	if edit.SubCategory != nil {
		updates["sub_category"] = *edit.SubCategory
		ch.SubCategory = *edit.SubCategory
	}
	if edit.Channel != nil {
		updates["channel"] = *edit.Channel
		ch.Channel = *edit.Channel
	}
	if edit.Intent != nil {
		updates["intent"] = *edit.Intent
		ch.Intent = *edit.Intent
	}
	if edit.ToneTags != nil {
		if err := ch.SetToneTags(edit.ToneTags); err != nil {
			return nil, fmt.Errorf("review: update classification: %w", err)
		}
		updates["tone_tags"] = ch.ToneTags
	}
	if len(updates) == 0 {
		return ch, nil
	}
	if err := s.chunks.UpdateFields(dbctx.Context{Ctx: ctx}, chunkID, updates); err != nil {
		return nil, fmt.Errorf("review: update classification: %w", err)
	}
	return ch, nil
}

// UpdateClusterSummary edits a cluster's free-text concept summary.
func (s *ReviewService) UpdateClusterSummary(ctx context.Context, clusterID uuid.UUID, summary string) error {
	if _, err := s.clusters.GetByID(dbctx.Context{Ctx: ctx}, clusterID); err != nil {
		return fmt.Errorf("review: update cluster summary: %w", err)
	}
	if err := s.clusters.UpdateFields(dbctx.Context{Ctx: ctx}, clusterID, map[string]interface{}{"concept_summary": summary}); err != nil {
		return fmt.Errorf("review: update cluster summary: %w", err)
	}
	return nil
}

// ReportConflict records a disagreement between two chunks for human review.
func (s *ReviewService) ReportConflict(ctx context.Context, brandID, chunkAID, chunkBID uuid.UUID, severity string) (*domain.Conflict, error) {
	switch severity {
	case domain.ConflictSeverityLow, domain.ConflictSeverityMedium, domain.ConflictSeverityHigh:
	default:
		return nil, ErrInvalidSeverity
	}
	if chunkAID == chunkBID {
		return nil, fmt.Errorf("review: report conflict: chunk conflicts with itself")
	}
	for _, id := range []uuid.UUID{chunkAID, chunkBID} {
		ch, err := s.chunks.GetByID(dbctx.Context{Ctx: ctx}, id)
		if err != nil {
			return nil, fmt.Errorf("review: report conflict: %w", err)
		}
		if ch.BrandID != brandID {
			return nil, fmt.Errorf("review: report conflict: chunk %s belongs to another brand", id)
		}
	}
	conflict := &domain.Conflict{
		ID:       uuid.New(),
		BrandID:  brandID,
		ChunkAID: chunkAID,
		ChunkBID: chunkBID,
		Severity: severity,
	}
	if _, err := s.conflicts.Create(dbctx.Context{Ctx: ctx}, []*domain.Conflict{conflict}); err != nil {
		return nil, fmt.Errorf("review: report conflict: %w", err)
	}
	return conflict, nil
}

// ResolveConflict marks a conflict resolved. Resolving an already-resolved
// conflict is a no-op, not an error.
func (s *ReviewService) ResolveConflict(ctx context.Context, conflictID uuid.UUID, actor string) (*domain.Conflict, error) {
	conflict, err := s.conflicts.GetByID(dbctx.Context{Ctx: ctx}, conflictID)
	if err != nil {
		return nil, fmt.Errorf("review: resolve conflict: %w", err)
	}
	if conflict.Resolved {
		return conflict, nil
	}
	now := time.Now().UTC()
	if err := s.conflicts.UpdateFields(dbctx.Context{Ctx: ctx}, conflictID, map[string]interface{}{
		"resolved":    true,
		"resolved_by": actor,
		"resolved_at": now,
	}); err != nil {
		return nil, fmt.Errorf("review: resolve conflict: %w", err)
	}
	conflict.Resolved = true
	conflict.ResolvedBy = actor
	conflict.ResolvedAt = &now
	return conflict, nil
}

// OpenConflicts lists a brand's unresolved conflicts.
func (s *ReviewService) OpenConflicts(ctx context.Context, brandID uuid.UUID) ([]*domain.Conflict, error) {
	out, err := s.conflicts.GetOpenByBrandID(dbctx.Context{Ctx: ctx}, brandID)
	if err != nil {
		return nil, fmt.Errorf("review: open conflicts: %w", err)
	}
	return out, nil
}
