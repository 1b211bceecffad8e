package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

// ChunkFilter narrows the grounding candidate pool. Empty string fields are
// ignored. Statuses, when set, is an allowlist.
type ChunkFilter struct {
	Category string
	Channel  string
	Intent   string
	Statuses []string
	Limit    int
}

type ChunkRepo interface {
	Create(dbc dbctx.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Chunk, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Chunk, error)
	GetByClusterID(dbc dbctx.Context, clusterID uuid.UUID) ([]*domain.Chunk, error)
	// GetCandidatePool returns the most recently created chunks that carry an
	// embedding, newest first, bounded by limit.
	GetCandidatePool(dbc dbctx.Context, brandID uuid.UUID, limit int) ([]*domain.Chunk, error)
	Search(dbc dbctx.Context, brandID uuid.UUID, f ChunkFilter) ([]*domain.Chunk, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateByClusterID(dbc dbctx.Context, clusterID uuid.UUID, updates map[string]interface{}) error
	IncrementUsage(dbc dbctx.Context, ids []uuid.UUID) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *chunkRepo) Create(dbc dbctx.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error) {
	if len(chunks) == 0 {
		return []*domain.Chunk{}, nil
	}

	// Keep batches small because RawText/Text are large
	const batchSize = 100

	if err := r.conn(dbc).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Chunk, error) {
	var c domain.Chunk
	if err := r.conn(dbc).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *chunkRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Chunk, error) {
	var results []*domain.Chunk
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.conn(dbc).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) GetByClusterID(dbc dbctx.Context, clusterID uuid.UUID) ([]*domain.Chunk, error) {
	var results []*domain.Chunk
	if err := r.conn(dbc).
		Where("cluster_id = ?", clusterID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) GetCandidatePool(dbc dbctx.Context, brandID uuid.UUID, limit int) ([]*domain.Chunk, error) {
	var results []*domain.Chunk
	q := r.conn(dbc).
		Where("brand_id = ?", brandID).
		Where("embedding IS NOT NULL").
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) Search(dbc dbctx.Context, brandID uuid.UUID, f ChunkFilter) ([]*domain.Chunk, error) {
	var results []*domain.Chunk
	q := r.conn(dbc).Where("brand_id = ?", brandID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Channel != "" {
		q = q.Where("channel = ?", f.Channel)
	}
	if f.Intent != "" {
		q = q.Where("intent = ?", f.Intent)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	q = q.Order("created_at DESC, id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.conn(dbc).Model(&domain.Chunk{}).Where("id = ?", id).Updates(updates).Error
}

func (r *chunkRepo) UpdateByClusterID(dbc dbctx.Context, clusterID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.conn(dbc).Model(&domain.Chunk{}).Where("cluster_id = ?", clusterID).Updates(updates).Error
}

func (r *chunkRepo) IncrementUsage(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.conn(dbc).Model(&domain.Chunk{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": now,
		}).Error
}

func (r *chunkRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return r.conn(dbc).Delete(&domain.Chunk{}, "id = ?", id).Error
}
