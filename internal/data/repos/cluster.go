package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

type ClusterRepo interface {
	Create(dbc dbctx.Context, clusters []*domain.Cluster) ([]*domain.Cluster, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Cluster, error)
	GetByBrandID(dbc dbctx.Context, brandID uuid.UUID) ([]*domain.Cluster, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	AddMembers(dbc dbctx.Context, id uuid.UUID, delta int) error
}

type clusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ClusterRepo {
	return &clusterRepo{db: db, log: baseLog.With("repo", "ClusterRepo")}
}

func (r *clusterRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *clusterRepo) Create(dbc dbctx.Context, clusters []*domain.Cluster) ([]*domain.Cluster, error) {
	if len(clusters) == 0 {
		return []*domain.Cluster{}, nil
	}
	if err := r.conn(dbc).Create(clusters).Error; err != nil {
		return nil, err
	}
	return clusters, nil
}

func (r *clusterRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Cluster, error) {
	var c domain.Cluster
	if err := r.conn(dbc).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clusterRepo) GetByBrandID(dbc dbctx.Context, brandID uuid.UUID) ([]*domain.Cluster, error) {
	var results []*domain.Cluster
	if err := r.conn(dbc).
		Where("brand_id = ?", brandID).
		Order("created_at DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clusterRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.conn(dbc).Model(&domain.Cluster{}).Where("id = ?", id).Updates(updates).Error
}

func (r *clusterRepo) AddMembers(dbc dbctx.Context, id uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	return r.conn(dbc).Model(&domain.Cluster{}).
		Where("id = ?", id).
		Update("member_count", gorm.Expr("member_count + ?", delta)).Error
}
