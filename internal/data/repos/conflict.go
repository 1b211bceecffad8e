package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

type ConflictRepo interface {
	Create(dbc dbctx.Context, conflicts []*domain.Conflict) ([]*domain.Conflict, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Conflict, error)
	GetOpenByBrandID(dbc dbctx.Context, brandID uuid.UUID) ([]*domain.Conflict, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type conflictRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConflictRepo(db *gorm.DB, baseLog *logger.Logger) ConflictRepo {
	return &conflictRepo{db: db, log: baseLog.With("repo", "ConflictRepo")}
}

func (r *conflictRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *conflictRepo) Create(dbc dbctx.Context, conflicts []*domain.Conflict) ([]*domain.Conflict, error) {
	if len(conflicts) == 0 {
		return []*domain.Conflict{}, nil
	}
	if err := r.conn(dbc).Create(conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *conflictRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Conflict, error) {
	var c domain.Conflict
	if err := r.conn(dbc).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conflictRepo) GetOpenByBrandID(dbc dbctx.Context, brandID uuid.UUID) ([]*domain.Conflict, error) {
	var results []*domain.Conflict
	if err := r.conn(dbc).
		Where("brand_id = ? AND resolved = ?", brandID, false).
		Order("created_at DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conflictRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.conn(dbc).Model(&domain.Conflict{}).Where("id = ?", id).Updates(updates).Error
}
