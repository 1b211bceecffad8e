package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

type BrandRepo interface {
	Create(dbc dbctx.Context, brand *domain.Brand) (*domain.Brand, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Brand, error)
}

type brandRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandRepo(db *gorm.DB, baseLog *logger.Logger) BrandRepo {
	return &brandRepo{db: db, log: baseLog.With("repo", "BrandRepo")}
}

func (r *brandRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *brandRepo) Create(dbc dbctx.Context, brand *domain.Brand) (*domain.Brand, error) {
	if err := r.conn(dbc).Create(brand).Error; err != nil {
		return nil, err
	}
	return brand, nil
}

func (r *brandRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Brand, error) {
	var b domain.Brand
	if err := r.conn(dbc).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
