package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Brand is the tenant boundary. Every chunk, cluster and conflict belongs to
// exactly one brand and no pipeline operation may span brands.
type Brand struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"column:name;not null" json:"name"`
	Domain string    `gorm:"column:domain" json:"domain,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Brand) TableName() string { return "brand" }
