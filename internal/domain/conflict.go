package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conflict severities.
const (
	ConflictSeverityLow    = "low"
	ConflictSeverityMedium = "medium"
	ConflictSeverityHigh   = "high"
)

// Conflict flags a disagreement between two chunks in the same cluster.
// Resolution is a human action and is idempotent.
type Conflict struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BrandID uuid.UUID `gorm:"type:uuid;not null;index" json:"brand_id"`

	ChunkAID uuid.UUID `gorm:"type:uuid;column:chunk_a_id;not null;index" json:"chunk_a_id"`
	ChunkBID uuid.UUID `gorm:"type:uuid;column:chunk_b_id;not null;index" json:"chunk_b_id"`

	Severity   string     `gorm:"column:severity;not null" json:"severity"`
	Resolved   bool       `gorm:"column:resolved;not null;default:false" json:"resolved"`
	ResolvedBy string     `gorm:"column:resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Conflict) TableName() string { return "conflict" }
