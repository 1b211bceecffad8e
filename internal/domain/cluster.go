package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cluster groups chunks judged to be variants of the same underlying message.
// CanonicalChunkID is a weak reference resolved by explicit lookup; at most
// one member chunk carries the canonical flag at any time.
type Cluster struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BrandID uuid.UUID `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand   *Brand    `gorm:"constraint:OnDelete:CASCADE;foreignKey:BrandID;references:ID" json:"brand,omitempty"`

	CanonicalChunkID *uuid.UUID `gorm:"type:uuid;column:canonical_chunk_id" json:"canonical_chunk_id,omitempty"`
	MemberCount      int        `gorm:"column:member_count;not null;default:0" json:"member_count"`
	ConceptSummary   string     `gorm:"column:concept_summary;type:text" json:"concept_summary,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Cluster) TableName() string { return "cluster" }
