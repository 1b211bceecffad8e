package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Chunk lifecycle statuses.
const (
	ChunkStatusInferred   = "INFERRED"
	ChunkStatusApproved   = "APPROVED"
	ChunkStatusDeprecated = "DEPRECATED"
)

// Chunk source provenance.
const (
	ChunkSourceCrawl     = "crawl"
	ChunkSourceUpload    = "upload"
	ChunkSourceManual    = "manual"
	ChunkSourceGenerated = "generated"
)

func ValidChunkStatus(s string) bool {
	switch s {
	case ChunkStatusInferred, ChunkStatusApproved, ChunkStatusDeprecated:
		return true
	}
	return false
}

func ValidChunkSource(s string) bool {
	switch s {
	case ChunkSourceCrawl, ChunkSourceUpload, ChunkSourceManual, ChunkSourceGenerated:
		return true
	}
	return false
}

// Chunk is an atomic unit of brand copy. ClusterID is a weak reference: the
// cluster does not own the chunk lifecycle.
type Chunk struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BrandID uuid.UUID `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand   *Brand    `gorm:"constraint:OnDelete:CASCADE;foreignKey:BrandID;references:ID" json:"brand,omitempty"`

	RawText   string         `gorm:"column:raw_text;type:text;not null" json:"raw_text"`
	Text      string         `gorm:"column:text;type:text;not null" json:"text"`
	Section   string         `gorm:"column:section" json:"section,omitempty"`
	Embedding datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding"`

	Category    string         `gorm:"column:category;index" json:"category,omitempty"`
	SubCategory string         `gorm:"column:sub_category" json:"sub_category,omitempty"`
	Channel     string         `gorm:"column:channel;index" json:"channel,omitempty"`
	Intent      string         `gorm:"column:intent;index" json:"intent,omitempty"`
	ToneTags    datatypes.JSON `gorm:"type:jsonb;column:tone_tags" json:"tone_tags"`
	Confidence  float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`

	Status    string `gorm:"column:status;not null;index" json:"status"`
	Canonical bool   `gorm:"column:canonical;not null;default:false" json:"canonical"`
	Locked    bool   `gorm:"column:locked;not null;default:false" json:"locked"`

	UsageCount int        `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	LastUsedAt *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`

	Source     string `gorm:"column:source;not null;index" json:"source"`
	SourceID   string `gorm:"column:source_id" json:"source_id,omitempty"`
	SourceURL  string `gorm:"column:source_url" json:"source_url,omitempty"`
	SourcePage string `gorm:"column:source_page" json:"source_page,omitempty"`

	ClusterID *uuid.UUID `gorm:"type:uuid;column:cluster_id;index" json:"cluster_id,omitempty"`

	ApprovedBy   string     `gorm:"column:approved_by" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	DeprecatedBy string     `gorm:"column:deprecated_by" json:"deprecated_by,omitempty"`
	DeprecatedAt *time.Time `gorm:"column:deprecated_at" json:"deprecated_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Chunk) TableName() string { return "chunk" }

// EmbeddingVector decodes the stored embedding. Returns nil when no embedding
// has been stored yet.
func (c *Chunk) EmbeddingVector() ([]float32, error) {
	if len(c.Embedding) == 0 {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal(c.Embedding, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Chunk) SetEmbeddingVector(v []float32) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Embedding = datatypes.JSON(raw)
	return nil
}

func (c *Chunk) ToneTagList() []string {
	if len(c.ToneTags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(c.ToneTags, &tags); err != nil {
		return nil
	}
	return tags
}

func (c *Chunk) SetToneTags(tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	c.ToneTags = datatypes.JSON(raw)
	return nil
}
