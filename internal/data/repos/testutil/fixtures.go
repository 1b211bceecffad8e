package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/domain"
)

func SeedBrand(tb testing.TB, ctx context.Context, db *gorm.DB, name string) *domain.Brand {
	tb.Helper()
	b := &domain.Brand{
		ID:     uuid.New(),
		Name:   name,
		Domain: name + ".example.com",
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed brand: %v", err)
	}
	return b
}

func SeedChunk(tb testing.TB, ctx context.Context, db *gorm.DB, brandID uuid.UUID, text string) *domain.Chunk {
	tb.Helper()
	c := &domain.Chunk{
		ID:        uuid.New(),
		BrandID:   brandID,
		RawText:   text,
		Text:      text,
		Status:    domain.ChunkStatusInferred,
		Source:    domain.ChunkSourceUpload,
		Embedding: datatypes.JSON([]byte("[]")),
		ToneTags:  datatypes.JSON([]byte("[]")),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

func SeedCluster(tb testing.TB, ctx context.Context, db *gorm.DB, brandID uuid.UUID) *domain.Cluster {
	tb.Helper()
	cl := &domain.Cluster{
		ID:      uuid.New(),
		BrandID: brandID,
	}
	if err := db.WithContext(ctx).Create(cl).Error; err != nil {
		tb.Fatalf("seed cluster: %v", err)
	}
	return cl
}
