package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brandforge/brandforge-backend/internal/data/repos/testutil"
	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
)

func TestChunkRepoCreateAndFetch(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	brand := testutil.SeedBrand(t, ctx, db, "acme")

	c1 := &domain.Chunk{
		ID:        uuid.New(),
		BrandID:   brand.ID,
		RawText:   "Welcome to our service.",
		Text:      "welcome to our service.",
		Status:    domain.ChunkStatusInferred,
		Source:    domain.ChunkSourceCrawl,
		Embedding: datatypes.JSON([]byte("[1,0,0]")),
		ToneTags:  datatypes.JSON([]byte("[]")),
	}
	c2 := &domain.Chunk{
		ID:        uuid.New(),
		BrandID:   brand.ID,
		RawText:   "Our support team is here to help.",
		Text:      "our support team is here to help.",
		Status:    domain.ChunkStatusApproved,
		Source:    domain.ChunkSourceManual,
		Category:  "support",
		Embedding: datatypes.JSON([]byte("[0,1,0]")),
		ToneTags:  datatypes.JSON([]byte("[]")),
	}
	if _, err := repo.Create(dbc, []*domain.Chunk{c1, c2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(dbc, c1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Text != c1.Text {
		t.Fatalf("GetByID text = %q want %q", got.Text, c1.Text)
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{c1.ID, c2.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	pool, err := repo.GetCandidatePool(dbc, brand.ID, 10)
	if err != nil {
		t.Fatalf("GetCandidatePool: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("GetCandidatePool len = %d want 2", len(pool))
	}

	// Brand scoping: another brand sees nothing.
	other := testutil.SeedBrand(t, ctx, db, "other")
	pool, err = repo.GetCandidatePool(dbc, other.ID, 10)
	if err != nil {
		t.Fatalf("GetCandidatePool other: %v", err)
	}
	if len(pool) != 0 {
		t.Fatalf("GetCandidatePool other len = %d want 0", len(pool))
	}
}

func TestChunkRepoSearchFilters(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	brand := testutil.SeedBrand(t, ctx, db, "acme")

	mk := func(category, status string) *domain.Chunk {
		return &domain.Chunk{
			ID:        uuid.New(),
			BrandID:   brand.ID,
			RawText:   "text",
			Text:      "text",
			Category:  category,
			Status:    status,
			Source:    domain.ChunkSourceUpload,
			Embedding: datatypes.JSON([]byte("[1]")),
			ToneTags:  datatypes.JSON([]byte("[]")),
		}
	}
	chunks := []*domain.Chunk{
		mk("support", domain.ChunkStatusApproved),
		mk("support", domain.ChunkStatusDeprecated),
		mk("sales", domain.ChunkStatusInferred),
	}
	if _, err := repo.Create(dbc, chunks); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.Search(dbc, brand.ID, ChunkFilter{
		Category: "support",
		Statuses: []string{domain.ChunkStatusApproved, domain.ChunkStatusInferred},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Search len = %d want 1", len(rows))
	}
	if rows[0].Status != domain.ChunkStatusApproved {
		t.Fatalf("Search status = %s", rows[0].Status)
	}
}

func TestChunkRepoUpdateAndUsage(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	brand := testutil.SeedBrand(t, ctx, db, "acme")
	c := testutil.SeedChunk(t, ctx, db, brand.ID, "some copy")

	if err := repo.UpdateFields(dbc, c.ID, map[string]interface{}{"category": "support"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := repo.IncrementUsage(dbc, []uuid.UUID{c.ID}); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}

	got, err := repo.GetByID(dbc, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Category != "support" {
		t.Fatalf("category = %q", got.Category)
	}
	if got.UsageCount != 1 || got.LastUsedAt == nil {
		t.Fatalf("usage = %d lastUsed = %v", got.UsageCount, got.LastUsedAt)
	}

	if err := repo.Delete(dbc, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(dbc, c.ID); err == nil {
		t.Fatalf("expected error fetching deleted chunk")
	}
}

func TestChunkRepoClusterScopedUpdates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewChunkRepo(db, testutil.Logger(t))

	brand := testutil.SeedBrand(t, ctx, db, "acme")
	cl := testutil.SeedCluster(t, ctx, db, brand.ID)

	a := testutil.SeedChunk(t, ctx, db, brand.ID, "variant a")
	b := testutil.SeedChunk(t, ctx, db, brand.ID, "variant b")
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		if err := repo.UpdateFields(dbc, id, map[string]interface{}{"cluster_id": cl.ID, "canonical": true}); err != nil {
			t.Fatalf("UpdateFields: %v", err)
		}
	}

	if err := repo.UpdateByClusterID(dbc, cl.ID, map[string]interface{}{"canonical": false}); err != nil {
		t.Fatalf("UpdateByClusterID: %v", err)
	}
	members, err := repo.GetByClusterID(dbc, cl.ID)
	if err != nil {
		t.Fatalf("GetByClusterID: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d want 2", len(members))
	}
	for _, m := range members {
		if m.Canonical {
			t.Fatalf("chunk %s still canonical", m.ID)
		}
	}
}
