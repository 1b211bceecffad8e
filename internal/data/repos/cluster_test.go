package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/brandforge/brandforge-backend/internal/data/repos/testutil"
	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
)

func TestClusterRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewClusterRepo(db, testutil.Logger(t))

	brand := testutil.SeedBrand(t, ctx, db, "acme")

	cl := &domain.Cluster{ID: uuid.New(), BrandID: brand.ID, MemberCount: 2}
	if _, err := repo.Create(dbc, []*domain.Cluster{cl}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.AddMembers(dbc, cl.ID, 1); err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	got, err := repo.GetByID(dbc, cl.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.MemberCount != 3 {
		t.Fatalf("member_count = %d want 3", got.MemberCount)
	}

	canonical := uuid.New()
	if err := repo.UpdateFields(dbc, cl.ID, map[string]interface{}{
		"canonical_chunk_id": canonical,
		"concept_summary":    "greeting variants",
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = repo.GetByID(dbc, cl.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CanonicalChunkID == nil || *got.CanonicalChunkID != canonical {
		t.Fatalf("canonical_chunk_id = %v want %s", got.CanonicalChunkID, canonical)
	}

	rows, err := repo.GetByBrandID(dbc, brand.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByBrandID: err=%v len=%d", err, len(rows))
	}
}
