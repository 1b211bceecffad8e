package repository

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/brandforge/brandforge-backend/internal/platform/config"
)

func TestCosineSimilaritySelf(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 2.1},
		{5, 5, 5, 5},
	}
	for _, v := range vecs {
		sim, err := CosineSimilarity(v, v)
		if err != nil {
			t.Fatalf("CosineSimilarity: %v", err)
		}
		if math.Abs(sim-1.0) > 1e-9 {
			t.Fatalf("sim(v,v) = %v want 1.0", sim)
		}
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	sim, err := CosineSimilarity(zero, zero)
	if err != nil {
		t.Fatalf("CosineSimilarity: %v", err)
	}
	if sim != 0 {
		t.Fatalf("sim(0,0) = %v want 0", sim)
	}
	sim, err = CosineSimilarity(zero, []float32{1, 2, 3})
	if err != nil || sim != 0 {
		t.Fatalf("sim(0,v) = %v err=%v want 0", sim, err)
	}
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float32{0.1, 0.9, -0.4, 0.2}
	b := []float32{-0.5, 0.3, 0.8, 0.0}
	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("CosineSimilarity: %v", err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatalf("CosineSimilarity: %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("sim not symmetric: %v vs %v", ab, ba)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFindSimilarTiersDisjointAndSorted(t *testing.T) {
	th := config.SimilarityConfig{Duplicate: 0.92, NearDuplicate: 0.85, Related: 0.75}
	query := []float32{1, 0}

	mkCand := func(angle float64) SimilarityCandidate {
		return SimilarityCandidate{
			ChunkID:   uuid.New(),
			Embedding: []float32{float32(math.Cos(angle)), float32(math.Sin(angle))},
		}
	}
	// cos(angle) is the similarity against (1,0).
	dup := mkCand(math.Acos(0.95))
	dup2 := mkCand(math.Acos(0.93))
	near := mkCand(math.Acos(0.88))
	related := mkCand(math.Acos(0.78))
	below := mkCand(math.Acos(0.50))

	res, err := FindSimilar(query, []SimilarityCandidate{below, near, dup2, related, dup}, th)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}

	if len(res.Duplicates) != 2 || len(res.NearDuplicates) != 1 || len(res.Related) != 1 {
		t.Fatalf("tier sizes = %d/%d/%d", len(res.Duplicates), len(res.NearDuplicates), len(res.Related))
	}
	if res.Duplicates[0].Similarity < res.Duplicates[1].Similarity {
		t.Fatalf("duplicates not sorted descending")
	}

	// Disjoint: no chunk id in more than one tier.
	seen := map[uuid.UUID]bool{}
	for _, tier := range [][]SimilarityMatch{res.Duplicates, res.NearDuplicates, res.Related} {
		for _, m := range tier {
			if seen[m.ChunkID] {
				t.Fatalf("chunk %s appears in two tiers", m.ChunkID)
			}
			seen[m.ChunkID] = true
		}
	}
	if seen[below.ChunkID] {
		t.Fatalf("below-related candidate was not omitted")
	}
	if len(seen) != 4 {
		t.Fatalf("expected every candidate at or above related to appear once, got %d", len(seen))
	}
}

func TestFindSimilarPropagatesDimensionMismatch(t *testing.T) {
	th := config.SimilarityConfig{Duplicate: 0.92, NearDuplicate: 0.85, Related: 0.75}
	_, err := FindSimilar([]float32{1, 0}, []SimilarityCandidate{
		{ChunkID: uuid.New(), Embedding: []float32{1, 0, 0}},
	}, th)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestBestNearDuplicate(t *testing.T) {
	id := uuid.New()
	res := SimilarityResult{NearDuplicates: []SimilarityMatch{{ChunkID: id, Similarity: 0.9}}}
	m, ok := res.BestNearDuplicate()
	if !ok || m.ChunkID != id {
		t.Fatalf("BestNearDuplicate = %+v ok=%v", m, ok)
	}
	if _, ok := (SimilarityResult{}).BestNearDuplicate(); ok {
		t.Fatalf("empty result should have no best match")
	}
}
