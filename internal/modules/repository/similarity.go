package repository

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/brandforge/brandforge-backend/internal/platform/config"
)

// ErrDimensionMismatch flags vectors of unequal length. This is a
// configuration error and must surface loudly instead of being coerced.
var ErrDimensionMismatch = fmt.Errorf("similarity: embedding dimension mismatch")

// CosineSimilarity returns the cosine similarity of a and b. If either vector
// has zero norm the similarity is defined as 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// SimilarityCandidate is one stored chunk considered by FindSimilar.
type SimilarityCandidate struct {
	ChunkID   uuid.UUID
	Embedding []float32
}

// SimilarityMatch is one scored candidate.
type SimilarityMatch struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	Similarity float64   `json:"similarity"`
}

// SimilarityResult partitions candidates into three disjoint tiers. A
// candidate lands in the highest tier it qualifies for; candidates below the
// related threshold are omitted entirely.
type SimilarityResult struct {
	Duplicates     []SimilarityMatch
	NearDuplicates []SimilarityMatch
	Related        []SimilarityMatch
}

// BestNearDuplicate returns the strongest match at or above the
// near-duplicate tier, or false when there is none.
func (r SimilarityResult) BestNearDuplicate() (SimilarityMatch, bool) {
	if len(r.Duplicates) > 0 {
		return r.Duplicates[0], true
	}
	if len(r.NearDuplicates) > 0 {
		return r.NearDuplicates[0], true
	}
	return SimilarityMatch{}, false
}

// FindSimilar scores query against each candidate and buckets results by the
// configured thresholds. Each tier is sorted descending by similarity with
// chunk id as the final tie-break so output is stable.
func FindSimilar(query []float32, candidates []SimilarityCandidate, th config.SimilarityConfig) (SimilarityResult, error) {
	res := SimilarityResult{}
	for _, cand := range candidates {
		sim, err := CosineSimilarity(query, cand.Embedding)
		if err != nil {
			return SimilarityResult{}, fmt.Errorf("candidate %s: %w", cand.ChunkID, err)
		}
		m := SimilarityMatch{ChunkID: cand.ChunkID, Similarity: sim}
		switch {
		case sim >= th.Duplicate:
			res.Duplicates = append(res.Duplicates, m)
		case sim >= th.NearDuplicate:
			res.NearDuplicates = append(res.NearDuplicates, m)
		case sim >= th.Related:
			res.Related = append(res.Related, m)
		}
	}
	sortMatches(res.Duplicates)
	sortMatches(res.NearDuplicates)
	sortMatches(res.Related)
	return res, nil
}

func sortMatches(ms []SimilarityMatch) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Similarity != ms[j].Similarity {
			return ms[i].Similarity > ms[j].Similarity
		}
		return ms[i].ChunkID.String() < ms[j].ChunkID.String()
	})
}
