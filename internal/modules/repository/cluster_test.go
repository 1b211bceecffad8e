package repository

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/brandforge/brandforge-backend/internal/domain"
)

func TestBuildClustersGroupsNearDuplicates(t *testing.T) {
	a := ClusterableChunk{ID: uuid.New(), Embedding: []float32{1, 0, 0}, Status: domain.ChunkStatusInferred, Confidence: 0.9}
	b := ClusterableChunk{ID: uuid.New(), Embedding: []float32{0.99, 0.05, 0}, Status: domain.ChunkStatusInferred, Confidence: 0.8}
	c := ClusterableChunk{ID: uuid.New(), Embedding: []float32{0, 1, 0}, Status: domain.ChunkStatusInferred, Confidence: 0.7}

	groups, err := BuildClusters([]ClusterableChunk{a, b, c}, 0.85, 2)
	if err != nil {
		t.Fatalf("BuildClusters: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d clusters want 1", len(groups))
	}
	if len(groups[0].MemberIDs) != 2 {
		t.Fatalf("cluster size = %d want 2", len(groups[0].MemberIDs))
	}
	// a has the higher confidence, so it is canonical.
	if groups[0].CanonicalID != a.ID {
		t.Fatalf("canonical = %s want %s", groups[0].CanonicalID, a.ID)
	}
}

func TestBuildClustersSingletonNotEmitted(t *testing.T) {
	a := ClusterableChunk{ID: uuid.New(), Embedding: []float32{1, 0}}
	b := ClusterableChunk{ID: uuid.New(), Embedding: []float32{0, 1}}
	groups, err := BuildClusters([]ClusterableChunk{a, b}, 0.85, 2)
	if err != nil {
		t.Fatalf("BuildClusters: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("got %d clusters want 0", len(groups))
	}
}

func TestBuildClustersTransitiveLinkage(t *testing.T) {
	// a~b and b~c but a!~c: single linkage still puts all three together.
	a := ClusterableChunk{ID: uuid.New(), Embedding: []float32{1, 0}}
	b := ClusterableChunk{ID: uuid.New(), Embedding: []float32{0.93, 0.37}}
	c := ClusterableChunk{ID: uuid.New(), Embedding: []float32{0.73, 0.68}}

	ab, _ := CosineSimilarity(a.Embedding, b.Embedding)
	bc, _ := CosineSimilarity(b.Embedding, c.Embedding)
	ac, _ := CosineSimilarity(a.Embedding, c.Embedding)
	if ab < 0.9 || bc < 0.9 || ac >= 0.9 {
		t.Fatalf("fixture drifted: ab=%v bc=%v ac=%v", ab, bc, ac)
	}

	groups, err := BuildClusters([]ClusterableChunk{a, b, c}, 0.9, 2)
	if err != nil {
		t.Fatalf("BuildClusters: %v", err)
	}
	if len(groups) != 1 || len(groups[0].MemberIDs) != 3 {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestCanonicalPriorityOrder(t *testing.T) {
	approved := ClusterableChunk{ID: uuid.New(), Status: domain.ChunkStatusApproved, Confidence: 0.1}
	confident := ClusterableChunk{ID: uuid.New(), Status: domain.ChunkStatusInferred, Confidence: 0.99}
	if got := selectCanonical([]ClusterableChunk{confident, approved}); got != approved.ID {
		t.Fatalf("approved must beat confidence: got %s", got)
	}

	lowUse := ClusterableChunk{ID: uuid.New(), Status: domain.ChunkStatusInferred, Confidence: 0.8, UsageCount: 1}
	highUse := ClusterableChunk{ID: uuid.New(), Status: domain.ChunkStatusInferred, Confidence: 0.8, UsageCount: 5}
	if got := selectCanonical([]ClusterableChunk{lowUse, highUse}); got != highUse.ID {
		t.Fatalf("usage tie-break failed: got %s", got)
	}

	id1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	id2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	x := ClusterableChunk{ID: id2, Status: domain.ChunkStatusInferred, Confidence: 0.8}
	y := ClusterableChunk{ID: id1, Status: domain.ChunkStatusInferred, Confidence: 0.8}
	if got := selectCanonical([]ClusterableChunk{x, y}); got != id1 {
		t.Fatalf("id tie-break failed: got %s", got)
	}
}

func TestBuildClustersDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	chunks := make([]ClusterableChunk, 0, 12)
	for i := 0; i < 12; i++ {
		base := []float32{1, 0, 0}
		if i%3 == 1 {
			base = []float32{0, 1, 0}
		} else if i%3 == 2 {
			base = []float32{0, 0, 1}
		}
		v := make([]float32, 3)
		for d := range v {
			v[d] = base[d] + float32(rng.Float64()*0.05)
		}
		chunks = append(chunks, ClusterableChunk{
			ID:         uuid.New(),
			Embedding:  v,
			Status:     domain.ChunkStatusInferred,
			Confidence: rng.Float64(),
			UsageCount: rng.Intn(10),
		})
	}

	first, err := BuildClusters(chunks, 0.9, 2)
	if err != nil {
		t.Fatalf("BuildClusters: %v", err)
	}
	for run := 0; run < 5; run++ {
		// Shuffle input order; output must not change.
		shuffled := make([]ClusterableChunk, len(chunks))
		copy(shuffled, chunks)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		again, err := BuildClusters(shuffled, 0.9, 2)
		if err != nil {
			t.Fatalf("BuildClusters run %d: %v", run, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", run, first, again)
		}
	}
}

func TestBuildClustersDimensionMismatch(t *testing.T) {
	a := ClusterableChunk{ID: uuid.New(), Embedding: []float32{1, 0}}
	b := ClusterableChunk{ID: uuid.New(), Embedding: []float32{1, 0, 0}}
	if _, err := BuildClusters([]ClusterableChunk{a, b}, 0.85, 2); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}
