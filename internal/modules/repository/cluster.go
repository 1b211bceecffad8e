package repository

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/brandforge/brandforge-backend/internal/domain"
)

// ClusterableChunk is the view of a chunk the cluster builder needs.
type ClusterableChunk struct {
	ID         uuid.UUID
	Embedding  []float32
	Status     string
	Confidence float64
	UsageCount int
}

// ClusterGroup is one emitted cluster: the member ids (sorted) and the
// canonical representative chosen by the deterministic priority order.
type ClusterGroup struct {
	MemberIDs   []uuid.UUID
	CanonicalID uuid.UUID
}

// BuildClusters runs single-linkage grouping over the near-duplicate graph of
// the given chunks: an edge connects two chunks whose cosine similarity meets
// threshold, connected components become clusters, and components smaller
// than minSize are not emitted.
//
// The same input always yields the same groupings and canonical choices:
// chunks are ordered by id before any pairwise work, and ties in canonical
// selection fall back to the lowest chunk id.
func BuildClusters(chunks []ClusterableChunk, threshold float64, minSize int) ([]ClusterGroup, error) {
	if minSize < 2 {
		minSize = 2
	}
	if len(chunks) < minSize {
		return nil, nil
	}

	ordered := make([]ClusterableChunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	uf := newUnionFind(len(ordered))
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			sim, err := CosineSimilarity(ordered[i].Embedding, ordered[j].Embedding)
			if err != nil {
				return nil, fmt.Errorf("cluster: chunks %s/%s: %w", ordered[i].ID, ordered[j].ID, err)
			}
			if sim >= threshold {
				uf.union(i, j)
			}
		}
	}

	components := map[int][]int{}
	for i := range ordered {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	groups := make([]ClusterGroup, 0, len(components))
	for _, idxs := range components {
		if len(idxs) < minSize {
			continue
		}
		members := make([]ClusterableChunk, 0, len(idxs))
		for _, i := range idxs {
			members = append(members, ordered[i])
		}
		g := ClusterGroup{CanonicalID: selectCanonical(members)}
		for _, m := range members {
			g.MemberIDs = append(g.MemberIDs, m.ID)
		}
		sort.Slice(g.MemberIDs, func(i, j int) bool {
			return g.MemberIDs[i].String() < g.MemberIDs[j].String()
		})
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].MemberIDs[0].String() < groups[j].MemberIDs[0].String()
	})
	return groups, nil
}

// selectCanonical picks the cluster representative: APPROVED beats INFERRED,
// then higher confidence, then higher usage count, then lowest id.
func selectCanonical(members []ClusterableChunk) uuid.UUID {
	best := members[0]
	for _, m := range members[1:] {
		if canonicalLess(best, m) {
			best = m
		}
	}
	return best.ID
}

// canonicalLess reports whether b outranks a for canonical selection.
func canonicalLess(a, b ClusterableChunk) bool {
	aApproved := a.Status == domain.ChunkStatusApproved
	bApproved := b.Status == domain.ChunkStatusApproved
	if aApproved != bApproved {
		return bApproved
	}
	if a.Confidence != b.Confidence {
		return b.Confidence > a.Confidence
	}
	if a.UsageCount != b.UsageCount {
		return b.UsageCount > a.UsageCount
	}
	return b.ID.String() < a.ID.String()
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
