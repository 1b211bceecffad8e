package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/brandforge/brandforge-backend/internal/data/repos"
	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/config"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

// QueryFilters narrows and shapes a grounding lookup. Zero values fall back
// to configured defaults.
type QueryFilters struct {
	Category        string  `json:"category"`
	Channel         string  `json:"channel"`
	Intent          string  `json:"intent"`
	Limit           int     `json:"limit"`
	MinSimilarity   float64 `json:"min_similarity"`
	PreferCanonical bool    `json:"prefer_canonical"`
	PreferApproved  bool    `json:"prefer_approved"`
}

type RankedChunk struct {
	Chunk      *domain.Chunk `json:"chunk"`
	Similarity float64       `json:"similarity"`
}

// GroundingService answers "what has this brand already said about X"
// queries for generation grounding.
type GroundingService struct {
	log      *logger.Logger
	chunks   repos.ChunkRepo
	embedder *EmbedderService
	cfg      config.Pipeline
}

func NewGroundingService(log *logger.Logger, chunks repos.ChunkRepo, embedder *EmbedderService, cfg config.Pipeline) *GroundingService {
	return &GroundingService{
		log:      log.With("service", "GroundingService"),
		chunks:   chunks,
		embedder: embedder,
		cfg:      cfg,
	}
}

// QuerySimilar embeds the query and ranks the brand's stored chunks against
// it. Deprecated chunks never surface. Ranking order: canonical first when
// PreferCanonical, approved first when PreferApproved, then usage count, then
// similarity, with chunk ID as the final tiebreak so results are stable.
func (s *GroundingService) QuerySimilar(ctx context.Context, brandID uuid.UUID, query string, f QueryFilters) ([]RankedChunk, error) {
	if brandID == uuid.Nil {
		return nil, fmt.Errorf("query: missing brand_id")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query: empty query")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = s.cfg.Query.DefaultLimit
	}
	minSim := f.MinSimilarity
	if minSim <= 0 {
		minSim = s.cfg.Query.DefaultMinSimilarity
	}

	queryVec, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	pool, err := s.chunks.Search(dbctx.Context{Ctx: ctx}, brandID, repos.ChunkFilter{
		Category: f.Category,
		Channel:  f.Channel,
		Intent:   f.Intent,
		Statuses: []string{domain.ChunkStatusInferred, domain.ChunkStatusApproved},
		Limit:    s.cfg.Query.CandidatePoolLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("query: search: %w", err)
	}

	ranked := make([]RankedChunk, 0, len(pool))
	for _, ch := range pool {
		vec, decErr := ch.EmbeddingVector()
		if decErr != nil || len(vec) == 0 {
			if decErr != nil {
				s.log.Warn("skipping chunk with malformed embedding", "chunk_id", ch.ID, "error", decErr)
			}
			continue
		}
		sim, simErr := CosineSimilarity(queryVec, vec)
		if simErr != nil {
			return nil, fmt.Errorf("query: chunk %s: %w", ch.ID, simErr)
		}
		if sim < minSim {
			continue
		}
		ranked = append(ranked, RankedChunk{Chunk: ch, Similarity: sim})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if f.PreferCanonical && a.Chunk.Canonical != b.Chunk.Canonical {
			return a.Chunk.Canonical
		}
		if f.PreferApproved {
			aApproved := a.Chunk.Status == domain.ChunkStatusApproved
			bApproved := b.Chunk.Status == domain.ChunkStatusApproved
			if aApproved != bApproved {
				return aApproved
			}
		}
		if a.Chunk.UsageCount != b.Chunk.UsageCount {
			return a.Chunk.UsageCount > b.Chunk.UsageCount
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.Chunk.ID.String() < b.Chunk.ID.String()
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// MarkUsed records that the given chunks grounded a generated output, bumping
// usage counters that feed back into ranking.
func (s *GroundingService) MarkUsed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.chunks.IncrementUsage(dbctx.Context{Ctx: ctx}, ids); err != nil {
		return fmt.Errorf("query: mark used: %w", err)
	}
	return nil
}
