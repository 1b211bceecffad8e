package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/brandforge/brandforge-backend/internal/data/repos"
	"github.com/brandforge/brandforge-backend/internal/domain"
	"github.com/brandforge/brandforge-backend/internal/platform/config"
	"github.com/brandforge/brandforge-backend/internal/platform/dbctx"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

type IngestDeps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Brands     repos.BrandRepo
	Chunks     repos.ChunkRepo
	Clusters   repos.ClusterRepo
	Chunker    *Chunker
	Classifier *ClassifierService
	Embedder   *EmbedderService
	Config     config.Pipeline
}

type IngestInput struct {
	BrandID    uuid.UUID
	Content    string
	Source     string
	SourceID   string
	SourceURL  string
	SourcePage string
}

// IngestedChunk pairs a created chunk with its similarity tiers against the
// candidate pool that existed when ingestion started.
type IngestedChunk struct {
	Chunk          *domain.Chunk     `json:"chunk"`
	Duplicates     []SimilarityMatch `json:"duplicates,omitempty"`
	NearDuplicates []SimilarityMatch `json:"near_duplicates,omitempty"`
	Related        []SimilarityMatch `json:"related,omitempty"`
}

type IngestOutput struct {
	ChunksCreated   int             `json:"chunks_created"`
	ClustersCreated int             `json:"clusters_created"`
	Chunks          []IngestedChunk `json:"chunks"`
}

// Ingest runs the full pipeline for one piece of raw content: chunk,
// classify and embed (in parallel), persist, detect duplicates against the
// stored pool, then cluster the batch.
//
// Classification failures degrade to defaults; embedding failures abort the
// ingestion. Chunk creation is not deduplicated a priori: re-ingesting
// identical content creates new rows that surface as duplicates of the
// originals.
func Ingest(ctx context.Context, deps IngestDeps, in IngestInput) (IngestOutput, error) {
	out := IngestOutput{Chunks: []IngestedChunk{}}
	if deps.DB == nil || deps.Log == nil || deps.Brands == nil || deps.Chunks == nil || deps.Clusters == nil ||
		deps.Chunker == nil || deps.Classifier == nil || deps.Embedder == nil {
		return out, fmt.Errorf("ingest: missing deps")
	}

	// Validation happens before any storage or external calls.
	if in.BrandID == uuid.Nil {
		return out, fmt.Errorf("ingest: missing brand_id")
	}
	if strings.TrimSpace(in.Content) == "" {
		return out, fmt.Errorf("ingest: empty content")
	}
	if !domain.ValidChunkSource(in.Source) {
		return out, fmt.Errorf("ingest: invalid source %q", in.Source)
	}

	brand, err := deps.Brands.GetByID(dbctx.Context{Ctx: ctx}, in.BrandID)
	if err != nil {
		return out, fmt.Errorf("ingest: brand lookup: %w", err)
	}

	candidates := deps.Chunker.Split(in.Content)
	if len(candidates) == 0 {
		return out, nil
	}

	// The candidate pool is fixed at ingestion start; a concurrent ingestion's
	// rows are only seen if they committed before this read.
	pool, err := deps.Chunks.GetCandidatePool(dbctx.Context{Ctx: ctx}, in.BrandID, deps.Config.Query.CandidatePoolLimit)
	if err != nil {
		return out, fmt.Errorf("ingest: candidate pool: %w", err)
	}
	poolCandidates, poolByID := decodePool(deps.Log, pool)

	texts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		texts = append(texts, c.Text)
	}

	// Classification and embedding are independent external calls.
	var classifications []Classification
	var embeddings [][]float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		classifications = deps.Classifier.ClassifyAll(gctx, texts, BrandContext{Name: brand.Name, Domain: brand.Domain})
		return nil
	})
	g.Go(func() error {
		var embedErr error
		embeddings, embedErr = deps.Embedder.EmbedTexts(gctx, texts)
		return embedErr
	})
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("ingest: %w", err)
	}

	chunks := make([]*domain.Chunk, 0, len(candidates))
	for i, cand := range candidates {
		status := domain.ChunkStatusInferred
		if in.Source == domain.ChunkSourceManual {
			status = domain.ChunkStatusApproved
		}
		ch := &domain.Chunk{
			ID:          uuid.New(),
			BrandID:     in.BrandID,
			RawText:     cand.Text,
			Text:        cand.Normalized,
			Section:     cand.Section,
			Category:    classifications[i].Category,
			SubCategory: classifications[i].SubCategory,
			Channel:     classifications[i].Channel,
			Intent:      classifications[i].Intent,
			Confidence:  classifications[i].Confidence,
			Status:      status,
			Source:      in.Source,
			SourceID:    in.SourceID,
			SourceURL:   in.SourceURL,
			SourcePage:  in.SourcePage,
		}
		if err := ch.SetEmbeddingVector(embeddings[i]); err != nil {
			return out, fmt.Errorf("ingest: encode embedding: %w", err)
		}
		if err := ch.SetToneTags(classifications[i].ToneTags); err != nil {
			return out, fmt.Errorf("ingest: encode tone tags: %w", err)
		}
		chunks = append(chunks, ch)
	}

	// Similarity against the pool, and growth into existing clusters, are
	// resolved before the rows are written so each chunk is stored once with
	// its final cluster assignment.
	ingested := make([]IngestedChunk, 0, len(chunks))
	joined := map[uuid.UUID]int{} // existing cluster id -> members gained
	for i, ch := range chunks {
		res, err := FindSimilar(embeddings[i], poolCandidates, deps.Config.Similarity)
		if err != nil {
			return out, fmt.Errorf("ingest: similarity: %w", err)
		}
		if best, ok := res.BestNearDuplicate(); ok {
			if match := poolByID[best.ChunkID]; match != nil && match.ClusterID != nil {
				ch.ClusterID = match.ClusterID
				joined[*match.ClusterID]++
			}
		}
		ingested = append(ingested, IngestedChunk{
			Chunk:          ch,
			Duplicates:     res.Duplicates,
			NearDuplicates: res.NearDuplicates,
			Related:        res.Related,
		})
	}

	if _, err := deps.Chunks.Create(dbctx.Context{Ctx: ctx}, chunks); err != nil {
		return out, fmt.Errorf("ingest: create chunks: %w", err)
	}
	out.ChunksCreated = len(chunks)

	// Batch-local clustering covers only chunks that did not join an
	// existing cluster.
	clusterables := make([]ClusterableChunk, 0, len(chunks))
	byID := map[uuid.UUID]*domain.Chunk{}
	for i, ch := range chunks {
		byID[ch.ID] = ch
		if ch.ClusterID != nil {
			continue
		}
		clusterables = append(clusterables, ClusterableChunk{
			ID:         ch.ID,
			Embedding:  embeddings[i],
			Status:     ch.Status,
			Confidence: ch.Confidence,
			UsageCount: ch.UsageCount,
		})
	}
	groups, err := BuildClusters(clusterables, deps.Config.Similarity.NearDuplicate, deps.Config.Cluster.MinSize)
	if err != nil {
		return out, fmt.Errorf("ingest: cluster: %w", err)
	}

	if len(groups) > 0 || len(joined) > 0 {
		if err := deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			for _, group := range groups {
				canonicalID := group.CanonicalID
				cluster := &domain.Cluster{
					ID:               uuid.New(),
					BrandID:          in.BrandID,
					CanonicalChunkID: &canonicalID,
					MemberCount:      len(group.MemberIDs),
				}
				if _, err := deps.Clusters.Create(dbc, []*domain.Cluster{cluster}); err != nil {
					return err
				}
				for _, memberID := range group.MemberIDs {
					updates := map[string]interface{}{"cluster_id": cluster.ID}
					// The chunk-level flag additionally requires APPROVED.
					if memberID == canonicalID && byID[memberID].Status == domain.ChunkStatusApproved {
						updates["canonical"] = true
						byID[memberID].Canonical = true
					}
					if err := deps.Chunks.UpdateFields(dbc, memberID, updates); err != nil {
						return err
					}
					clusterID := cluster.ID
					byID[memberID].ClusterID = &clusterID
				}
				out.ClustersCreated++
			}
			for clusterID, gained := range joined {
				if err := deps.Clusters.AddMembers(dbc, clusterID, gained); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return out, fmt.Errorf("ingest: persist clusters: %w", err)
		}
	}

	deps.Log.Info("ingest complete",
		"brand_id", in.BrandID,
		"chunks_created", out.ChunksCreated,
		"clusters_created", out.ClustersCreated,
	)
	out.Chunks = ingested
	return out, nil
}

// decodePool turns stored chunks into similarity candidates, skipping rows
// whose embedding cannot be decoded.
func decodePool(log *logger.Logger, pool []*domain.Chunk) ([]SimilarityCandidate, map[uuid.UUID]*domain.Chunk) {
	candidates := make([]SimilarityCandidate, 0, len(pool))
	byID := make(map[uuid.UUID]*domain.Chunk, len(pool))
	for _, ch := range pool {
		vec, err := ch.EmbeddingVector()
		if err != nil || len(vec) == 0 {
			if err != nil {
				log.Warn("skipping chunk with malformed embedding", "chunk_id", ch.ID, "error", err)
			}
			continue
		}
		candidates = append(candidates, SimilarityCandidate{ChunkID: ch.ID, Embedding: vec})
		byID[ch.ID] = ch
	}
	return candidates, byID
}
