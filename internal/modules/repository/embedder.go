package repository

import (
	"context"
	"fmt"

	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

// EmbeddingClient is the narrow capability the embedder needs from the model
// provider.
type EmbeddingClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// EmbedderService wraps the external embedding call: it enforces the per-call
// input cap, preserves input order, and validates the configured
// dimensionality. Failures propagate: ingestion cannot proceed without
// embeddings.
type EmbedderService struct {
	log      *logger.Logger
	ai       EmbeddingClient
	dim      int
	maxBatch int
}

func NewEmbedderService(log *logger.Logger, ai EmbeddingClient, dim, maxBatch int) *EmbedderService {
	if maxBatch <= 0 {
		maxBatch = 2048
	}
	return &EmbedderService{
		log:      log.With("service", "EmbedderService"),
		ai:       ai,
		dim:      dim,
		maxBatch: maxBatch,
	}
}

// Dimensions returns the expected embedding vector length.
func (s *EmbedderService) Dimensions() int { return s.dim }

// EmbedTexts returns one vector per text, in input order. Inputs above the
// per-call cap are split across calls and concatenated.
func (s *EmbedderService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.maxBatch {
		end := start + s.maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := s.ai.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed: count mismatch (got %d want %d)", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	for i, v := range out {
		if s.dim > 0 && len(v) != s.dim {
			return nil, fmt.Errorf("embed: vector %d: %w: got %d want %d", i, ErrDimensionMismatch, len(v), s.dim)
		}
	}
	return out, nil
}

// EmbedOne embeds a single text.
func (s *EmbedderService) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
