package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brandforge/brandforge-backend/internal/platform/cache"
	"github.com/brandforge/brandforge-backend/internal/platform/logger"
)

// BrandContext is the optional brand hint passed to classification.
type BrandContext struct {
	Name   string
	Domain string
}

// Classification is the categorical metadata the external model assigns to a
// chunk. Empty string fields mean "not classified".
type Classification struct {
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Channel     string   `json:"channel"`
	Intent      string   `json:"intent"`
	ToneTags    []string `json:"tone_tags"`
	Confidence  float64  `json:"confidence"`
}

// DefaultClassification is the conservative fallback used when the external
// call fails. Classification failure must never block ingestion.
func DefaultClassification() Classification {
	return Classification{ToneTags: []string{}, Confidence: 0.5}
}

// ClassifierClient is the narrow capability the classifier needs from the
// model provider.
type ClassifierClient interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// ClassifierService classifies chunk texts in fixed-size parallel batches.
// Results always preserve input order and failures are absorbed per batch
// into DefaultClassification.
type ClassifierService struct {
	log       *logger.Logger
	ai        ClassifierClient
	cache     cache.Cache
	batchSize int
	cacheTTL  time.Duration
}

func NewClassifierService(log *logger.Logger, ai ClassifierClient, c cache.Cache, batchSize int) *ClassifierService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ClassifierService{
		log:       log.With("service", "ClassifierService"),
		ai:        ai,
		cache:     c,
		batchSize: batchSize,
		cacheTTL:  24 * time.Hour,
	}
}

const classifySystemPrompt = `You classify brand marketing copy. For each text, assign:
- category and sub_category (e.g. "value_proposition"/"pricing")
- channel (e.g. "web", "email", "social") and intent (e.g. "inform", "convert")
- tone_tags: short adjectives describing the voice
- confidence: 0..1
Use empty strings when a field does not apply. Respond for every input text, in order.`

func classifySchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":     map[string]any{"type": "string"},
			"sub_category": map[string]any{"type": "string"},
			"channel":      map[string]any{"type": "string"},
			"intent":       map[string]any{"type": "string"},
			"tone_tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"confidence":   map[string]any{"type": "number"},
		},
		"required":             []string{"category", "sub_category", "channel", "intent", "tone_tags", "confidence"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{"type": "array", "items": item},
		},
		"required":             []string{"items"},
		"additionalProperties": false,
	}
}

// ClassifyAll classifies every text. The returned slice always has
// len(texts) entries in input order; entries for failed batches carry
// DefaultClassification.
func (s *ClassifierService) ClassifyAll(ctx context.Context, texts []string, bc BrandContext) []Classification {
	results := make([]Classification, len(texts))
	for i := range results {
		results[i] = DefaultClassification()
	}
	if len(texts) == 0 {
		return results
	}

	// Serve cache hits first so only misses go to the model.
	pending := make([]int, 0, len(texts))
	for i, txt := range texts {
		if c, ok := s.cacheGet(ctx, txt, bc); ok {
			results[i] = c
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(pending); start += s.batchSize {
		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		g.Go(func() error {
			s.classifyBatch(gctx, texts, bc, batch, results)
			return nil
		})
	}
	// Workers never return errors; failures degrade to defaults.
	_ = g.Wait()
	return results
}

func (s *ClassifierService) classifyBatch(ctx context.Context, texts []string, bc BrandContext, idxs []int, results []Classification) {
	type inputItem struct {
		Index int    `json:"index"`
		Text  string `json:"text"`
	}
	items := make([]inputItem, 0, len(idxs))
	for pos, i := range idxs {
		items = append(items, inputItem{Index: pos, Text: texts[i]})
	}
	payload := map[string]any{"texts": items}
	if bc.Name != "" {
		payload["brand"] = map[string]any{"name": bc.Name, "domain": bc.Domain}
	}
	userJSON, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("classify: encode batch failed", "error", err)
		return
	}

	obj, err := s.ai.GenerateJSON(ctx, classifySystemPrompt, string(userJSON), "chunk_classification", classifySchema())
	if err != nil {
		s.log.Warn("classify: batch failed, using defaults", "size", len(idxs), "error", err)
		return
	}

	parsed := parseClassifications(obj)
	for pos, i := range idxs {
		if pos >= len(parsed) {
			break
		}
		results[i] = parsed[pos]
		s.cacheSet(ctx, texts[i], bc, parsed[pos])
	}
}

func parseClassifications(obj map[string]any) []Classification {
	raw, ok := obj["items"].([]any)
	if !ok {
		return nil
	}
	out := make([]Classification, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			out = append(out, DefaultClassification())
			continue
		}
		c := Classification{
			Category:    strField(m, "category"),
			SubCategory: strField(m, "sub_category"),
			Channel:     strField(m, "channel"),
			Intent:      strField(m, "intent"),
			ToneTags:    strSliceField(m, "tone_tags"),
			Confidence:  numField(m, "confidence", 0.5),
		}
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		if c.Confidence > 1 {
			c.Confidence = 1
		}
		out = append(out, c)
	}
	return out
}

func strField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func strSliceField(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func numField(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return def
}

func (s *ClassifierService) cacheKey(text string, bc BrandContext) string {
	h := sha256.Sum256([]byte(bc.Name + "\x00" + Normalize(text)))
	return hex.EncodeToString(h[:])
}

func (s *ClassifierService) cacheGet(ctx context.Context, text string, bc BrandContext) (Classification, bool) {
	if s.cache == nil {
		return Classification{}, false
	}
	raw, ok, err := s.cache.Get(ctx, s.cacheKey(text, bc))
	if err != nil || !ok {
		return Classification{}, false
	}
	var c Classification
	if err := json.Unmarshal(raw, &c); err != nil {
		return Classification{}, false
	}
	return c, true
}

func (s *ClassifierService) cacheSet(ctx context.Context, text string, bc BrandContext, c Classification) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(text, bc), raw, s.cacheTTL); err != nil {
		s.log.Debug("classify: cache set failed", "error", fmt.Sprint(err))
	}
}
