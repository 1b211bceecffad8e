package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brandforge/brandforge-backend/internal/platform/envutil"
)

// Pipeline holds the tunables for the content repository pipeline.
// Defaults come first, then an optional YAML file, then env overrides.
type Pipeline struct {
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Cluster    ClusterConfig    `yaml:"cluster"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Query      QueryConfig      `yaml:"query"`
}

type ChunkerConfig struct {
	MinChunkLen         int      `yaml:"min_chunk_len"`
	MaxChunkLen         int      `yaml:"max_chunk_len"`
	BoilerplatePatterns []string `yaml:"boilerplate_patterns"`
}

type SimilarityConfig struct {
	Duplicate     float64 `yaml:"duplicate"`
	NearDuplicate float64 `yaml:"near_duplicate"`
	Related       float64 `yaml:"related"`
}

type ClusterConfig struct {
	MinSize int `yaml:"min_size"`
}

type ClassifierConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type EmbedderConfig struct {
	Dimensions int `yaml:"dimensions"`
	MaxBatch   int `yaml:"max_batch"`
}

type QueryConfig struct {
	DefaultLimit         int     `yaml:"default_limit"`
	DefaultMinSimilarity float64 `yaml:"default_min_similarity"`
	CandidatePoolLimit   int     `yaml:"candidate_pool_limit"`
}

func Default() Pipeline {
	return Pipeline{
		Chunker: ChunkerConfig{
			MinChunkLen: 50,
			MaxChunkLen: 500,
		},
		Similarity: SimilarityConfig{
			Duplicate:     0.92,
			NearDuplicate: 0.85,
			Related:       0.75,
		},
		Cluster:    ClusterConfig{MinSize: 2},
		Classifier: ClassifierConfig{BatchSize: 10},
		Embedder:   EmbedderConfig{Dimensions: 1536, MaxBatch: 2048},
		Query: QueryConfig{
			DefaultLimit:         5,
			DefaultMinSimilarity: 0.3,
			CandidatePoolLimit:   500,
		},
	}
}

// Load builds the effective pipeline config. path may be empty.
func Load(path string) (Pipeline, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Pipeline) applyEnv() {
	c.Chunker.MinChunkLen = envutil.Int("REPO_CHUNK_MIN_LEN", c.Chunker.MinChunkLen)
	c.Chunker.MaxChunkLen = envutil.Int("REPO_CHUNK_MAX_LEN", c.Chunker.MaxChunkLen)
	c.Similarity.Duplicate = envutil.Float("REPO_SIM_DUPLICATE", c.Similarity.Duplicate)
	c.Similarity.NearDuplicate = envutil.Float("REPO_SIM_NEAR_DUPLICATE", c.Similarity.NearDuplicate)
	c.Similarity.Related = envutil.Float("REPO_SIM_RELATED", c.Similarity.Related)
	c.Cluster.MinSize = envutil.Int("REPO_CLUSTER_MIN_SIZE", c.Cluster.MinSize)
	c.Classifier.BatchSize = envutil.Int("REPO_CLASSIFY_BATCH_SIZE", c.Classifier.BatchSize)
	c.Embedder.Dimensions = envutil.Int("REPO_EMBED_DIMENSIONS", c.Embedder.Dimensions)
	c.Embedder.MaxBatch = envutil.Int("REPO_EMBED_MAX_BATCH", c.Embedder.MaxBatch)
	c.Query.DefaultLimit = envutil.Int("REPO_QUERY_DEFAULT_LIMIT", c.Query.DefaultLimit)
	c.Query.DefaultMinSimilarity = envutil.Float("REPO_QUERY_MIN_SIMILARITY", c.Query.DefaultMinSimilarity)
	c.Query.CandidatePoolLimit = envutil.Int("REPO_CANDIDATE_POOL_LIMIT", c.Query.CandidatePoolLimit)
}

func (c Pipeline) Validate() error {
	if c.Chunker.MinChunkLen <= 0 {
		return fmt.Errorf("config: chunker.min_chunk_len must be > 0")
	}
	if c.Chunker.MaxChunkLen < c.Chunker.MinChunkLen {
		return fmt.Errorf("config: chunker.max_chunk_len must be >= min_chunk_len")
	}
	if !(c.Similarity.Duplicate >= c.Similarity.NearDuplicate && c.Similarity.NearDuplicate >= c.Similarity.Related) {
		return fmt.Errorf("config: similarity thresholds must be ordered duplicate >= near_duplicate >= related")
	}
	if c.Cluster.MinSize < 2 {
		return fmt.Errorf("config: cluster.min_size must be >= 2")
	}
	if c.Classifier.BatchSize <= 0 {
		return fmt.Errorf("config: classifier.batch_size must be > 0")
	}
	if c.Embedder.Dimensions <= 0 || c.Embedder.MaxBatch <= 0 {
		return fmt.Errorf("config: embedder.dimensions and embedder.max_batch must be > 0")
	}
	if c.Query.DefaultLimit <= 0 || c.Query.CandidatePoolLimit <= 0 {
		return fmt.Errorf("config: query.default_limit and query.candidate_pool_limit must be > 0")
	}
	return nil
}
