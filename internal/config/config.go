package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	JWTSecret  string           `json:"jwt_secret"`
	Database   DatabaseConfig   `json:"database"`
	LogConfig  logger.LogConfig `json:"log_config"`
	AI         AIConfig         `json:"ai"`
	Index      IndexConfig      `json:"index"`
	Cache      CacheConfig      `json:"cache"`
	RAG        RAGConfig        `json:"rag"`
	Matching   MatchingConfig   `json:"matching"`
	Compliance ComplianceConfig `json:"compliance"`
	Schedule   ScheduleConfig   `json:"schedule"`
	CORS       []string         `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// AIConfig selects the external embedding and generation providers. Data is
// passed untouched to the provider factory. Fallbacks are tried in order when
// the primary provider fails.
type AIConfig struct {
	Provider       string      `json:"provider"`
	EmbedProvider  string      `json:"embed_provider"`
	Model          string      `json:"model"`
	EmbedModel     string      `json:"embed_model"`
	Timeout        int         `json:"timeout"`
	MaxRetries     int         `json:"max_retries"`
	RetryDelayMs   int         `json:"retry_delay_ms"`
	MaxDelayMs     int         `json:"max_delay_ms"`
	EmbedCacheSize int         `json:"embed_cache_size"`
	EmbedCacheTTL  int         `json:"embed_cache_ttl"`
	Data           interface{} `json:"data"`
	Fallbacks      []AIBackend `json:"fallbacks"`
}

type AIBackend struct {
	Provider      string      `json:"provider"`
	EmbedProvider string      `json:"embed_provider"`
	Model         string      `json:"model"`
	EmbedModel    string      `json:"embed_model"`
	Data          interface{} `json:"data"`
}

// Backends lists the primary provider followed by the fallbacks.
func (c AIConfig) Backends() []AIBackend {
	out := []AIBackend{{
		Provider:      c.Provider,
		EmbedProvider: c.EmbedProvider,
		Model:         c.Model,
		EmbedModel:    c.EmbedModel,
		Data:          c.Data,
	}}
	return append(out, c.Fallbacks...)
}

// IndexConfig.Store is "postgres" (default) or "mirror", which also keeps
// the live chunk set in memory and serves searches from it.
type IndexConfig struct {
	Dimension     int    `json:"dimension"`
	TombstoneDays int    `json:"tombstone_days"`
	Store         string `json:"store"`
}

type CacheConfig struct {
	TTLSeconds int `json:"ttl_seconds"`
}

// RAGConfig.AskIntervalMs throttles questions per tenant; zero disables it.
// A missing MinScore defaults to 0.5, an explicit 0 is kept.
type RAGConfig struct {
	TopK             int      `json:"top_k"`
	MinScore         *float64 `json:"min_score"`
	SimilarityWeight float64  `json:"similarity_weight"`
	ModelWeight      float64  `json:"model_weight"`
	MaxContextChars  int      `json:"max_context_chars"`
	AskIntervalMs    int      `json:"ask_interval_ms"`
}

type MatchingConfig struct {
	GapThreshold           float64 `json:"gap_threshold"`
	StrengthThreshold      float64 `json:"strength_threshold"`
	TechnicalWeight        float64 `json:"technical_weight"`
	FunctionalWeight       float64 `json:"functional_weight"`
	MandatoryWeight        float64 `json:"mandatory_weight"`
	OptionalWeight         float64 `json:"optional_weight"`
	NiceToHaveWeight       float64 `json:"nice_to_have_weight"`
	LowConfidenceThreshold float64 `json:"low_confidence_threshold"`
}

type ComplianceConfig struct {
	CriticalWeight float64 `json:"critical_weight"`
	MajorWeight    float64 `json:"major_weight"`
	MinorWeight    float64 `json:"minor_weight"`
	RulesFile      string  `json:"rules_file"`
}

type ScheduleConfig struct {
	CachePurgeSpec     string `json:"cache_purge_spec"`
	TombstonePurgeSpec string `json:"tombstone_purge_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.AI.MaxRetries < 0 {
		cfg.AI.MaxRetries = 0
	}
	if cfg.AI.RetryDelayMs <= 0 {
		cfg.AI.RetryDelayMs = 500
	}
	if cfg.AI.MaxDelayMs <= 0 {
		cfg.AI.MaxDelayMs = 8000
	}
	if cfg.Index.Dimension <= 0 {
		return fmt.Errorf("index.dimension is required")
	}
	if m := cfg.Matching; m.GapThreshold > 0 && m.StrengthThreshold > 0 && m.StrengthThreshold < m.GapThreshold {
		return fmt.Errorf("matching.strength_threshold must not be below matching.gap_threshold")
	}
	if cfg.Index.TombstoneDays <= 0 {
		cfg.Index.TombstoneDays = 7
	}
	switch cfg.Index.Store {
	case "":
		cfg.Index.Store = "postgres"
	case "postgres", "mirror":
	default:
		return fmt.Errorf("index.store must be postgres or mirror")
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 3600
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.MinScore == nil {
		def := 0.5
		cfg.RAG.MinScore = &def
	} else if v := *cfg.RAG.MinScore; v < -1 || v > 1 {
		return fmt.Errorf("rag.min_score must be in [-1,1]")
	}
	if cfg.RAG.SimilarityWeight <= 0 && cfg.RAG.ModelWeight <= 0 {
		cfg.RAG.SimilarityWeight = 0.7
		cfg.RAG.ModelWeight = 0.3
	}
	if cfg.RAG.MaxContextChars <= 0 {
		cfg.RAG.MaxContextChars = 12000
	}
	if cfg.Schedule.CachePurgeSpec == "" {
		cfg.Schedule.CachePurgeSpec = "*/10 * * * *"
	}
	if cfg.Schedule.TombstonePurgeSpec == "" {
		cfg.Schedule.TombstonePurgeSpec = "30 3 * * *"
	}
	return nil
}
