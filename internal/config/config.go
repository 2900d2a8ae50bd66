// Package config holds the file and environment configuration for the
// docrag tool.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the RAG pipelines.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Vision     VisionConfig     `yaml:"vision"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	Minio      MinioConfig      `yaml:"minio"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DataConfig locates the local store's on-disk state.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// ChunkingConfig holds text chunking parameters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig holds query-time parameters.
type RetrievalConfig struct {
	TopK            int    `yaml:"top_k"`
	MaxContextChars int    `yaml:"max_context_chars"`
	Collection      string `yaml:"collection"`
}

// EmbeddingConfig holds text embedding configuration.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// GenerationConfig points at the local generation server.
type GenerationConfig struct {
	URL          string  `yaml:"url"`
	MaxNewTokens int     `yaml:"max_new_tokens"`
	Temperature  float64 `yaml:"temperature"`
}

// VisionConfig points at the page-image embedding server.
type VisionConfig struct {
	URL       string `yaml:"url"`
	Dimension int    `yaml:"dimension"`
}

// QdrantConfig holds the remote multi-vector store connection.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
	APIKeyEnv  string `yaml:"api_key_env"`
}

// MinioConfig holds the page-image object store connection.
type MinioConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	UseSSL       bool   `yaml:"use_ssl"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir: "data",
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:            5,
			MaxContextChars: 3000,
			Collection:      "colpali_documents",
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			BatchSize: 500,
		},
		Generation: GenerationConfig{
			URL:          "http://localhost:8080/generate",
			MaxNewTokens: 256,
			Temperature:  0.0,
		},
		Vision: VisionConfig{
			URL:       "http://localhost:8000",
			Dimension: 128,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "colpali_documents",
			Dimension:  128,
			APIKeyEnv:  "QDRANT_API_KEY",
		},
		Minio: MinioConfig{
			Endpoint:     "localhost:9000",
			Bucket:       "pages",
			AccessKeyEnv: "MINIO_ACCESS_KEY",
			SecretKeyEnv: "MINIO_SECRET_KEY",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays the environment variables the original deployment scripts
// drive the tool with.
func (c *Config) applyEnv() {
	envString("RAG_DATA_DIR", &c.Data.Dir)
	envString("RAG_COLLECTION", &c.Retrieval.Collection)
	envInt("RAG_TOP_K", &c.Retrieval.TopK)
	envInt("RAG_MAX_CONTEXT_CHARS", &c.Retrieval.MaxContextChars)
	envInt("RAG_MAX_NEW_TOKENS", &c.Generation.MaxNewTokens)
	envString("LOCAL_LLM_URL", &c.Generation.URL)
	envString("VISION_URL", &c.Vision.URL)
	envString("QDRANT_HOST", &c.Qdrant.Host)
	envInt("QDRANT_PORT", &c.Qdrant.Port)
	envString("QDRANT_COLLECTION", &c.Qdrant.Collection)
	envString("MINIO_ENDPOINT", &c.Minio.Endpoint)
	envString("MINIO_BUCKET", &c.Minio.Bucket)
}

// QdrantAPIKey resolves the configured API key environment variable.
func (c *Config) QdrantAPIKey() string {
	return os.Getenv(c.Qdrant.APIKeyEnv)
}

// MinioCredentials resolves the configured credential environment variables.
func (c *Config) MinioCredentials() (access, secret string) {
	return os.Getenv(c.Minio.AccessKeyEnv), os.Getenv(c.Minio.SecretKeyEnv)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
