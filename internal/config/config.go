package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LLMConfig holds settings for the generation backend.
// Sampling defaults follow the Mistral-instruct values the service was tuned with.
type LLMConfig struct {
	Endpoint      string
	Model         string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	TimeoutSec    int
}

// RetrievalConfig holds chunking and search settings for the knowledge base.
type RetrievalConfig struct {
	TopK           int
	ChunkSize      int
	DocsDir        string
	MaxUploadBytes int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		LLM: LLMConfig{
			Endpoint:      getEnv("LLM_ENDPOINT", "http://localhost:11434"),
			Model:         getEnv("LLM_MODEL", "mistral"),
			MaxTokens:     getEnvInt("LLM_MAX_TOKENS", 1000),
			Temperature:   getEnvFloat("LLM_TEMPERATURE", 0.7),
			TopP:          getEnvFloat("LLM_TOP_P", 0.9),
			RepeatPenalty: getEnvFloat("LLM_REPEAT_PENALTY", 1.1),
			TimeoutSec:    getEnvInt("LLM_TIMEOUT_SEC", 120),
		},
		Retrieval: RetrievalConfig{
			TopK:           getEnvInt("RAG_TOP_K", 3),
			ChunkSize:      getEnvInt("RAG_CHUNK_SIZE", 1000),
			DocsDir:        getEnv("RAG_DOCS_DIR", ""),
			MaxUploadBytes: getEnvInt64("RAG_MAX_UPLOAD_BYTES", 10<<20),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
