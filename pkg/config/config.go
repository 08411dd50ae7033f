package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	OpenAI    OpenAIConfig
	RAG       RAGConfig
	Knowledge KnowledgeConfig
	Upload    UploadConfig
	JWT       JWTConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"
	StoragePostgres StorageDriver = "postgres"
)

type DatabaseConfig struct {
	Driver   StorageDriver
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL renders the postgres:// form used by golang-migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	AzureAPIVersion string // non-empty switches auth and query params to Azure OpenAI conventions
}

// ContextMode selects the decorator strategy: dynamic per-query retrieval,
// a static knowledge-base description, or no augmentation at all.
type ContextMode string

const (
	ContextModeRetrieval ContextMode = "retrieval"
	ContextModeStatic    ContextMode = "static"
	ContextModeOff       ContextMode = "off"
)

type RAGConfig struct {
	EmbeddingModel     string
	EmbeddingDimension int
	TopK               int
	ChunkMaxTokens     int
	ChunkOverlapTokens int
	Mode               ContextMode
}

type KnowledgeConfig struct {
	// HandlePath is the well-known location of the persisted
	// knowledge-base handle record. Absence of the file is a valid state.
	HandlePath string
}

type UploadConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
}

type JWTConfig struct {
	SecretKey  string
	AccessKey  string
	Expiration time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables serve Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "120"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	topK, _ := strconv.Atoi(getEnv("RAG_TOP_K", "3"))
	embeddingDim, _ := strconv.Atoi(getEnv("RAG_EMBEDDING_DIMENSION", "1536"))
	chunkMax, _ := strconv.Atoi(getEnv("RAG_CHUNK_MAX_TOKENS", "200"))
	chunkOverlap, _ := strconv.Atoi(getEnv("RAG_CHUNK_OVERLAP_TOKENS", "40"))
	maxUpload, _ := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:   StorageDriver(getEnv("STORAGE_DRIVER", "memory")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ragchat"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", ""),
		},
		RAG: RAGConfig{
			EmbeddingModel:     getEnv("RAG_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: embeddingDim,
			TopK:               topK,
			ChunkMaxTokens:     chunkMax,
			ChunkOverlapTokens: chunkOverlap,
			Mode:               ContextMode(getEnv("RAG_CONTEXT_MODE", "retrieval")),
		},
		Knowledge: KnowledgeConfig{
			HandlePath: getEnv("KNOWLEDGE_HANDLE_PATH", "data/knowledge_base.json"),
		},
		Upload: UploadConfig{
			MaxBytes:          maxUpload,
			AllowedExtensions: strings.Split(getEnv("UPLOAD_ALLOWED_EXTENSIONS", ".pdf,.txt,.md,.docx"), ","),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			AccessKey:  getEnv("API_ACCESS_KEY", ""),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate catches misconfiguration the process must refuse to start with.
func (c *Config) validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	switch c.Database.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Database.Driver)
	}
	switch c.RAG.Mode {
	case ContextModeRetrieval, ContextModeStatic, ContextModeOff:
	default:
		return fmt.Errorf("unknown RAG_CONTEXT_MODE %q", c.RAG.Mode)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive")
	}
	if c.RAG.EmbeddingDimension <= 0 {
		return fmt.Errorf("RAG_EMBEDDING_DIMENSION must be positive")
	}
	if c.RAG.ChunkMaxTokens <= 0 || c.RAG.ChunkOverlapTokens < 0 || c.RAG.ChunkOverlapTokens >= c.RAG.ChunkMaxTokens {
		return fmt.Errorf("invalid chunking configuration: max=%d overlap=%d", c.RAG.ChunkMaxTokens, c.RAG.ChunkOverlapTokens)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
