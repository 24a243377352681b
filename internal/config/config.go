package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"heritage-archive-be/pkg/rag"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Search   SearchConfig
	Thread   ThreadConfig
	Storage  StorageConfig
	Ingest   IngestConfig
	Events   EventsConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JwtSecret          string
	MetricsEnabled     bool
}

type DatabaseConfig struct {
	Connection string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
}

type APIKeys struct {
	GoogleGenAI string
	Jina        string
}

type AIConfig struct {
	EmbeddingProvider string // "genai", "ollama" or "jina"
	LLMProvider       string // "none", "genai" or "ollama"
	AnalysisModel     string
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	OllamaEmbedModel  string
}

type SearchConfig struct {
	MinSimilarity    float64
	PrimaryThreshold float64
	PrimaryLimit     int
	RelaxedThreshold []float64
	FilterLimit      int
	MaxAttempts      int
	BackoffBase      time.Duration
	ToolTimeout      time.Duration
	RequestTimeout   time.Duration
	CacheTTL         time.Duration
}

type ThreadConfig struct {
	TTL      time.Duration
	LockMode string // "wait" or "reject"
	RedisURL string
	LeaseTTL time.Duration
}

type StorageConfig struct {
	Driver    string // "local" or "s3"
	LocalDir  string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type IngestConfig struct {
	PollInterval time.Duration
	MaxWait      time.Duration
	TopicName    string
}

type EventsConfig struct {
	NatsURL       string
	SubjectPrefix string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("APP_ENV", "development"),
			LogFilePath:        getEnv("LOG_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_DSN", ""),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "heritage"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
		},
		Keys: APIKeys{
			GoogleGenAI: getEnv("GOOGLE_GENAI_API_KEY", ""),
			Jina:        getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "genai"),
			LLMProvider:       getEnv("LLM_PROVIDER", "none"),
			AnalysisModel:     getEnv("GENAI_ANALYSIS_MODEL", "gemini-2.5-flash-lite"),
			EmbeddingModel:    getEnv("GENAI_EMBEDDING_MODEL", "text-embedding-004"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_MODEL", "llama3"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Search: SearchConfig{
			MinSimilarity:    getEnvAsFloat("SEARCH_MIN_SIMILARITY", 0.3),
			PrimaryThreshold: getEnvAsFloat("SEARCH_PRIMARY_THRESHOLD", 0.7),
			PrimaryLimit:     getEnvAsInt("SEARCH_PRIMARY_LIMIT", 10),
			RelaxedThreshold: getEnvAsFloatSlice("SEARCH_RELAXED_THRESHOLDS", []float64{0.5, 0.4}),
			FilterLimit:      getEnvAsInt("SEARCH_FILTER_LIMIT", 10),
			MaxAttempts:      getEnvAsInt("SEARCH_MAX_ATTEMPTS", 3),
			BackoffBase:      getEnvAsDuration("SEARCH_BACKOFF_BASE", time.Second),
			ToolTimeout:      getEnvAsDuration("SEARCH_TOOL_TIMEOUT", 10*time.Second),
			RequestTimeout:   getEnvAsDuration("SEARCH_REQUEST_TIMEOUT", 60*time.Second),
			CacheTTL:         getEnvAsDuration("SEARCH_CACHE_TTL", 5*time.Minute),
		},
		Thread: ThreadConfig{
			TTL:      getEnvAsDuration("THREAD_TTL", time.Hour),
			LockMode: getEnv("THREAD_LOCK_MODE", "wait"),
			RedisURL: getEnv("REDIS_URL", ""),
			LeaseTTL: getEnvAsDuration("THREAD_LEASE_TTL", 2*time.Minute),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "local"),
			LocalDir:  getEnv("STORAGE_LOCAL_DIR", "./data/archives"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "archive-materials"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Ingest: IngestConfig{
			PollInterval: getEnvAsDuration("INGEST_POLL_INTERVAL", 2*time.Second),
			MaxWait:      getEnvAsDuration("INGEST_MAX_WAIT", 300*time.Second),
			TopicName:    getEnv("ARCHIVE_EVENTS_TOPIC", "ARCHIVE_EVENTS"),
		},
		Events: EventsConfig{
			NatsURL:       getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "heritage"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

// IsProduction switches the console log encoder to JSON.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DSN prefers DB_DSN and falls back to the discrete DB_* keys.
func (d DatabaseConfig) DSN() string {
	if d.Connection != "" {
		return d.Connection
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// Settings is the only view of configuration the retrieval core sees.
func (s SearchConfig) Settings() rag.Settings {
	return rag.Settings{
		MinSimilarity:    s.MinSimilarity,
		PrimaryThreshold: s.PrimaryThreshold,
		PrimaryLimit:     s.PrimaryLimit,
		RelaxedThreshold: s.RelaxedThreshold,
		FilterLimit:      s.FilterLimit,
		MaxAttempts:      s.MaxAttempts,
		BackoffBase:      s.BackoffBase,
		ToolTimeout:      s.ToolTimeout,
		RequestTimeout:   s.RequestTimeout,
	}.Normalize()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("1500ms") or plain seconds ("60").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.ParseFloat(strValue, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvAsFloatSlice(key string, fallback []float64) []float64 {
	parts := getEnvAsSlice(key, nil)
	if parts == nil {
		return fallback
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return fallback
		}
		out = append(out, v)
	}
	return out
}
