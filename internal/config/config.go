package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Classifier ClassifierConfig
	Remedy     RemedyConfig
	Keys       APIKeys
	Ai         AIConfig
	Tracing    TracingConfig
}

type AppConfig struct {
	Port               string
	Version            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	BodyLimitMB        int
}

type ClassifierConfig struct {
	WeightsPath string
	Device      string // "auto", "cpu" or "cuda"
	OnnxLibPath string // empty = next to the weights file
}

type RemedyConfig struct {
	Path string
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
}

type AIConfig struct {
	LLMProvider      string // "gemini", "ollama" or "huggingface"
	LLMModel         string
	OllamaBaseURL    string
	HuggingFaceURL   string
	Timeout          time.Duration
	AdvisoryCacheTTL time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Version:            getEnv("APP_VERSION", "0.5.0"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "plantguard.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, http://127.0.0.1:5173"),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 10),
		},
		Classifier: ClassifierConfig{
			WeightsPath: getEnv("CLASSIFIER_WEIGHTS_PATH", "models/plant_disease_model.safetensors"),
			Device:      getEnv("CLASSIFIER_DEVICE", "auto"),
			OnnxLibPath: getEnv("ONNXRUNTIME_LIB_PATH", ""),
		},
		Remedy: RemedyConfig{
			Path: getEnv("REMEDIES_PATH", "data/remedies.json"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:      getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:         getEnv("LLM_MODEL", ""), // empty = per-provider default
			OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceURL:   getEnv("HUGGINGFACE_BASE_URL", ""),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			AdvisoryCacheTTL: getEnvAsDuration("ADVISORY_CACHE_TTL", 30*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "plantguard-backend"),
		},
	}
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
