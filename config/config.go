package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Бэкенды перевода
const (
	TranslateBackendGemini = "gemini"
	TranslateBackendGoogle = "google"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string
	LogLevel      string

	GeminiAPIKey     string
	GeminiModel      string
	InferenceTimeout time.Duration

	TranslateBackend      string
	GoogleTranslateAPIKey string
	TranslateChunkSize    int

	DefaultLanguage string
	PromptsFile     string
	ImageDir        string
	NormalizeImages bool
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	timeout, err := getDuration("INFERENCE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	chunkSize, err := getInt("TRANSLATE_CHUNK_SIZE", 4500)
	if err != nil {
		return nil, err
	}
	normalize, err := getBool("NORMALIZE_IMAGES", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		InferenceTimeout: timeout,

		TranslateBackend:      strings.ToLower(getEnv("TRANSLATE_BACKEND", TranslateBackendGemini)),
		GoogleTranslateAPIKey: os.Getenv("GOOGLE_TRANSLATE_API_KEY"),
		TranslateChunkSize:    chunkSize,

		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		PromptsFile:     os.Getenv("PROMPTS_FILE"),
		ImageDir:        getEnv("IMAGE_DIR", os.TempDir()),
		NormalizeImages: normalize,
	}

	return cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	if c.InferenceTimeout <= 0 {
		return errors.New("INFERENCE_TIMEOUT must be positive")
	}
	if c.TranslateChunkSize <= 0 {
		return errors.New("TRANSLATE_CHUNK_SIZE must be positive")
	}

	switch c.TranslateBackend {
	case TranslateBackendGemini:
	case TranslateBackendGoogle:
		if c.GoogleTranslateAPIKey == "" {
			return errors.New("GOOGLE_TRANSLATE_API_KEY is required for google translate backend")
		}
	default:
		return fmt.Errorf("unknown TRANSLATE_BACKEND %q", c.TranslateBackend)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultVal int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
