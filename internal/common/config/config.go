package config

import (
	"os"
	"strconv"
	"strings"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	// Render service
	RenderDBPath  string
	RenderScale   float64
	RenderMarkers bool
	RenderKeep    int

	// Editor
	RenderURL     string
	RenderTimeout int
	EditorZoom    float64
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "5001"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		RenderDBPath:  getEnv("RENDER_DB_PATH", "data/db/render.db"),
		RenderScale:   getEnvAsFloat("RENDER_SCALE", 10),
		RenderMarkers: getEnvAsBool("RENDER_MARKERS", true),
		RenderKeep:    getEnvAsInt("RENDER_KEEP", 500),

		RenderURL:     getEnv("RENDER_URL", "http://localhost:5001"),
		RenderTimeout: getEnvAsInt("RENDER_TIMEOUT", 10),
		EditorZoom:    getEnvAsFloat("EDITOR_ZOOM", 40),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
