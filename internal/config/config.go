package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/menta2k/image-annotator/pkg/geo"
)

// Config holds the application configuration
type Config struct {
	Render  RenderConfig  `json:"render"`
	Geo     GeoConfig     `json:"geo"`
	Export  ExportConfig  `json:"export"`
	Server  ServerConfig  `json:"server"`
	Suggest SuggestConfig `json:"suggest"`
}

// RenderConfig holds configuration for the overlay renderer
type RenderConfig struct {
	StrokeWidth int     `json:"stroke_width"`
	Padding     int     `json:"padding"`
	TopMargin   float64 `json:"top_margin"`
}

// GeoConfig holds the initial geolocation and the embed viewer size
type GeoConfig struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SnapshotGeo bool    `json:"snapshot_geo"`
	EmbedZoom   int     `json:"embed_zoom"`
	EmbedWidth  int     `json:"embed_width"`
	EmbedHeight int     `json:"embed_height"`
}

// ExportConfig holds configuration for local and remote export
type ExportConfig struct {
	OutputDir   string `json:"output_dir"`
	Format      string `json:"format"`
	Quality     int    `json:"quality"`
	Lossless    bool   `json:"lossless"`
	EndpointURL string `json:"endpoint_url"`
	// TimeoutSeconds bounds the persistence call; 0 waits indefinitely.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// ServerConfig holds configuration for the annotate/save HTTP server
type ServerConfig struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins"`
	ArchiveDir     string   `json:"archive_dir"`
	RedisAddr      string   `json:"redis_addr"`
	RedisTTLHours  int      `json:"redis_ttl_hours"`
	// MaxBodyBytes caps request bodies; 0 means no limit.
	MaxBodyBytes int64 `json:"max_body_bytes"`
}

// SuggestConfig selects the vision backend used for label suggestions
type SuggestConfig struct {
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Model   string `json:"model"`
	MaxSide int    `json:"max_side"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			StrokeWidth: 2,
			Padding:     5,
			TopMargin:   20,
		},
		Geo: GeoConfig{
			Latitude:    -34.6037,
			Longitude:   -58.3816,
			SnapshotGeo: false,
			EmbedZoom:   15,
			EmbedWidth:  600,
			EmbedHeight: 450,
		},
		Export: ExportConfig{
			OutputDir:      ".",
			Format:         "png",
			Quality:        92,
			Lossless:       false,
			EndpointURL:    "http://localhost:8000",
			TimeoutSeconds: 0,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000"},
			ArchiveDir:     "./annotations",
			RedisAddr:      "",
			RedisTTLHours:  0,
			MaxBodyBytes:   32 << 20,
		},
		Suggest: SuggestConfig{
			Backend: "",
			URL:     "",
			Model:   "openbmb/minicpm-v4.5",
			MaxSide: 768,
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads filename when it exists, then applies the environment overlay
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			loaded, err := LoadFromFile(filename)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides values from ANNOTATOR_* variables, loading .env if present
func (c *Config) ApplyEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	c.Export.OutputDir = getEnv("ANNOTATOR_OUTPUT_DIR", c.Export.OutputDir)
	c.Export.Format = getEnv("ANNOTATOR_FORMAT", c.Export.Format)
	c.Export.Quality = getEnvAsInt("ANNOTATOR_QUALITY", c.Export.Quality)
	c.Export.EndpointURL = getEnv("ANNOTATOR_ENDPOINT_URL", c.Export.EndpointURL)
	c.Export.TimeoutSeconds = getEnvAsInt("ANNOTATOR_TIMEOUT_SECONDS", c.Export.TimeoutSeconds)

	c.Geo.Latitude = getEnvAsFloat("ANNOTATOR_LATITUDE", c.Geo.Latitude)
	c.Geo.Longitude = getEnvAsFloat("ANNOTATOR_LONGITUDE", c.Geo.Longitude)
	c.Geo.SnapshotGeo = getEnvAsBool("ANNOTATOR_SNAPSHOT_GEO", c.Geo.SnapshotGeo)

	c.Server.Addr = getEnv("ANNOTATOR_ADDR", c.Server.Addr)
	c.Server.ArchiveDir = getEnv("ANNOTATOR_ARCHIVE_DIR", c.Server.ArchiveDir)
	c.Server.RedisAddr = getEnv("ANNOTATOR_REDIS_ADDR", c.Server.RedisAddr)
	c.Server.MaxBodyBytes = int64(getEnvAsInt("ANNOTATOR_MAX_BODY_BYTES", int(c.Server.MaxBodyBytes)))
	if origins := os.Getenv("ANNOTATOR_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Suggest.Backend = getEnv("ANNOTATOR_SUGGEST_BACKEND", c.Suggest.Backend)
	c.Suggest.URL = getEnv("ANNOTATOR_SUGGEST_URL", c.Suggest.URL)
	c.Suggest.Model = getEnv("ANNOTATOR_SUGGEST_MODEL", c.Suggest.Model)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Render.StrokeWidth < 1 {
		return fmt.Errorf("render.stroke_width must be positive")
	}

	if c.Render.Padding < 0 || c.Render.TopMargin < 0 {
		return fmt.Errorf("render.padding and render.top_margin must not be negative")
	}

	if err := geo.Validate(c.Geo.Latitude, c.Geo.Longitude); err != nil {
		return fmt.Errorf("geo: %w", err)
	}

	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}

	switch strings.ToLower(c.Export.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("export.format must be png, jpg or webp")
	}

	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be between 1 and 100")
	}

	if c.Export.TimeoutSeconds < 0 {
		return fmt.Errorf("export.timeout_seconds must not be negative")
	}

	switch c.Suggest.Backend {
	case "", "ollama", "llamacpp":
	default:
		return fmt.Errorf("suggest.backend must be ollama or llamacpp")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-annotator", "config.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
