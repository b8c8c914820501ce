package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Geo     GeoConfig
	Storage StorageConfig
	Status  StatusConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	geo, err := loadGeoConfig()
	if err != nil {
		return nil, err
	}

	status, err := loadStatusConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Geo:     geo,
		Storage: loadStorageConfig(),
		Status:  status,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey        string
	Model         string
	RouterModel   string
	Temperature   *float64
	SubmitTimeout time.Duration
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("GEMINI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	timeoutSeconds := 90
	if override, err := parseOptionalIntEnv("SUBMIT_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	model := getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash")

	return AIConfig{
		APIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:         model,
		RouterModel:   getEnvOrDefault("GEMINI_ROUTER_MODEL", model),
		Temperature:   temperature,
		SubmitTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// GeoConfig 描述地理编码与默认定位配置。
type GeoConfig struct {
	NominatimBaseURL string
	CountryCodes     string
	CacheTTL         time.Duration
	DefaultLocation  *LatLng
}

// LatLng is an optional pinned fallback coordinate.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

func loadGeoConfig() (GeoConfig, error) {
	ttlSeconds := 6 * 3600
	if override, err := parseOptionalIntEnv("GEOCODE_CACHE_TTL_SECONDS"); err != nil {
		return GeoConfig{}, err
	} else if override != nil && *override > 0 {
		ttlSeconds = *override
	}

	lat, err := parseOptionalFloatEnv("DEFAULT_LATITUDE")
	if err != nil {
		return GeoConfig{}, err
	}
	lng, err := parseOptionalFloatEnv("DEFAULT_LONGITUDE")
	if err != nil {
		return GeoConfig{}, err
	}

	var fallback *LatLng
	if lat != nil && lng != nil {
		fallback = &LatLng{Latitude: *lat, Longitude: *lng}
	}

	return GeoConfig{
		NominatimBaseURL: getEnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		CountryCodes:     getEnvOrDefault("NOMINATIM_COUNTRY", "tw"),
		CacheTTL:         time.Duration(ttlSeconds) * time.Second,
		DefaultLocation:  fallback,
	}, nil
}

// StorageConfig 描述本地持久化配置。
type StorageConfig struct {
	DBPath string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		DBPath: getEnvOrDefault("STATE_DB_PATH", "concierge.db"),
	}
}

// StatusConfig 描述环境状态栏查询配置。
type StatusConfig struct {
	CacheTTL time.Duration
}

func loadStatusConfig() (StatusConfig, error) {
	ttlSeconds := 600
	if override, err := parseOptionalIntEnv("STATUS_CACHE_TTL_SECONDS"); err != nil {
		return StatusConfig{}, err
	} else if override != nil && *override > 0 {
		ttlSeconds = *override
	}
	return StatusConfig{CacheTTL: time.Duration(ttlSeconds) * time.Second}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
