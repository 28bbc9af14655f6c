package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Image       ImageConfig       `mapstructure:"image"`
	Receipt     ReceiptConfig     `mapstructure:"receipt"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
	LogDir      string            `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ProviderConfig 單一遠端識別服務的設定
type ProviderConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	APIKey    string  `mapstructure:"api_key"`
	BaseURL   string  `mapstructure:"base_url"`
	Model     string  `mapstructure:"model"`
	MaxTokens int     `mapstructure:"max_tokens"`
	RateLimit float64 `mapstructure:"rate_limit"` // 每秒請求數，0 表示不限制
}

// Configured 是否具備呼叫所需的憑證
func (p ProviderConfig) Configured() bool {
	return p.Enabled && p.APIKey != ""
}

// ProvidersConfig 依優先順序排列的識別服務
type ProvidersConfig struct {
	Clarifai     ProviderConfig `mapstructure:"clarifai"`
	GoogleVision ProviderConfig `mapstructure:"google_vision"`
	OpenRouter   ProviderConfig `mapstructure:"openrouter"`
	Gemini       ProviderConfig `mapstructure:"gemini"`
}

// ThresholdConfig 各回應面向的最低信心值
type ThresholdConfig struct {
	Object  float64 `mapstructure:"object"`
	Label   float64 `mapstructure:"label"`
	Web     float64 `mapstructure:"web"`
	Text    float64 `mapstructure:"text"`
	Concept float64 `mapstructure:"concept"`
}

// 識別結果數量上限的允許範圍
const (
	MinResultCap = 8
	MaxResultCap = 12
)

// RecognitionConfig 識別流程參數
type RecognitionConfig struct {
	AttemptTimeout time.Duration   `mapstructure:"attempt_timeout"`
	MaxAttempts    int             `mapstructure:"max_attempts"` // 0 表示嘗試全部已設定的服務
	MaxResults     int             `mapstructure:"max_results"`
	UploadMaxSide  int             `mapstructure:"upload_max_side"`
	Thresholds     ThresholdConfig `mapstructure:"thresholds"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxSize       int           `mapstructure:"max_size"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisEnabled  bool          `mapstructure:"redis_enabled"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisTimeout  time.Duration `mapstructure:"redis_timeout"`
}

// QueueConfig 請求隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// ReceiptConfig 收據 OCR 設定（Azure Computer Vision）
type ReceiptConfig struct {
	AzureEndpoint string        `mapstructure:"azure_endpoint"`
	AzureKey      string        `mapstructure:"azure_key"`
	Language      string        `mapstructure:"language"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LoadConfig 載入設定，.env 檔案不存在時只使用環境變數與預設值
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New())
}

// Load 以指定的 viper 實例解析設定
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnv 綁定常用的第三方憑證環境變數
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("providers.clarifai.api_key", "CLARIFAI_API_KEY")
	_ = v.BindEnv("providers.clarifai.enabled", "CLARIFAI_ENABLED")
	_ = v.BindEnv("providers.google_vision.api_key", "GOOGLE_VISION_API_KEY")
	_ = v.BindEnv("providers.google_vision.enabled", "GOOGLE_VISION_ENABLED")
	_ = v.BindEnv("providers.openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("providers.openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("providers.openrouter.enabled", "OPENROUTER_ENABLED")
	_ = v.BindEnv("providers.gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("providers.gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("providers.gemini.enabled", "GEMINI_ENABLED")
	_ = v.BindEnv("receipt.azure_endpoint", "AZURE_VISION_ENDPOINT")
	_ = v.BindEnv("receipt.azure_key", "AZURE_VISION_KEY")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.redis_enabled", "REDIS_ENABLED")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "PORT")
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "pantry-scanner")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "75s")

	// 識別服務設定（未提供 api_key 時自動跳過）
	v.SetDefault("providers.clarifai.enabled", true)
	v.SetDefault("providers.clarifai.base_url", "https://api.clarifai.com")
	v.SetDefault("providers.clarifai.model", "food-item-recognition")
	v.SetDefault("providers.clarifai.rate_limit", 5)
	v.SetDefault("providers.google_vision.enabled", true)
	v.SetDefault("providers.google_vision.base_url", "https://vision.googleapis.com")
	v.SetDefault("providers.google_vision.rate_limit", 5)
	v.SetDefault("providers.openrouter.enabled", true)
	v.SetDefault("providers.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("providers.openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("providers.openrouter.max_tokens", 1000)
	v.SetDefault("providers.openrouter.rate_limit", 1)
	v.SetDefault("providers.gemini.enabled", true)
	v.SetDefault("providers.gemini.model", "gemini-1.5-flash")
	v.SetDefault("providers.gemini.max_tokens", 1024)
	v.SetDefault("providers.gemini.rate_limit", 1)

	// 識別流程設定
	v.SetDefault("recognition.attempt_timeout", "12s")
	v.SetDefault("recognition.max_attempts", 0)
	v.SetDefault("recognition.max_results", 10)
	v.SetDefault("recognition.upload_max_side", 1024)
	v.SetDefault("recognition.thresholds.object", 0.5)
	v.SetDefault("recognition.thresholds.label", 0.6)
	v.SetDefault("recognition.thresholds.web", 0.5)
	v.SetDefault("recognition.thresholds.text", 0.6)
	v.SetDefault("recognition.thresholds.concept", 0.5)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 100)
	v.SetDefault("cache.ttl", "30m")
	v.SetDefault("cache.redis_enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_timeout", "500ms")

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 64)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	// 收據設定
	v.SetDefault("receipt.language", "ru")
	v.SetDefault("receipt.timeout", "15s")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Recognition.AttemptTimeout <= 0 {
		return fmt.Errorf("invalid recognition attempt timeout")
	}
	if config.Recognition.MaxAttempts < 0 {
		return fmt.Errorf("invalid recognition max attempts")
	}
	if config.Recognition.MaxResults < MinResultCap || config.Recognition.MaxResults > MaxResultCap {
		return fmt.Errorf("recognition max results must be between %d and %d", MinResultCap, MaxResultCap)
	}
	if config.Image.MaxSizeBytes <= 0 {
		return fmt.Errorf("invalid image max size")
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	return nil
}
