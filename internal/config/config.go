package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/newthinker/quantsafe/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Market    MarketConfig    `mapstructure:"market"`
	History   HistoryConfig   `mapstructure:"history"`
	Lock      LockConfig      `mapstructure:"lock"`
	Notifiers NotifiersConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	TemplatesDir string `mapstructure:"templates_dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Gemini      GeminiConfig  `mapstructure:"gemini"`
	Claude      ClaudeConfig  `mapstructure:"claude"`
	OpenAI      OpenAIConfig  `mapstructure:"openai"`
	Ollama      OllamaConfig  `mapstructure:"ollama"`
}

// GeminiConfig holds Google Gemini settings. An empty key is allowed and
// only fails once the remote rejects the call.
type GeminiConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MarketConfig seeds the mocked market snapshot.
type MarketConfig struct {
	Ticker       string  `mapstructure:"ticker"`
	InitialPrice float64 `mapstructure:"initial_price"`
	Change24h    float64 `mapstructure:"change_24h"`
	Volume       string  `mapstructure:"volume"`
	MaxMove      float64 `mapstructure:"max_move"` // largest absolute price step per cycle
}

// maxHistorySize is the hard bound on kept signals.
const maxHistorySize = 10

type HistoryConfig struct {
	Size int `mapstructure:"size"`
}

// LockConfig selects the in-flight guard backend.
type LockConfig struct {
	Type  string      `mapstructure:"type"` // "local" or "redis"
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type NotifiersConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from path, layered over Defaults. An empty path
// loads defaults plus environment overrides only. A .env file in the working
// directory is applied to the process environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides, e.g. QUANTSAFE_LLM_PROVIDER
	v.SetEnvPrefix("QUANTSAFE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The Gemini key keeps the conventional variable names.
	if err := v.BindEnv("llm.gemini.api_key", "QUANTSAFE_LLM_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.templates_dir", d.Server.TemplatesDir)
	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.gemini.api_key", d.LLM.Gemini.APIKey)
	v.SetDefault("llm.gemini.model", d.LLM.Gemini.Model)
	v.SetDefault("llm.gemini.endpoint", d.LLM.Gemini.Endpoint)
	v.SetDefault("llm.claude.api_key", d.LLM.Claude.APIKey)
	v.SetDefault("llm.claude.model", d.LLM.Claude.Model)
	v.SetDefault("llm.claude.base_url", d.LLM.Claude.BaseURL)
	v.SetDefault("llm.openai.api_key", d.LLM.OpenAI.APIKey)
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", d.LLM.OpenAI.BaseURL)
	v.SetDefault("llm.ollama.endpoint", d.LLM.Ollama.Endpoint)
	v.SetDefault("llm.ollama.model", d.LLM.Ollama.Model)

	v.SetDefault("market.ticker", d.Market.Ticker)
	v.SetDefault("market.initial_price", d.Market.InitialPrice)
	v.SetDefault("market.change_24h", d.Market.Change24h)
	v.SetDefault("market.volume", d.Market.Volume)
	v.SetDefault("market.max_move", d.Market.MaxMove)

	v.SetDefault("history.size", d.History.Size)

	v.SetDefault("lock.type", d.Lock.Type)
	v.SetDefault("lock.redis.addr", d.Lock.Redis.Addr)
	v.SetDefault("lock.redis.password", d.Lock.Redis.Password)
	v.SetDefault("lock.redis.db", d.Lock.Redis.DB)
	v.SetDefault("lock.redis.key", d.Lock.Redis.Key)
	v.SetDefault("lock.redis.ttl", d.Lock.Redis.TTL)

	v.SetDefault("notifiers.webhook.enabled", d.Notifiers.Webhook.Enabled)
	v.SetDefault("notifiers.webhook.url", d.Notifiers.Webhook.URL)
	v.SetDefault("notifiers.kafka.enabled", d.Notifiers.Kafka.Enabled)
	v.SetDefault("notifiers.kafka.brokers", d.Notifiers.Kafka.Brokers)
	v.SetDefault("notifiers.kafka.topic", d.Notifiers.Kafka.Topic)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Timeout:     2 * time.Minute,
			MaxTokens:   1024,
			Temperature: 0.4,
			Gemini: GeminiConfig{
				Model:    "gemini-3-flash-preview",
				Endpoint: "https://generativelanguage.googleapis.com",
			},
		},
		Market: MarketConfig{
			Ticker:       "BTC/USD",
			InitialPrice: 64120.55,
			Change24h:    2.45,
			Volume:       "34.2B",
			MaxMove:      250,
		},
		History: HistoryConfig{
			Size: 10,
		},
		Lock: LockConfig{
			Type: "local",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "quantsafe:signal:inflight",
				TTL:  3 * time.Minute,
			},
		},
		Notifiers: NotifiersConfig{
			Kafka: KafkaConfig{
				Topic: "quantsafe.signals",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.LLM.Provider {
	case "gemini":
		// key is checked remotely
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	case "ollama":
		if c.LLM.Ollama.Endpoint == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("ollama endpoint required when provider is ollama"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	if c.Market.Ticker == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("market ticker required"))
	}
	if c.Market.InitialPrice <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_price must be positive, got %f", c.Market.InitialPrice))
	}
	if c.Market.MaxMove < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_move cannot be negative, got %f", c.Market.MaxMove))
	}

	if c.History.Size < 1 || c.History.Size > maxHistorySize {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("history size must be between 1 and %d, got %d", maxHistorySize, c.History.Size))
	}

	switch c.Lock.Type {
	case "local", "":
	case "redis":
		if c.Lock.Redis.Addr == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("redis addr required when lock type is redis"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown lock type %q", c.Lock.Type))
	}

	if c.Notifiers.Webhook.Enabled && c.Notifiers.Webhook.URL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("webhook url required when webhook notifier is enabled"))
	}
	if c.Notifiers.Kafka.Enabled && (len(c.Notifiers.Kafka.Brokers) == 0 || c.Notifiers.Kafka.Topic == "") {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("kafka brokers and topic required when kafka notifier is enabled"))
	}

	return nil
}
