package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/repograde/internal/errors"
)

// Config holds all configuration settings. It is built once at process start
// and passed by pointer to the components that need it.
type Config struct {
	// GitHub configuration
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// Generative model configuration
	Model ModelConfig `yaml:"model" mapstructure:"model"`

	// Per-request bounds
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`

	// Optional shared model quota
	Quota QuotaConfig `yaml:"quota" mapstructure:"quota"`

	// HTTP API
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Logging
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

type GitHubConfig struct {
	Token     string `yaml:"-" mapstructure:"token"`
	RateLimit int    `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second, 0 = unlimited
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`     // GitHub Enterprise API root
}

type ModelConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // "gemini", "openai", "custom"
	GeminiKey   string  `yaml:"-" mapstructure:"gemini_key"`
	GeminiModel string  `yaml:"gemini_model" mapstructure:"gemini_model"`
	OpenAIKey   string  `yaml:"-" mapstructure:"openai_key"`
	OpenAIModel string  `yaml:"openai_model" mapstructure:"openai_model"`
	CustomURL   string  `yaml:"custom_url" mapstructure:"custom_url"`
	CustomKey   string  `yaml:"-" mapstructure:"custom_key"`
	CustomModel string  `yaml:"custom_model" mapstructure:"custom_model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

type LimitsConfig struct {
	CommitLimit    int           `yaml:"commit_limit" mapstructure:"commit_limit"`
	SampleSize     int           `yaml:"sample_size" mapstructure:"sample_size"`
	CallTimeout    time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

type QuotaConfig struct {
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"` // empty disables the guard
	RPM       int64  `yaml:"rpm" mapstructure:"rpm"`
	RPD       int64  `yaml:"rpd" mapstructure:"rpd"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	AllowOrigin  string        `yaml:"allow_origin" mapstructure:"allow_origin"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
	File  string `yaml:"file" mapstructure:"file"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderCustom = "custom"
)

// Default returns default configuration
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Model: ModelConfig{
			Provider:    ProviderGemini,
			GeminiModel: "gemini-2.0-flash",
			OpenAIModel: "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   2000,
		},
		Limits: LimitsConfig{
			CommitLimit:    100,
			SampleSize:     20,
			CallTimeout:    15 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Quota: QuotaConfig{
			RPM: 1000,
			RPD: 10_000,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigin:  "*",
			WriteTimeout: 90 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file, .env files, environment and the OS keychain
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Unmarshal only overwrites keys present in the file, so the defaults
	// survive partial sections.
	cfg := Default()

	v.SetEnvPrefix("REPOGRADE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".repograde")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".repograde"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ConfigErrorf("failed to read config: %v", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ConfigErrorf("failed to unmarshal config: %v", err)
	}

	applyEnvOverrides(cfg)
	applyStoredCredentials(cfg, NewCredentialManager())

	return cfg, nil
}

// Validate checks that the credentials needed to serve a request are present.
// Failures are KindConfig errors, fatal at startup.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return errors.ConfigError("GITHUB_TOKEN is required. Create a token at: https://github.com/settings/tokens")
	}

	switch c.Model.Provider {
	case ProviderGemini:
		if c.Model.GeminiKey == "" {
			return errors.ConfigError("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.Model.OpenAIKey == "" {
			return errors.ConfigError("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderCustom:
		if c.Model.CustomURL == "" {
			return errors.ConfigError("CUSTOM_LLM_URL is required for the custom provider")
		}
		if c.Model.CustomModel == "" {
			return errors.ConfigError("CUSTOM_LLM_MODEL is required for the custom provider")
		}
	default:
		return errors.ConfigErrorf("unknown model provider %q (want gemini, openai or custom)", c.Model.Provider)
	}

	if c.Limits.CommitLimit < 1 || c.Limits.CommitLimit > 100 {
		return errors.ConfigErrorf("limits.commit_limit must be between 1 and 100, got %d", c.Limits.CommitLimit)
	}
	if c.Limits.SampleSize < 1 {
		return errors.ConfigErrorf("limits.sample_size must be positive, got %d", c.Limits.SampleSize)
	}
	if c.Limits.CallTimeout <= 0 || c.Limits.RequestTimeout <= 0 {
		return errors.ConfigError("limits timeouts must be positive")
	}
	return nil
}

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overrides variables that are already set.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		homeEnvFile := filepath.Join(homeDir, ".repograde", ".env")
		if _, err := os.Stat(homeEnvFile); err == nil {
			_ = godotenv.Load(homeEnvFile)
		}
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			cfg.GitHub.Token = token
			break
		}
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}
	if url := os.Getenv("GITHUB_API_URL"); url != "" {
		cfg.GitHub.BaseURL = url
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.Model.Provider = provider
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Model.GeminiKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Model.GeminiModel = model
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Model.OpenAIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Model.OpenAIModel = model
	}
	if url := os.Getenv("CUSTOM_LLM_URL"); url != "" {
		cfg.Model.CustomURL = url
	}
	if key := os.Getenv("CUSTOM_LLM_KEY"); key != "" {
		cfg.Model.CustomKey = key
	}
	if model := os.Getenv("CUSTOM_LLM_MODEL"); model != "" {
		cfg.Model.CustomModel = model
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Quota.RedisAddr = addr
	}
	if addr := os.Getenv("PORT"); addr != "" {
		cfg.Server.Addr = ":" + addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// Save writes the non-secret settings to a yaml file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
