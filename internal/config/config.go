package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Auth      AuthConfig      `toml:"auth"`
	LLM       LLMConfig       `toml:"llm"`
	Chat      ChatConfig      `toml:"chat"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	Upload    UploadConfig    `toml:"upload"`
	Web       WebConfig       `toml:"web"`
}

type AppConfig struct {
	Name           string `toml:"name"`
	Env            string `toml:"env"`
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	GinMode        string `toml:"gin_mode"`
	AllowedOrigins string `toml:"allowed_origins"`
	// PublicBaseURL prefixes locally stored avatar paths; request host is used when empty.
	PublicBaseURL string `toml:"public_base_url"`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	JWTExpireMinute int    `toml:"jwt_expire_minute"`
}

type LLMConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxAttempts    int     `toml:"max_attempts"`
	BackoffUnitMS  int     `toml:"backoff_unit_ms"`
}

type ChatConfig struct {
	SystemPrompt  string `toml:"system_prompt"`
	CreatorName   string `toml:"creator_name"`
	HistoryWindow int    `toml:"history_window"`
	ReplyDelayMS  int    `toml:"reply_delay_ms"`
}

type RateLimitConfig struct {
	// Backend is "memory" or "redis".
	Backend       string `toml:"backend"`
	Limit         int    `toml:"limit"`
	WindowSeconds int    `toml:"window_seconds"`
	Key           string `toml:"key"`
}

type DatabaseConfig struct {
	// Driver is "mysql", "postgres" or "sqlite".
	Driver string      `toml:"driver"`
	DSN    string      `toml:"dsn"`
	MySQL  MySQLConfig `toml:"mysql"`
}

type MySQLConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type RabbitMQConfig struct {
	URL       string `toml:"url"`
	MoodQueue string `toml:"mood_queue"`
}

type UploadConfig struct {
	// Backend is "local" or "s3".
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	MaxBytes    int64  `toml:"max_bytes"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Region    string `toml:"s3_region"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
	S3PublicURL string `toml:"s3_public_url"`
}

type WebConfig struct {
	Dir string `toml:"dir"`
}

func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported rate limit backend %q", c.RateLimit.Backend)
	}
	switch c.Upload.Backend {
	case "local":
	case "s3":
		if c.Upload.S3Bucket == "" {
			return fmt.Errorf("upload.s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported upload backend %q", c.Upload.Backend)
	}
	for _, origin := range c.AllowedOrigins() {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed origin %q must start with http:// or https://", origin)
		}
	}
	if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("auth.jwt_secret must be changed in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// DatabaseDSN returns the explicit DSN, or one built from the MySQL fields.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	m := c.Database.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", m.User, m.Password, m.Host, m.Port, m.DB, m.Params)
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.App.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.Auth.JWTExpireMinute) * time.Minute
}

const defaultJWTSecret = "secretkey"

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:           "aikona",
			Env:            "dev",
			Host:           "0.0.0.0",
			Port:           5000,
			GinMode:        "debug",
			AllowedOrigins: "*",
		},
		Auth: AuthConfig{
			JWTSecret:       defaultJWTSecret,
			JWTExpireMinute: 7 * 24 * 60,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "llama3-8b-8192",
			Temperature:    0.7,
			MaxTokens:      500,
			TimeoutSeconds: 90,
			MaxAttempts:    3,
			BackoffUnitMS:  1000,
		},
		Chat: ChatConfig{
			SystemPrompt:  "You are Aikona, an empathetic AI counselor. Be warm, understanding, and supportive. Use emojis naturally to enhance emotional connection.",
			CreatorName:   "Mohammed Haaris",
			HistoryWindow: 10,
			ReplyDelayMS:  1500,
		},
		RateLimit: RateLimitConfig{
			Backend:       "memory",
			Limit:         50,
			WindowSeconds: 60,
			Key:           "ratelimit:completion",
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			MySQL: MySQLConfig{
				Host:   "127.0.0.1",
				Port:   3306,
				User:   "root",
				DB:     "aikona",
				Params: "parseTime=true&loc=Local&charset=utf8mb4",
			},
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		RabbitMQ: RabbitMQConfig{
			MoodQueue: "aikona.mood.persist",
		},
		Upload: UploadConfig{
			Backend:  "local",
			Dir:      "uploads",
			MaxBytes: 5 << 20,
			S3Region: "us-east-1",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", getEnv("NODE_ENV", cfg.App.Env))
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("PORT", getEnvAsInt("APP_PORT", cfg.App.Port))
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.AllowedOrigins = getEnv("ALLOWED_ORIGINS", cfg.App.AllowedOrigins)
	cfg.App.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.App.PublicBaseURL)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTExpireMinute = getEnvAsInt("JWT_EXPIRE_MINUTE", cfg.Auth.JWTExpireMinute)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", cfg.LLM.APIKey))
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Chat.CreatorName = getEnv("CHAT_CREATOR_NAME", cfg.Chat.CreatorName)
	cfg.Chat.ReplyDelayMS = getEnvAsInt("CHAT_REPLY_DELAY_MS", cfg.Chat.ReplyDelayMS)

	cfg.RateLimit.Backend = getEnv("RATELIMIT_BACKEND", cfg.RateLimit.Backend)
	cfg.RateLimit.Limit = getEnvAsInt("RATELIMIT_LIMIT", cfg.RateLimit.Limit)
	cfg.RateLimit.WindowSeconds = getEnvAsInt("RATELIMIT_WINDOW_SECONDS", cfg.RateLimit.WindowSeconds)

	cfg.Database.Driver = getEnv("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.MySQL.Host = getEnv("MYSQL_HOST", cfg.Database.MySQL.Host)
	cfg.Database.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.Database.MySQL.Port)
	cfg.Database.MySQL.User = getEnv("MYSQL_USER", cfg.Database.MySQL.User)
	cfg.Database.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Database.MySQL.Password)
	cfg.Database.MySQL.DB = getEnv("MYSQL_DB", cfg.Database.MySQL.DB)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.MoodQueue = getEnv("RABBITMQ_MOOD_QUEUE", cfg.RabbitMQ.MoodQueue)

	cfg.Upload.Backend = getEnv("UPLOAD_BACKEND", cfg.Upload.Backend)
	cfg.Upload.Dir = getEnv("UPLOAD_DIR", cfg.Upload.Dir)
	cfg.Upload.S3Bucket = getEnv("S3_BUCKET", cfg.Upload.S3Bucket)
	cfg.Upload.S3Region = getEnv("S3_REGION", cfg.Upload.S3Region)
	cfg.Upload.S3Endpoint = getEnv("S3_ENDPOINT", cfg.Upload.S3Endpoint)
	cfg.Upload.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.Upload.S3AccessKey)
	cfg.Upload.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.Upload.S3SecretKey)
	cfg.Upload.S3PublicURL = getEnv("S3_PUBLIC_URL", cfg.Upload.S3PublicURL)

	cfg.Web.Dir = getEnv("WEB_DIR", cfg.Web.Dir)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
