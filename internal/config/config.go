package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docquiz/internal/domain"

	"github.com/spf13/viper"
)

type Config struct {
	Env        string
	DB         DBConfig
	Server     ServerConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	LLM        LLMConfig
	Storage    StorageConfig
	Generation GenerationConfig
	Usage      UsageConfig
	Events     EventsConfig
	Auth       AuthConfig
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	BodyLimit       int
	GenerateTimeout time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LLMConfig selects the completion provider. Provider is one of
// openai, ollama, anthropic or gemini.
type LLMConfig struct {
	Provider            string
	Model               string
	APIKey              string
	ServerURL           string
	BaseURL             string
	Timeout             time.Duration
	Temperature         float64
	MaxTokens           int
	IncludeExplanations bool
}

// StorageConfig selects the blob store. Backend is one of s3, gcs or local.
type StorageConfig struct {
	Backend          string
	Bucket           string
	Region           string
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	LocalRoot        string
	MaxDocumentBytes int64
}

type GenerationConfig struct {
	MaxSourceChars    int
	MinExtractedChars int
	MaxQuestions      int
	QuizLockTTL       time.Duration
	QuizLockWait      time.Duration
}

type UsageConfig struct {
	PlanCacheTTL time.Duration
	Plans        map[string]domain.PlanLimits
}

// EventsConfig selects the job event sink. Backend is rabbitmq or none.
type EventsConfig struct {
	Backend string
	URL     string
	Queue   string
}

// AuthConfig enables bearer-token checks when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("server.generate_timeout", 110)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docquiz")
	v.SetDefault("db.name", "docquiz")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("logger.level", "info")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.include_explanations", true)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_root", "./data/documents")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.max_document_bytes", 20*1024*1024)

	v.SetDefault("generation.max_source_chars", 12000)
	v.SetDefault("generation.min_extracted_chars", 50)
	v.SetDefault("generation.max_questions", 50)
	v.SetDefault("generation.quiz_lock_ttl", 180)
	v.SetDefault("generation.quiz_lock_wait", 10)

	v.SetDefault("usage.plan_cache_ttl", 300)

	v.SetDefault("events.backend", "none")
	v.SetDefault("events.queue", "generation_jobs")
}

// LoadConfig reads config.yaml from the working directory (or ./config) and
// applies environment overrides. A missing file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	env := v.GetString("env")
	if e := os.Getenv("ENV"); e != "" {
		env = e
	}

	config := &Config{
		Env: env,
		DB: DBConfig{
			Host:         v.GetString("db.host"),
			Port:         v.GetInt("db.port"),
			User:         v.GetString("db.user"),
			Password:     v.GetString("db.password"),
			DBName:       v.GetString("db.name"),
			SSLMode:      v.GetString("db.sslmode"),
			MaxOpenConns: v.GetInt("db.max_open_conns"),
			MaxIdleConns: v.GetInt("db.max_idle_conns"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout:    v.GetDuration("server.write_timeout") * time.Second,
			BodyLimit:       v.GetInt("server.body_limit"),
			GenerateTimeout: v.GetDuration("server.generate_timeout") * time.Second,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   env,
		},
		LLM: LLMConfig{
			Provider:            strings.ToLower(v.GetString("llm.provider")),
			Model:               v.GetString("llm.model"),
			APIKey:              v.GetString("llm.api_key"),
			ServerURL:           v.GetString("llm.server_url"),
			BaseURL:             v.GetString("llm.base_url"),
			Timeout:             v.GetDuration("llm.timeout") * time.Second,
			Temperature:         v.GetFloat64("llm.temperature"),
			MaxTokens:           v.GetInt("llm.max_tokens"),
			IncludeExplanations: v.GetBool("llm.include_explanations"),
		},
		Storage: StorageConfig{
			Backend:          strings.ToLower(v.GetString("storage.backend")),
			Bucket:           v.GetString("storage.bucket"),
			Region:           v.GetString("storage.region"),
			Endpoint:         v.GetString("storage.endpoint"),
			AccessKeyID:      v.GetString("storage.access_key_id"),
			SecretAccessKey:  v.GetString("storage.secret_access_key"),
			LocalRoot:        v.GetString("storage.local_root"),
			MaxDocumentBytes: v.GetInt64("storage.max_document_bytes"),
		},
		Generation: GenerationConfig{
			MaxSourceChars:    v.GetInt("generation.max_source_chars"),
			MinExtractedChars: v.GetInt("generation.min_extracted_chars"),
			MaxQuestions:      v.GetInt("generation.max_questions"),
			QuizLockTTL:       v.GetDuration("generation.quiz_lock_ttl") * time.Second,
			QuizLockWait:      v.GetDuration("generation.quiz_lock_wait") * time.Second,
		},
		Usage: UsageConfig{
			PlanCacheTTL: v.GetDuration("usage.plan_cache_ttl") * time.Second,
			Plans:        planLimits(v),
		},
		Events: EventsConfig{
			Backend: strings.ToLower(v.GetString("events.backend")),
			URL:     v.GetString("events.url"),
			Queue:   v.GetString("events.queue"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
	}

	// Provider keys commonly live in their own variables.
	if config.LLM.APIKey == "" {
		switch config.LLM.Provider {
		case "openai":
			config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			config.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini":
			config.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// planLimits starts from the built-in tiers and applies usage.plans.<plan>.<resource> overrides.
func planLimits(v *viper.Viper) map[string]domain.PlanLimits {
	plans := domain.DefaultPlanLimits()
	for name, limits := range plans {
		for _, r := range domain.ResourceTypes {
			key := fmt.Sprintf("usage.plans.%s.%s", strings.ToLower(name), r)
			if v.IsSet(key) {
				limits[r] = v.GetInt(key)
			}
		}
	}
	return plans
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "ollama", "anthropic", "gemini":
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	switch c.Storage.Backend {
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for backend %q", c.Storage.Backend)
		}
	case "local":
	default:
		return fmt.Errorf("unsupported storage.backend %q", c.Storage.Backend)
	}
	switch c.Events.Backend {
	case "none", "":
	case "rabbitmq":
		if c.Events.URL == "" {
			return errors.New("events.url is required for the rabbitmq backend")
		}
	default:
		return fmt.Errorf("unsupported events.backend %q", c.Events.Backend)
	}
	if c.Generation.MaxQuestions <= 0 {
		return errors.New("generation.max_questions must be positive")
	}
	return nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetDSN returns a PostgreSQL connection URL.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     c.DB.DBName,
		RawQuery: "sslmode=" + c.DB.SSLMode,
	}
	return u.String()
}
