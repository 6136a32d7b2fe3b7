package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "CARDSMITH"

// ConfigFileEnv names the environment variable that points at an explicit
// configuration file.
const ConfigFileEnv = "CARDSMITH_CONFIG"

// DefaultQuestionTemplate is the question rendered for every card index.
const DefaultQuestionTemplate = "What is a key fact #{{.Index}} from the notes?"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Config file is optional; an explicit path must exist.
	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the cross-section rules that tags cannot
// express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	identity := cfg.Auth.Identity
	if identity.TokenURL != "" && identity.UserInfoURL == "" {
		return errors.New(
			"config validation failed: auth.identity.userinfo_url is required with token_url",
		)
	}
	if identity.RegisterURL != "" && identity.TokenURL == "" {
		return errors.New(
			"config validation failed: auth.identity.token_url is required with register_url",
		)
	}

	switch cfg.Inference.Provider {
	case "huggingface":
		if cfg.Inference.HuggingFace.APIToken == "" {
			return errors.New("config validation failed: inference.huggingface.api_token is required")
		}
	case "gemini":
		if cfg.Inference.Gemini.APIKey == "" || cfg.Inference.Gemini.ModelName == "" {
			return errors.New(
				"config validation failed: inference.gemini.api_key and model_name are required",
			)
		}
	}

	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal, including keys with no meaningful default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.request_timeout_seconds", 120)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.cookie_name", "cardsmith_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.identity.token_url", "")
	v.SetDefault("auth.identity.userinfo_url", "")
	v.SetDefault("auth.identity.register_url", "")
	v.SetDefault("auth.identity.client_id", "")
	v.SetDefault("auth.identity.client_secret", "")
	v.SetDefault("auth.identity.scopes", []string{"openid", "email"})

	v.SetDefault("inference.provider", "huggingface")
	v.SetDefault("inference.timeout_seconds", 30)
	v.SetDefault("inference.huggingface.api_token", "")
	v.SetDefault(
		"inference.huggingface.model_url",
		"https://api-inference.huggingface.co/models/distilbert-base-cased-distilled-squad",
	)
	v.SetDefault("inference.gemini.api_key", "")
	v.SetDefault("inference.gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("inference.gemini.prompt_template_path", "")

	v.SetDefault("generation.question_count", 5)
	v.SetDefault("generation.question_template", DefaultQuestionTemplate)
	v.SetDefault("generation.max_concurrency", 1)
	v.SetDefault("generation.premium_max_questions", 20)

	v.SetDefault("payment.amount", 500)
	v.SetDefault("payment.currency", "")
	v.SetDefault("payment.callback_url", "")
	v.SetDefault("payment.paystack.secret_key", "")
	v.SetDefault("payment.paystack.base_url", "https://api.paystack.co")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.service_name", "cardsmith")
}
