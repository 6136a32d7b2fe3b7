package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Inference  InferenceConfig  `mapstructure:"inference"  validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// BaseURL is the externally reachable address, used to build payment callbacks.
	BaseURL               string `mapstructure:"base_url"                validate:"required,url"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gte=1"`
}

// RequestTimeout returns the per-request deadline.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend: "postgres" or "sqlite".
	Driver                 string `mapstructure:"driver"                    validate:"required,oneof=postgres sqlite"`
	URL                    string `mapstructure:"url"                       validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string         `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int            `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"` // Max 31 days
	CookieName           string         `mapstructure:"cookie_name"            validate:"required"`
	CookieSecure         bool           `mapstructure:"cookie_secure"`
	Identity             IdentityConfig `mapstructure:"identity"`
}

// IdentityConfig points at the external OAuth2 identity provider that
// checks user credentials. Login is disabled when TokenURL is empty and
// registration when RegisterURL is empty.
type IdentityConfig struct {
	TokenURL     string   `mapstructure:"token_url"     validate:"omitempty,url"`
	UserInfoURL  string   `mapstructure:"userinfo_url"  validate:"omitempty,url"`
	RegisterURL  string   `mapstructure:"register_url"  validate:"omitempty,url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

// InferenceConfig selects and configures the question-answering provider.
type InferenceConfig struct {
	Provider       string            `mapstructure:"provider"        validate:"required,oneof=huggingface gemini"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds" validate:"gte=1"`
	HuggingFace    HuggingFaceConfig `mapstructure:"huggingface"`
	Gemini         GeminiConfig      `mapstructure:"gemini"`
}

// Timeout returns the per-call deadline for outbound inference requests.
func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HuggingFaceConfig configures the hosted inference API adapter.
type HuggingFaceConfig struct {
	APIToken string `mapstructure:"api_token"`
	ModelURL string `mapstructure:"model_url" validate:"omitempty,url"`
}

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey    string `mapstructure:"api_key"`
	ModelName string `mapstructure:"model_name"`
	// PromptTemplatePath optionally overrides the built-in extraction prompt.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// GenerationConfig controls the flashcard pipeline.
type GenerationConfig struct {
	QuestionCount int `mapstructure:"question_count" validate:"required,gte=1,lte=50"`
	// QuestionTemplate is a text/template rendered with {{.Index}} (1-based).
	QuestionTemplate string `mapstructure:"question_template" validate:"required"`
	// MaxConcurrency of 1 issues the calls sequentially.
	MaxConcurrency      int `mapstructure:"max_concurrency"       validate:"gte=1,lte=16"`
	PremiumMaxQuestions int `mapstructure:"premium_max_questions" validate:"gtefield=QuestionCount,lte=50"`
}

// PaymentConfig contains premium purchase settings.
type PaymentConfig struct {
	// Amount is charged in the currency's minor unit.
	Amount      int64          `mapstructure:"amount"       validate:"gte=0"`
	Currency    string         `mapstructure:"currency"     validate:"omitempty,len=3"`
	CallbackURL string         `mapstructure:"callback_url" validate:"omitempty,url"`
	Paystack    PaystackConfig `mapstructure:"paystack"`
}

// PaystackConfig configures the payment gateway adapter.
type PaystackConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
}

// Enabled reports whether payments can be processed.
func (c PaymentConfig) Enabled() bool {
	return c.Paystack.SecretKey != "" && c.Amount > 0
}

// TelemetryConfig configures trace export. Spans are recorded in-process
// but not exported when OTLPEndpoint is empty.
type TelemetryConfig struct {
	// OTLPEndpoint is the collector's gRPC address, e.g. localhost:4317.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// Insecure disables TLS for the collector connection.
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}
