// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components while keeping
// configuration details separate from business logic.
//
// Environment variables use the CARDSMITH_ prefix with nested keys joined by
// underscores, e.g. CARDSMITH_INFERENCE_HUGGINGFACE_API_TOKEN.
package config
