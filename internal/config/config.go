// Package config provides configuration loading and management for the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/protocol-risk/internal/validation"
)

// DefaultVaultAddress is the Hyperliquidity Provider vault.
const DefaultVaultAddress = "0xdfc24b077bc1425ad1dea75bcb6f8158e10df303"

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Base URLs for the upstream providers
	LlamaURL       string
	HyperliquidURL string
	SnapshotURL    string

	// HLPVaultAddress is the vault summarized by the perps vault view
	HLPVaultAddress string

	// WatchlistPath overrides the embedded watchlist when set
	WatchlistPath string

	// OpenTelemetry endpoint for observability
	OtelEndpoint  string
	EnableMetrics bool

	// Upstream fetch policy
	CacheTTL        time.Duration
	RequestTimeout  time.Duration
	RetryMax        int
	BreakerFailures int
	BreakerReset    time.Duration

	// Default result sizes for provider-wide views
	TopProtocolLimit int
	DexLimit         int
	ProposalLimit    int

	// Read API rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		Port:             GetEnvOrDefault("PORT", "8080"),
		LlamaURL:         strings.TrimRight(GetEnvOrDefault("LLAMA_URL", "https://api.llama.fi"), "/"),
		HyperliquidURL:   GetEnvOrDefault("HYPERLIQUID_URL", "https://api.hyperliquid.xyz/info"),
		SnapshotURL:      GetEnvOrDefault("SNAPSHOT_URL", "https://hub.snapshot.org/graphql"),
		HLPVaultAddress:  GetEnvOrDefault("HLP_VAULT_ADDRESS", DefaultVaultAddress),
		WatchlistPath:    GetEnvOrDefault("WATCHLIST_PATH", ""),
		OtelEndpoint:     GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableMetrics:    GetEnvAsBool("ENABLE_METRICS", true),
		CacheTTL:         GetEnvAsDuration("CACHE_TTL", 5*time.Minute),
		RequestTimeout:   GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		RetryMax:         GetEnvAsInt("RETRY_MAX", 3),
		BreakerFailures:  GetEnvAsInt("BREAKER_FAILURE_THRESHOLD", 3),
		BreakerReset:     GetEnvAsDuration("BREAKER_RESET_DELAY", time.Minute),
		TopProtocolLimit: GetEnvAsInt("TOP_PROTOCOL_LIMIT", 100),
		DexLimit:         GetEnvAsInt("DEX_LIMIT", 100),
		ProposalLimit:    GetEnvAsInt("PROPOSAL_LIMIT", 20),
		RateLimitRPS:     GetEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:   GetEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// Validate rejects settings the server cannot start with. The vault address
// is rewritten to its canonical lowercase form.
func (c *Config) Validate() error {
	addr, err := validation.VaultAddress(c.HLPVaultAddress)
	if err != nil {
		return fmt.Errorf("HLP_VAULT_ADDRESS: %w", err)
	}
	c.HLPVaultAddress = addr

	for name, u := range map[string]string{
		"LLAMA_URL":       c.LlamaURL,
		"HYPERLIQUID_URL": c.HyperliquidURL,
		"SNAPSHOT_URL":    c.SnapshotURL,
	} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s: %q is not an http(s) URL", name, u)
		}
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("RETRY_MAX must not be negative, got %d", c.RetryMax)
	}
	return nil
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a bool with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
