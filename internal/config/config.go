// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Chain       ChainConfig
	Livepeer    LivepeerConfig
	AWS         AWSConfig
	LocalStore  LocalStoreConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// DSN builds the postgres connection string. All timestamps are stored
// and compared in UTC, so the session time zone is pinned.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

// ChainConfig describes the EVM network payments settle on. TokenContract is
// the fungible token priced content is charged in (USDC on Base by default)
// and TokenDecimals its minor-unit precision.
type ChainConfig struct {
	Network       string
	RPCURL        string
	ChainID       int64
	TokenContract string
	TokenDecimals int
	Confirmations int
	// SessionKey is the hex private key of the custodial session wallet
	// used for server-side payment execution. Empty disables the /pay
	// path; viewers then settle client-side and use /confirm.
	SessionKey string
}

type LivepeerConfig struct {
	APIKey  string
	BaseURL string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

// LocalStoreConfig points at the bbolt file holding fallback payment
// records, consulted when the shared store could not be written after a
// settled payment.
type LocalStoreConfig struct {
	Path string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "chainfren_tv"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Chain: ChainConfig{
			Network: getEnv("CHAIN_NETWORK", "base-sepolia"),
			RPCURL:  getEnv("CHAIN_RPC_URL", ""),
			ChainID: int64(getEnvAsInt("CHAIN_ID", 84532)),
			// Base Sepolia USDC
			TokenContract: getEnv("CHAIN_TOKEN_CONTRACT", "0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
			TokenDecimals: getEnvAsInt("CHAIN_TOKEN_DECIMALS", 6),
			Confirmations: getEnvAsInt("CHAIN_CONFIRMATIONS", 1),
			SessionKey:    getEnv("CHAIN_SESSION_KEY", ""),
		},
		Livepeer: LivepeerConfig{
			APIKey:  getEnv("LIVEPEER_API_KEY", ""),
			BaseURL: getEnv("LIVEPEER_BASE_URL", "https://livepeer.studio/api"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "chainfren-tv-assets"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		LocalStore: LocalStoreConfig{
			Path: getEnv("LOCAL_STORE_PATH", "./data/payments.db"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Chain.RPCURL == "" && c.Environment == "production" {
		return fmt.Errorf("chain RPC URL is required in production")
	}

	if !strings.HasPrefix(c.Chain.TokenContract, "0x") {
		return fmt.Errorf("chain token contract must be a 0x-prefixed address")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
