// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr  string
	DBPath      string
	SecretsPath string

	KGAPIURL      string
	RetryAttempts int
	CacheTTL      time.Duration

	LakeFSEndpoint   string
	LakeFSRepository string
	LakeFSBranch     string

	IPFSAPIURL     string
	IPFSGatewayURL string
}

// HasLakeFS reports whether a lakeFS endpoint is configured. When false,
// the archive surface is disabled and no lakeFS credentials are required.
func (c *Config) HasLakeFS() bool {
	return c.LakeFSEndpoint != ""
}

// HasIPFS reports whether an IPFS API endpoint is configured. When false,
// the publish surface is disabled and no IPFS credentials are required.
func (c *Config) HasIPFS() bool {
	return c.IPFSAPIURL != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// The lakeFS (MARDIKIT_LAKEFS_ENDPOINT, MARDIKIT_LAKEFS_REPOSITORY) and IPFS
// (MARDIKIT_IPFS_API_URL) settings are optional; when absent the corresponding
// API surface is disabled. Optional variables with defaults:
// MARDIKIT_LISTEN_ADDR (127.0.0.1:8080), MARDIKIT_DB_PATH (mardikit.db),
// MARDIKIT_SECRETS_PATH (secrets.conf),
// MARDIKIT_KG_API_URL (https://portal.mardi4nfdi.de/w/api.php),
// MARDIKIT_RETRY_ATTEMPTS (5), MARDIKIT_CACHE_TTL (24h),
// MARDIKIT_LAKEFS_BRANCH (main),
// MARDIKIT_IPFS_GATEWAY_URL (https://ipfs.portal.mardi4nfdi.de).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("MARDIKIT_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "mardikit.db"
	if v, ok := os.LookupEnv("MARDIKIT_DB_PATH"); ok {
		dbPath = v
	}

	secretsPath := "secrets.conf"
	if v, ok := os.LookupEnv("MARDIKIT_SECRETS_PATH"); ok {
		secretsPath = v
	}

	kgAPIURL := "https://portal.mardi4nfdi.de/w/api.php"
	if v, ok := os.LookupEnv("MARDIKIT_KG_API_URL"); ok {
		kgAPIURL = v
	}

	retryAttempts := 5
	if v, ok := os.LookupEnv("MARDIKIT_RETRY_ATTEMPTS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("MARDIKIT_RETRY_ATTEMPTS must be a positive integer, got %q", v)
		}
		retryAttempts = parsed
	}

	cacheTTL := 24 * time.Hour
	if v, ok := os.LookupEnv("MARDIKIT_CACHE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MARDIKIT_CACHE_TTL has invalid duration %q: %w", v, err)
		}
		cacheTTL = parsed
	}

	lakeFSEndpoint := os.Getenv("MARDIKIT_LAKEFS_ENDPOINT")
	lakeFSRepository := os.Getenv("MARDIKIT_LAKEFS_REPOSITORY")
	if lakeFSEndpoint != "" && lakeFSRepository == "" {
		return nil, fmt.Errorf("MARDIKIT_LAKEFS_REPOSITORY is required when MARDIKIT_LAKEFS_ENDPOINT is set")
	}

	lakeFSBranch := "main"
	if v, ok := os.LookupEnv("MARDIKIT_LAKEFS_BRANCH"); ok {
		lakeFSBranch = v
	}

	ipfsAPIURL := os.Getenv("MARDIKIT_IPFS_API_URL")

	ipfsGatewayURL := "https://ipfs.portal.mardi4nfdi.de"
	if v, ok := os.LookupEnv("MARDIKIT_IPFS_GATEWAY_URL"); ok {
		ipfsGatewayURL = v
	}

	return &Config{
		ListenAddr:       listenAddr,
		DBPath:           dbPath,
		SecretsPath:      secretsPath,
		KGAPIURL:         kgAPIURL,
		RetryAttempts:    retryAttempts,
		CacheTTL:         cacheTTL,
		LakeFSEndpoint:   lakeFSEndpoint,
		LakeFSRepository: lakeFSRepository,
		LakeFSBranch:     lakeFSBranch,
		IPFSAPIURL:       ipfsAPIURL,
		IPFSGatewayURL:   ipfsGatewayURL,
	}, nil
}
