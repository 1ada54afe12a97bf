// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Library  LibraryConfig
	Metadata MetadataConfig
	RAWG     RAWGConfig
	IGDB     IGDBConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// LibraryConfig holds game library configuration.
type LibraryConfig struct {
	// GamesPath is the root directory containing the game files.
	GamesPath string
	// WatchFiles enables the filesystem watcher on GamesPath (default: true).
	WatchFiles bool
}

// MetadataConfig holds metadata engine configuration.
type MetadataConfig struct {
	// BasePath is the data directory (database, search index).
	BasePath string
	// TTLDays is the maximum age of a provider metadata record before it is
	// considered stale and eligible for refresh (default: 30).
	TTLDays int
	// SyncInterval is how often the background sync pass runs (default: 6h).
	SyncInterval time.Duration
}

// RAWGConfig holds RAWG provider configuration.
type RAWGConfig struct {
	Enabled  bool
	APIKey   string
	Priority int
}

// IGDBConfig holds IGDB provider configuration.
type IGDBConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	Priority     int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for server data (database, search index)")
	gamesPath := flag.String("games-path", "", "Path to the game file library")
	watchFiles := flag.String("watch-files", "", "Watch the game library for changes (default: true)")
	serverName := flag.String("server-name", "", "Name for the server")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Metadata flags
	ttlDays := flag.String("metadata-ttl-days", "", "Days before provider metadata is considered stale (default: 30)")
	syncInterval := flag.String("metadata-sync-interval", "", "Background metadata sync interval (default: 6h)")

	// Provider flags
	rawgAPIKey := flag.String("rawg-api-key", "", "RAWG API key")
	igdbClientID := flag.String("igdb-client-id", "", "IGDB (Twitch) client ID")
	igdbClientSecret := flag.String("igdb-client-secret", "", "IGDB (Twitch) client secret")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "GameVault Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Library: LibraryConfig{
			GamesPath:  getConfigValue(*gamesPath, "GAMES_PATH", ""),
			WatchFiles: getBoolConfigValue(*watchFiles, "WATCH_FILES", true),
		},
		Metadata: MetadataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
			TTLDays:  getIntConfigValue(*ttlDays, "METADATA_TTL_DAYS", 30),
		},
		RAWG: RAWGConfig{
			Enabled:  getBoolConfigValue("", "RAWG_ENABLED", true),
			APIKey:   getConfigValue(*rawgAPIKey, "RAWG_API_KEY", ""),
			Priority: getIntConfigValue("", "RAWG_PRIORITY", 20),
		},
		IGDB: IGDBConfig{
			Enabled:      getBoolConfigValue("", "IGDB_ENABLED", false),
			ClientID:     getConfigValue(*igdbClientID, "IGDB_CLIENT_ID", ""),
			ClientSecret: getConfigValue(*igdbClientSecret, "IGDB_CLIENT_SECRET", ""),
			Priority:     getIntConfigValue("", "IGDB_PRIORITY", 10),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Parse sync interval.
	syncIntervalStr := getConfigValue(*syncInterval, "METADATA_SYNC_INTERVAL", "6h")
	syncIntervalDuration, err := time.ParseDuration(syncIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid sync interval %q: %w", syncIntervalStr, err)
	}
	cfg.Metadata.SyncInterval = syncIntervalDuration

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand games path.
	if err := cfg.expandGamesPath(); err != nil {
		return nil, fmt.Errorf("invalid games path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// TTL returns the metadata staleness window as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Metadata.TTLDays) * 24 * time.Hour
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Metadata.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Metadata.TTLDays <= 0 {
		return fmt.Errorf("metadata TTL must be positive, got %d days", c.Metadata.TTLDays)
	}

	// GamesPath can be empty - the server then runs without a library scanner.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "GameVault", "data")

	expanded, err := expandPath(c.Metadata.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Metadata.BasePath = expanded
	return nil
}

// expandGamesPath expands ~ and makes the path absolute.
// If empty, leaves it empty so the server runs without a scanner.
func (c *Config) expandGamesPath() error {
	if c.Library.GamesPath == "" {
		return nil
	}

	expanded, err := expandPath(c.Library.GamesPath, "")
	if err != nil {
		return err
	}
	c.Library.GamesPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
