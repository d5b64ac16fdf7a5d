package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the application configuration. It is constructed once at
// startup and passed by reference into the components that need it.
type Config struct {
	ServerPort   int
	SecretKey    string // general-purpose application secret
	JWTSecret    string // HMAC key for signing access tokens
	DatabaseName string
	DatabaseDir  string // directory the SQLite file lives in
}

// Load builds the configuration from environment variables, falling back to
// command-line flags for any value the environment does not provide. It
// returns an error naming every required value that is still missing, so the
// process refuses to start instead of failing mid-request.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		SecretKey:    os.Getenv("SECRET_KEY"),
		JWTSecret:    os.Getenv("JWT_SECRET_KEY"),
		DatabaseName: os.Getenv("MOOD_DB_NAME"),
		DatabaseDir:  os.Getenv("MOOD_DB_DIR"),
	}

	fs := flag.NewFlagSet("moodlog", flag.ContinueOnError)
	secretKey := fs.String("s", "", "application secret key")
	jwtSecret := fs.String("j", "", "JWT signing secret")
	dbName := fs.String("d", "", "database name")
	dbDir := fs.String("u", "", "database directory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Environment wins; flags only fill the gaps.
	if cfg.SecretKey == "" {
		cfg.SecretKey = *secretKey
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = *jwtSecret
	}
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = *dbName
	}
	if cfg.DatabaseDir == "" {
		cfg.DatabaseDir = *dbDir
	}

	var missing []string
	if cfg.SecretKey == "" {
		missing = append(missing, "secret key (SECRET_KEY / -s)")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT secret key (JWT_SECRET_KEY / -j)")
	}
	if cfg.DatabaseName == "" {
		missing = append(missing, "database name (MOOD_DB_NAME / -d)")
	}
	if cfg.DatabaseDir == "" {
		missing = append(missing, "database directory (MOOD_DB_DIR / -u)")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}
	cfg.ServerPort = port

	return cfg, nil
}

// DatabasePath returns the full path of the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DatabaseDir, c.DatabaseName+".db")
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
