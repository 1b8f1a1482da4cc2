package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"nivaran-be/dedup"
	"nivaran-be/generator"
)

// Config is built once at startup and handed to whatever needs it.
type Config struct {
	Port        string
	Environment string
	Domain      string
	CORSOrigins []string

	MongoURI      string
	MongoDatabase string

	RedisAddress    string
	RedisPassword   string
	RedisChannel    string
	IssueLimitQueue string
	IssueLimit      int

	JWTSecret string

	// DataFile is used for snapshot persistence when MongoURI is empty.
	DataFile string

	SeedCount int
	Seed      int64

	Dedup dedup.Options
}

func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getenvDefault("PORT", "8080"),
		Environment:     getenvDefault("GO_ENV", "development"),
		Domain:          os.Getenv("DOMAIN"),
		CORSOrigins:     splitList(getenvDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDatabase:   getenvDefault("MONGODB_DATABASE", "nivaran"),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisChannel:    getenvDefault("REDIS_CHANNEL", "nivaran:issues"),
		IssueLimitQueue: getenvDefault("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue-limit"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		DataFile:        getenvDefault("DATA_FILE", "nivaran-data.json"),
	}

	var err error
	if cfg.IssueLimit, err = getenvInt("ISSUE_REPORT_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.SeedCount, err = getenvInt("SEED_COUNT", 6000); err != nil {
		return nil, err
	}
	seed, err := getenvInt("SEED", generator.DefaultSeed)
	if err != nil {
		return nil, err
	}
	cfg.Seed = int64(seed)

	if cfg.Dedup, err = dedup.OptionsFromEnv(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
