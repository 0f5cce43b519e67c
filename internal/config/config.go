// Package config centralizes the tunables of spec.md §6 plus the
// surrounding service settings, replacing the teacher's scattered
// os.Getenv calls with one viper-backed struct.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// HeuristicKind selects the PathSearch heuristic implementation.
type HeuristicKind string

const (
	HeuristicEuclidean HeuristicKind = "euclidean"
	HeuristicZero      HeuristicKind = "zero"
)

// Config is every setting the planner core and its surrounding service
// need, loaded from environment variables (with a JOURNEY_ prefix) or a
// config file, viper-style.
type Config struct {
	// Routing tunables, spec.md §6.
	WalkSpeedTransferKMH float64
	WalkSpeedSlowKMH     float64
	MaxWalkSeconds       int
	MaxAlternatives      int
	Heuristic            HeuristicKind

	// Server.
	APIPort string

	// Postgres.
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	DBMinConns int32
	DBMaxConns int32

	// Redis.
	RedisHost      string
	RedisPort      int
	RedisPassword  string
	RedisDB        int
	RedisTLS       bool
	CacheTTL       time.Duration
	CacheMutexTTL  time.Duration
}

// Load reads configuration from environment variables prefixed
// JOURNEY_ (e.g. JOURNEY_MAX_ALTERNATIVES), falling back to the defaults
// below. An optional config file is also consulted if present, matching
// the pack's viper-based location-microservice setup.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("journey")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("journeyplanner")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/journeyplanner")
	_ = v.ReadInConfig() // absent config file is not an error

	v.SetDefault("walk_speed_transfer_kmh", 5.0)
	v.SetDefault("walk_speed_slow_kmh", 3.0)
	v.SetDefault("max_walk_seconds", 300)
	v.SetDefault("max_alternatives", 3)
	v.SetDefault("heuristic", "euclidean")

	v.SetDefault("api_port", "8080")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_name", "journeyplanner")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_min_conns", 5)
	v.SetDefault("db_max_conns", 20)

	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_tls", false)
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("cache_mutex_ttl", "5s")

	return &Config{
		WalkSpeedTransferKMH: v.GetFloat64("walk_speed_transfer_kmh"),
		WalkSpeedSlowKMH:     v.GetFloat64("walk_speed_slow_kmh"),
		MaxWalkSeconds:       v.GetInt("max_walk_seconds"),
		MaxAlternatives:      v.GetInt("max_alternatives"),
		Heuristic:            HeuristicKind(v.GetString("heuristic")),

		APIPort: v.GetString("api_port"),

		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetInt("db_port"),
		DBName:     v.GetString("db_name"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBSSLMode:  v.GetString("db_sslmode"),
		DBMinConns: int32(v.GetInt("db_min_conns")),
		DBMaxConns: int32(v.GetInt("db_max_conns")),

		RedisHost:     v.GetString("redis_host"),
		RedisPort:     v.GetInt("redis_port"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		RedisTLS:      v.GetBool("redis_tls"),
		CacheTTL:      v.GetDuration("cache_ttl"),
		CacheMutexTTL: v.GetDuration("cache_mutex_ttl"),
	}
}

// WalkSpeedTransferMPS converts the configured transfer speed to m/s.
func (c *Config) WalkSpeedTransferMPS() float64 { return c.WalkSpeedTransferKMH * 1000.0 / 3600.0 }

// WalkSpeedSlowMPS converts the configured off-graph speed to m/s.
func (c *Config) WalkSpeedSlowMPS() float64 { return c.WalkSpeedSlowKMH * 1000.0 / 3600.0 }
