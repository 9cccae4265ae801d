// Package config loads runtime configuration from environment variables and
// an optional config file via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Game     GameConfig
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Port            int
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig configures the Redis client used by the matchmaking queue.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns host:port for dialing.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GameConfig holds session-layer cadence settings loaded from configuration.
// The session managers do not read it and run on fixed intervals; the
// bit-exact rules constants stay in internal/chess.
type GameConfig struct {
	TickIntervalSeconds        int
	CheckpointEveryNTicks      int
	MatchmakingIntervalSeconds int
	RoomSweepIntervalMinutes   int
}

// Load reads configuration from environment variables prefixed RTCHESS_,
// falling back to a config file named config.yaml on the search path if
// present, and finally to the defaults below.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RTCHESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			Environment:     v.GetString("server.environment"),
			AllowedOrigins:  v.GetStringSlice("server.allowed_origins"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("database.host"),
			Port:         v.GetInt("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.dbname"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Game: GameConfig{
			TickIntervalSeconds:        v.GetInt("game.tick_interval_seconds"),
			CheckpointEveryNTicks:      v.GetInt("game.checkpoint_every_n_ticks"),
			MatchmakingIntervalSeconds: v.GetInt("game.matchmaking_interval_seconds"),
			RoomSweepIntervalMinutes:   v.GetInt("game.room_sweep_interval_minutes"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "rtchess")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("game.tick_interval_seconds", 1)
	v.SetDefault("game.checkpoint_every_n_ticks", 5)
	v.SetDefault("game.matchmaking_interval_seconds", 1)
	v.SetDefault("game.room_sweep_interval_minutes", 30)
}
