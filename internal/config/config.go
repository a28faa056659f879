package config

import (
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Storage           string `yaml:"storage" env:"STORAGE" env-default:"memory"`
	Redis             Redis  `yaml:"redis"`
	Mongo             Mongo  `yaml:"mongo"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"./tictactoe.db"`
	AI                AI     `yaml:"ai"`
	Game              Game   `yaml:"game"`
	Sound             Sound  `yaml:"sound"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"tictactoe"`
}

// AI - Seed 0 picks a random seed at start-up.
type AI struct {
	ThinkDelay time.Duration `yaml:"think-delay" env:"AI_THINK_DELAY" env-default:"500ms"`
	Seed       uint64        `yaml:"seed" env:"AI_SEED" env-default:"0"`
}

type Game struct {
	DefaultMode       string `yaml:"default-mode" env:"GAME_DEFAULT_MODE" env-default:"pvp"`
	DefaultDifficulty string `yaml:"default-difficulty" env:"GAME_DEFAULT_DIFFICULTY" env-default:"medium"`
}

type Sound struct {
	Enabled bool `yaml:"enabled" env:"SOUND_ENABLED" env-default:"true"`
}

// Load - reads path, environment variables override the file.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return net.JoinHostPort(that.Host, that.Port)
}
