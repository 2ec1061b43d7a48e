package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	RoleAll         = "all"
	RoleCoordinator = "coordinator"
	RoleEdge        = "edge"

	DriverMemory = "memory"
	DriverRedis  = "redis"
)

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrUnknownDriver   = errors.New("unknown bus driver")
	ErrMemoryBusRole   = errors.New("memory bus needs role all")
	ErrEmptyRedisAddr  = errors.New("redis address is empty")
	ErrInvalidDuration = errors.New("durations must not be negative")
	ErrHeartbeatTTL    = errors.New("heartbeat interval must be positive and shorter than the edge ttl")
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Role       string  `yaml:"role" env:"ROLE" env-default:"all"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3001"`
	EdgeID     string  `yaml:"edge-id" env:"EDGE_ID"`
	Bus        Bus     `yaml:"bus"`
	Redis      Redis   `yaml:"redis"`
	Session    Session `yaml:"session"`
}

type Bus struct {
	Driver string `yaml:"driver" env:"BUS_DRIVER" env-default:"memory"`
	Prefix string `yaml:"prefix" env:"BUS_PREFIX" env-default:"ttt"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Session struct {
	RestartTimeout    time.Duration `yaml:"restart-timeout" env:"RESTART_TIMEOUT" env-default:"60s"`
	WaitTimeout       time.Duration `yaml:"wait-timeout" env:"WAIT_TIMEOUT" env-default:"10m"`
	HeartbeatInterval time.Duration `yaml:"heartbeat-interval" env:"HEARTBEAT_INTERVAL" env-default:"2s"`
	EdgeTTL           time.Duration `yaml:"edge-ttl" env:"EDGE_TTL" env-default:"10s"`
	OutboxSize        int           `yaml:"outbox-size" env:"OUTBOX_SIZE" env-default:"1024"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

// Validate - checks the combinations cleanenv cannot express.
func (that *Config) Validate() error {
	switch that.Role {
	case RoleAll, RoleCoordinator, RoleEdge:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, that.Role)
	}

	switch that.Bus.Driver {
	case DriverMemory:
		if that.Role != RoleAll {
			return fmt.Errorf("%w: got %q", ErrMemoryBusRole, that.Role)
		}
	case DriverRedis:
		if that.Redis.Host == "" || that.Redis.Port == "" {
			return ErrEmptyRedisAddr
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, that.Bus.Driver)
	}

	s := that.Session
	if s.RestartTimeout < 0 || s.WaitTimeout < 0 || s.HeartbeatInterval < 0 || s.EdgeTTL < 0 {
		return ErrInvalidDuration
	}

	// edges are swept after EdgeTTL of silence, so they must beat more often than that
	if s.EdgeTTL > 0 && (s.HeartbeatInterval == 0 || s.HeartbeatInterval >= s.EdgeTTL) {
		return fmt.Errorf("%w: heartbeat %s, ttl %s", ErrHeartbeatTTL, s.HeartbeatInterval, s.EdgeTTL)
	}

	return nil
}

func (that *Config) RunsCoordinator() bool {
	return that.Role == RoleAll || that.Role == RoleCoordinator
}

func (that *Config) RunsEdge() bool {
	return that.Role == RoleAll || that.Role == RoleEdge
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
