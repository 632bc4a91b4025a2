package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backends for the cross-tab tier.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config describes how a context wires its tiers and transports.
type Config struct {
	Backend       string        `yaml:"backend"`
	Dir           string        `yaml:"dir"`
	Redis         RedisConfig   `yaml:"redis"`
	PulseDelay    time.Duration `yaml:"pulse_delay"`
	EncryptionKey string        `yaml:"encryption_key"` // hex, 32 bytes
	LogLevel      string        `yaml:"log_level"`
	HTTPAddr      string        `yaml:"http_addr"`
	TabID         string        `yaml:"tab_id"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:    BackendFile,
		Dir:        ".unimarket/storage",
		PulseDelay: 100 * time.Millisecond,
		LogLevel:   "info",
		HTTPAddr:   ":8080",
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "unimarket:",
		},
	}
}

// Load reads a YAML file over the defaults. A missing path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown backend %q (want memory, file or redis)", c.Backend)
	}
	if c.Backend == BackendFile && c.Dir == "" {
		return errors.New("file backend requires dir")
	}
	if c.Backend == BackendRedis && c.Redis.Addr == "" {
		return errors.New("redis backend requires redis.addr")
	}
	if c.PulseDelay < 0 {
		return errors.New("pulse_delay cannot be negative")
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes the encryption key. It returns nil when encryption is off.
func (c Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key is not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption_key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
