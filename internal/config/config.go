package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/geostick/internal/joystick"
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/sim"
)

const (
	DefaultDataDir    = ".geostick"
	DefaultLogLevel   = "info"
	DefaultServerAddr = ":8080"
	DefaultBaud       = 4800
	DefaultMQTTTopic  = "geostick/fix"
	DefaultRedisAddr  = "localhost:6379"
	DefaultSeedWait   = 5 * time.Second
)

type Config struct {
	DataDir  string             `yaml:"data_dir"`
	LogLevel string             `yaml:"log_level"`
	Seed     SeedConfig         `yaml:"seed"`
	Sim      sim.Config         `yaml:"sim"`
	Joystick joystick.PadConfig `yaml:"joystick"`
	Prefs    PrefsConfig        `yaml:"prefs"`
	Publish  PublishConfig      `yaml:"publish"`
	Server   ServerConfig       `yaml:"server"`
}

// SeedConfig lists where a session's starting position may come from.
// Sources are tried in order: static, NMEA stream, persisted prefs.
type SeedConfig struct {
	Static     *motion.LatLon `yaml:"static,omitempty"`
	NMEADevice string         `yaml:"nmea_device,omitempty"`
	NMEAFile   string         `yaml:"nmea_file,omitempty"`
	Baud       uint           `yaml:"baud"`
	Wait       time.Duration  `yaml:"wait"`
}

type PrefsConfig struct {
	// Backend is one of file, redis, sqlite or none.
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db"`
	Namespace string `yaml:"namespace,omitempty"`
}

type PublishConfig struct {
	NMEAFile string       `yaml:"nmea_file,omitempty"`
	Serial   SerialConfig `yaml:"serial"`
	MQTT     MQTTConfig   `yaml:"mqtt"`
}

type SerialConfig struct {
	Port string `yaml:"port,omitempty"`
	Baud uint   `yaml:"baud"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker,omitempty"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id,omitempty"`
	QoS      byte   `yaml:"qos"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
		Seed: SeedConfig{
			Baud: DefaultBaud,
			Wait: DefaultSeedWait,
		},
		Sim:      sim.DefaultConfig(),
		Joystick: joystick.DefaultPadConfig(),
		Prefs:    PrefsConfig{Backend: "file"},
		Publish: PublishConfig{
			Serial: SerialConfig{Baud: DefaultBaud},
			MQTT:   MQTTConfig{Topic: DefaultMQTTTopic},
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Sim.MaxSpeedFactor <= 0 {
		return fmt.Errorf("sim.max_speed_factor must be positive, got %g", c.Sim.MaxSpeedFactor)
	}
	if c.Sim.MovingInterval <= 0 || c.Sim.StationaryInterval <= 0 {
		return fmt.Errorf("sim intervals must be positive")
	}
	if c.Seed.Static != nil && !c.Seed.Static.Valid() {
		return fmt.Errorf("seed.static: %w", motion.ErrInvalidSeed)
	}
	switch c.Prefs.Backend {
	case "", "none", "file", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown prefs backend: %s", c.Prefs.Backend)
	}
	return nil
}
