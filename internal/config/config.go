package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	Secret     string        `mapstructure:"secret"`

	SendQueueSize  int      `mapstructure:"send_queue_size"`
	Backpressure   string   `mapstructure:"backpressure"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string `mapstructure:"trusted_proxies"`

	Presence   PresenceConfig   `mapstructure:"presence"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Sign       SignConfig       `mapstructure:"sign"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	ICEServers []ICEServer      `mapstructure:"ice_servers"`
}

type PresenceConfig struct {
	Store      string `mapstructure:"store"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ClassifierConfig points at the external sign detector. An empty URL
// disables classification and every frame yields no detection.
type ClassifierConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SignConfig struct {
	RepeatWindow  time.Duration `mapstructure:"repeat_window"`
	MaxFrameBytes int           `mapstructure:"max_frame_bytes"`
}

type LimitsConfig struct {
	FramesPerSecond  int `mapstructure:"frames_per_second"`
	PredictPerMinute int `mapstructure:"predict_per_minute"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

var (
	ErrBadPort         = errors.New("port out of range")
	ErrBadBackpressure = errors.New("backpressure must be kick or drop")
	ErrBadStore        = errors.New("presence.store must be memory or sqlite")
	ErrBadPongWait     = errors.New("pong_wait must exceed ping_period")
)

// New returns a viper instance with every default and SIGNCALL_* env
// overrides applied. Callers may bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SIGNCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("secret", "signcall-dev-secret")
	v.SetDefault("send_queue_size", 64)
	v.SetDefault("backpressure", "kick")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("presence.store", "memory")
	v.SetDefault("presence.sqlite_path", "signcall.db")
	v.SetDefault("classifier.url", "")
	v.SetDefault("classifier.timeout", "2s")
	v.SetDefault("sign.repeat_window", "2s")
	v.SetDefault("sign.max_frame_bytes", 512*1024)
	v.SetDefault("limits.frames_per_second", 5)
	v.SetDefault("limits.predict_per_minute", 30)
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
		{"urls": []string{"stun:stun1.l.google.com:19302"}},
	})
	return v
}

// FileName resolves the config file from CONFIG_ENV, e.g. config/config.dev.yaml.
func FileName() string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return fmt.Sprintf("config/config.%s.yaml", env)
}

// Load reads fileName into v and decodes the result. A missing file is not an
// error; defaults and environment still apply.
func Load(v *viper.Viper, fileName string) (*Config, error) {
	if fileName != "" {
		v.SetConfigFile(fileName)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
		} else {
			log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Str("presence", cfg.Presence.Store).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrBadPort, c.Port)
	}
	switch c.Backpressure {
	case "", "kick", "drop":
	default:
		return fmt.Errorf("%w: %q", ErrBadBackpressure, c.Backpressure)
	}
	switch c.Presence.Store {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrBadStore, c.Presence.Store)
	}
	if c.PingPeriod > 0 && c.PongWait <= c.PingPeriod {
		return ErrBadPongWait
	}
	return nil
}
