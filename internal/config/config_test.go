package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.Mode != "release" || cfg.Backpressure != "kick" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PingPeriod != 54*time.Second || cfg.PongWait != 60*time.Second {
		t.Fatalf("ping=%s pong=%s", cfg.PingPeriod, cfg.PongWait)
	}
	if cfg.Limits.FramesPerSecond != 5 || cfg.Limits.PredictPerMinute != 30 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if len(cfg.ICEServers) != 2 || cfg.ICEServers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Fatalf("ice servers = %+v", cfg.ICEServers)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	body := []byte("port: 9090\nbackpressure: drop\npresence:\n  store: sqlite\n  sqlite_path: /tmp/p.db\nsign:\n  repeat_window: 500ms\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIGNCALL_CLASSIFIER_URL", "http://detector:5001/predict")

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.Backpressure != "drop" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Presence.Store != "sqlite" || cfg.Presence.SQLitePath != "/tmp/p.db" {
		t.Fatalf("presence = %+v", cfg.Presence)
	}
	if cfg.Sign.RepeatWindow != 500*time.Millisecond {
		t.Fatalf("repeat window = %s", cfg.Sign.RepeatWindow)
	}
	if cfg.Classifier.URL != "http://detector:5001/predict" {
		t.Fatalf("classifier url = %q", cfg.Classifier.URL)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Port: 8080, PingPeriod: time.Second, PongWait: 2 * time.Second}
	}
	cases := []struct {
		name string
		mut  func(*Config)
		want error
	}{
		{"ok", func(*Config) {}, nil},
		{"port", func(c *Config) { c.Port = 0 }, ErrBadPort},
		{"backpressure", func(c *Config) { c.Backpressure = "block" }, ErrBadBackpressure},
		{"store", func(c *Config) { c.Presence.Store = "redis" }, ErrBadStore},
		{"pong", func(c *Config) { c.PongWait = c.PingPeriod }, ErrBadPongWait},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mut(&c)
			if err := c.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
