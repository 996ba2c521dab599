package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Daemon.AbsScale != DefaultAbsScale {
		t.Errorf("expected abs_scale %v, got %v", DefaultAbsScale, cfg.Daemon.AbsScale)
	}
	if cfg.Daemon.PollTimeoutMs != 8 {
		t.Errorf("expected poll_timeout_ms 8, got %d", cfg.Daemon.PollTimeoutMs)
	}
	if cfg.Daemon.StatusIntervalMs != 50 {
		t.Errorf("expected status_interval_ms 50, got %d", cfg.Daemon.StatusIntervalMs)
	}
	if cfg.Mapping.Mode != "unknown" {
		t.Errorf("expected mapping mode unknown, got %q", cfg.Mapping.Mode)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.API.Port)
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Daemon.AbsScale != DefaultAbsScale {
		t.Errorf("expected default config, got %+v", cfg)
	}
	// デフォルト設定がファイルとして書き出されていること
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("config file must be created: %v", err)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Daemon.AbsScale = 0.05
	cfg.Mapping.Mode = "abs_axis_range"
	cfg.Mapping.Axis = 0x35
	cfg.Mapping.LeftMax = 1000
	cfg.Mapping.RightMin = 1001
	cfg.Mapping.RightMax = 2000
	cfg.DevicePrefs.Sources = []string{"/dev/input/event3"}
	cfg.DevicePrefs.PreferredLeft = "padA"

	if err := SaveConfig(configPath, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Daemon.AbsScale != 0.05 {
		t.Errorf("expected abs_scale 0.05, got %v", loaded.Daemon.AbsScale)
	}
	if loaded.Mapping.Mode != "abs_axis_range" || loaded.Mapping.Axis != 0x35 {
		t.Errorf("unexpected mapping: %+v", loaded.Mapping)
	}
	if loaded.Mapping.RightMin != 1001 || loaded.Mapping.RightMax != 2000 {
		t.Errorf("unexpected ranges: %+v", loaded.Mapping)
	}
	if len(loaded.DevicePrefs.Sources) != 1 || loaded.DevicePrefs.Sources[0] != "/dev/input/event3" {
		t.Errorf("unexpected sources: %v", loaded.DevicePrefs.Sources)
	}
	if loaded.DevicePrefs.PreferredLeft != "padA" {
		t.Errorf("unexpected preferred left: %q", loaded.DevicePrefs.PreferredLeft)
	}
}

func TestResolveAbsScale(t *testing.T) {
	cfg := DefaultConfig()

	// 環境変数が最優先
	t.Setenv(EnvAbsScale, "0.1")
	if got := cfg.ResolveAbsScale(); got != 0.1 {
		t.Errorf("env override: expected 0.1, got %v", got)
	}

	// 解釈できない値・正でない値は無視される
	t.Setenv(EnvAbsScale, "abc")
	if got := cfg.ResolveAbsScale(); got != DefaultAbsScale {
		t.Errorf("invalid env: expected %v, got %v", DefaultAbsScale, got)
	}
	t.Setenv(EnvAbsScale, "-0.5")
	if got := cfg.ResolveAbsScale(); got != DefaultAbsScale {
		t.Errorf("negative env: expected %v, got %v", DefaultAbsScale, got)
	}

	// 環境変数なし・設定ファイルの値が使われる
	t.Setenv(EnvAbsScale, "")
	cfg.Daemon.AbsScale = 0.3
	if got := cfg.ResolveAbsScale(); got != 0.3 {
		t.Errorf("config value: expected 0.3, got %v", got)
	}

	// 設定も正でなければデフォルトへ
	cfg.Daemon.AbsScale = 0
	if got := cfg.ResolveAbsScale(); got != DefaultAbsScale {
		t.Errorf("fallback: expected %v, got %v", DefaultAbsScale, got)
	}
}

func TestResolvePollTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ResolvePollTimeout(); got != 8*time.Millisecond {
		t.Errorf("expected 8ms, got %v", got)
	}

	cfg.Daemon.PollTimeoutMs = 20
	if got := cfg.ResolvePollTimeout(); got != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", got)
	}

	cfg.Daemon.PollTimeoutMs = 0
	if got := cfg.ResolvePollTimeout(); got != DefaultPollTimeout {
		t.Errorf("expected default, got %v", got)
	}
}

func TestResolveStatusInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Daemon.StatusIntervalMs = 0
	if got := cfg.ResolveStatusInterval(); got != DefaultStatusInterval {
		t.Errorf("expected default, got %v", got)
	}
	cfg.Daemon.StatusIntervalMs = 100
	if got := cfg.ResolveStatusInterval(); got != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", got)
	}
}
