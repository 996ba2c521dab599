package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// デフォルト値の定数
const (
	DefaultAbsScale       = 0.02                  // 絶対座標を相対移動へ変換する倍率
	DefaultPollTimeout    = 8 * time.Millisecond  // 1サイクルの待機タイムアウト
	DefaultStatusInterval = 50 * time.Millisecond // CLIモードの状態表示間隔
)

// 環境変数名
const (
	EnvSources  = "DUALPAD_SOURCES"   // カンマ区切りの明示デバイスパス
	EnvAbsScale = "DUALPAD_ABS_SCALE" // スケール係数の上書き
)

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Daemon      DaemonConfig      `toml:"daemon"`
	Mapping     MappingConfig     `toml:"mapping"`
	DevicePrefs DevicePrefsConfig `toml:"device_prefs"`
	API         APIConfig         `toml:"api"`
}

// DaemonConfig はポーリングデーモンの設定
type DaemonConfig struct {
	AbsScale         float64 `toml:"abs_scale"`
	PollTimeoutMs    int     `toml:"poll_timeout_ms"`
	StatusIntervalMs int     `toml:"status_interval_ms"`
}

// MappingConfig は単一デバイス時の左右振り分け規則の設定
// modeは "unknown" / "abs_axis_range" / "event_code_range" / "tracking_id_parity"
type MappingConfig struct {
	Mode     string `toml:"mode"`
	Axis     int    `toml:"axis"`
	LeftMin  int32  `toml:"left_min"`
	LeftMax  int32  `toml:"left_max"`
	RightMin int32  `toml:"right_min"`
	RightMax int32  `toml:"right_max"`
}

// DevicePrefsConfig はデバイス選択の設定
type DevicePrefsConfig struct {
	Sources        []string `toml:"sources"`
	PreferredLeft  string   `toml:"preferred_left_device"`
	PreferredRight string   `toml:"preferred_right_device"`
}

// APIConfig はAPIサーバーの設定
type APIConfig struct {
	Port int `toml:"port"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			AbsScale:         DefaultAbsScale,
			PollTimeoutMs:    int(DefaultPollTimeout / time.Millisecond),
			StatusIntervalMs: int(DefaultStatusInterval / time.Millisecond),
		},
		Mapping: MappingConfig{
			Mode: "unknown",
		},
		DevicePrefs: DevicePrefsConfig{},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// GetDefaultConfigDir はデフォルトの設定ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "dualpad-cursors"), nil
}

// LoadConfig は設定ファイルから設定を読み込む
// ファイルが存在しない場合はデフォルト設定を保存して返す
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}

// ResolveAbsScale は環境変数・設定ファイル・デフォルトの優先順でスケール係数を決定する
// 正でない値や解釈できない値は黙ってデフォルトへフォールバックする
func (c *Config) ResolveAbsScale() float64 {
	if raw := os.Getenv(EnvAbsScale); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			return value
		}
	}
	if c.Daemon.AbsScale > 0 {
		return c.Daemon.AbsScale
	}
	return DefaultAbsScale
}

// ResolvePollTimeout はポーリングのタイムアウトを決定する
func (c *Config) ResolvePollTimeout() time.Duration {
	if c.Daemon.PollTimeoutMs > 0 {
		return time.Duration(c.Daemon.PollTimeoutMs) * time.Millisecond
	}
	return DefaultPollTimeout
}

// ResolveStatusInterval はCLIモードの状態表示間隔を決定する
func (c *Config) ResolveStatusInterval() time.Duration {
	if c.Daemon.StatusIntervalMs > 0 {
		return time.Duration(c.Daemon.StatusIntervalMs) * time.Millisecond
	}
	return DefaultStatusInterval
}
