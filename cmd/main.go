package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/browser"

	"github.com/char5742/dualpad-cursors/internal/api"
	"github.com/char5742/dualpad-cursors/internal/config"
	"github.com/char5742/dualpad-cursors/internal/features"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	port := flag.Int("port", 0, "APIサーバーのポート番号 (0の場合は設定ファイルの値を使用)")
	openPage := flag.Bool("open", false, "APIサーバー起動後にブラウザで状態ページを開きます")
	listDevices := flag.Bool("list-devices", false, "検出したポインタデバイスを一覧表示して終了します")
	flag.Parse()

	// デバイス一覧モード
	if *listDevices {
		runListDevices()
		return
	}

	// デフォルト設定ファイルパスの設定
	defaultConfigPath := ""
	configDir, err := config.GetDefaultConfigDir()
	if err == nil {
		defaultConfigPath = filepath.Join(configDir, "config.toml")
	}

	cfgPath := defaultConfigPath
	if *configPath != "" {
		cfgPath = *configPath
	}

	// 設定ファイルの読み込み
	var cfg *config.Config
	if cfgPath != "" {
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("設定ファイルの読み込みに失敗しました: %v\nデフォルト設定を使用します\n", err)
			cfg = config.DefaultConfig()
		} else {
			fmt.Printf("設定ファイルを読み込みました: %s\n", cfgPath)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// シグナルハンドラの設定
	handleSignals()

	if *useApi {
		apiPort := cfg.API.Port
		if *port != 0 {
			apiPort = *port
		}
		fmt.Printf("APIサーバーモードで起動します (ポート: %d)...\n", apiPort)
		runApiServer(cfg, apiPort, *openPage)
	} else {
		fmt.Println("CLIモードで起動します...")
		runCLI(cfg)
	}
}

// runListDevices は検出したデバイスの一覧を表示する
func runListDevices() {
	sources := features.DiscoverSources()
	if len(sources) == 0 {
		fmt.Println("ポインタデバイスが見つかりませんでした。")
		return
	}
	for _, source := range sources {
		hint := "-"
		if source.CursorHint != nil {
			hint = source.CursorHint.String()
		}
		fmt.Printf("%s\t%s\t%s\n", source.Path, source.Name, hint)
	}
}

// APIサーバーモードでの実行
func runApiServer(cfg *config.Config, port int, openPage bool) {
	server := api.NewServer(cfg, port)

	if openPage {
		go func() {
			// サーバーの起動を待ってから開く
			time.Sleep(500 * time.Millisecond)
			url := fmt.Sprintf("http://localhost:%d/api/cursors", port)
			if err := browser.OpenURL(url); err != nil {
				log.Printf("ブラウザを開けませんでした: %v", err)
			}
		}()
	}

	if err := server.Start(); err != nil {
		log.Fatalf("APIサーバーの起動に失敗しました: %v", err)
	}
}

// CLIモードでの実行
func runCLI(cfg *config.Config) {
	service := api.NewCursorService(cfg)

	if err := service.Start(); err != nil {
		fmt.Printf("カーソルサービスの起動に失敗しました: %v\n", err)
		os.Exit(1)
	}

	// 定期的に両カーソルの状態を表示する
	ticker := time.NewTicker(cfg.ResolveStatusInterval())
	defer ticker.Stop()

	for range ticker.C {
		if !service.IsRunning() {
			if err := service.LastError(); err != nil {
				log.Fatalf("カーソルサービスが停止しました: %v", err)
			}
			log.Fatal("カーソルサービスが停止しました")
		}

		left, right := service.Snapshot()
		fmt.Printf("L: (%7.1f,%7.1f) btn=%v  |  R: (%7.1f,%7.1f) btn=%v\n",
			left.X, left.Y, left.Buttons, right.X, right.Y, right.Buttons)
	}
}

func handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("シャットダウンします...")
		os.Exit(0)
	}()
}
