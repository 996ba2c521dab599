package api

import (
	"fmt"
	"log"
	"sync"

	"github.com/char5742/dualpad-cursors/internal/config"
	"github.com/char5742/dualpad-cursors/internal/cursor"
	"github.com/char5742/dualpad-cursors/internal/features"
)

// CursorSnapshot はAPI応答・状態表示用のカーソル状態
type CursorSnapshot struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Buttons []string `json:"buttons"`
}

// CursorService は2つの論理カーソルの状態を管理するサービス
// デーモンのポーリングとイベントの畳み込みは単一のゴルーチンで実行される
type CursorService struct {
	cfg         *config.Config
	stopChan    chan struct{}
	running     bool
	lastErr     error
	statusMutex sync.RWMutex

	daemon *features.Daemon

	stateMutex sync.RWMutex
	left       *cursor.State
	right      *cursor.State
}

// NewCursorService は新しいカーソルサービスを作成する
func NewCursorService(cfg *config.Config) *CursorService {
	return &CursorService{
		cfg:   cfg,
		left:  cursor.NewState(cursor.Left),
		right: cursor.NewState(cursor.Right),
	}
}

// Start はデバイスを開いてポーリングループを開始する
func (s *CursorService) Start() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.running {
		return fmt.Errorf("サービスは既に実行中です")
	}

	// 環境変数・設定ファイルの明示指定を優先し、なければ自動検出する
	// 明示指定が1つも解決できなかった場合は自動検出へ落ちずに失敗させる
	sources, explicit := features.SourcesFromEnv()
	if !explicit && len(s.cfg.DevicePrefs.Sources) > 0 {
		sources = features.SourcesFromPaths(s.cfg.DevicePrefs.Sources)
		explicit = true
	}
	if !explicit {
		sources = features.DiscoverSources()
	}
	if len(sources) == 0 {
		if explicit {
			return fmt.Errorf("指定された入力デバイスを1つも開けませんでした")
		}
		return fmt.Errorf("入力デバイスが見つかりませんでした。/dev/input/event* へのアクセス権限を確認してください")
	}

	features.ApplyPreferredHints(sources, s.cfg.DevicePrefs.PreferredLeft, s.cfg.DevicePrefs.PreferredRight)

	daemon, err := features.NewDaemon(
		sources,
		features.SingleMappingFromConfig(s.cfg.Mapping),
		s.cfg.ResolveAbsScale(),
	)
	if err != nil {
		return fmt.Errorf("デーモンの構築に失敗しました: %w", err)
	}
	s.daemon = daemon

	s.stopChan = make(chan struct{})
	s.running = true
	s.lastErr = nil

	go s.runPollLoop(daemon)

	return nil
}

// Stop はポーリングループを停止する
func (s *CursorService) Stop() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if !s.running {
		return fmt.Errorf("サービスは実行されていません")
	}

	close(s.stopChan)
	s.running = false

	// デバイスのクローズは runPollLoop 内で行われる

	return nil
}

// IsRunning はサービスが実行中かどうかを返す
func (s *CursorService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// LastError は直近のポーリング失敗の原因を返す
func (s *CursorService) LastError() error {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.lastErr
}

// Sources は管理中のデバイス情報を返す（未起動時はnil）
func (s *CursorService) Sources() []features.DeviceSource {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	if s.daemon == nil {
		return nil
	}
	return s.daemon.Sources()
}

// Snapshot は両カーソルの現在状態のコピーを返す
func (s *CursorService) Snapshot() (left, right CursorSnapshot) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return snapshotState(s.left), snapshotState(s.right)
}

func snapshotState(state *cursor.State) CursorSnapshot {
	held := state.Held()
	buttons := make([]string, 0, len(held))
	for _, b := range held {
		buttons = append(buttons, b.String())
	}
	return CursorSnapshot{X: state.X, Y: state.Y, Buttons: buttons}
}

// runPollLoop はポーリングとイベント畳み込みのメインループ
// ポーリングの失敗は致命的として扱い、ループを終了させる
// デーモンは引数で受け取ったものだけを使う（再起動後のフィールドを触らない）
func (s *CursorService) runPollLoop(daemon *features.Daemon) {
	defer func() {
		daemon.Close()
		log.Println("カーソルサービスを停止しました")
	}()

	timeout := s.cfg.ResolvePollTimeout()
	log.Println("カーソルの追跡を開始しました...")

	for {
		select {
		case <-s.stopChan:
			return
		default:
			events, err := daemon.Poll(timeout)
			if err != nil {
				log.Printf("ポーリングに失敗しました: %v", err)
				s.statusMutex.Lock()
				s.lastErr = err
				s.running = false
				s.statusMutex.Unlock()
				return
			}
			if len(events) == 0 {
				continue
			}

			s.stateMutex.Lock()
			for _, ev := range events {
				switch ev.Cursor {
				case cursor.Left:
					s.left.Apply(ev)
				case cursor.Right:
					s.right.Apply(ev)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}
