package features

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SourceEventType はデバイス構成の変更イベントの種類を表す
type SourceEventType int

const (
	SourceAdded SourceEventType = iota
	SourceRemoved
)

// SourceEvent はポインタデバイスの接続・切断イベントを表す
type SourceEvent struct {
	Type   SourceEventType
	Source DeviceSource
}

// SourceCallback はデバイス構成変更時に呼び出されるコールバック関数の型
type SourceCallback func(event SourceEvent)

// SourceMonitor はポインタデバイスの接続状態を監視する構造体
// /dev/inputの変化をfsnotifyで検出し、定期的な再スキャンで取りこぼしを補う
type SourceMonitor struct {
	watcher      *fsnotify.Watcher
	callbacks    []SourceCallback
	sources      map[string]DeviceSource // パスをキーにしたデバイスマップ
	mutex        sync.RWMutex
	stopChan     chan struct{}
	rescanTicker *time.Ticker
	isRunning    bool
}

// NewSourceMonitor は新しいSourceMonitorを作成する
func NewSourceMonitor() (*SourceMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &SourceMonitor{
		watcher:  watcher,
		sources:  make(map[string]DeviceSource),
		stopChan: make(chan struct{}),
	}, nil
}

// Start はデバイスの監視を開始する
func (m *SourceMonitor) Start() error {
	if m.isRunning {
		return nil
	}

	log.Println("デバイスモニターを開始します")
	m.isRunning = true

	if err := m.watcher.Add(inputDir); err != nil {
		log.Printf("ディレクトリの監視に失敗しました: %s - %v", inputDir, err)
	}

	// 初期デバイス一覧を取得
	m.updateSourceList(DiscoverSources())

	go m.watchEvents()

	// 定期的な再スキャン（切断の取りこぼし対策）
	m.rescanTicker = time.NewTicker(5 * time.Second)
	go m.runPolling()

	return nil
}

// Stop はデバイスの監視を停止する
func (m *SourceMonitor) Stop() {
	if !m.isRunning {
		return
	}

	log.Println("デバイスモニターを停止します")
	close(m.stopChan)
	if m.rescanTicker != nil {
		m.rescanTicker.Stop()
	}
	m.watcher.Close()
	m.isRunning = false
}

// RegisterCallback はデバイスイベントのコールバック関数を登録する
func (m *SourceMonitor) RegisterCallback(callback SourceCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ConnectedSources は現在接続されているデバイスのスナップショットを返す
func (m *SourceMonitor) ConnectedSources() []DeviceSource {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sources := make([]DeviceSource, 0, len(m.sources))
	for _, source := range m.sources {
		sources = append(sources, source)
	}
	return sources
}

// runPolling は定期的にデバイス一覧を再スキャンする
func (m *SourceMonitor) runPolling() {
	for {
		select {
		case <-m.stopChan:
			return
		case <-m.rescanTicker.C:
			m.updateSourceList(DiscoverSources())
		}
	}
}

// watchEvents はfsnotifyのイベントを監視する
// 短時間に連続するイベントはまとめて1回の再スキャンに畳み込む
func (m *SourceMonitor) watchEvents() {
	const debounce = 500 * time.Millisecond
	timer := time.NewTimer(debounce)
	timer.Stop()
	pendingRescan := false

	for {
		select {
		case <-m.stopChan:
			return

		case <-timer.C:
			if pendingRescan {
				pendingRescan = false
				m.updateSourceList(DiscoverSources())
			}

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !strings.Contains(event.Name, "/event") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove) != 0 {
				if !pendingRescan {
					pendingRescan = true
					timer.Reset(debounce)
				}
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("ファイルシステム監視エラー: %v", err)
		}
	}
}

// updateSourceList は現在のデバイス一覧を更新し、変更があれば通知する
func (m *SourceMonitor) updateSourceList(latest []DeviceSource) {
	m.mutex.Lock()

	seen := make(map[string]bool, len(latest))
	var added []DeviceSource
	for _, source := range latest {
		seen[source.Path] = true
		if _, exists := m.sources[source.Path]; !exists {
			m.sources[source.Path] = source
			added = append(added, source)
		}
	}

	var removed []DeviceSource
	for path, source := range m.sources {
		if !seen[path] {
			removed = append(removed, source)
			delete(m.sources, path)
		}
	}
	m.mutex.Unlock()

	for _, source := range added {
		log.Printf("デバイスを追加: %s (%s)", source.Name, source.Path)
		m.notifyCallbacks(SourceEvent{Type: SourceAdded, Source: source})
	}
	for _, source := range removed {
		log.Printf("デバイスを削除: %s (%s)", source.Name, source.Path)
		m.notifyCallbacks(SourceEvent{Type: SourceRemoved, Source: source})
	}
}

// notifyCallbacks は登録されているすべてのコールバックに通知する
func (m *SourceMonitor) notifyCallbacks(event SourceEvent) {
	m.mutex.RLock()
	callbacks := append([]SourceCallback(nil), m.callbacks...)
	m.mutex.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}
