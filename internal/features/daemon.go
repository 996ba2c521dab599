package features

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/sys/unix"

	"github.com/char5742/dualpad-cursors/internal/cursor"
)

// readBufSize は1回のドレインで読み出す最大バイト数
const readBufSize = 4096

// deviceHandle は1つの物理デバイスとそのデコーダの組
type deviceHandle struct {
	device  *Device
	decoder *Decoder
}

// Daemon は複数の入力デバイスを束ね、1サイクルごとに
// 各デコーダの出力をまとめたカーソルイベント列を生成する
// すべてのデコード処理は呼び出し元の単一ゴルーチンで実行される
type Daemon struct {
	handles []deviceHandle
	readBuf []byte
}

// NewDaemon はデバイスを開いてデーモンを構築する
// いずれかのデバイスが開けない場合は全体が失敗する
func NewDaemon(sources []DeviceSource, singleMapping SingleDeviceMapping, absScale float64) (*Daemon, error) {
	AssignCursorHints(sources)
	singleSource := len(sources) == 1

	for _, source := range sources {
		if source.CursorHint != nil {
			log.Printf("%v カーソルのデバイス: %s (%s)", *source.CursorHint, source.Name, source.Path)
		}
	}
	if singleSource {
		log.Printf("入力デバイスが1台のみです: %s (デコーダが左右の振り分けを試みます)", sources[0].Name)
	}

	daemon := &Daemon{readBuf: make([]byte, readBufSize)}
	for _, source := range sources {
		device, err := OpenDevice(source)
		if err != nil {
			daemon.Close()
			return nil, err
		}

		var strategy MappingStrategy
		if source.CursorHint != nil {
			strategy = DevicePerCursor(*source.CursorHint)
		} else {
			strategy = SingleDevice(singleMapping)
		}

		logDeviceCapabilities(device)
		log.Printf("デバイスを開きました: %s (%s)", source.Name, source.Path)
		daemon.handles = append(daemon.handles, deviceHandle{
			device:  device,
			decoder: NewDecoder(strategy, absScale, source.Name),
		})
	}

	return daemon, nil
}

// Poll は1サイクル分の読み取りとデコードを行う
// すべてのデバイスをまとめて1回の待機で監視し、タイムアウトで待機時間を制限する
// デバイスをまたいだイベントの順序は保証しない（デバイス内の順序は保持する）
func (d *Daemon) Poll(timeout time.Duration) ([]cursor.Event, error) {
	pollFds := make([]unix.PollFd, len(d.handles))
	for i, handle := range d.handles {
		pollFds[i] = unix.PollFd{Fd: int32(handle.device.Fd()), Events: unix.POLLIN}
	}

	timeoutMs := int(timeout / time.Millisecond)
	if timeoutMs < 0 {
		timeoutMs = 0
	}
	n, err := unix.Poll(pollFds, timeoutMs)
	if err != nil {
		// GoランタイムのシグナルでEINTRは日常的に起こるため空のサイクルとして扱う
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("デバイスの待機に失敗しました: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	var output []cursor.Event
	for i := range pollFds {
		if pollFds[i].Revents&unix.POLLIN == 0 {
			continue
		}
		handle := &d.handles[i]
		events, err := handle.device.ReadEvents(d.readBuf)
		if err != nil {
			return output, err
		}
		for _, ev := range events {
			output = append(output, handle.decoder.Decode(ev)...)
		}
	}

	return output, nil
}

// Sources は管理中のデバイス情報を返す
func (d *Daemon) Sources() []DeviceSource {
	sources := make([]DeviceSource, 0, len(d.handles))
	for _, handle := range d.handles {
		sources = append(sources, handle.device.Source)
	}
	return sources
}

// Close はすべてのデバイスを閉じる
func (d *Daemon) Close() error {
	var firstErr error
	for _, handle := range d.handles {
		if err := handle.device.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.handles = nil
	return firstErr
}

// AssignCursorHints はちょうど2台構成のときに欠けている左右の割り当てを補完する
// 2台以外の構成では自動割り当てを行わない
func AssignCursorHints(sources []DeviceSource) {
	if len(sources) != 2 {
		return
	}

	leftIndex, rightIndex := -1, -1
	var unknownIndexes []int
	for i, source := range sources {
		switch {
		case source.CursorHint == nil:
			unknownIndexes = append(unknownIndexes, i)
		case *source.CursorHint == cursor.Left:
			leftIndex = i
		case *source.CursorHint == cursor.Right:
			rightIndex = i
		}
	}

	setHint := func(index int, c cursor.CursorId) {
		hint := c
		sources[index].CursorHint = &hint
		log.Printf("%v カーソルを %s へ自動割り当てしました", c, sources[index].Name)
	}

	switch {
	case leftIndex >= 0 && rightIndex >= 0:
		// 両方割り当て済み
	case leftIndex >= 0 && len(unknownIndexes) == 1:
		setHint(unknownIndexes[0], cursor.Right)
	case rightIndex >= 0 && len(unknownIndexes) == 1:
		setHint(unknownIndexes[0], cursor.Left)
	case len(unknownIndexes) == 2:
		setHint(unknownIndexes[0], cursor.Left)
		setHint(unknownIndexes[1], cursor.Right)
	}
}

// ApplyPreferredHints は設定で指定された優先デバイス名を割り当てに反映する
// 名前が一致したデバイスには検出時の推測より優先してヒントを設定する
func ApplyPreferredHints(sources []DeviceSource, preferredLeft, preferredRight string) {
	for i := range sources {
		if preferredLeft != "" && sources[i].Name == preferredLeft {
			hint := cursor.Left
			sources[i].CursorHint = &hint
		}
		if preferredRight != "" && sources[i].Name == preferredRight {
			hint := cursor.Right
			sources[i].CursorHint = &hint
		}
	}
}
