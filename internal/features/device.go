package features

import (
	"fmt"
	"log"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/char5742/dualpad-cursors/internal/consts"
	"github.com/char5742/dualpad-cursors/internal/cursor"
	"github.com/char5742/dualpad-cursors/internal/types"
)

// DeviceSource は検出済み入力デバイスの情報を表す構造体
// 検出後は変更されない（CursorHintの自動補完を除く）
type DeviceSource struct {
	Path       string
	Name       string
	CursorHint *cursor.CursorId // 事前に判明しているカーソル割り当て（なければnil）
}

// Device は開かれた入力デバイスを表す構造体
type Device struct {
	Source DeviceSource
	fd     int
}

// OpenDevice はデバイスを読み取り・非ブロッキングモードで開く
func OpenDevice(source DeviceSource) (*Device, error) {
	fd, err := unix.Open(source.Path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("デバイスファイルを開くのに失敗しました[path=%s]: %w", source.Path, err)
	}
	return &Device{Source: source, fd: fd}, nil
}

// Fd はポーリング用のファイルディスクリプタを返す
func (d *Device) Fd() int {
	return d.fd
}

// Close はデバイスを閉じる
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

// ReadEvents は現在読み取れる分の生イベントをすべて読み出す
// 読み取れるデータがなくなった時点（EAGAIN）で打ち切る
func (d *Device) ReadEvents(buf []byte) ([]types.Event, error) {
	var events []types.Event
	for {
		n, err := unix.Read(d.fd, buf)
		if err != nil {
			if err == unix.EAGAIN {
				return events, nil
			}
			return events, fmt.Errorf("デバイスの読み取りに失敗しました[path=%s]: %w", d.Source.Path, err)
		}
		if n <= 0 {
			return events, nil
		}
		for offset := 0; offset+types.EventSize <= n; offset += types.EventSize {
			events = append(events, types.ParseEvent(buf[offset:offset+types.EventSize]))
		}
	}
}

// deviceCaps はデバイスが対応するイベント種別の概要
type deviceCaps struct {
	relXY bool // 相対X/Y（マウス型）
	absXY bool // 絶対X/Y（シングルタッチ型）
	mtXY  bool // マルチタッチX/Y（マルチタッチ型）
}

// pointerLike はポインタとして扱えるデバイスかどうかを返す
func (c deviceCaps) pointerLike() bool {
	return c.relXY || c.absXY || c.mtXY
}

func (c deviceCaps) String() string {
	var kinds []string
	if c.relXY {
		kinds = append(kinds, "rel_xy")
	}
	if c.absXY {
		kinds = append(kinds, "abs_xy")
	}
	if c.mtXY {
		kinds = append(kinds, "mt_xy")
	}
	if len(kinds) == 0 {
		return "none"
	}
	return strings.Join(kinds, ",")
}

// probeCaps はEVIOCGBITでデバイスの対応イベントを調べる
func probeCaps(fd int) (deviceCaps, error) {
	evBits, err := ioctlBitmap(fd, 0, consts.EvMax)
	if err != nil {
		return deviceCaps{}, err
	}

	var caps deviceCaps
	if hasBit(evBits, consts.Rel) {
		relBits, err := ioctlBitmap(fd, consts.Rel, consts.RelMax)
		if err == nil {
			caps.relXY = hasBit(relBits, consts.RelX) && hasBit(relBits, consts.RelY)
		}
	}
	if hasBit(evBits, consts.Abs) {
		absBits, err := ioctlBitmap(fd, consts.Abs, consts.AbsMax)
		if err == nil {
			caps.absXY = hasBit(absBits, consts.AbsX) && hasBit(absBits, consts.AbsY)
			caps.mtXY = hasBit(absBits, consts.AbsMtPositionX) && hasBit(absBits, consts.AbsMtPositionY)
		}
	}
	return caps, nil
}

// ioctlBitmap は指定イベント種別の対応コードビットマップを取得する
func ioctlBitmap(fd int, evType int, maxCode int) ([]byte, error) {
	bits := make([]byte, maxCode/8+1)
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(fd),
		consts.EviocgBit(evType, len(bits)),
		uintptr(unsafe.Pointer(&bits[0])),
	)
	if errno != 0 {
		return nil, errno
	}
	return bits, nil
}

// hasBit はビットマップ内の指定コードが立っているかどうかを返す
func hasBit(bits []byte, code int) bool {
	byteIndex := code / 8
	bitIndex := code % 8
	if byteIndex >= len(bits) {
		return false
	}
	return bits[byteIndex]&(1<<bitIndex) != 0
}

// deviceName はEVIOCGNAMEでデバイスの表示名を取得する
func deviceName(fd int) string {
	name := make([]byte, 256)
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(fd),
		consts.EviocgName(len(name)),
		uintptr(unsafe.Pointer(&name[0])),
	)
	if errno != 0 {
		return "Unknown"
	}
	if end := strings.IndexByte(string(name), 0); end >= 0 {
		return string(name[:end])
	}
	return string(name)
}

// logDeviceCapabilities は開いたデバイスの対応イベントをログに出力する
func logDeviceCapabilities(device *Device) {
	caps, err := probeCaps(device.fd)
	if err != nil {
		log.Printf("デバイス能力の取得に失敗しました[path=%s]: %v", device.Source.Path, err)
		return
	}
	log.Printf("デバイス能力: %s (%s) caps=%s", device.Source.Name, device.Source.Path, caps)
}
