package types

import (
	"encoding/binary"
	"syscall"
)

// Event は入力イベントを表す構造体
type Event struct {
	Time  syscall.Timeval // イベント発生時刻
	Type  uint16          // イベントタイプ
	Code  uint16          // イベントコード
	Value int32           // イベント値
}

// EventSize はカーネルのinput_event構造体のバイト長（64bit環境）
const EventSize = 24

// ParseEvent はバイト列から入力イベントを復元する
// bufはEventSizeバイト以上であること
func ParseEvent(buf []byte) Event {
	var e Event
	e.Time.Sec = int64(binary.LittleEndian.Uint64(buf[0:8]))
	e.Time.Usec = int64(binary.LittleEndian.Uint64(buf[8:16]))
	e.Type = binary.LittleEndian.Uint16(buf[16:18])
	e.Code = binary.LittleEndian.Uint16(buf[18:20])
	e.Value = int32(binary.LittleEndian.Uint32(buf[20:24]))
	return e
}

// AppendEvent はイベントをバイト列へ追記する（テストやイベント合成用）
func AppendEvent(buf []byte, e Event) []byte {
	var raw [EventSize]byte
	binary.LittleEndian.PutUint64(raw[0:8], uint64(e.Time.Sec))
	binary.LittleEndian.PutUint64(raw[8:16], uint64(e.Time.Usec))
	binary.LittleEndian.PutUint16(raw[16:18], e.Type)
	binary.LittleEndian.PutUint16(raw[18:20], e.Code)
	binary.LittleEndian.PutUint32(raw[20:24], uint32(e.Value))
	return append(buf, raw[:]...)
}
