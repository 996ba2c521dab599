package features

import (
	"log"

	"github.com/char5742/dualpad-cursors/internal/config"
	"github.com/char5742/dualpad-cursors/internal/consts"
	"github.com/char5742/dualpad-cursors/internal/cursor"
	"github.com/char5742/dualpad-cursors/internal/types"
)

// MappingMode は単一デバイスの左右振り分け方式を表す列挙型
type MappingMode int

const (
	// MappingUnknown は振り分け規則が未確定の状態
	MappingUnknown MappingMode = iota
	// MappingByAbsAxisRange は指定した絶対座標軸の値域で振り分ける
	MappingByAbsAxisRange
	// MappingByEventCodeRange はイベントコードの値域で振り分ける
	MappingByEventCodeRange
	// MappingByTrackingIdParity はタッチ追跡IDの偶奇で振り分ける
	MappingByTrackingIdParity
)

// ValueRange は両端を含む整数範囲
type ValueRange struct {
	Min int32
	Max int32
}

// Contains は値が範囲内にあるかどうかを返す
func (r ValueRange) Contains(value int32) bool {
	return value >= r.Min && value <= r.Max
}

// SingleDeviceMapping は1つの物理デバイスの入力を左右カーソルへ振り分ける規則
type SingleDeviceMapping struct {
	Mode  MappingMode
	Axis  uint16     // MappingByAbsAxisRange で参照する絶対座標軸
	Left  ValueRange // 左カーソルに対応する値域
	Right ValueRange // 右カーソルに対応する値域
}

// MappingStrategy はイベントをどちらのカーソルへ帰属させるかの方針
// Fixedがtrueの場合、このデバイスの全イベントはCursorへ固定的に帰属する
type MappingStrategy struct {
	Fixed  bool
	Cursor cursor.CursorId
	Single SingleDeviceMapping
}

// DevicePerCursor はデバイス単位でカーソルを固定する方針を作成する
func DevicePerCursor(c cursor.CursorId) MappingStrategy {
	return MappingStrategy{Fixed: true, Cursor: c}
}

// SingleDevice は単一デバイスを左右に振り分ける方針を作成する
func SingleDevice(mapping SingleDeviceMapping) MappingStrategy {
	return MappingStrategy{Single: mapping}
}

// cursorFromSingleMapping は規則が正に一致した場合のみカーソルを返す
// 一致しない場合は(0, false)を返し、呼び出し側は直前のカーソルを維持する
func cursorFromSingleMapping(mapping SingleDeviceMapping, ev types.Event, lastAbsValue int32, hasLastAbsValue bool) (cursor.CursorId, bool) {
	switch mapping.Mode {
	case MappingByTrackingIdParity:
		if ev.Type == consts.Abs && ev.Code == consts.AbsMtTrackingId {
			if ev.Value%2 == 0 {
				return cursor.Left, true
			}
			return cursor.Right, true
		}

	case MappingByEventCodeRange:
		code := int32(ev.Code)
		if mapping.Left.Contains(code) {
			return cursor.Left, true
		}
		if mapping.Right.Contains(code) {
			return cursor.Right, true
		}

	case MappingByAbsAxisRange:
		if ev.Type == consts.Abs && ev.Code == mapping.Axis {
			if mapping.Left.Contains(ev.Value) {
				return cursor.Left, true
			}
			if mapping.Right.Contains(ev.Value) {
				return cursor.Right, true
			}
			return 0, false
		}
		// 軸イベント以外は直近の軸値で解決する
		if hasLastAbsValue {
			if mapping.Left.Contains(lastAbsValue) {
				return cursor.Left, true
			}
			if mapping.Right.Contains(lastAbsValue) {
				return cursor.Right, true
			}
		}
	}

	return 0, false
}

// SingleMappingFromConfig は設定ファイルの記述を振り分け規則へ変換する
// 未知のmodeは警告を出してMappingUnknownとして扱う
func SingleMappingFromConfig(cfg config.MappingConfig) SingleDeviceMapping {
	left := ValueRange{Min: cfg.LeftMin, Max: cfg.LeftMax}
	right := ValueRange{Min: cfg.RightMin, Max: cfg.RightMax}

	switch cfg.Mode {
	case "", "unknown":
		return SingleDeviceMapping{Mode: MappingUnknown}
	case "abs_axis_range":
		return SingleDeviceMapping{
			Mode:  MappingByAbsAxisRange,
			Axis:  uint16(cfg.Axis),
			Left:  left,
			Right: right,
		}
	case "event_code_range":
		return SingleDeviceMapping{
			Mode:  MappingByEventCodeRange,
			Left:  left,
			Right: right,
		}
	case "tracking_id_parity":
		return SingleDeviceMapping{Mode: MappingByTrackingIdParity}
	}

	log.Printf("未知のマッピングモードです: %q (unknownとして扱います)", cfg.Mode)
	return SingleDeviceMapping{Mode: MappingUnknown}
}
