package features

import (
	"log"

	"github.com/char5742/dualpad-cursors/internal/consts"
	"github.com/char5742/dualpad-cursors/internal/cursor"
	"github.com/char5742/dualpad-cursors/internal/types"
)

// pendingMotion は同期イベント間で蓄積される移動量
// 同期境界以外では読み出さない
type pendingMotion struct {
	dx     float64
	dy     float64
	wheel  int32
	button *cursor.ButtonTransition
}

func (p *pendingMotion) empty() bool {
	return p.dx == 0 && p.dy == 0 && p.wheel == 0 && p.button == nil
}

// absSample はX/Yが揃うまで保留される座標サンプル
// 片方しか届いていないサンプルは破棄せず次の同期まで持ち越す
type absSample struct {
	x    int32
	y    int32
	hasX bool
	hasY bool
}

// absState は絶対座標デバイスの座標履歴
type absState struct {
	lastX   int32
	lastY   int32
	hasLast bool
	cur     absSample
}

// takeDelta は完結したサンプルを直前の座標と比較して相対移動へ変換する
// 初回サンプルは履歴に記録するだけで移動量は0になる
func (a *absState) takeDelta(scale float64) (float64, float64) {
	if !a.cur.hasX || !a.cur.hasY {
		return 0, 0
	}
	cx, cy := a.cur.x, a.cur.y
	a.cur = absSample{}

	if !a.hasLast {
		a.lastX, a.lastY, a.hasLast = cx, cy, true
		return 0, 0
	}

	dx := float64(cx-a.lastX) * scale
	dy := float64(cy-a.lastY) * scale
	a.lastX, a.lastY = cx, cy
	return dx, dy
}

func (a *absState) reset() {
	*a = absState{}
}

// mtSlot はマルチタッチの1スロット分の状態
// 一度割り当てられたカーソルは追跡IDが解放されるまで維持される
type mtSlot struct {
	trackingID  int32
	hasTracking bool
	cursorID    cursor.CursorId
	bound       bool
	pos         absState
}

// trackingBinding はカーソルに束縛された追跡ID
type trackingBinding struct {
	id int32
	ok bool
}

// Decoder は1つの物理デバイスの生イベント列を解釈し、
// 同期境界ごとにカーソルイベントへ変換する状態機械
type Decoder struct {
	strategy   MappingStrategy
	deviceName string
	scale      float64

	pending [2]pendingMotion // カーソルごとの蓄積移動量
	abs     [2]absState      // 単純絶対座標デバイス用の履歴

	slots    []mtSlot
	curSlot  int32
	bindings [2]trackingBinding // カーソルごとの追跡ID割り当て

	activeCursor    cursor.CursorId
	warnedUnknown   bool
	lastAbsValue    int32
	hasLastAbsValue bool
}

// NewDecoder は新しいデコーダを作成する
// scaleは正であること（検証は設定読み込み側で行う）
func NewDecoder(strategy MappingStrategy, scale float64, deviceName string) *Decoder {
	return &Decoder{
		strategy:     strategy,
		deviceName:   deviceName,
		scale:        scale,
		activeCursor: cursor.Left,
	}
}

// Decode は生イベントを1つ処理する
// 同期イベントの場合のみ、確定したカーソルイベント列を返す
// 未知のコードは黙って無視され、このメソッドが失敗することはない
func (d *Decoder) Decode(ev types.Event) []cursor.Event {
	c := d.cursorForEvent(ev)

	switch ev.Type {
	case consts.Rel:
		pending := &d.pending[c]
		switch ev.Code {
		case consts.RelX:
			pending.dx += float64(ev.Value)
		case consts.RelY:
			pending.dy += float64(ev.Value)
		case consts.RelWheel:
			pending.wheel += ev.Value
		}

	case consts.Key:
		if button, ok := mapButton(ev.Code); ok {
			// 同じ同期区間内では最後の遷移が勝つ
			d.pending[c].button = &cursor.ButtonTransition{Button: button, Pressed: ev.Value != 0}
		}

	case consts.Abs:
		if ev.Code == consts.AbsMtPositionX {
			d.lastAbsValue = ev.Value
			d.hasLastAbsValue = true
		}
		d.updateMappingFromAbs(ev.Code, ev.Value)
		d.updateAbsPosition(c, ev.Code, ev.Value)

	case consts.Syn:
		return d.flush()
	}

	return nil
}

// flush は同期境界ですべての保留状態をカーソルイベントへ確定する
// 出力順はLeft、Rightの順で決定的
func (d *Decoder) flush() []cursor.Event {
	d.applyMtDeltas()

	var events []cursor.Event
	for _, c := range []cursor.CursorId{cursor.Left, cursor.Right} {
		absDX, absDY := d.abs[c].takeDelta(d.scale)
		pending := d.pending[c]
		d.pending[c] = pendingMotion{}

		pending.dx += absDX
		pending.dy += absDY
		if pending.empty() {
			continue
		}

		events = append(events, cursor.Event{
			Cursor: c,
			DX:     pending.dx,
			DY:     pending.dy,
			Wheel:  pending.wheel,
			Button: pending.button,
		})
	}

	return events
}

// cursorForEvent はイベントの帰属先カーソルを決定する
// 規則が一致しない場合は直前の有効カーソルを維持する
func (d *Decoder) cursorForEvent(ev types.Event) cursor.CursorId {
	if d.strategy.Fixed {
		return d.strategy.Cursor
	}

	if c, ok := cursorFromSingleMapping(d.strategy.Single, ev, d.lastAbsValue, d.hasLastAbsValue); ok {
		d.activeCursor = c
	} else if d.strategy.Single.Mode == MappingUnknown && !d.warnedUnknown {
		log.Printf("単一デバイス %q の左右振り分けが未確定です (Leftを既定とします)", d.deviceName)
		d.warnedUnknown = true
	}

	return d.activeCursor
}

// updateMappingFromAbs は振り分け対象の軸値を位置追跡より先に反映する
// これにより同じレポート内の後続イベントも正しく振り分けられる
func (d *Decoder) updateMappingFromAbs(code uint16, value int32) {
	if d.strategy.Fixed {
		return
	}
	mapping := d.strategy.Single
	if mapping.Mode != MappingByAbsAxisRange || code != mapping.Axis {
		return
	}
	if mapping.Left.Contains(value) {
		d.activeCursor = cursor.Left
	} else if mapping.Right.Contains(value) {
		d.activeCursor = cursor.Right
	}
}

// updateAbsPosition は絶対座標イベントを軸の種別ごとに振り分ける
func (d *Decoder) updateAbsPosition(c cursor.CursorId, code uint16, value int32) {
	switch code {
	case consts.AbsMtSlot:
		d.curSlot = value
	case consts.AbsMtTrackingId:
		d.handleMtTrackingID(value)
	case consts.AbsMtPositionX, consts.AbsMtPositionY:
		d.updateMtSlotPosition(code, value)
	case consts.AbsX:
		d.abs[c].cur.x = value
		d.abs[c].cur.hasX = true
	case consts.AbsY:
		d.abs[c].cur.y = value
		d.abs[c].cur.hasY = true
	}
}

// handleMtTrackingID はスロットの接触開始・終了を処理する
// 負の値はスロットの解放を意味する
func (d *Decoder) handleMtTrackingID(value int32) {
	if d.curSlot < 0 {
		return
	}
	slotIndex := int(d.curSlot)
	d.ensureSlot(slotIndex)
	slot := &d.slots[slotIndex]

	if value < 0 {
		if slot.hasTracking {
			d.releaseTracking(slot.trackingID)
		}
		slot.trackingID = 0
		slot.hasTracking = false
		slot.bound = false
		slot.pos.reset()
		return
	}

	slot.trackingID = value
	slot.hasTracking = true
	if c, ok := d.assignTracking(value); ok {
		slot.cursorID = c
		slot.bound = true
		// 再割り当て直後の座標が前回接触との差分にならないよう履歴を消す
		slot.pos.reset()
	}
}

// updateMtSlotPosition は現在スロットの保留サンプルを更新する
func (d *Decoder) updateMtSlotPosition(code uint16, value int32) {
	if d.curSlot < 0 {
		return
	}
	slotIndex := int(d.curSlot)
	d.ensureSlot(slotIndex)
	slot := &d.slots[slotIndex]

	switch code {
	case consts.AbsMtPositionX:
		slot.pos.cur.x = value
		slot.pos.cur.hasX = true
	case consts.AbsMtPositionY:
		slot.pos.cur.y = value
		slot.pos.cur.hasY = true
	}
}

// applyMtDeltas は全スロットの保留サンプルを束縛先カーソルの移動量へ変換する
func (d *Decoder) applyMtDeltas() {
	for i := range d.slots {
		slot := &d.slots[i]
		if !slot.bound {
			continue
		}
		dx, dy := slot.pos.takeDelta(d.scale)
		if dx == 0 && dy == 0 {
			continue
		}
		d.pending[slot.cursorID].dx += dx
		d.pending[slot.cursorID].dy += dy
	}
}

// assignTracking は追跡IDをカーソルへ割り当てる
// 既知のIDは既存の割り当てを返し、新規IDは空いている側（Left優先）へ割り当てる
// 両方埋まっている場合は割り当てず、そのスロットのイベントは無視される
func (d *Decoder) assignTracking(trackingID int32) (cursor.CursorId, bool) {
	for _, c := range []cursor.CursorId{cursor.Left, cursor.Right} {
		if d.bindings[c].ok && d.bindings[c].id == trackingID {
			return c, true
		}
	}
	for _, c := range []cursor.CursorId{cursor.Left, cursor.Right} {
		if !d.bindings[c].ok {
			d.bindings[c] = trackingBinding{id: trackingID, ok: true}
			log.Printf("追跡ID %d を %v カーソルへ割り当てました", trackingID, c)
			return c, true
		}
	}
	log.Printf("3点目以降の追跡ID %d は無視します", trackingID)
	return 0, false
}

// releaseTracking は追跡IDの割り当てを解放する
func (d *Decoder) releaseTracking(trackingID int32) {
	for _, c := range []cursor.CursorId{cursor.Left, cursor.Right} {
		if d.bindings[c].ok && d.bindings[c].id == trackingID {
			d.bindings[c] = trackingBinding{}
			log.Printf("追跡ID %d を %v カーソルから解放しました", trackingID, c)
		}
	}
}

// ensureSlot はスロット配列を必要な長さまで拡張する（縮小はしない）
func (d *Decoder) ensureSlot(slotIndex int) {
	for len(d.slots) <= slotIndex {
		d.slots = append(d.slots, mtSlot{})
	}
}

// mapButton は既知のマウスボタンコードをボタン識別子へ変換する
func mapButton(code uint16) (cursor.Button, bool) {
	switch code {
	case consts.MouseBtnLeft:
		return cursor.ButtonLeft, true
	case consts.MouseBtnRight:
		return cursor.ButtonRight, true
	case consts.MouseBtnMiddle:
		return cursor.ButtonMiddle, true
	}
	return 0, false
}
