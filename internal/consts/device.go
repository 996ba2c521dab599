package consts

// イベントタイプの定数（input-event-codes.hから）
const (
	Syn = 0x00 // 同期イベント
	Key = 0x01 // キーイベント
	Rel = 0x02 // 相対座標イベント
	Abs = 0x03 // 絶対座標イベント
)

// イベントコードの定数（input-event-codes.hから）
const (
	RelX     = 0x00 // X軸の相対移動
	RelY     = 0x01 // Y軸の相対移動
	RelWheel = 0x08 // ホイールの相対移動

	AbsX            = 0x00 // X軸の絶対座標
	AbsY            = 0x01 // Y軸の絶対座標
	AbsMtSlot       = 0x2f // マルチタッチスロット
	AbsMtPositionX  = 0x35 // マルチタッチのX座標
	AbsMtPositionY  = 0x36 // マルチタッチのY座標
	AbsMtTrackingId = 0x39 // タッチ追跡用ID

	SynReport = 0 // イベント報告の同期

	MouseBtnLeft   = 0x110 // マウス左ボタン
	MouseBtnRight  = 0x111 // マウス右ボタン
	MouseBtnMiddle = 0x112 // マウス中ボタン
)

// ビットマップ取得時の各コード空間の最大値（input-event-codes.hから）
const (
	EvMax  = 0x1f
	RelMax = 0x0f
	AbsMax = 0x3f
)

// _IOCエンコーディングの定数（ioctl.hから）
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNrShift) | (size << iocSizeShift))
}

// EviocgName はデバイス名取得用のIOCTL要求値を返す
// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
func EviocgName(size int) uintptr {
	return ioc(iocRead, 'E', 0x06, uint32(size))
}

// EviocgBit はイベントビットマップ取得用のIOCTL要求値を返す
// EVIOCGBIT(ev, len) = _IOC(_IOC_READ, 'E', 0x20 + ev, len)
func EviocgBit(evType int, size int) uintptr {
	return ioc(iocRead, 'E', uint32(0x20+evType), uint32(size))
}
