package cursor

import "sort"

// CursorId は論理カーソルの識別子を表す列挙型
type CursorId int

const (
	Left CursorId = iota
	Right
)

func (c CursorId) String() string {
	switch c {
	case Left:
		return "Left"
	case Right:
		return "Right"
	}
	return "Unknown"
}

// Button はマウスボタンの識別子を表す列挙型
// 表示やセット化のために順序付きで定義する
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "Left"
	case ButtonRight:
		return "Right"
	case ButtonMiddle:
		return "Middle"
	}
	return "Unknown"
}

// ButtonTransition はボタンの押下・解放の遷移を表す
type ButtonTransition struct {
	Button  Button
	Pressed bool
}

// Event は1同期区間分のカーソル更新を表す
// 移動量・ホイール・ボタン遷移のすべてが空の区間では生成されない
type Event struct {
	Cursor CursorId
	DX     float64
	DY     float64
	Wheel  int32
	Button *ButtonTransition // 遷移がない場合はnil
}

// State は論理カーソルの累積状態を表す構造体
// Eventの適用によってのみ更新される
type State struct {
	ID      CursorId
	X       float64
	Y       float64
	buttons map[Button]bool
}

// NewState は原点・ボタンなしの初期状態を作成する
func NewState(id CursorId) *State {
	return &State{
		ID:      id,
		buttons: make(map[Button]bool),
	}
}

// Apply はイベントを状態へ畳み込む
func (s *State) Apply(ev Event) {
	s.X += ev.DX
	s.Y += ev.DY
	if ev.Button != nil {
		if ev.Button.Pressed {
			s.buttons[ev.Button.Button] = true
		} else {
			delete(s.buttons, ev.Button.Button)
		}
	}
}

// Held は現在押されているボタンをソート済みで返す
func (s *State) Held() []Button {
	held := make([]Button, 0, len(s.buttons))
	for b := range s.buttons {
		held = append(held, b)
	}
	sort.Slice(held, func(i, j int) bool { return held[i] < held[j] })
	return held
}

// IsHeld は指定されたボタンが押されているかどうかを返す
func (s *State) IsHeld(b Button) bool {
	return s.buttons[b]
}
