package cursor

import (
	"reflect"
	"testing"
)

func TestStateApply(t *testing.T) {
	s := NewState(Left)

	s.Apply(Event{Cursor: Left, DX: 5, DY: -3})
	s.Apply(Event{Cursor: Left, DX: 1.5, DY: 0.5})
	if s.X != 6.5 || s.Y != -2.5 {
		t.Errorf("expected (6.5, -2.5), got (%v, %v)", s.X, s.Y)
	}

	s.Apply(Event{Cursor: Left, Button: &ButtonTransition{Button: ButtonRight, Pressed: true}})
	if !s.IsHeld(ButtonRight) {
		t.Error("ButtonRight must be held after press")
	}
	s.Apply(Event{Cursor: Left, Button: &ButtonTransition{Button: ButtonRight, Pressed: false}})
	if s.IsHeld(ButtonRight) {
		t.Error("ButtonRight must not be held after release")
	}
}

func TestStateHeldSorted(t *testing.T) {
	s := NewState(Right)
	s.Apply(Event{Button: &ButtonTransition{Button: ButtonMiddle, Pressed: true}})
	s.Apply(Event{Button: &ButtonTransition{Button: ButtonLeft, Pressed: true}})

	held := s.Held()
	want := []Button{ButtonLeft, ButtonMiddle}
	if !reflect.DeepEqual(held, want) {
		t.Errorf("expected %v, got %v", want, held)
	}
}

func TestStringers(t *testing.T) {
	if Left.String() != "Left" || Right.String() != "Right" {
		t.Errorf("unexpected cursor names: %v %v", Left, Right)
	}
	if CursorId(9).String() != "Unknown" {
		t.Errorf("out-of-range cursor must stringify as Unknown")
	}
	if ButtonLeft.String() != "Left" || ButtonRight.String() != "Right" || ButtonMiddle.String() != "Middle" {
		t.Errorf("unexpected button names: %v %v %v", ButtonLeft, ButtonRight, ButtonMiddle)
	}
}
