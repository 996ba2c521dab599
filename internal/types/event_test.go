package types

import (
	"syscall"
	"testing"
)

func TestParseEvent(t *testing.T) {
	// REL_X +5 @ sec=1, usec=2 のリトルエンディアン表現
	raw := []byte{
		1, 0, 0, 0, 0, 0, 0, 0, // sec
		2, 0, 0, 0, 0, 0, 0, 0, // usec
		0x02, 0x00, // type (EV_REL)
		0x00, 0x00, // code (REL_X)
		0x05, 0x00, 0x00, 0x00, // value
	}
	if len(raw) != EventSize {
		t.Fatalf("fixture must be %d bytes, got %d", EventSize, len(raw))
	}

	ev := ParseEvent(raw)
	if ev.Time.Sec != 1 || ev.Time.Usec != 2 {
		t.Errorf("unexpected time: %+v", ev.Time)
	}
	if ev.Type != 0x02 || ev.Code != 0x00 || ev.Value != 5 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestParseEventNegativeValue(t *testing.T) {
	var raw []byte
	raw = AppendEvent(raw, Event{Type: 0x02, Code: 0x01, Value: -3})

	ev := ParseEvent(raw)
	if ev.Value != -3 {
		t.Errorf("expected value -3, got %d", ev.Value)
	}
}

func TestAppendEventRoundtrip(t *testing.T) {
	events := []Event{
		{Time: syscall.Timeval{Sec: 100, Usec: 200}, Type: 0x03, Code: 0x39, Value: 42},
		{Type: 0x00, Code: 0x00, Value: 0},
	}

	var raw []byte
	for _, ev := range events {
		raw = AppendEvent(raw, ev)
	}
	if len(raw) != len(events)*EventSize {
		t.Fatalf("expected %d bytes, got %d", len(events)*EventSize, len(raw))
	}

	for i, want := range events {
		got := ParseEvent(raw[i*EventSize : (i+1)*EventSize])
		if got != want {
			t.Errorf("event %d: got %+v, want %+v", i, got, want)
		}
	}
}
