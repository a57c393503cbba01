package input

import (
	"bufio"
	"strings"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Event
	}{
		{"arrows", "\x1b[D\x1b[C", []Event{{Key: KeyLeft}, {Key: KeyRight}}},
		{"letters", "adsrq", []Event{{Key: KeyLeft}, {Key: KeyRight}, {Key: KeyStart}, {Key: KeyReset}, {Key: KeyQuit}}},
		{"typing", "-4.5", []Event{{KeyChar, '-'}, {KeyChar, '4'}, {KeyChar, '.'}, {KeyChar, '5'}}},
		{"editing", "\t\x7f\r", []Event{{Key: KeyTab}, {Key: KeyBackspace}, {Key: KeyEnter}}},
		{"lone escape", "\x1b", []Event{{Key: KeyEscape}}},
		{"ignored", "zx!", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode([]byte(tt.in))
			if len(got) != len(tt.want) {
				t.Fatalf("Decode(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Decode(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func newTestStream() *Stream {
	return &Stream{ch: make(chan byte, 64)}
}

func push(s *Stream, str string) {
	for i := 0; i < len(str); i++ {
		s.ch <- str[i]
	}
}

func TestHeldDirectionExpires(t *testing.T) {
	s := newTestStream()
	now := time.Unix(1000, 0)

	push(s, "\x1b[D")
	in := readInputAt(s, now)
	if !in.Left || in.Right {
		t.Fatalf("after left press: left=%v right=%v", in.Left, in.Right)
	}
	if !pressed(in, KeyLeft) {
		t.Fatal("left press event missing")
	}

	in = readInputAt(s, now.Add(keyHoldDuration/2))
	if !in.Left {
		t.Fatal("left should still be held within hold duration")
	}
	if len(in.Events) != 0 {
		t.Fatalf("no new bytes but got events %v", in.Events)
	}

	in = readInputAt(s, now.Add(keyHoldDuration))
	if in.Left {
		t.Fatal("left should be released after hold duration")
	}
}

func TestResetDropsHeldState(t *testing.T) {
	s := newTestStream()
	now := time.Unix(1000, 0)
	push(s, "d")
	readInputAt(s, now)
	s.Reset()
	if in := readInputAt(s, now); in.Right {
		t.Fatal("right still held after Reset")
	}
}

func TestStreamCloseReportsQuit(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader("s")))
	deadline := time.Now().Add(time.Second)
	sawStart := false
	for time.Now().Before(deadline) {
		in := ReadInput(s)
		if pressed(in, KeyStart) {
			sawStart = true
		}
		if in.Quit {
			if !sawStart {
				t.Fatal("quit reported before buffered start key")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("closed reader never reported quit")
}

func pressed(in Input, k Key) bool {
	for _, e := range in.Events {
		if e.Key == k {
			return true
		}
	}
	return false
}
