// Package input decodes raw terminal bytes into held directions and key presses.
package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a direction is considered "held" after its last
// press. Terminals report no key release, only auto-repeat, so this must span
// the gap between repeats.
const keyHoldDuration = 120 * time.Millisecond

// Key is a decoded key press.
type Key int

const (
	KeyNone Key = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyStart // s, S or space
	KeyReset // r or R
	KeyQuit  // q or Q
	KeyTab
	KeyEnter
	KeyBackspace
	KeyEscape
	KeyChar // Printable numeric character, see Event.Char
)

// Event is one key press in arrival order.
type Event struct {
	Key  Key
	Char byte // Set for KeyChar
}

// Input represents the current frame's input state.
type Input struct {
	Left   bool    // Left held
	Right  bool    // Right held
	Events []Event // Presses seen this frame, in order
	Quit   bool
}

// keyState tracks the last time each held direction was pressed.
type keyState struct {
	left  time.Time
	right time.Time
}

// Stream delivers input bytes via a channel and tracks key state for held directions.
type Stream struct {
	ch     chan byte
	state  keyState
	closed bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch: make(chan byte, 128),
	}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// Reset forgets held directions, e.g. when a session starts.
func (s *Stream) Reset() {
	s.state = keyState{}
}

// ReadInput drains all available bytes from the stream (non-blocking).
// Handles escape sequences for arrow keys and accumulates all pressed keys.
func ReadInput(s *Stream) Input {
	return readInputAt(s, time.Now())
}

func readInputAt(s *Stream, now time.Time) Input {
	var buf []byte

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	events := Decode(buf)
	for _, e := range events {
		switch e.Key {
		case KeyLeft:
			s.state.left = now
		case KeyRight:
			s.state.right = now
		}
	}

	in := Input{
		Left:   now.Sub(s.state.left) < keyHoldDuration,
		Right:  now.Sub(s.state.right) < keyHoldDuration,
		Events: events,
		Quit:   s.closed,
	}
	for _, e := range events {
		if e.Key == KeyQuit {
			in.Quit = true
		}
	}
	return in
}

// Decode turns raw terminal bytes into key events.
func Decode(buf []byte) []Event {
	var events []Event
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			var k Key
			switch buf[i+2] {
			case 'A':
				k = KeyUp
			case 'B':
				k = KeyDown
			case 'C':
				k = KeyRight
			case 'D':
				k = KeyLeft
			}
			if k != KeyNone {
				events = append(events, Event{Key: k})
				i += 2
				continue
			}
		}

		if e, ok := decodeByte(b); ok {
			events = append(events, e)
		}
	}
	return events
}

// decodeByte maps a single byte to its key event.
func decodeByte(b byte) (Event, bool) {
	switch b {
	case 'q', 'Q', 0x03: // 0x03 is Ctrl+C in raw mode
		return Event{Key: KeyQuit}, true
	case 'a', 'A', 'h', 'H':
		return Event{Key: KeyLeft}, true
	case 'd', 'D', 'l', 'L':
		return Event{Key: KeyRight}, true
	case 's', 'S', ' ':
		return Event{Key: KeyStart}, true
	case 'r', 'R':
		return Event{Key: KeyReset}, true
	case '\t':
		return Event{Key: KeyTab}, true
	case '\n', '\r':
		return Event{Key: KeyEnter}, true
	case '\b', '\x7f':
		return Event{Key: KeyBackspace}, true
	case '\x1b':
		return Event{Key: KeyEscape}, true
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '+', '.':
		return Event{Key: KeyChar, Char: b}, true
	}
	return Event{}, false
}
