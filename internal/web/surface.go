package web

import "github.com/tomz197/bounce/internal/game"

// frameSurface records the shapes of one render so they can be sent to the
// browser as a frame message.
type frameSurface struct {
	width, height float64
	circles       []Circle
	rects         []Rect
	dirty         bool // Drawn since the last message
}

// Compile-time check that frameSurface implements game.Surface.
var _ game.Surface = (*frameSurface)(nil)

func (s *frameSurface) Clear() {
	s.circles = s.circles[:0]
	s.rects = s.rects[:0]
	s.dirty = true
}

func (s *frameSurface) FillCircle(x, y, radius float64) {
	s.circles = append(s.circles, Circle{X: x, Y: y, R: radius})
	s.dirty = true
}

func (s *frameSurface) FillRect(x, y, width, height float64) {
	s.rects = append(s.rects, Rect{X: x, Y: y, W: width, H: height})
	s.dirty = true
}

// take returns the recorded frame and clears the dirty flag.
func (s *frameSurface) take() FrameMessage {
	s.dirty = false
	return FrameMessage{
		Type:    TypeFrame,
		Width:   s.width,
		Height:  s.height,
		Circles: append([]Circle{}, s.circles...),
		Rects:   append([]Rect{}, s.rects...),
	}
}
