// Package draw renders to ANSI terminals: a scaled half-block canvas and a
// chunked writer for text overlays.
package draw

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockEmpty     = ' '
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Color is a canvas pixel colour. ColorNone marks an empty pixel.
type Color uint8

const (
	ColorNone Color = iota
	ColorRed
	ColorCyan
	ColorWhite

	colorInvalid Color = 255 // Never drawn; forces a cell to be rewritten
)

// ANSI SGR sequences.
const (
	ColorReset   = "\033[0m"
	ColorDim     = "\033[2m"
	ColorInverse = "\033[7m"
)

var fgCodes = [...]string{
	ColorNone:  "\033[39m",
	ColorRed:   "\033[91m",
	ColorCyan:  "\033[96m",
	ColorWhite: "\033[97m",
}

var bgCodes = [...]string{
	ColorNone:  "\033[49m",
	ColorRed:   "\033[101m",
	ColorCyan:  "\033[106m",
	ColorWhite: "\033[107m",
}

// Foreground returns the SGR sequence selecting c as foreground colour.
func (c Color) Foreground() string {
	if int(c) >= len(fgCodes) {
		return fgCodes[ColorNone]
	}
	return fgCodes[c]
}

// Background returns the SGR sequence selecting c as background colour.
func (c Color) Background() string {
	if int(c) >= len(bgCodes) {
		return bgCodes[ColorNone]
	}
	return bgCodes[c]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
