package loop

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomz197/bounce/internal/config"
	"github.com/tomz197/bounce/internal/draw"
)

// Rows around the canvas: status, top border, bottom border, fields, help.
const hudRows = 5

// Smallest canvas worth drawing, in terminal rows.
const minCanvasRows = 6

// Terminal cells are about twice as tall as wide and the canvas packs two
// pixels per cell vertically, so a 3:2 surface needs three columns per row.
const colsPerRow = 3

// layout places the play area in the terminal. The play area is the canvas
// with a one-cell border, a status row above it and two rows below it.
type layout struct {
	termWidth, termHeight     int
	left, top                 int // 0-based terminal offset of the play area
	canvasWidth, canvasHeight int
	tooSmall                  bool
}

// computeLayout clamps the play area to the max render size, keeps the canvas
// aspect and centres the result.
func computeLayout(termWidth, termHeight int) layout {
	l := layout{termWidth: termWidth, termHeight: termHeight}

	areaWidth := min(termWidth, config.MaxTermWidth)
	areaHeight := min(termHeight, config.MaxTermHeight)

	rows := areaHeight - hudRows
	if (areaWidth-2)/colsPerRow < rows {
		rows = (areaWidth - 2) / colsPerRow
	}
	if rows < minCanvasRows {
		l.tooSmall = true
		return l
	}

	l.canvasHeight = rows
	l.canvasWidth = rows * colsPerRow
	l.left = (termWidth - l.width()) / 2
	l.top = (termHeight - l.height()) / 2
	return l
}

// width is the play area width including the border.
func (l layout) width() int {
	return l.canvasWidth + 2
}

// height is the play area height including the HUD rows.
func (l layout) height() int {
	return l.canvasHeight + hudRows
}

func (l layout) canvasOffsetCol() int {
	return l.left + 1
}

func (l layout) canvasOffsetRow() int {
	return l.top + 2
}

// Play-area rows (1-based, relative to the play area).
func (l layout) statusRow() int { return 1 }
func (l layout) fieldsRow() int { return l.canvasHeight + 4 }
func (l layout) helpRow() int   { return l.canvasHeight + 5 }

// canvasSurface draws the world onto the terminal canvas: ball red, paddle cyan.
type canvasSurface struct {
	c *draw.Canvas
}

func (s canvasSurface) Clear() {
	s.c.Clear()
}

func (s canvasSurface) FillCircle(x, y, radius float64) {
	s.c.SetFill(draw.ColorRed)
	s.c.FillCircle(x, y, radius)
}

func (s canvasSurface) FillRect(x, y, width, height float64) {
	s.c.SetFill(draw.ColorCyan)
	s.c.FillRect(x, y, width, height)
}

// drawFrame draws the current frame into the chunk writer.
func (t *Terminal) drawFrame() {
	// On screen transitions do a full terminal clear so text from the
	// previous screen doesn't persist.
	sc := t.currentScreen()
	if sc != t.prevScreen {
		t.chunkWriter.ClearScreen()
		t.canvas.ForceRedraw()
		t.hudDirty = true
		t.prevScreen = sc
	}

	if sc == screenTooSmall {
		t.drawTooSmall()
		return
	}

	t.canvas.Render(t.chunkWriter)
	t.canvas.RenderBorder(t.chunkWriter)

	if panel := t.ctrl.Panel(); t.hudDirty || panel.Revision != t.hudRevision {
		t.drawHUD()
		t.hudRevision = panel.Revision
		t.hudDirty = false
	}

	switch sc {
	case screenNotice:
		t.drawOverlay(t.notice, "", "Press any key to continue")
	case screenInactive:
		left := int(config.InactivityDisconnectUser - time.Since(t.lastInput).Seconds())
		t.drawOverlay(
			"INACTIVITY WARNING",
			"",
			fmt.Sprintf("You will be disconnected in %d seconds.", left),
			"Press any key to continue",
		)
	case screenShutdown:
		remaining := int(time.Until(t.shutdownDeadline).Seconds()) + 1
		t.drawOverlay(
			"SERVER SHUTTING DOWN",
			"",
			"The server is restarting for maintenance.",
			"Please reconnect in a moment.",
			"",
			fmt.Sprintf("Disconnecting in %d seconds...", remaining),
			"Press Q to disconnect now",
		)
	}
}

// drawHUD draws the status, velocity field and help rows.
// Each row is padded to the play area width so shrinking values don't leave
// residual characters on screen.
func (t *Terminal) drawHUD() {
	panel := t.ctrl.Panel()

	status := fmt.Sprintf(" Score: %-5s Time: %-3s Speed: %-6s Angle: %s",
		panel.Score, panel.TimeLeft, panel.Magnitude, panel.Angle)
	t.writeRow(t.layout.statusRow(), status)

	t.writeRow(t.layout.fieldsRow(), "")
	cw := t.chunkWriter
	cw.MoveCursor(2, t.layout.fieldsRow())
	cw.WriteString("Velocity  X ")
	t.writeField(panel.VelocityX, t.focus == AxisX)
	cw.WriteString("  Y ")
	t.writeField(panel.VelocityY, t.focus == AxisY)

	var help []string
	if panel.StartEnabled {
		help = append(help, "S start", "Tab field", "0-9 . - type")
	}
	if panel.ResetEnabled {
		help = append(help, "←/→ move", "R reset")
	}
	help = append(help, "Q quit")
	t.writeRow(t.layout.helpRow(), " "+strings.Join(help, "  "))
}

// writeField writes one velocity field: inverse when focused and editable,
// dim when locked.
func (t *Terminal) writeField(f Field, focused bool) {
	cw := t.chunkWriter
	switch {
	case f.Disabled:
		cw.WriteString(draw.ColorDim)
	case focused:
		cw.WriteString(draw.ColorInverse)
	}
	fmt.Fprintf(cw, "[%-8s]", clip(f.Text, 8))
	cw.WriteString(draw.ColorReset)
}

// writeRow writes s at the start of a play-area row, padded or clipped to the
// row width.
func (t *Terminal) writeRow(row int, s string) {
	t.chunkWriter.WriteAtPadded(1, row, s, t.layout.width())
}

// drawOverlay writes centred lines over the canvas and marks the covered
// cells dirty so the canvas repaints them once the overlay is gone.
func (t *Terminal) drawOverlay(lines ...string) {
	boxWidth := 0
	for _, line := range lines {
		boxWidth = max(boxWidth, len(line)+4)
	}
	boxWidth = min(boxWidth, t.layout.canvasWidth)

	// Centre on the middle of the surface. Canvas positions are shifted by
	// the border column and by the status and border rows.
	w := t.ctrl.World()
	canvasCol, canvasRow := t.canvas.LogicalToTerminal(w.Width/2, w.Height/2)
	centerCol, centerRow := canvasCol+1, canvasRow+2
	startCol := max(2, centerCol-boxWidth/2)
	startRow := centerRow - len(lines)/2

	cw := t.chunkWriter
	for i, line := range lines {
		row := startRow + i
		line = clip(line, boxWidth)
		pad := boxWidth - len(line)
		text := strings.Repeat(" ", pad/2) + line + strings.Repeat(" ", pad-pad/2)

		cw.MoveCursor(startCol, row)
		cw.WriteString(draw.ColorInverse)
		cw.WriteString(text)
		cw.WriteString(draw.ColorReset)

		// Canvas cells are offset by the border column and the status and border rows.
		t.canvas.MarkTextDirty(startCol-1, row-2, boxWidth)
	}
}

// drawTooSmall asks for a bigger terminal. The chunk writer offset is zero
// while the layout is too small.
func (t *Terminal) drawTooSmall() {
	msg := "Terminal too small"
	col := max(1, (t.layout.termWidth-len(msg))/2+1)
	row := max(1, t.layout.termHeight/2)
	t.chunkWriter.WriteAt(col, row, msg)
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(r[:n])
}
