package loop

import (
	"strconv"

	"github.com/tomz197/bounce/internal/game"
)

// Field is an editable velocity input as shown to the player.
type Field struct {
	Text     string
	Disabled bool
}

// Panel is the presentation side of a session: every value a front end
// displays, already formatted. The controller applies simulation results to
// it; front ends only read it. Revision increases on every change.
type Panel struct {
	Score     string
	TimeLeft  string
	Magnitude string // Two decimals
	Angle     string // Degrees, one decimal

	VelocityX Field
	VelocityY Field

	StartEnabled bool
	ResetEnabled bool

	Revision uint64
}

func formatSpeed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// setText stores v in dst, bumping the revision only when the text differs.
func (p *Panel) setText(dst *string, v string) {
	if *dst != v {
		*dst = v
		p.Revision++
	}
}

func (p *Panel) setFlag(dst *bool, v bool) {
	if *dst != v {
		*dst = v
		p.Revision++
	}
}

// SetScore publishes the score.
func (p *Panel) SetScore(score int) {
	p.setText(&p.Score, strconv.Itoa(score))
}

// SetTimeLeft publishes the countdown.
func (p *Panel) SetTimeLeft(seconds int) {
	p.setText(&p.TimeLeft, strconv.Itoa(seconds))
}

// SetPolar publishes the magnitude and angle of v.
func (p *Panel) SetPolar(v game.Velocity) {
	mag, deg := v.Polar()
	p.setText(&p.Magnitude, formatSpeed(mag))
	p.setText(&p.Angle, strconv.FormatFloat(deg, 'f', 1, 64))
}

// SetVelocityX writes the live horizontal speed back into its input field.
func (p *Panel) SetVelocityX(v float64) {
	p.setText(&p.VelocityX.Text, formatSpeed(v))
}

// SetVelocityText replaces the field contents with typed text.
func (p *Panel) SetVelocityText(x, y string) {
	p.setText(&p.VelocityX.Text, x)
	p.setText(&p.VelocityY.Text, y)
}

// SetVelocityY writes the live vertical speed back into its input field.
func (p *Panel) SetVelocityY(v float64) {
	p.setText(&p.VelocityY.Text, formatSpeed(v))
}

// SetInputsDisabled locks or unlocks both velocity fields.
func (p *Panel) SetInputsDisabled(disabled bool) {
	p.setFlag(&p.VelocityX.Disabled, disabled)
	p.setFlag(&p.VelocityY.Disabled, disabled)
}

// SetControls sets start/reset availability.
func (p *Panel) SetControls(startEnabled, resetEnabled bool) {
	p.setFlag(&p.StartEnabled, startEnabled)
	p.setFlag(&p.ResetEnabled, resetEnabled)
}

// Apply syncs the panel with a simulation or serve result: velocity fields
// that changed, the score if it moved, and always the polar display.
func (p *Panel) Apply(res game.StepResult) {
	if res.VelocityXChanged() {
		p.SetVelocityX(res.Velocity.X)
	}
	if res.VelocityYChanged() {
		p.SetVelocityY(res.Velocity.Y)
	}
	if res.ScoreChanged() {
		p.SetScore(res.Score)
	}
	p.SetPolar(res.Velocity)
}
