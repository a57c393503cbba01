// Package web plays the game in a browser: each WebSocket connection gets its
// own game instance, driven by JSON messages and drawn by the page's canvas.
package web

import (
	"encoding/json"

	"github.com/tomz197/bounce/internal/loop"
)

// Inbound message types.
const (
	TypeKey      = "key"
	TypeStart    = "start"
	TypeReset    = "reset"
	TypeVelocity = "velocity"
)

// Outbound message types.
const (
	TypeFrame    = "frame"
	TypePanel    = "panel"
	TypeNotice   = "notice"
	TypeShutdown = "shutdown"
)

// Inbound is any message from the browser. Fields not used by Type are empty.
type Inbound struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`  // key: DOM KeyboardEvent.key
	Down bool   `json:"down,omitempty"` // key: true on keydown, false on keyup
	X    string `json:"x,omitempty"`    // velocity: raw text of the X field
	Y    string `json:"y,omitempty"`    // velocity: raw text of the Y field
}

// directionKey maps a DOM key name to a paddle direction.
func directionKey(name string) (loop.Key, bool) {
	switch name {
	case "ArrowLeft", "Left":
		return loop.KeyLeft, true
	case "ArrowRight", "Right":
		return loop.KeyRight, true
	}
	return 0, false
}

// Circle is a filled circle in surface coordinates.
type Circle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Rect is a filled rectangle in surface coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FrameMessage is one rendered frame.
type FrameMessage struct {
	Type    string   `json:"type"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Circles []Circle `json:"circles"`
	Rects   []Rect   `json:"rects"`
}

// FieldState is a velocity input as the page should show it.
type FieldState struct {
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
}

// PanelMessage carries every display value and control state.
type PanelMessage struct {
	Type         string     `json:"type"`
	Score        string     `json:"score"`
	Time         string     `json:"time"`
	Magnitude    string     `json:"magnitude"`
	Angle        string     `json:"angle"`
	VelocityX    FieldState `json:"velX"`
	VelocityY    FieldState `json:"velY"`
	StartEnabled bool       `json:"startEnabled"`
	ResetEnabled bool       `json:"resetEnabled"`
}

// NoticeMessage is the session-end message.
type NoticeMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ShutdownMessage tells the page the server is going away.
type ShutdownMessage struct {
	Type    string `json:"type"`
	Seconds int    `json:"seconds"` // Until the server closes the connection
}

func newPanelMessage(p *loop.Panel) PanelMessage {
	return PanelMessage{
		Type:         TypePanel,
		Score:        p.Score,
		Time:         p.TimeLeft,
		Magnitude:    p.Magnitude,
		Angle:        p.Angle,
		VelocityX:    FieldState{Text: p.VelocityX.Text, Disabled: p.VelocityX.Disabled},
		VelocityY:    FieldState{Text: p.VelocityY.Text, Disabled: p.VelocityY.Disabled},
		StartEnabled: p.StartEnabled,
		ResetEnabled: p.ResetEnabled,
	}
}

// decodeInbound parses one text frame from the browser.
func decodeInbound(payload []byte) (Inbound, error) {
	var msg Inbound
	err := json.Unmarshal(payload, &msg)
	return msg, err
}
