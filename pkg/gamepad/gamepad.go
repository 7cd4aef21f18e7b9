// Package gamepad folds raw joystick events into the per-cycle controller
// state that op-modes read.
package gamepad

import (
	"fmt"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/joystick"
)

// Gamepad is a snapshot of one controller. Stick axes are in [-1, 1] with
// up and left negative; triggers are in [0, 1].
type Gamepad struct {
	LeftStickX, LeftStickY    float64
	RightStickX, RightStickY  float64
	LeftTrigger, RightTrigger float64

	A, B, X, Y bool

	LeftBumper, RightBumper bool

	DpadUp, DpadDown, DpadLeft, DpadRight bool

	Back, Start, Guide bool

	LeftStickButton, RightStickButton bool
}

// Apply updates the state from a single event.
func (g *Gamepad) Apply(event *joystick.Event) {
	switch event.Type {
	case joystick.EventTypeAxis:
		g.applyAxis(event.Number, event.Value)
	case joystick.EventTypeButton:
		g.applyButton(event.Number, event.Value != 0)
	}
}

func (g *Gamepad) applyAxis(number uint8, value int16) {
	switch number {
	case joystick.AxisLStickX:
		g.LeftStickX = stick(value)
	case joystick.AxisLStickY:
		g.LeftStickY = stick(value)
	case joystick.AxisRStickX:
		g.RightStickX = stick(value)
	case joystick.AxisRStickY:
		g.RightStickY = stick(value)
	case joystick.AxisL2:
		g.LeftTrigger = trigger(value)
	case joystick.AxisR2:
		g.RightTrigger = trigger(value)
	case joystick.AxisDPadX:
		g.DpadLeft = value < 0
		g.DpadRight = value > 0
	case joystick.AxisDPadY:
		g.DpadUp = value < 0
		g.DpadDown = value > 0
	}
}

func (g *Gamepad) applyButton(number uint8, pressed bool) {
	switch number {
	case joystick.ButtonCross:
		g.A = pressed
	case joystick.ButtonCircle:
		g.B = pressed
	case joystick.ButtonSquare:
		g.X = pressed
	case joystick.ButtonTriangle:
		g.Y = pressed
	case joystick.ButtonL1:
		g.LeftBumper = pressed
	case joystick.ButtonR1:
		g.RightBumper = pressed
	case joystick.ButtonShare:
		g.Back = pressed
	case joystick.ButtonOptions:
		g.Start = pressed
	case joystick.ButtonPS:
		g.Guide = pressed
	case joystick.ButtonLStick:
		g.LeftStickButton = pressed
	case joystick.ButtonRStick:
		g.RightStickButton = pressed
	}
}

func stick(value int16) float64 {
	v := float64(value) / joystick.AxisMax
	if v < -1 {
		return -1
	}
	return v
}

func trigger(value int16) float64 {
	v := (float64(value) + joystick.AxisMax) / (2 * joystick.AxisMax)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (g Gamepad) String() string {
	return fmt.Sprintf("L(%.2f,%.2f) R(%.2f,%.2f) T(%.2f,%.2f) A:%v B:%v X:%v Y:%v LB:%v RB:%v D(%v,%v,%v,%v)",
		g.LeftStickX, g.LeftStickY, g.RightStickX, g.RightStickY, g.LeftTrigger, g.RightTrigger,
		g.A, g.B, g.X, g.Y, g.LeftBumper, g.RightBumper,
		g.DpadUp, g.DpadDown, g.DpadLeft, g.DpadRight)
}
