// Package opmode runs the robot's op-modes. An op-mode is either iterative
// (Init once, then Loop every cycle) or linear (one blocking RunOpMode that
// waits for START itself); the Runner turns either kind into a mode that the
// controller can start, play and stop.
package opmode

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/gamepad"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/telemetry"
)

// Context is what an op-mode sees of the robot. The gamepads are a snapshot
// taken at the start of the current cycle.
type Context struct {
	HardwareMap *hardware.Map
	Telemetry   *telemetry.Telemetry
	Config      config.Config
	Clock       clock.Clock
	Logger      *zap.SugaredLogger

	Gamepad1 gamepad.Gamepad
	Gamepad2 gamepad.Gamepad

	pads func() (gamepad.Gamepad, gamepad.Gamepad)
}

func (c *Context) refresh() {
	if c.pads != nil {
		c.Gamepad1, c.Gamepad2 = c.pads()
	}
}

// Iterative op-modes are called once per cycle from a single goroutine.
type Iterative interface {
	Init(op *Context) error
	Loop(op *Context)
}

// InitLooper is implemented by iterative op-modes that do work between INIT
// and START.
type InitLooper interface {
	InitLoop(op *Context)
}

type Starter interface {
	Start(op *Context)
}

type Stopper interface {
	Stop(op *Context)
}

// Linear op-modes run start to finish in one call. They must return promptly
// once ctx is done.
type Linear interface {
	RunOpMode(ctx context.Context, op *LinearContext) error
}

// LinearContext adds the blocking helpers a linear op-mode needs.
type LinearContext struct {
	*Context

	started  <-chan struct{}
	interval time.Duration
}

func (l *LinearContext) IsStarted() bool {
	select {
	case <-l.started:
		return true
	default:
		return false
	}
}

// WaitForStart blocks until START is pressed.
func (l *LinearContext) WaitForStart(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.started:
		l.refresh()
		return nil
	}
}

// OpModeIsActive reports whether the op-mode has been started and not yet
// stopped.
func (l *LinearContext) OpModeIsActive(ctx context.Context) bool {
	return ctx.Err() == nil && l.IsStarted()
}

// Idle gives up the rest of the cycle and refreshes the gamepads.
func (l *LinearContext) Idle(ctx context.Context) error {
	if err := l.Sleep(ctx, l.interval); err != nil {
		return err
	}
	l.refresh()
	return nil
}

func (l *LinearContext) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.Clock.After(d):
		return nil
	}
}

type Flavor int

const (
	TeleOp Flavor = iota
	Autonomous
)

func (f Flavor) String() string {
	if f == Autonomous {
		return "Autonomous"
	}
	return "TeleOp"
}

// Registration describes one op-mode. Exactly one of NewIterative and
// NewLinear is set; a fresh op-mode is built every time the mode starts.
type Registration struct {
	Name     string
	Group    string
	Flavor   Flavor
	Disabled bool
	Sound    string

	NewIterative func() Iterative
	NewLinear    func() Linear
}

// Enabled filters out disabled registrations unless showDisabled is set.
func Enabled(regs []Registration, showDisabled bool) []Registration {
	var out []Registration
	for _, r := range regs {
		if !r.Disabled || showDisabled {
			out = append(out, r)
		}
	}
	return out
}
