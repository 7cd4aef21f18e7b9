// Package controller owns the active op-mode and the live gamepad state.
// Gamepad 1's Options and Share buttons cycle through the registered modes
// and PS presses START.
package controller

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/gamepad"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/joystick"
)

const WatchdogInterval = 5 * time.Second

var ErrGamepadsClosed = errors.New("gamepad events closed")

type Mode interface {
	Name() string
	StartupSound() string
	Start(ctx context.Context)
	Play()
	Stop()
}

type Display interface {
	SetMode(name string)
}

type SoundPlayer interface {
	Play(path string)
}

// PadEvent is an event from gamepad 1 or 2. Reset is set, with no Event,
// when the gamepad stops responding.
type PadEvent struct {
	Pad   int
	Event *joystick.Event
	Reset bool
}

type Controller struct {
	modes   []Mode
	pads    *gamepad.Pads
	hw      *hardware.Map
	display Display
	sounds  SoundPlayer
	clock   clock.Clock
	logger  *zap.SugaredLogger

	active int
}

func New(modes []Mode, pads *gamepad.Pads, hw *hardware.Map, display Display, sounds SoundPlayer, clk clock.Clock, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		modes:   modes,
		pads:    pads,
		hw:      hw,
		display: display,
		sounds:  sounds,
		clock:   clk,
		logger:  logger.Named("controller"),
	}
}

func (c *Controller) Active() Mode {
	return c.modes[c.active]
}

// Run starts the first mode and routes events until ctx is done or the
// event channel closes. The active mode is always stopped before returning.
func (c *Controller) Run(ctx context.Context, events <-chan PadEvent) error {
	if len(c.modes) == 0 {
		return errors.New("no modes registered")
	}
	c.enter(ctx)
	defer func() {
		c.Active().Stop()
		c.hw.StopMotors()
	}()

	watchdog := c.clock.Ticker(WatchdogInterval)
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context done, stopping active mode")
			return nil
		case ev, ok := <-events:
			if !ok {
				c.logger.Error("Gamepad events channel closed")
				return ErrGamepadsClosed
			}
			c.handle(ctx, ev)
		case <-watchdog.C:
			c.logger.Debugw("Main loop still running", "mode", c.Active().Name())
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev PadEvent) {
	if ev.Reset {
		c.logger.Infow("Gamepad lost, releasing its controls", "pad", ev.Pad)
		c.pads.Reset(ev.Pad)
		return
	}
	c.pads.Apply(ev.Pad, ev.Event)
	if ev.Pad == 1 {
		switch {
		case ev.Event.IsPress(joystick.ButtonOptions):
			c.logger.Info("Options pressed: switching modes >>")
			c.switchMode(ctx, 1)
		case ev.Event.IsPress(joystick.ButtonShare):
			c.logger.Info("Share pressed: switching modes <<")
			c.switchMode(ctx, -1)
		case ev.Event.IsPress(joystick.ButtonPS):
			c.logger.Info("PS pressed: START")
			c.Active().Play()
		}
	}
}

func (c *Controller) switchMode(ctx context.Context, delta int) {
	c.Active().Stop()
	c.hw.StopMotors()
	c.active = (c.active + delta + len(c.modes)) % len(c.modes)
	c.enter(ctx)
}

func (c *Controller) enter(ctx context.Context) {
	m := c.Active()
	c.logger.Infof("----- %s -----", m.Name())
	c.display.SetMode(m.Name())
	c.sounds.Play(m.StartupSound())
	m.Start(ctx)
}
