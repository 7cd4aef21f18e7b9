package controller

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/joystick"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/screen"
)

const reopenInterval = time.Second

// Notifier shows or clears a notice while a gamepad is missing.
type Notifier interface {
	SetNotice(level screen.Level, msg string)
	ClearNotice()
}

// ReadGamepads reads from each device, numbering them from 1, and sends
// their events on the returned channel. A device that fails sends a Reset
// and, like a missing one, is reopened until it works again. The channel is closed once ctx is done
// and every reader has exited.
func ReadGamepads(ctx context.Context, devices []string, notify Notifier, clk clock.Clock, logger *zap.SugaredLogger) <-chan PadEvent {
	events := make(chan PadEvent, 8)
	var wg sync.WaitGroup
	for i, dev := range devices {
		wg.Add(1)
		go func(pad int, dev string) {
			defer wg.Done()
			log := logger.With("pad", pad, "device", dev)
			for ctx.Err() == nil {
				err := readGamepad(ctx, pad, dev, events, notify, log)
				if ctx.Err() != nil {
					return
				}
				log.Debugw("Gamepad unavailable", "error", err)
				select {
				case <-ctx.Done():
				case <-clk.After(reopenInterval):
				}
			}
		}(i+1, dev)
	}
	go func() {
		wg.Wait()
		close(events)
	}()
	return events
}

func readGamepad(ctx context.Context, pad int, dev string, events chan<- PadEvent, notify Notifier, logger *zap.SugaredLogger) error {
	j, err := joystick.NewJoystick(dev)
	if err != nil {
		if pad == 1 {
			notify.SetNotice(screen.LevelWarning, "NO JOY")
		}
		return err
	}
	if pad == 1 {
		notify.ClearNotice()
	}
	logger.Info("Opened gamepad")

	// Closing the device unblocks ReadEvent.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		j.Close()
	}()

	for {
		event, err := j.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			logger.Warnw("Failed to read from gamepad", "error", err)
			// The gamepad may have been left with a stick held.
			select {
			case events <- PadEvent{Pad: pad, Reset: true}:
			case <-ctx.Done():
			}
			return err
		}
		select {
		case events <- PadEvent{Pad: pad, Event: event}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
