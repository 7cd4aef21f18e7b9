package hardware

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const NumServoPorts = 16

// PWMDevice is the bus-side PWM controller that the loop owns.
type PWMDevice interface {
	PWMController
	Configure() error
	Close() error
}

// I2CLoop decouples the op-modes from the I2C bus. SetServo only records the
// desired value; Loop pushes changed values to the device every interval and
// reopens the device if a write fails.
type I2CLoop struct {
	open     func() (PWMDevice, error)
	interval time.Duration
	clock    clock.Clock
	logger   *zap.SugaredLogger

	lock sync.Mutex
	// Desired values.  Stored off in case we need to re-initialise the hardware.
	servoValues       []float64
	servosWithUpdates map[int]bool
}

var _ PWMController = (*I2CLoop)(nil)

func NewI2CLoop(open func() (PWMDevice, error), interval time.Duration, clk clock.Clock, logger *zap.SugaredLogger) *I2CLoop {
	values := make([]float64, NumServoPorts)
	updates := map[int]bool{}
	for i := range values {
		// Neutral so ESCs arm and stay stopped.
		values[i] = 0.5
	}
	return &I2CLoop{
		open:              open,
		interval:          interval,
		clock:             clk,
		logger:            logger,
		servoValues:       values,
		servosWithUpdates: updates,
	}
}

func (c *I2CLoop) SetServo(port int, value float64) error {
	if port < 0 || port >= NumServoPorts {
		c.logger.Warnw("Servo port out of range", "port", port)
		return nil
	}
	c.lock.Lock()
	c.servoValues[port] = value
	c.servosWithUpdates[port] = true
	c.lock.Unlock()
	return nil
}

// Loop runs until ctx is done. initDone, if not nil, is marked done after the
// first attempt to open the device, whether or not it succeeded.
func (c *I2CLoop) Loop(ctx context.Context, initDone *sync.WaitGroup) {
	c.logger.Info("I2C loop started")
	for {
		c.loopUntilSomethingBadHappens(ctx, initDone)
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("I2C failure; trying to recover")
		initDone = nil
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.interval):
		}
	}
}

func (c *I2CLoop) loopUntilSomethingBadHappens(ctx context.Context, initDone *sync.WaitGroup) {
	defer func() {
		if initDone != nil {
			initDone.Done()
		}
	}()

	dev, err := c.open()
	if err != nil {
		c.logger.Errorw("Failed to open PWM controller", "error", err)
		return
	}
	defer func() {
		// Leave every output neutral on the way out.
		for port := 0; port < NumServoPorts; port++ {
			_ = dev.SetServo(port, 0.5)
		}
		_ = dev.Close()
	}()
	if err := dev.Configure(); err != nil {
		c.logger.Errorw("Failed to configure PWM controller", "error", err)
		return
	}

	// A fresh device knows nothing, so everything is an update.
	c.lock.Lock()
	for port := range c.servoValues {
		c.servosWithUpdates[port] = true
	}
	c.lock.Unlock()

	if initDone != nil {
		initDone.Done()
		initDone = nil
	}

	ticker := c.clock.Ticker(c.interval)
	defer ticker.Stop()
	for {
		if err := c.flush(dev); err != nil {
			c.logger.Errorw("Failed to update servo", "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *I2CLoop) flush(dev PWMDevice) error {
	c.lock.Lock()
	updates := map[int]float64{}
	for port := range c.servosWithUpdates {
		updates[port] = c.servoValues[port]
	}
	c.servosWithUpdates = map[int]bool{}
	c.lock.Unlock()

	for port, value := range updates {
		if err := dev.SetServo(port, value); err != nil {
			return err
		}
	}
	return nil
}
