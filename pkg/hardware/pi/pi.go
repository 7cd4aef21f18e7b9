// Package pi builds the hardware map for the robot itself: ESCs and servos on
// a PCA9685, quadrature encoders on GPIO, a BNO08x on the serial port and a
// USB webcam.
package pi

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/bno08x"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/encoder"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/pca9685"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/vision/webcam"
)

const I2CInterval = 10 * time.Millisecond

// NewMap opens every configured device. The returned function stops the
// background loops, centres every PWM output and releases the devices.
func NewMap(ctx context.Context, cfg config.Config, clk clock.Clock, logger *zap.SugaredLogger) (*hardware.Map, func() error, error) {
	hw := hardware.NewMap()
	var closers []io.Closer

	loopCtx, cancelLoop := context.WithCancel(ctx)
	loop := hardware.NewI2CLoop(func() (hardware.PWMDevice, error) {
		dev, err := pca9685.New(cfg.I2CBus)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}, I2CInterval, clk, logger.Named("i2c"))
	var initDone, loopDone sync.WaitGroup
	initDone.Add(1)
	loopDone.Add(1)
	go func() {
		defer loopDone.Done()
		loop.Loop(loopCtx, &initDone)
	}()
	initDone.Wait()

	shutdown := func() error {
		hw.StopMotors()
		cancelLoop()
		loopDone.Wait()
		err := hw.Close()
		for _, c := range closers {
			err = multierr.Append(err, c.Close())
		}
		return err
	}

	for _, d := range cfg.Devices {
		log := logger.With("device", d.Name)
		switch d.Kind {
		case config.KindMotor:
			var enc hardware.Encoder
			if d.Encoder != nil {
				q, err := encoder.Open(d.Encoder.A, d.Encoder.B, log)
				if err != nil {
					return nil, nil, multierr.Append(errors.Wrapf(err, "device %q", d.Name), shutdown())
				}
				q.Start(ctx)
				closers = append(closers, q)
				enc = q
			}
			m := hardware.NewMotor(d.Name, &hardware.ESC{PWM: loop, Port: d.Port}, enc, log)
			if d.Reversed {
				m.SetDirection(hardware.Reverse)
			}
			hw.Put(d.Name, m)
		case config.KindServo:
			s := hardware.NewPWMServo(loop, d.Port, d.Initial, log)
			if d.Reversed {
				s.SetDirection(hardware.Reverse)
			}
			hw.Put(d.Name, s)
		case config.KindCRServo:
			s := hardware.NewPWMCRServo(loop, d.Port, log)
			if d.Reversed {
				s.SetDirection(hardware.Reverse)
			}
			hw.Put(d.Name, s)
		case config.KindIMU:
			imu := bno08x.New(cfg.IMUSerial, clk, log)
			imu.Start(ctx)
			hw.Put(d.Name, imu)
		case config.KindCamera:
			hw.Put(d.Name, webcam.New(d.CameraID, clk, log))
		default:
			return nil, nil, multierr.Append(errors.Errorf("device %q: unknown kind %q", d.Name, d.Kind), shutdown())
		}
	}
	return hw, shutdown, nil
}
