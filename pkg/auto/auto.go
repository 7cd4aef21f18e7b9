// Package auto holds the autonomous op-modes. Each is a fixed script of
// blocking moves, turns and sleeps.
package auto

import (
	"context"
	"path/filepath"
	"time"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/robot"
)

// AutoOpMode is the set-up shared by the autonomous routines.
type AutoOpMode struct {
	Robot  *robot.DriveBot
	Op     *opmode.LinearContext
	Speeds config.Auto
}

// Setup builds the robot and zeroes the drive encoders.
func Setup(op *opmode.LinearContext) (*AutoOpMode, error) {
	r, err := robot.New(op.HardwareMap, op.Telemetry, op.Logger, op.Clock)
	if err != nil {
		return nil, err
	}
	op.Telemetry.AddData("Status", "Resetting Encoders")
	op.Telemetry.Update()
	r.SetDriveMode(hardware.StopAndResetEncoder)
	r.SetDriveMode(hardware.RunUsingEncoder)
	p := [4]int{r.LeftFront.CurrentPosition(), r.LeftRear.CurrentPosition(),
		r.RightFront.CurrentPosition(), r.RightRear.CurrentPosition()}
	op.Telemetry.AddDataf("Path0", "Starting at %7d :%7d :%7d :%7d", p[0], p[1], p[2], p[3])
	op.Telemetry.Update()
	return &AutoOpMode{Robot: r, Op: op, Speeds: op.Config.Auto}, nil
}

// WaitForStart shows a message every cycle until START is pressed.
func (a *AutoOpMode) WaitForStart(ctx context.Context, caption, message string) error {
	for !a.Op.IsStarted() {
		a.Op.Telemetry.AddData(caption, message)
		a.Op.Telemetry.Update()
		if err := a.Op.Idle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SetSweeperLiftPower runs the sweeper lift at power for d, then stops it.
func (a *AutoOpMode) SetSweeperLiftPower(ctx context.Context, power float64, d time.Duration) error {
	a.Robot.Sweeper.SetLiftPower(power)
	defer a.Robot.Sweeper.SetLiftPower(0)
	return a.Op.Sleep(ctx, d)
}

func Registrations(cfg config.Config) []opmode.Registration {
	return []opmode.Registration{
		{
			Name:      EncoderDriveName,
			Group:     "test",
			Flavor:    opmode.Autonomous,
			Disabled:  true,
			Sound:     filepath.Join(cfg.SoundsDir, "autoencoder.wav"),
			NewLinear: func() opmode.Linear { return &EncoderDrive{} },
		},
		{
			Name:      GyroTurnName,
			Group:     "test",
			Flavor:    opmode.Autonomous,
			Sound:     filepath.Join(cfg.SoundsDir, "autogyro.wav"),
			NewLinear: func() opmode.Linear { return &GyroTurn{} },
		},
	}
}
