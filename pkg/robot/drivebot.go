// Package robot holds the robot's hardware facades: the mecanum drive train
// and the mechanisms mounted on it.
package robot

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/angle"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/telemetry"
)

const (
	MotorDriveLeftFront  = "motor_drive_lf"
	MotorDriveLeftRear   = "motor_drive_lr"
	MotorDriveRightFront = "motor_drive_rf"
	MotorDriveRightRear  = "motor_drive_rr"
	IMUName              = "imu"

	DefaultPollInterval     = 10 * time.Millisecond
	DefaultPTurnCoeff       = 0.1
	DefaultHeadingThreshold = 1.0
)

var ErrNoIMU = errors.New("robot has no IMU")

type DriveBot struct {
	LeftFront  hardware.DcMotor
	LeftRear   hardware.DcMotor
	RightFront hardware.DcMotor
	RightRear  hardware.DcMotor

	Lift    *Lift
	Sweeper *Sweeper
	Pusher  *Pusher
	Dumper  *Dumper

	// IMU is nil when the hardware map has none; only gyro turns need it.
	IMU hardware.IMU

	Telemetry *telemetry.Telemetry

	PollInterval     time.Duration
	PTurnCoeff       float64
	HeadingThreshold float64

	clock  clock.Clock
	logger *zap.SugaredLogger
}

// New resolves every device the robot needs, reporting all missing ones
// together, and reverses the right side of the drive train.
func New(hw *hardware.Map, tel *telemetry.Telemetry, logger *zap.SugaredLogger, clk clock.Clock) (*DriveBot, error) {
	r := &DriveBot{
		Telemetry:        tel,
		PollInterval:     DefaultPollInterval,
		PTurnCoeff:       DefaultPTurnCoeff,
		HeadingThreshold: DefaultHeadingThreshold,
		clock:            clk,
		logger:           logger,
	}
	var err, e error
	r.LeftFront, e = hw.Motor(MotorDriveLeftFront)
	err = multierr.Append(err, e)
	r.LeftRear, e = hw.Motor(MotorDriveLeftRear)
	err = multierr.Append(err, e)
	r.RightFront, e = hw.Motor(MotorDriveRightFront)
	err = multierr.Append(err, e)
	r.RightRear, e = hw.Motor(MotorDriveRightRear)
	err = multierr.Append(err, e)

	r.Lift, e = NewLift(hw)
	err = multierr.Append(err, e)
	r.Sweeper, e = NewSweeper(hw)
	err = multierr.Append(err, e)
	r.Pusher, e = NewPusher(hw)
	err = multierr.Append(err, e)
	r.Dumper, e = NewDumper(hw)
	err = multierr.Append(err, e)
	if err != nil {
		return nil, errors.Wrap(err, "initialising robot")
	}

	r.IMU, e = hw.IMU(IMUName)
	if e != nil {
		logger.Infow("No IMU; gyro turns disabled", "error", e)
		r.IMU = nil
	}

	r.RightFront.SetDirection(hardware.Reverse)
	r.RightRear.SetDirection(hardware.Reverse)
	return r, nil
}

func (r *DriveBot) driveMotors() []hardware.DcMotor {
	return []hardware.DcMotor{r.LeftFront, r.LeftRear, r.RightFront, r.RightRear}
}

func (r *DriveBot) SetDriveMode(mode hardware.RunMode) {
	for _, m := range r.driveMotors() {
		m.SetMode(mode)
	}
}

func (r *DriveBot) SetDriveZeroPowerBehavior(z hardware.ZeroPowerBehavior) {
	for _, m := range r.driveMotors() {
		m.SetZeroPowerBehavior(z)
	}
}

// SetDrivePower sets the two sides of the drive train. Positive power drives
// backwards, matching the stick Y axes.
func (r *DriveBot) SetDrivePower(leftPower, rightPower float64) {
	r.LeftFront.SetPower(leftPower)
	r.LeftRear.SetPower(leftPower)
	r.RightFront.SetPower(rightPower)
	r.RightRear.SetPower(rightPower)
}

// SetDrivePowerSideways strafes: LF -left, LR +left, RF +right, RR -right.
func (r *DriveBot) SetDrivePowerSideways(leftPower, rightPower float64) {
	r.LeftFront.SetPower(-leftPower)
	r.LeftRear.SetPower(leftPower)
	r.RightFront.SetPower(rightPower)
	r.RightRear.SetPower(-rightPower)
}

// SetDrivePowerTurn spins on the spot; positive powers turn anti-clockwise.
func (r *DriveBot) SetDrivePowerTurn(leftPower, rightPower float64) {
	r.LeftFront.SetPower(leftPower)
	r.LeftRear.SetPower(leftPower)
	r.RightFront.SetPower(-rightPower)
	r.RightRear.SetPower(-rightPower)
}

// MoveByEncoder drives each side by a relative number of encoder ticks at
// |speed|. It returns when every motor has arrived, when timeout expires, or
// with ctx.Err() if ctx is cancelled. The drive motors are stopped and left
// in RunUsingEncoder in every case.
func (r *DriveBot) MoveByEncoder(ctx context.Context, speed float64, leftTicks, rightTicks int, timeout time.Duration) error {
	return r.moveBy(ctx, speed, [4]int{leftTicks, leftTicks, rightTicks, rightTicks}, timeout)
}

// MoveSidewaysByEncoder strafes by a relative number of ticks, split across
// the wheels in the same pattern as SetDrivePowerSideways.
func (r *DriveBot) MoveSidewaysByEncoder(ctx context.Context, speed float64, ticks int, timeout time.Duration) error {
	return r.moveBy(ctx, speed, [4]int{-ticks, ticks, ticks, -ticks}, timeout)
}

func (r *DriveBot) moveBy(ctx context.Context, speed float64, deltas [4]int, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	motors := r.driveMotors()
	var targets [4]int
	for i, m := range motors {
		targets[i] = m.CurrentPosition() + deltas[i]
		m.SetTargetPosition(targets[i])
	}
	r.SetDriveMode(hardware.RunToPosition)
	speed = math.Abs(speed)
	r.SetDrivePower(speed, speed)
	defer r.stop()

	start := r.clock.Now()
	for {
		busy := false
		for _, m := range motors {
			if m.IsBusy() {
				busy = true
			}
		}
		if !busy {
			return nil
		}
		if r.clock.Since(start) >= timeout {
			r.logger.Warnw("Encoder move timed out",
				"targets", targets, "positions", r.drivePositions(), "timeout", timeout)
			return nil
		}
		if r.Telemetry != nil {
			r.Telemetry.AddDataf("Path1", "Running to %7d :%7d :%7d :%7d", targets[0], targets[1], targets[2], targets[3])
			p := r.drivePositions()
			r.Telemetry.AddDataf("Path2", "Running at %7d :%7d :%7d :%7d", p[0], p[1], p[2], p[3])
			r.Telemetry.Update()
		}
		if err := r.sleep(ctx, r.PollInterval); err != nil {
			return err
		}
	}
}

// TurnByGyro turns by degrees (anti-clockwise positive) relative to the
// current heading, slowing as it closes in. Cancellation and timeout behave
// as for MoveByEncoder.
func (r *DriveBot) TurnByGyro(ctx context.Context, speed float64, degrees float64, timeout time.Duration) error {
	if r.IMU == nil {
		return ErrNoIMU
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.SetDriveMode(hardware.RunUsingEncoder)
	defer r.stop()

	speed = math.Abs(speed)
	target := angle.FromFloat(r.IMU.Heading()).AddFloat(degrees)
	start := r.clock.Now()
	for {
		heading := angle.FromFloat(r.IMU.Heading())
		headingErr := target.Sub(heading)
		if headingErr.Abs() <= r.HeadingThreshold {
			return nil
		}
		if r.clock.Since(start) >= timeout {
			r.logger.Warnw("Gyro turn timed out",
				"target", target.Float(), "heading", heading.Float(), "timeout", timeout)
			return nil
		}
		steer := clip(headingErr.Float()*r.PTurnCoeff, -1, 1)
		r.SetDrivePowerTurn(speed*steer, speed*steer)

		if r.Telemetry != nil {
			r.Telemetry.AddDataf("Target", "%5.2f", target.Float())
			r.Telemetry.AddDataf("Err/St", "%5.2f/%5.2f", headingErr.Float(), steer)
			r.Telemetry.AddDataf("Speed", "%5.2f", speed*steer)
			r.Telemetry.Update()
		}
		if err := r.sleep(ctx, r.PollInterval); err != nil {
			return err
		}
	}
}

// Sleep waits for d on the robot's clock, returning early with ctx.Err().
func (r *DriveBot) Sleep(ctx context.Context, d time.Duration) error {
	return r.sleep(ctx, d)
}

func (r *DriveBot) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(d):
		return nil
	}
}

func (r *DriveBot) stop() {
	r.SetDrivePower(0, 0)
	r.SetDriveMode(hardware.RunUsingEncoder)
}

func (r *DriveBot) drivePositions() [4]int {
	var p [4]int
	for i, m := range r.driveMotors() {
		p[i] = m.CurrentPosition()
	}
	return p
}

// Clock returns the clock the robot sleeps on.
func (r *DriveBot) Clock() clock.Clock {
	return r.clock
}

func clip(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
