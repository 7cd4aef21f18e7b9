package auto

import (
	"context"
	"time"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
)

const (
	EncoderDriveName = "Auto Encoder Drive Forward"
	GyroTurnName     = "Auto Gyro Turn"
)

// EncoderDrive edges left off the wall, drives out, drops the sweeper, turns
// and drives on, all by encoder counts.
type EncoderDrive struct{}

func (EncoderDrive) RunOpMode(ctx context.Context, op *opmode.LinearContext) error {
	a, err := Setup(op)
	if err != nil {
		return err
	}
	r := a.Robot
	r.SetDriveZeroPowerBehavior(hardware.ZeroPowerBrake)

	if err := a.WaitForStart(ctx, ">", "Press START to start encoder drive forward"); err != nil {
		return err
	}

	if err := r.MoveSidewaysByEncoder(ctx, 0.1, -60, 5*time.Second); err != nil {
		return err
	}
	if err := op.Sleep(ctx, time.Second); err != nil {
		return err
	}
	if err := r.MoveByEncoder(ctx, a.Speeds.DriveSpeed, 1010, 1010, 5*time.Second); err != nil {
		return err
	}
	if err := op.Sleep(ctx, time.Second); err != nil {
		return err
	}
	if err := a.SetSweeperLiftPower(ctx, -0.5, 500*time.Millisecond); err != nil {
		return err
	}
	if err := r.MoveByEncoder(ctx, a.Speeds.TurnSpeed, -740, 740, 5*time.Second); err != nil {
		return err
	}
	if err := op.Sleep(ctx, time.Second); err != nil {
		return err
	}
	return r.MoveByEncoder(ctx, a.Speeds.DriveSpeed, 1500, 1500, 10*time.Second)
}

// GyroTurn turns a quarter turn anti-clockwise and back on the IMU.
type GyroTurn struct{}

func (GyroTurn) RunOpMode(ctx context.Context, op *opmode.LinearContext) error {
	a, err := Setup(op)
	if err != nil {
		return err
	}
	r := a.Robot

	if err := a.WaitForStart(ctx, "status", "waiting for start..."); err != nil {
		return err
	}

	if err := r.TurnByGyro(ctx, a.Speeds.TurnSpeed, 90, 5*time.Second); err != nil {
		return err
	}
	op.Telemetry.AddData("status", "sleeping 1 second")
	op.Telemetry.Update()
	if err := op.Sleep(ctx, time.Second); err != nil {
		return err
	}
	return r.TurnByGyro(ctx, a.Speeds.TurnSpeed, -90, 5*time.Second)
}
