// Package driveop is the competition driver-control op-mode.
//
// Gamepad 1 drives and runs the sweeper brush; gamepad 2 works the lift,
// the dumper, the slider, the sweeper lift and the pusher.
package driveop

import (
	"math"
	"path/filepath"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/gamepad"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/robot"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/telemetry"
)

const Name = "Drive Op 1.2 - Competition"

func Registration(cfg config.Config) opmode.Registration {
	return opmode.Registration{
		Name:   Name,
		Group:  "drive",
		Flavor: opmode.TeleOp,
		Sound:  filepath.Join(cfg.SoundsDir, "driveop.wav"),
		NewIterative: func() opmode.Iterative {
			return &DriveOp{}
		},
	}
}

type DriveOp struct {
	speeds    config.TeleOp
	robot     *robot.DriveBot
	telemetry *telemetry.Telemetry

	dumperPosition float64

	// Which of the bumpers and the dpad strafes; the other turns.
	sidewaysControlState           bool
	sidewaysControlStateButtonDown bool
}

var (
	_ opmode.InitLooper = (*DriveOp)(nil)
	_ opmode.Starter    = (*DriveOp)(nil)
)

func (d *DriveOp) Init(op *opmode.Context) error {
	r, err := robot.New(op.HardwareMap, op.Telemetry, op.Logger, op.Clock)
	if err != nil {
		return err
	}
	d.robot = r
	d.telemetry = op.Telemetry
	d.speeds = op.Config.TeleOp

	r.SetDriveMode(hardware.RunUsingEncoder)
	// Hold the lift still until the driver moves it.
	r.Lift.SetLiftPower(0)
	// Start from wherever the dumper is so the first trigger press doesn't jump.
	d.dumperPosition = r.Dumper.Position()
	return nil
}

func (d *DriveOp) InitLoop(op *opmode.Context) {
	d.telemetry.AddData(">", "waiting for START...")
	d.telemetry.AddData("sweeper lift power", d.robot.Lift.LiftPower())
	d.telemetry.AddData("dumper position", d.robot.Dumper.Position())
	d.telemetry.AddData("cr servo power", d.robot.Sweeper.SweeperPower())
	d.telemetry.Update()
}

func (d *DriveOp) Start(op *opmode.Context) {
	d.robot.Sweeper.LiftMotor().SetZeroPowerBehavior(hardware.ZeroPowerFloat)
	d.robot.Lift.LanderMotor().SetMode(hardware.RunUsingEncoder)
}

func (d *DriveOp) Loop(op *opmode.Context) {
	d.drive(&op.Gamepad1)
	d.lift(&op.Gamepad2)
	d.dump(&op.Gamepad2)
	d.slide(&op.Gamepad2)
	d.sweep(&op.Gamepad1, &op.Gamepad2)
	d.push(&op.Gamepad2)

	t, r := d.telemetry, d.robot
	controls := "Bumpers"
	if d.sidewaysControlState {
		controls = "D-Pad"
	}
	t.AddData("Sideways Motion Controls", controls)

	t.AddLine("-------------------")
	t.AddDataf("Left Motor-Front Power", "%.2f", r.LeftFront.Power())
	t.AddDataf("Left Motor-Rear Power", "%.2f", r.LeftRear.Power())
	t.AddDataf("Right Motor-Front Power", "%.2f", r.RightFront.Power())
	t.AddDataf("Right Motor-Rear Power", "%.2f", r.RightRear.Power())

	t.AddLine("-------------------")
	t.AddDataf("Sweeper Power", "%.2f", r.Sweeper.SweeperPower())
	t.AddDataf("Sweeper-Lift Power", "%.2f", r.Sweeper.LiftPower())
	t.AddDataf("Sweeper-Slider Power", "%.2f", r.Sweeper.SliderPower())

	t.AddLine("-------------------")
	t.AddDataf("Lift Power", "%.2f", r.Lift.LiftPower())
	t.AddDataf("Lander Power", "%.2f", r.Lift.LanderPower())

	t.AddLine("-------------------")
	t.AddDataf("Dumper Position", "%.2f", r.Dumper.Position())
	t.AddData("Pusher", pusherState(r.Pusher))
	t.Update()
}

func pusherState(p *robot.Pusher) string {
	if p.Extended() {
		return "pushed"
	}
	return "retracted"
}

func (d *DriveOp) drive(g *gamepad.Gamepad) {
	// A flips the layout once per press, however long it is held.
	if !d.sidewaysControlStateButtonDown && g.A {
		d.sidewaysControlState = !d.sidewaysControlState
		d.sidewaysControlStateButtonDown = true
	} else if d.sidewaysControlStateButtonDown && !g.A {
		d.sidewaysControlStateButtonDown = false
	}

	s := d.speeds
	switch {
	case g.LeftBumper:
		if !d.sidewaysControlState {
			d.strafe(1)
		} else {
			d.robot.SetDrivePowerTurn(s.TurnSpeed, s.TurnSpeed)
		}
	case g.RightBumper:
		if !d.sidewaysControlState {
			d.strafe(-1)
		} else {
			d.robot.SetDrivePowerTurn(-s.TurnSpeed, -s.TurnSpeed)
		}
	case g.DpadUp:
		d.robot.SetDrivePower(-s.DriveSpeed, -s.DriveSpeed)
	case g.DpadDown:
		d.robot.SetDrivePower(s.DriveSpeed, s.DriveSpeed)
	case g.DpadRight:
		if d.sidewaysControlState {
			d.strafe(1)
		} else {
			d.robot.SetDrivePowerTurn(-s.TurnSpeed, -s.TurnSpeed)
		}
	case g.DpadLeft:
		if d.sidewaysControlState {
			d.strafe(-1)
		} else {
			d.robot.SetDrivePowerTurn(s.TurnSpeed, s.TurnSpeed)
		}
	default:
		d.robot.SetDrivePower(g.LeftStickY, g.RightStickY)
	}
}

// strafe runs the sideways pattern with the per-wheel trim speeds.
func (d *DriveOp) strafe(sign float64) {
	s := d.speeds
	d.robot.LeftFront.SetPower(-sign * s.SidewaysLFSpeed)
	d.robot.LeftRear.SetPower(sign * s.SidewaysLRSpeed)
	d.robot.RightFront.SetPower(sign * s.SidewaysRFSpeed)
	d.robot.RightRear.SetPower(-sign * s.SidewaysRRSpeed)
}

func (d *DriveOp) lift(g *gamepad.Gamepad) {
	switch {
	case g.X:
		d.robot.Lift.SetLiftPower(-d.speeds.LiftPower)
	case g.B:
		d.robot.Lift.SetLiftPower(d.speeds.LiftPower)
	default:
		d.robot.Lift.SetLiftPower(0)
	}
	// TODO: drive the lander motor so the robot can hang from the lander.
}

func (d *DriveOp) dump(g *gamepad.Gamepad) {
	total := g.LeftTrigger - g.RightTrigger
	if total > d.speeds.TriggerDeadband {
		d.dumperPosition += d.speeds.DumperSpeed
	} else if total < -d.speeds.TriggerDeadband {
		d.dumperPosition -= d.speeds.DumperSpeed
	}
	d.dumperPosition = clip(d.dumperPosition, robot.DumperMinPosition, robot.DumperMaxPosition)
	d.robot.Dumper.SetPosition(d.dumperPosition)
}

func (d *DriveOp) slide(g *gamepad.Gamepad) {
	switch {
	case g.A:
		d.robot.Sweeper.SetSliderPower(-d.speeds.SliderPower)
	case g.Y:
		d.robot.Sweeper.SetSliderPower(d.speeds.SliderPower)
	default:
		d.robot.Sweeper.SetSliderPower(0)
	}
}

func (d *DriveOp) sweep(g1, g2 *gamepad.Gamepad) {
	s := d.speeds
	switch {
	case g2.DpadUp:
		d.robot.Sweeper.SetLiftPower(s.SweeperLiftPower)
	case g2.DpadDown:
		d.robot.Sweeper.SetLiftPower(-s.SweeperLiftPower)
	default:
		d.robot.Sweeper.SetLiftPower(clip(g2.LeftStickY, -s.SweeperLiftPower, s.SweeperLiftPower))
	}
	total := g1.RightTrigger - g1.LeftTrigger
	d.robot.Sweeper.SetSweeperPower(clip(total, -s.SweeperPower, s.SweeperPower))
}

// push leaves the pusher where it is unless a bumper is held.
func (d *DriveOp) push(g *gamepad.Gamepad) {
	switch {
	case g.RightBumper:
		d.robot.Pusher.Push()
	case g.LeftBumper:
		d.robot.Pusher.Retract()
	}
}

func clip(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
