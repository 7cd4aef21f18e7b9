package robot

import (
	"math"

	"go.uber.org/multierr"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
)

const (
	MotorLift        = "motor_lift"
	MotorLander      = "motor_lander"
	MotorSweeperLift = "motor_sweeper_lift"
	MotorSlider      = "motor_slider"
	ServoSweeper     = "servo_sweeper"
	ServoDumper      = "servo_dumper"
	ServoPusher      = "servo_pusher"
)

// Lift raises the robot's arm and hangs it from the lander.
type Lift struct {
	lift   hardware.DcMotor
	lander hardware.DcMotor
}

func NewLift(hw *hardware.Map) (*Lift, error) {
	lift, err := hw.Motor(MotorLift)
	lander, err2 := hw.Motor(MotorLander)
	if err := multierr.Combine(err, err2); err != nil {
		return nil, err
	}
	return &Lift{lift: lift, lander: lander}, nil
}

func (l *Lift) SetLiftPower(power float64)    { l.lift.SetPower(power) }
func (l *Lift) LiftPower() float64            { return l.lift.Power() }
func (l *Lift) SetLanderPower(power float64)  { l.lander.SetPower(power) }
func (l *Lift) LanderPower() float64          { return l.lander.Power() }
func (l *Lift) LiftMotor() hardware.DcMotor   { return l.lift }
func (l *Lift) LanderMotor() hardware.DcMotor { return l.lander }

// Sweeper picks minerals off the floor. It has a continuous-rotation brush,
// a motor that raises the brush and a slider that extends it.
type Sweeper struct {
	sweeper hardware.CRServo
	lift    hardware.DcMotor
	slider  hardware.DcMotor
}

func NewSweeper(hw *hardware.Map) (*Sweeper, error) {
	sweeper, err := hw.CRServo(ServoSweeper)
	lift, err2 := hw.Motor(MotorSweeperLift)
	slider, err3 := hw.Motor(MotorSlider)
	if err := multierr.Combine(err, err2, err3); err != nil {
		return nil, err
	}
	return &Sweeper{sweeper: sweeper, lift: lift, slider: slider}, nil
}

func (s *Sweeper) SetSweeperPower(power float64) { s.sweeper.SetPower(power) }
func (s *Sweeper) SweeperPower() float64         { return s.sweeper.Power() }
func (s *Sweeper) SetLiftPower(power float64)    { s.lift.SetPower(power) }
func (s *Sweeper) LiftPower() float64            { return s.lift.Power() }
func (s *Sweeper) SetSliderPower(power float64)  { s.slider.SetPower(power) }
func (s *Sweeper) SliderPower() float64          { return s.slider.Power() }
func (s *Sweeper) LiftMotor() hardware.DcMotor   { return s.lift }
func (s *Sweeper) SliderMotor() hardware.DcMotor { return s.slider }

// Dumper tips the mineral box. Its servo never leaves [DumperMinPosition,
// DumperMaxPosition].
type Dumper struct {
	servo hardware.Servo
}

const (
	DumperMinPosition = 0.1
	DumperMaxPosition = 0.9
)

func NewDumper(hw *hardware.Map) (*Dumper, error) {
	servo, err := hw.Servo(ServoDumper)
	if err != nil {
		return nil, err
	}
	return &Dumper{servo: servo}, nil
}

func (d *Dumper) SetPosition(position float64) {
	d.servo.SetPosition(math.Max(DumperMinPosition, math.Min(DumperMaxPosition, position)))
}

func (d *Dumper) Position() float64     { return d.servo.Position() }
func (d *Dumper) Servo() hardware.Servo { return d.servo }

// Pusher knocks the gold mineral off its spot.
type Pusher struct {
	servo hardware.Servo
}

const (
	PusherRetracted = 0.2
	PusherExtended  = 0.8
)

func NewPusher(hw *hardware.Map) (*Pusher, error) {
	servo, err := hw.Servo(ServoPusher)
	if err != nil {
		return nil, err
	}
	return &Pusher{servo: servo}, nil
}

func (p *Pusher) Push()    { p.servo.SetPosition(PusherExtended) }
func (p *Pusher) Retract() { p.servo.SetPosition(PusherRetracted) }

// Extended reports whether the pusher was last sent out.
func (p *Pusher) Extended() bool        { return p.servo.Position() == PusherExtended }
func (p *Pusher) Position() float64     { return p.servo.Position() }
func (p *Pusher) Servo() hardware.Servo { return p.servo }
