package hardware

import "fmt"

type RunMode int

const (
	// Power goes straight to the output; the encoder is still counted if
	// present.
	RunWithoutEncoder RunMode = iota
	// Power is applied open loop. Kept distinct so op-modes read the same as
	// they would against a velocity-controlling motor controller.
	RunUsingEncoder
	// The motor drives itself toward the target position at up to |power|.
	RunToPosition
	// Zeroes the encoder and holds the output at zero.
	StopAndResetEncoder
)

func (m RunMode) String() string {
	switch m {
	case RunWithoutEncoder:
		return "RUN_WITHOUT_ENCODER"
	case RunUsingEncoder:
		return "RUN_USING_ENCODER"
	case RunToPosition:
		return "RUN_TO_POSITION"
	case StopAndResetEncoder:
		return "STOP_AND_RESET_ENCODER"
	default:
		return fmt.Sprintf("RunMode(%d)", int(m))
	}
}

type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) sign() float64 {
	if d == Reverse {
		return -1
	}
	return 1
}

type ZeroPowerBehavior int

const (
	ZeroPowerBrake ZeroPowerBehavior = iota
	ZeroPowerFloat
)

// DcMotor is a drive or mechanism motor, optionally fitted with an encoder.
type DcMotor interface {
	SetPower(power float64)
	Power() float64

	SetMode(mode RunMode)
	Mode() RunMode
	SetDirection(d Direction)
	Direction() Direction
	SetZeroPowerBehavior(z ZeroPowerBehavior)
	ZeroPowerBehavior() ZeroPowerBehavior

	CurrentPosition() int
	SetTargetPosition(ticks int)
	TargetPosition() int
	IsBusy() bool
}

// Servo is a positional servo; positions are in [0, 1].
type Servo interface {
	SetPosition(position float64)
	Position() float64
	SetDirection(d Direction)
}

// CRServo is a continuous-rotation servo; power is in [-1, 1].
type CRServo interface {
	SetPower(power float64)
	Power() float64
	SetDirection(d Direction)
}

// IMU reports the robot's heading in degrees, anti-clockwise positive, in
// the range (-180, 180].
type IMU interface {
	Heading() float64
}

// Actuator is the physical side of a motor: it receives the signed output
// after direction has been applied.
type Actuator interface {
	Drive(output float64) error
}

// Encoder reports a raw tick count.
type Encoder interface {
	Position() int
}

func clip(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
