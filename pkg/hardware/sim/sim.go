// Package sim is a deterministic stand-in for the robot's hardware. Every
// sensor read is one simulated control period: encoders advance by the
// output of their motor and the IMU turns by the difference between the two
// sides of the drive train.
package sim

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/angle"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
)

const (
	TicksPerStep   = 40
	DegreesPerStep = 20
)

// PWM is a fake PCA9685: it remembers the last value sent to each port.
type PWM struct {
	lock   sync.Mutex
	values [config.NumPWMPorts]float64
}

var _ hardware.PWMController = (*PWM)(nil)

func NewPWM() *PWM {
	p := &PWM{}
	for i := range p.values {
		p.values[i] = 0.5
	}
	return p
}

func (p *PWM) SetServo(port int, value float64) error {
	if port < 0 || port >= len(p.values) {
		return errors.Errorf("port %d out of range", port)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.values[port] = value
	return nil
}

// Value returns the last value set on port.
func (p *PWM) Value(port int) float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.values[port]
}

// Encoder follows the ESC on its port.
type Encoder struct {
	pwm          *PWM
	port         int
	TicksPerStep float64

	lock     sync.Mutex
	position float64
}

func NewEncoder(pwm *PWM, port int) *Encoder {
	return &Encoder{pwm: pwm, port: port, TicksPerStep: TicksPerStep}
}

func (e *Encoder) Position() int {
	output := (e.pwm.Value(e.port) - 0.5) * 2
	e.lock.Lock()
	defer e.lock.Unlock()
	e.position += output * e.TicksPerStep
	return int(e.position)
}

// Set moves the encoder to an absolute count.
func (e *Encoder) Set(ticks int) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.position = float64(ticks)
}

// IMU integrates heading from the drive motors.
type IMU struct {
	DegreesPerStep float64

	lock    sync.Mutex
	left    []*hardware.Motor
	right   []*hardware.Motor
	heading angle.PlusMinus180
}

func NewIMU(left, right []*hardware.Motor) *IMU {
	return &IMU{DegreesPerStep: DegreesPerStep, left: left, right: right}
}

func (i *IMU) Heading() float64 {
	i.lock.Lock()
	defer i.lock.Unlock()
	turn := (average(i.left) - average(i.right)) / 2
	i.heading = i.heading.AddFloat(i.DegreesPerStep * turn)
	return i.heading.Float()
}

// SetHeading jumps the simulated heading.
func (i *IMU) SetHeading(degrees float64) {
	i.lock.Lock()
	defer i.lock.Unlock()
	i.heading = angle.FromFloat(degrees)
}

func average(motors []*hardware.Motor) float64 {
	if len(motors) == 0 {
		return 0
	}
	var sum float64
	for _, m := range motors {
		sum += m.Output()
	}
	return sum / float64(len(motors))
}

// World exposes the simulated devices behind a hardware map.
type World struct {
	PWM      *PWM
	Encoders map[string]*Encoder
	Motors   map[string]*hardware.Motor
	IMUs     map[string]*IMU
}

// NewMap builds a hardware map from the configured devices. Cameras are
// skipped; callers fall back to a fake detector.
func NewMap(devices []config.Device, logger *zap.SugaredLogger) (*hardware.Map, *World, error) {
	hw := hardware.NewMap()
	world := &World{
		PWM:      NewPWM(),
		Encoders: map[string]*Encoder{},
		Motors:   map[string]*hardware.Motor{},
		IMUs:     map[string]*IMU{},
	}
	var left, right []*hardware.Motor
	var imus []config.Device
	for _, d := range devices {
		log := logger.With("device", d.Name)
		switch d.Kind {
		case config.KindMotor:
			enc := NewEncoder(world.PWM, d.Port)
			m := hardware.NewMotor(d.Name, &hardware.ESC{PWM: world.PWM, Port: d.Port}, enc, log)
			if d.Reversed {
				m.SetDirection(hardware.Reverse)
			}
			world.Encoders[d.Name] = enc
			world.Motors[d.Name] = m
			hw.Put(d.Name, m)
			switch d.Side {
			case config.SideLeft:
				left = append(left, m)
			case config.SideRight:
				right = append(right, m)
			}
		case config.KindServo:
			s := hardware.NewPWMServo(world.PWM, d.Port, d.Initial, log)
			if d.Reversed {
				s.SetDirection(hardware.Reverse)
			}
			hw.Put(d.Name, s)
		case config.KindCRServo:
			s := hardware.NewPWMCRServo(world.PWM, d.Port, log)
			if d.Reversed {
				s.SetDirection(hardware.Reverse)
			}
			hw.Put(d.Name, s)
		case config.KindIMU:
			imus = append(imus, d)
		case config.KindCamera:
			log.Debug("Skipping camera in simulation")
		default:
			return nil, nil, errors.Errorf("device %q: unknown kind %q", d.Name, d.Kind)
		}
	}
	// IMUs last so they see every drive motor.
	for _, d := range imus {
		imu := NewIMU(left, right)
		world.IMUs[d.Name] = imu
		hw.Put(d.Name, imu)
	}
	return hw, world, nil
}
