package hardware

import (
	"sync"

	"go.uber.org/zap"
)

// PWMController is a bank of servo-pulse outputs, such as a PCA9685.
// Values are in [0, 1]: 0 is the shortest pulse, 0.5 the centre.
type PWMController interface {
	SetServo(port int, value float64) error
}

// ESC drives a motor through a speed controller that takes servo pulses.
type ESC struct {
	PWM  PWMController
	Port int
}

var _ Actuator = (*ESC)(nil)

func (e *ESC) Drive(output float64) error {
	return e.PWM.SetServo(e.Port, 0.5+clip(output, -1, 1)/2)
}

// PWMServo is a positional servo on a PWM port.
type PWMServo struct {
	pwm    PWMController
	port   int
	logger *zap.SugaredLogger

	lock      sync.Mutex
	position  float64
	direction Direction
}

var _ Servo = (*PWMServo)(nil)

// NewPWMServo creates a servo. initial is the position reported before the
// first SetPosition; it is not sent to the hardware.
func NewPWMServo(pwm PWMController, port int, initial float64, logger *zap.SugaredLogger) *PWMServo {
	return &PWMServo{
		pwm:      pwm,
		port:     port,
		position: clip(initial, 0, 1),
		logger:   logger,
	}
}

func (s *PWMServo) SetPosition(position float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.position = clip(position, 0, 1)
	value := s.position
	if s.direction == Reverse {
		value = 1 - value
	}
	if err := s.pwm.SetServo(s.port, value); err != nil {
		s.logger.Errorw("Failed to set servo", "port", s.port, "error", err)
	}
}

func (s *PWMServo) Position() float64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.position
}

func (s *PWMServo) SetDirection(d Direction) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.direction = d
}

// PWMCRServo is a continuous-rotation servo on a PWM port.
type PWMCRServo struct {
	pwm    PWMController
	port   int
	logger *zap.SugaredLogger

	lock      sync.Mutex
	power     float64
	direction Direction
}

var _ CRServo = (*PWMCRServo)(nil)

func NewPWMCRServo(pwm PWMController, port int, logger *zap.SugaredLogger) *PWMCRServo {
	return &PWMCRServo{pwm: pwm, port: port, logger: logger}
}

func (s *PWMCRServo) SetPower(power float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.power = clip(power, -1, 1)
	if err := s.pwm.SetServo(s.port, 0.5+s.direction.sign()*s.power/2); err != nil {
		s.logger.Errorw("Failed to set CR servo", "port", s.port, "error", err)
	}
}

func (s *PWMCRServo) Power() float64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.power
}

func (s *PWMCRServo) SetDirection(d Direction) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.direction = d
}
