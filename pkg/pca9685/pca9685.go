package pca9685

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
	"golang.org/x/exp/io/i2c/driver"
)

const (
	DefaultAddr = 0x40

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.
	RegTestMode = 0xff

	NumPorts = 16

	PWMPeriod = 20 * time.Millisecond

	ServoMinPulseDuration = 1000 * time.Microsecond
	ServoMaxPulseDuration = 2000 * time.Microsecond

	PWMMax = 4095

	ServoMinPWM = float64(PWMMax * ServoMinPulseDuration / PWMPeriod)
	ServoMaxPWM = float64(PWMMax * ServoMaxPulseDuration / PWMPeriod)
)

var ErrPortRange = errors.New("port out of range")

type Interface interface {
	Configure() error
	SetServo(port int, value float64) error
	SetPWM(port int, value float64) error
	Close() error
}

type PCA9685 struct {
	lock sync.Mutex
	dev  *i2c.Device
}

// New opens the controller on an I2C bus device such as /dev/i2c-1.
func New(deviceFile string) (*PCA9685, error) {
	return Open(&i2c.Devfs{Dev: deviceFile})
}

func Open(o driver.Opener) (*PCA9685, error) {
	dev, err := i2c.Open(o, DefaultAddr)
	if err != nil {
		return nil, errors.Wrap(err, "opening PCA9685")
	}
	return &PCA9685{
		dev: dev,
	}, nil
}

func (p *PCA9685) Configure() (err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	// Put device to sleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	// Update pre-scaler for 50Hz.
	err = p.dev.WriteReg(RegPreScale, []byte{0x79})
	if err != nil {
		return
	}
	// Trigger a reset
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable.
	err = p.dev.WriteReg(RegMode1, []byte{0x81})
	return
}

// SetServo sets the servo pulse on a port; 0 is 1ms, 1 is 2ms.
func (p *PCA9685) SetServo(port int, value float64) error {
	return p.write(port, uint16(ServoMinPWM+clamp(value)*(ServoMaxPWM-ServoMinPWM)))
}

// SetPWM sets the raw duty cycle on a port.
func (p *PCA9685) SetPWM(port int, value float64) error {
	return p.write(port, uint16(PWMMax*clamp(value)))
}

func (p *PCA9685) write(port int, off uint16) error {
	if port < 0 || port >= NumPorts {
		return errors.Wrapf(ErrPortRange, "port %d", port)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	addr := RegLEDBase + port*4
	return p.dev.WriteReg(byte(addr), []byte{0, 0, byte(off & 0xff), byte(off >> 8)})
}

func (p *PCA9685) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dev.Close()
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	} else if value > 1 {
		return 1
	}
	return value
}
