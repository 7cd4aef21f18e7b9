package hardware

import (
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	ErrNotFound  = errors.New("no such device")
	ErrWrongKind = errors.New("device has the wrong kind")
)

// Map resolves the configured device names to device handles.
type Map struct {
	lock    sync.Mutex
	devices map[string]interface{}
}

func NewMap() *Map {
	return &Map{devices: map[string]interface{}{}}
}

// Put registers a device under a name, replacing any previous device.
func (m *Map) Put(name string, device interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.devices[name] = device
}

// Get returns the device registered under name.
func (m *Map) Get(name string) (interface{}, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	d, ok := m.devices[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return d, nil
}

func (m *Map) Motor(name string) (DcMotor, error) {
	d, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	motor, ok := d.(DcMotor)
	if !ok {
		return nil, wrongKind(name, d, "motor")
	}
	return motor, nil
}

func (m *Map) Servo(name string) (Servo, error) {
	d, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	servo, ok := d.(Servo)
	if !ok {
		return nil, wrongKind(name, d, "servo")
	}
	return servo, nil
}

func (m *Map) CRServo(name string) (CRServo, error) {
	d, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	servo, ok := d.(CRServo)
	if !ok {
		return nil, wrongKind(name, d, "continuous rotation servo")
	}
	return servo, nil
}

func (m *Map) IMU(name string) (IMU, error) {
	d, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	imu, ok := d.(IMU)
	if !ok {
		return nil, wrongKind(name, d, "IMU")
	}
	return imu, nil
}

func wrongKind(name string, d interface{}, want string) error {
	return errors.Wrapf(ErrWrongKind, "%q is a %T, not a %s", name, d, want)
}

// Names returns the registered device names in sorted order.
func (m *Map) Names() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	names := make([]string, 0, len(m.devices))
	for n := range m.devices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StopMotors zeroes every motor and continuous rotation servo.
func (m *Map) StopMotors() {
	for _, name := range m.Names() {
		d, _ := m.Get(name)
		switch d := d.(type) {
		case DcMotor:
			d.SetPower(0)
		case CRServo:
			d.SetPower(0)
		}
	}
}

// Close closes every device that holds a resource.
func (m *Map) Close() error {
	var err error
	for _, name := range m.Names() {
		d, _ := m.Get(name)
		if c, ok := d.(io.Closer); ok {
			if cErr := c.Close(); cErr != nil {
				err = multierr.Append(err, errors.Wrapf(cErr, "closing %s", name))
			}
		}
	}
	return err
}
