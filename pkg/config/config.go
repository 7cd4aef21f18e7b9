// Package config holds the robot configuration: which device sits on which
// port, where the buses live, and the tuning constants of the op-modes.
// Defaults are compiled in and overlaid by a YAML file.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPath = "/cfg/robot.yaml"

	KindMotor   = "motor"
	KindServo   = "servo"
	KindCRServo = "crservo"
	KindIMU     = "imu"
	KindCamera  = "camera"

	SideLeft  = "left"
	SideRight = "right"

	NumPWMPorts = 16
)

type Config struct {
	I2CBus       string        `yaml:"i2c_bus"`
	Joysticks    []string      `yaml:"joysticks"`
	IMUSerial    string        `yaml:"imu_serial"`
	Screen       string        `yaml:"screen"`
	SoundsDir    string        `yaml:"sounds_dir"`
	LoopInterval time.Duration `yaml:"loop_interval"`
	LogLevel     string        `yaml:"log_level"`
	ShowDisabled bool          `yaml:"show_disabled"`

	Devices []Device `yaml:"devices"`

	TeleOp TeleOp `yaml:"teleop"`
	Auto   Auto   `yaml:"auto"`
}

// Device is one entry of the hardware map.
type Device struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Port     int    `yaml:"port"`
	Reversed bool   `yaml:"reversed,omitempty"`
	// Initial is the position a positional servo reports before it is first
	// commanded.
	Initial float64      `yaml:"initial,omitempty"`
	Encoder *EncoderPins `yaml:"encoder,omitempty"`
	// Side marks drive motors for the simulator's heading model.
	Side string `yaml:"side,omitempty"`
	// CameraID is the video device index for cameras.
	CameraID int `yaml:"camera_id,omitempty"`
}

type EncoderPins struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// TeleOp holds the driver-control speeds.
type TeleOp struct {
	DriveSpeed       float64 `yaml:"drive_speed"`
	TurnSpeed        float64 `yaml:"turn_speed"`
	SidewaysLFSpeed  float64 `yaml:"sideways_lf_speed"`
	SidewaysLRSpeed  float64 `yaml:"sideways_lr_speed"`
	SidewaysRFSpeed  float64 `yaml:"sideways_rf_speed"`
	SidewaysRRSpeed  float64 `yaml:"sideways_rr_speed"`
	LiftPower        float64 `yaml:"lift_power"`
	SliderPower      float64 `yaml:"slider_power"`
	SweeperPower     float64 `yaml:"sweeper_power"`
	SweeperLiftPower float64 `yaml:"sweeper_lift_power"`
	DumperSpeed      float64 `yaml:"dumper_speed"`
	TriggerDeadband  float64 `yaml:"trigger_deadband"`
}

// Auto holds the autonomous speeds.
type Auto struct {
	DriveSpeed float64 `yaml:"drive_speed"`
	TurnSpeed  float64 `yaml:"turn_speed"`
}

func Default() Config {
	return Config{
		I2CBus:       "/dev/i2c-1",
		Joysticks:    []string{"/dev/input/js0", "/dev/input/js1"},
		IMUSerial:    "/dev/ttyAMA0",
		Screen:       "/dev/fb1",
		SoundsDir:    "/sounds",
		LoopInterval: 20 * time.Millisecond,
		LogLevel:     "info",
		Devices:      DefaultDevices(),
		TeleOp: TeleOp{
			DriveSpeed: 0.5,
			TurnSpeed:  0.8,
			// Per-wheel so an unbalanced robot can be trimmed.
			SidewaysLFSpeed:  0.8,
			SidewaysLRSpeed:  0.8,
			SidewaysRFSpeed:  0.8,
			SidewaysRRSpeed:  0.8,
			LiftPower:        0.5,
			SliderPower:      0.15,
			SweeperPower:     0.5,
			SweeperLiftPower: 0.45,
			DumperSpeed:      0.002,
			TriggerDeadband:  0.1,
		},
		Auto: Auto{
			DriveSpeed: 0.6,
			TurnSpeed:  0.5,
		},
	}
}

// DefaultDevices is the competition robot's wiring.
func DefaultDevices() []Device {
	return []Device{
		{Name: "motor_drive_lf", Kind: KindMotor, Port: 0, Side: SideLeft, Encoder: &EncoderPins{A: "GPIO5", B: "GPIO6"}},
		{Name: "motor_drive_lr", Kind: KindMotor, Port: 1, Side: SideLeft, Encoder: &EncoderPins{A: "GPIO13", B: "GPIO19"}},
		{Name: "motor_drive_rf", Kind: KindMotor, Port: 2, Side: SideRight, Encoder: &EncoderPins{A: "GPIO20", B: "GPIO21"}},
		{Name: "motor_drive_rr", Kind: KindMotor, Port: 3, Side: SideRight, Encoder: &EncoderPins{A: "GPIO23", B: "GPIO24"}},
		{Name: "motor_lift", Kind: KindMotor, Port: 4},
		{Name: "motor_lander", Kind: KindMotor, Port: 5, Encoder: &EncoderPins{A: "GPIO17", B: "GPIO27"}},
		{Name: "motor_sweeper_lift", Kind: KindMotor, Port: 6},
		{Name: "motor_slider", Kind: KindMotor, Port: 7},
		{Name: "servo_sweeper", Kind: KindCRServo, Port: 8},
		{Name: "servo_dumper", Kind: KindServo, Port: 9, Initial: 0.5},
		{Name: "servo_pusher", Kind: KindServo, Port: 10},
		{Name: "imu", Kind: KindIMU},
		{Name: "webcam", Kind: KindCamera},
	}
}

// Load returns the defaults overlaid with the file at path. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "validating %s", path)
	}
	return cfg, nil
}

// WriteInUse writes the effective config next to the file it was loaded from
// so the values on the robot can be checked after the fact.
func WriteInUse(cfg Config, path string) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	ext := filepath.Ext(path)
	inUse := strings.TrimSuffix(path, ext) + "-in-use" + ext
	return errors.Wrapf(ioutil.WriteFile(inUse, data, 0666), "writing %s", inUse)
}

func (c *Config) Validate() error {
	var err error
	if c.LoopInterval <= 0 {
		err = multierr.Append(err, errors.Errorf("loop_interval must be positive, not %v", c.LoopInterval))
	}
	names := map[string]bool{}
	pwmPorts := map[int]string{}
	for i, d := range c.Devices {
		if d.Name == "" {
			err = multierr.Append(err, errors.Errorf("device %d has no name", i))
			continue
		}
		if names[d.Name] {
			err = multierr.Append(err, errors.Errorf("device %q defined twice", d.Name))
		}
		names[d.Name] = true

		switch d.Kind {
		case KindMotor, KindServo, KindCRServo:
			if d.Port < 0 || d.Port >= NumPWMPorts {
				err = multierr.Append(err, errors.Errorf("device %q: port %d out of range", d.Name, d.Port))
			} else if other, ok := pwmPorts[d.Port]; ok {
				err = multierr.Append(err, errors.Errorf("device %q: port %d already used by %q", d.Name, d.Port, other))
			} else {
				pwmPorts[d.Port] = d.Name
			}
		case KindIMU, KindCamera:
		default:
			err = multierr.Append(err, errors.Errorf("device %q: unknown kind %q", d.Name, d.Kind))
		}

		if d.Encoder != nil && (d.Kind != KindMotor || d.Encoder.A == "" || d.Encoder.B == "") {
			err = multierr.Append(err, errors.Errorf("device %q: encoder needs a motor and both pins", d.Name))
		}
		if d.Side != "" && d.Side != SideLeft && d.Side != SideRight {
			err = multierr.Append(err, errors.Errorf("device %q: side must be %q or %q", d.Name, SideLeft, SideRight))
		}
		if d.Kind == KindServo && (d.Initial < 0 || d.Initial > 1) {
			err = multierr.Append(err, errors.Errorf("device %q: initial position %v outside [0, 1]", d.Name, d.Initial))
		}
	}
	return err
}

func (c *Config) String() string {
	return fmt.Sprintf("%d devices, loop %v, i2c %s", len(c.Devices), c.LoopInterval, c.I2CBus)
}
