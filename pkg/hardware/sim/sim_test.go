package sim

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
)

func TestNewMapFromDefaults(t *testing.T) {
	hw, world, err := NewMap(config.DefaultDevices(), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"motor_drive_lf", "motor_lift", "motor_lander", "motor_slider"} {
		if _, err := hw.Motor(name); err != nil {
			t.Errorf("Missing motor %s: %v", name, err)
		}
	}
	if _, err := hw.CRServo("servo_sweeper"); err != nil {
		t.Errorf("Missing sweeper: %v", err)
	}
	dumper, err := hw.Servo("servo_dumper")
	if err != nil {
		t.Fatal(err)
	}
	if dumper.Position() != 0.5 {
		t.Errorf("Dumper should start at its configured position, got %v", dumper.Position())
	}
	if _, err := hw.IMU("imu"); err != nil {
		t.Errorf("Missing IMU: %v", err)
	}
	if _, err := hw.Get("webcam"); err == nil {
		t.Error("Cameras are not simulated")
	}
	if len(world.Motors) != 8 {
		t.Errorf("Expected 8 motors, got %d", len(world.Motors))
	}
}

func TestEncoderFollowsMotor(t *testing.T) {
	hw, _, err := NewMap(config.DefaultDevices(), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	m, _ := hw.Motor("motor_drive_lf")
	m.SetPower(0.5)
	// SetPower samples the encoder once, before the new output applies.
	first := m.CurrentPosition()
	second := m.CurrentPosition()
	if second-first != TicksPerStep/2 {
		t.Fatalf("Expected %d ticks per read at half power, got %d", TicksPerStep/2, second-first)
	}

	m.SetDirection(hardware.Reverse)
	before := m.CurrentPosition()
	after := m.CurrentPosition()
	if after-before != TicksPerStep/2 {
		t.Fatalf("Reversed motor should still count up for positive power, got %d", after-before)
	}
}

func TestIMUTurnsWithDriveSides(t *testing.T) {
	hw, world, err := NewMap(config.DefaultDevices(), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	imu, _ := hw.IMU("imu")
	for _, name := range []string{"motor_drive_lf", "motor_drive_lr"} {
		world.Motors[name].SetPower(0.5)
	}
	for _, name := range []string{"motor_drive_rf", "motor_drive_rr"} {
		world.Motors[name].SetPower(-0.5)
	}
	if h := imu.Heading(); h != DegreesPerStep*0.5 {
		t.Fatalf("Expected %v degrees anti-clockwise, got %v", DegreesPerStep*0.5, h)
	}

	world.IMUs["imu"].SetHeading(175)
	if h := imu.Heading(); h != -175 {
		t.Fatalf("Heading should wrap, got %v", h)
	}

	hw.StopMotors()
	if h := imu.Heading(); h != -175 {
		t.Fatalf("Stopped robot should hold heading, got %v", h)
	}
}

func TestUnknownKind(t *testing.T) {
	_, _, err := NewMap([]config.Device{{Name: "x", Kind: "laser"}}, zaptest.NewLogger(t).Sugar())
	if err == nil {
		t.Fatal("Expected an error for an unknown device kind")
	}
}
