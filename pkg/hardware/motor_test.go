package hardware

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

type fakeActuator struct {
	last  float64
	calls int
	err   error
}

func (a *fakeActuator) Drive(output float64) error {
	a.last = output
	a.calls++
	return a.err
}

type fakeEncoder struct {
	ticks int
}

func (e *fakeEncoder) Position() int {
	return e.ticks
}

func newTestMotor(t *testing.T) (*Motor, *fakeActuator, *fakeEncoder) {
	out := &fakeActuator{}
	enc := &fakeEncoder{}
	return NewMotor("test", out, enc, zaptest.NewLogger(t).Sugar()), out, enc
}

func TestPowerIsClamped(t *testing.T) {
	m, out, _ := newTestMotor(t)
	m.SetPower(2)
	if m.Power() != 1 || out.last != 1 {
		t.Fatalf("Expected power clamped to 1, got %v (output %v)", m.Power(), out.last)
	}
	m.SetPower(-3)
	if m.Power() != -1 || out.last != -1 {
		t.Fatalf("Expected power clamped to -1, got %v (output %v)", m.Power(), out.last)
	}
}

func TestReverseDirection(t *testing.T) {
	m, out, enc := newTestMotor(t)
	m.SetDirection(Reverse)
	m.SetPower(0.5)
	if out.last != -0.5 {
		t.Fatalf("Reversed motor should drive -0.5, got %v", out.last)
	}
	if m.Output() != 0.5 {
		t.Fatalf("Output should be reported before direction, got %v", m.Output())
	}
	enc.ticks = 100
	if p := m.CurrentPosition(); p != -100 {
		t.Fatalf("Reversed motor should count backwards, got %v", p)
	}
}

func TestDirectionFlipKeepsPosition(t *testing.T) {
	m, _, enc := newTestMotor(t)
	enc.ticks = 250
	m.SetDirection(Reverse)
	if p := m.CurrentPosition(); p != 250 {
		t.Fatalf("Position should not jump on direction change, got %v", p)
	}
	enc.ticks = 200
	if p := m.CurrentPosition(); p != 300 {
		t.Fatalf("Expected 300 after raw decrease, got %v", p)
	}
}

func TestRunToPosition(t *testing.T) {
	m, out, enc := newTestMotor(t)
	m.SetTargetPosition(500)
	m.SetMode(RunToPosition)
	m.SetPower(0.6)

	if !m.IsBusy() || out.last != 0.6 {
		t.Fatalf("Far from target: busy=%v output=%v", m.IsBusy(), out.last)
	}

	enc.ticks = 450
	if !m.IsBusy() || out.last != 0.5 {
		t.Fatalf("Ramping: busy=%v output=%v", m.IsBusy(), out.last)
	}

	enc.ticks = 495
	if m.IsBusy() || out.last != 0 {
		t.Fatalf("At target: busy=%v output=%v", m.IsBusy(), out.last)
	}

	// Overshoot drives back, with the power sign ignored.
	enc.ticks = 560
	if !m.IsBusy() || out.last != -0.6 {
		t.Fatalf("Overshoot: busy=%v output=%v", m.IsBusy(), out.last)
	}
}

func TestStopAndResetEncoder(t *testing.T) {
	m, out, enc := newTestMotor(t)
	enc.ticks = 300
	m.SetPower(0.4)
	m.SetMode(StopAndResetEncoder)
	if out.last != 0 {
		t.Fatalf("Reset should hold the output at zero, got %v", out.last)
	}
	if p := m.CurrentPosition(); p != 0 {
		t.Fatalf("Reset should zero the position, got %v", p)
	}
	m.SetMode(RunUsingEncoder)
	if out.last != 0.4 {
		t.Fatalf("Power should resume after reset, got %v", out.last)
	}
	enc.ticks = 350
	if p := m.CurrentPosition(); p != 50 {
		t.Fatalf("Expected 50 ticks since reset, got %v", p)
	}
	if m.IsBusy() {
		t.Fatal("Only RunToPosition can be busy")
	}
}

func TestDriveErrorsAreNotFatal(t *testing.T) {
	m, out, _ := newTestMotor(t)
	out.err = errors.New("bus fault")
	m.SetPower(0.2)
	if m.Power() != 0.2 {
		t.Fatalf("Commanded power should still be recorded, got %v", m.Power())
	}
}

func TestMotorWithoutEncoder(t *testing.T) {
	out := &fakeActuator{}
	m := NewMotor("bare", out, nil, zaptest.NewLogger(t).Sugar())
	m.SetPower(0.3)
	if p := m.CurrentPosition(); p != 0 {
		t.Fatalf("Motor without encoder should report 0, got %v", p)
	}
}

func TestZeroPowerBehaviorLeftToESC(t *testing.T) {
	for _, z := range []ZeroPowerBehavior{ZeroPowerBrake, ZeroPowerFloat} {
		m, out, _ := newTestMotor(t)
		m.SetZeroPowerBehavior(z)
		m.SetPower(0.5)
		m.SetPower(0)
		if out.last != 0 {
			t.Errorf("%v: zero power should drive 0, got %v", z, out.last)
		}
		if m.ZeroPowerBehavior() != z {
			t.Errorf("Expected %v back, got %v", z, m.ZeroPowerBehavior())
		}
	}
}
