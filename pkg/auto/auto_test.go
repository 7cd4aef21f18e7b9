package auto

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap/zaptest"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware/sim"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/robot"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/telemetry"
)

type harness struct {
	runner *opmode.Runner
	world  *sim.World
	clk    *clock.Mock
	rec    *telemetry.Recorder
}

func newHarness(t *testing.T, reg opmode.Registration) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	hw, world, err := sim.NewMap(config.DefaultDevices(), logger)
	if err != nil {
		t.Fatal(err)
	}
	rec := &telemetry.Recorder{}
	clk := clock.NewMock()
	r := opmode.NewRunner(reg, opmode.Deps{
		HardwareMap: hw,
		Telemetry:   telemetry.New(rec),
		Config:      config.Default(),
		Clock:       clk,
		Logger:      logger,
	})
	return &harness{runner: r, world: world, clk: clk, rec: rec}
}

// tick advances the mock clock until cond holds, calling each on every step.
func (h *harness) tick(t *testing.T, cond func() bool, each func()) {
	t.Helper()
	deadline := time.Now().Add(20 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition never held")
		}
		h.clk.Add(20 * time.Millisecond)
		if each != nil {
			each()
		}
	}
}

func (h *harness) done() bool {
	select {
	case <-h.runner.Done():
		return true
	default:
		return false
	}
}

func registration(t *testing.T, name string) opmode.Registration {
	for _, reg := range Registrations(config.Default()) {
		if reg.Name == name {
			return reg
		}
	}
	t.Fatalf("No registration for %q", name)
	return opmode.Registration{}
}

func TestRegistrations(t *testing.T) {
	regs := Registrations(config.Default())
	if len(regs) != 2 {
		t.Fatalf("Expected two autonomous modes, got %d", len(regs))
	}
	for _, reg := range regs {
		if reg.Flavor != opmode.Autonomous || reg.NewLinear == nil {
			t.Errorf("%s should be a linear autonomous mode", reg.Name)
		}
	}
	if !registration(t, EncoderDriveName).Disabled {
		t.Error("Encoder drive should be hidden by default")
	}
	if len(opmode.Enabled(regs, false)) != 1 {
		t.Error("Only the gyro turn should be listed")
	}
}

func TestEncoderDrive(t *testing.T) {
	h := newHarness(t, registration(t, EncoderDriveName))
	h.runner.Start(context.Background())
	h.tick(t, func() bool {
		return h.rec.Contains("> : Press START to start encoder drive forward")
	}, nil)

	// Nothing moves before START.
	h.clk.Add(time.Second)
	if got := h.world.Motors[robot.MotorDriveLeftFront].CurrentPosition(); got != 0 {
		t.Fatalf("Robot moved before START: %d", got)
	}

	h.runner.Play()
	sweeperLowered := false
	h.tick(t, h.done, func() {
		if h.world.PWM.Value(6) != 0.5 {
			sweeperLowered = true
		}
	})

	var got []float64
	for _, name := range []string{
		robot.MotorDriveLeftFront, robot.MotorDriveLeftRear,
		robot.MotorDriveRightFront, robot.MotorDriveRightRear,
	} {
		got = append(got, float64(h.world.Motors[name].CurrentPosition()))
	}
	// Sideways -60, forwards 1010, spin -740/740, forwards 1500.
	want := []float64{1830, 1710, 3190, 3310}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 50)); diff != "" {
		t.Errorf("Unexpected final positions (-want +got):\n%s", diff)
	}
	if !sweeperLowered {
		t.Error("Expected the sweeper lift to run")
	}
	for name, m := range h.world.Motors {
		if m.Power() != 0 {
			t.Errorf("%s still powered: %v", name, m.Power())
		}
	}
	for _, u := range h.rec.Updates() {
		for _, l := range u {
			if strings.HasPrefix(l, "ERROR") {
				t.Errorf("Unexpected error report: %s", l)
			}
		}
	}
}

func TestGyroTurn(t *testing.T) {
	h := newHarness(t, registration(t, GyroTurnName))
	h.runner.Start(context.Background())
	h.tick(t, func() bool { return h.rec.Contains("status : waiting for start...") }, nil)

	h.runner.Play()
	h.tick(t, h.done, nil)

	if !h.rec.Contains("Target : 90.00") {
		t.Error("Expected the first turn to aim for 90 degrees")
	}
	// Motors are stopped, so reading the heading no longer moves it.
	if got := h.world.IMUs[robot.IMUName].Heading(); math.Abs(got) > 2 {
		t.Errorf("Expected to end facing 0, got %v", got)
	}
	if !h.rec.Contains("status : sleeping 1 second") {
		t.Error("Expected the sleep message between turns")
	}
}

func TestCancelDuringWait(t *testing.T) {
	h := newHarness(t, registration(t, GyroTurnName))
	h.runner.Start(context.Background())
	h.tick(t, func() bool { return h.rec.Contains("status : waiting for start...") }, nil)
	h.runner.Stop()
	if !h.done() {
		t.Fatal("Runner should be finished after Stop")
	}
	if h.rec.Contains("ERROR : context canceled") {
		t.Error("Cancellation should not be reported as an error")
	}
}
