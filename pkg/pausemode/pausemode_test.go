package pausemode

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware/sim"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/telemetry"
)

func TestPauseHoldsMotorsAtZero(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	hw, world, err := sim.NewMap(config.DefaultDevices(), logger)
	if err != nil {
		t.Fatal(err)
	}
	rec := &telemetry.Recorder{}
	clk := clock.NewMock()
	r := opmode.NewRunner(Registration(), opmode.Deps{
		HardwareMap: hw,
		Telemetry:   telemetry.New(rec),
		Config:      config.Default(),
		Clock:       clk,
		Logger:      logger,
	})

	lift := world.Motors["motor_lift"]
	lift.SetPower(0.7)
	r.Start(context.Background())
	r.Play()

	deadline := time.Now().Add(5 * time.Second)
	for lift.Power() != 0 || !rec.Contains("> : Paused") {
		if time.Now().After(deadline) {
			t.Fatal("Motors never stopped")
		}
		clk.Add(config.Default().LoopInterval)
	}

	// Anything that sneaks power onto a motor is cancelled next cycle.
	lift.SetPower(0.3)
	deadline = time.Now().Add(5 * time.Second)
	for lift.Power() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Pause mode should keep zeroing motors")
		}
		clk.Add(config.Default().LoopInterval)
	}
	r.Stop()
}
