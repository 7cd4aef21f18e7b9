// Package visionop is a bench op-mode that reports what the mineral detector
// sees.
package visionop

import (
	"context"
	"path/filepath"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/vision"
)

const (
	Name         = "Tensor Flow Detector - DEV"
	DetectorName = "webcam"
)

func Registration(cfg config.Config) opmode.Registration {
	return opmode.Registration{
		Name:      Name,
		Group:     "dev",
		Flavor:    opmode.TeleOp,
		Sound:     filepath.Join(cfg.SoundsDir, "vision.wav"),
		NewLinear: func() opmode.Linear { return &DetectorOp{} },
	}
}

type DetectorOp struct{}

func (DetectorOp) RunOpMode(ctx context.Context, op *opmode.LinearContext) error {
	detector, err := vision.FromMap(op.HardwareMap, DetectorName)
	if err != nil {
		op.Logger.Warnw("No mineral detector; reporting nothing", "error", err)
	}

	op.Telemetry.AddData(">", "Press START to start tracking minerals")
	op.Telemetry.Update()
	if err := op.WaitForStart(ctx); err != nil {
		return err
	}

	if detector != nil {
		if err := detector.Activate(); err != nil {
			return err
		}
		defer detector.Deactivate()
	}

	for op.OpModeIsActive(ctx) {
		if detector != nil {
			if recs := detector.UpdatedRecognitions(); recs != nil {
				detectedGold := false
				for _, r := range recs {
					if r.Label == vision.LabelGoldMineral {
						detectedGold = true
					}
				}
				op.Telemetry.AddData("# objects", len(recs))
				op.Telemetry.AddData("detected gold", detectedGold)
			}
		}
		op.Telemetry.Update()
		if err := op.Idle(ctx); err != nil {
			return err
		}
	}
	return nil
}
