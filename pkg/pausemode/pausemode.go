package pausemode

import (
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
)

const Name = "Pause mode"

// Registration is the mode the controller sits in between op-modes.
func Registration() opmode.Registration {
	return opmode.Registration{
		Name:         Name,
		Flavor:       opmode.TeleOp,
		NewIterative: func() opmode.Iterative { return &PauseMode{} },
	}
}

type PauseMode struct{}

var _ opmode.InitLooper = (*PauseMode)(nil)

func (t *PauseMode) Init(op *opmode.Context) error {
	op.HardwareMap.StopMotors()
	op.Telemetry.AddData(">", "Paused")
	op.Telemetry.Update()
	return nil
}

func (t *PauseMode) InitLoop(op *opmode.Context) {
	op.HardwareMap.StopMotors()
}

func (t *PauseMode) Loop(op *opmode.Context) {
	op.HardwareMap.StopMotors()
}
