package hardware

import (
	"math"
	"sync"

	"go.uber.org/zap"
)

const (
	// DefaultTolerance is how close, in ticks, RunToPosition has to get
	// before the motor stops and reports not busy.
	DefaultTolerance = 10
	// Error, in ticks, at which RunToPosition starts ramping the output
	// down from |power|.
	DefaultRampTicks = 100
)

// Motor implements DcMotor on top of an Actuator and an optional Encoder.
// The run-to-position ramp is re-evaluated whenever the motor is commanded
// or polled.
type Motor struct {
	name   string
	out    Actuator
	enc    Encoder
	logger *zap.SugaredLogger

	Tolerance int
	RampTicks int

	lock      sync.Mutex
	power     float64
	output    float64
	mode      RunMode
	direction Direction
	zeroPower ZeroPowerBehavior
	target    int
	offset    int
}

var _ DcMotor = (*Motor)(nil)

// NewMotor creates a motor. enc may be nil for motors without an encoder.
func NewMotor(name string, out Actuator, enc Encoder, logger *zap.SugaredLogger) *Motor {
	return &Motor{
		name:      name,
		out:       out,
		enc:       enc,
		logger:    logger,
		Tolerance: DefaultTolerance,
		RampTicks: DefaultRampTicks,
	}
}

func (m *Motor) Name() string {
	return m.name
}

func (m *Motor) SetPower(power float64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.power = clip(power, -1, 1)
	m.updateLocked()
}

func (m *Motor) Power() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.power
}

// Output returns the drive value last sent to the actuator, before the
// direction is applied.
func (m *Motor) Output() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.output
}

func (m *Motor) SetMode(mode RunMode) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if mode == StopAndResetEncoder {
		m.offset = m.rawPositionLocked()
		m.target = 0
	}
	if mode == RunToPosition && m.enc == nil {
		m.logger.Warnw("RunToPosition on a motor without an encoder will never finish", "motor", m.name)
	}
	m.mode = mode
	m.updateLocked()
}

func (m *Motor) Mode() RunMode {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.mode
}

func (m *Motor) SetDirection(d Direction) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if d == m.direction {
		return
	}
	// Keep the logical position continuous across the flip.
	raw := m.rawPositionLocked()
	logical := m.logicalLocked(raw)
	m.direction = d
	m.offset = raw - int(m.direction.sign())*logical
	m.updateLocked()
}

func (m *Motor) Direction() Direction {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.direction
}

// SetZeroPowerBehavior records the behaviour for callers that read it back.
// ESCs brake or coast according to their own programming, so it does not
// change what is sent at zero power.
func (m *Motor) SetZeroPowerBehavior(z ZeroPowerBehavior) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.zeroPower = z
}

func (m *Motor) ZeroPowerBehavior() ZeroPowerBehavior {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.zeroPower
}

func (m *Motor) CurrentPosition() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	pos := m.logicalLocked(m.rawPositionLocked())
	m.driveLocked(pos)
	return pos
}

func (m *Motor) SetTargetPosition(ticks int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.target = ticks
	m.updateLocked()
}

func (m *Motor) TargetPosition() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.target
}

func (m *Motor) IsBusy() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.mode != RunToPosition {
		return false
	}
	pos := m.updateLocked()
	return abs(m.target-pos) > m.Tolerance
}

func (m *Motor) rawPositionLocked() int {
	if m.enc == nil {
		return 0
	}
	return m.enc.Position()
}

func (m *Motor) logicalLocked(raw int) int {
	return int(m.direction.sign()) * (raw - m.offset)
}

// updateLocked samples the encoder once and re-drives the output.
func (m *Motor) updateLocked() int {
	pos := m.logicalLocked(m.rawPositionLocked())
	m.driveLocked(pos)
	return pos
}

func (m *Motor) driveLocked(pos int) {
	output := m.power
	switch m.mode {
	case StopAndResetEncoder:
		output = 0
	case RunToPosition:
		errTicks := m.target - pos
		if abs(errTicks) <= m.Tolerance {
			output = 0
		} else {
			limit := math.Abs(m.power)
			output = clip(float64(errTicks)/float64(m.RampTicks), -limit, limit)
		}
	}
	m.output = output
	if err := m.out.Drive(m.direction.sign() * output); err != nil {
		m.logger.Errorw("Failed to drive motor", "motor", m.name, "error", err)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
