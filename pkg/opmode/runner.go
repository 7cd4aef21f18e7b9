package opmode

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/gamepad"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/telemetry"
)

// Deps are shared by every op-mode.
type Deps struct {
	HardwareMap *hardware.Map
	Telemetry   *telemetry.Telemetry
	Config      config.Config
	Clock       clock.Clock
	Logger      *zap.SugaredLogger

	// Gamepads is the live gamepad state. Every runner given the same Deps
	// reads the same pads, so a mode never sees input from before it ran.
	Gamepads *gamepad.Pads
}

// Runner drives one registered op-mode through INIT, START and stop.
type Runner struct {
	reg    Registration
	deps   Deps
	logger *zap.SugaredLogger

	lock      sync.Mutex
	cancel    context.CancelFunc
	started   chan struct{}
	startOnce *sync.Once
	done      chan struct{}
}

func NewRunner(reg Registration, deps Deps) *Runner {
	done := make(chan struct{})
	close(done)
	if deps.Gamepads == nil {
		deps.Gamepads = &gamepad.Pads{}
	}
	return &Runner{
		reg:    reg,
		deps:   deps,
		logger: deps.Logger.Named("opmode").With("mode", reg.Name),
		done:   done,
	}
}

func (r *Runner) Name() string {
	return r.reg.Name
}

func (r *Runner) StartupSound() string {
	return r.reg.Sound
}

func (r *Runner) Registration() Registration {
	return r.reg
}

// Start runs INIT and then the init loop in the background until Play or
// Stop.
func (r *Runner) Start(ctx context.Context) {
	r.lock.Lock()
	defer r.lock.Unlock()
	var runCtx context.Context
	runCtx, r.cancel = context.WithCancel(ctx)
	r.started = make(chan struct{})
	r.startOnce = &sync.Once{}
	r.done = make(chan struct{})
	go r.run(runCtx, r.started, r.done)
}

// Play presses START. Extra presses are ignored.
func (r *Runner) Play() {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.startOnce == nil {
		return
	}
	started := r.started
	r.startOnce.Do(func() {
		r.logger.Info("START")
		close(started)
	})
}

// Stop stops the op-mode and waits for it to finish. All motors are zeroed.
func (r *Runner) Stop() {
	r.lock.Lock()
	cancel, done := r.cancel, r.done
	r.lock.Unlock()
	if cancel != nil {
		cancel()
	}
	<-done
}

// Done is closed when the op-mode's goroutine has exited, whether it was
// stopped or finished by itself.
func (r *Runner) Done() <-chan struct{} {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.done
}

func (r *Runner) newContext() *Context {
	return &Context{
		HardwareMap: r.deps.HardwareMap,
		Telemetry:   r.deps.Telemetry,
		Config:      r.deps.Config,
		Clock:       r.deps.Clock,
		Logger:      r.logger,
		pads:        r.deps.Gamepads.Snapshot,
	}
}

func (r *Runner) run(ctx context.Context, started <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer func() {
		r.deps.HardwareMap.StopMotors()
		r.logger.Info("Stopped; motors zeroed")
	}()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorw("Op-mode panicked", "panic", p, "stack", string(debug.Stack()))
		}
	}()

	op := r.newContext()
	op.refresh()
	r.logger.Info("INIT")
	switch {
	case r.reg.NewLinear != nil:
		lin := &LinearContext{Context: op, started: started, interval: r.deps.Config.LoopInterval}
		err := r.reg.NewLinear().RunOpMode(ctx, lin)
		if err != nil && ctx.Err() == nil {
			r.logger.Errorw("Op-mode failed", "error", err)
			r.reportError(err)
		}
	case r.reg.NewIterative != nil:
		r.runIterative(ctx, op, started)
	default:
		r.logger.Error("Registration has no op-mode")
	}
}

func (r *Runner) runIterative(ctx context.Context, op *Context, started <-chan struct{}) {
	mode := r.reg.NewIterative()
	if err := mode.Init(op); err != nil {
		r.logger.Errorw("INIT failed", "error", err)
		r.reportError(err)
		return
	}

	ticker := r.deps.Clock.Ticker(r.deps.Config.LoopInterval)
	defer ticker.Stop()

	initLooper, _ := mode.(InitLooper)
initLoop:
	for {
		select {
		case <-ctx.Done():
			return
		case <-started:
			break initLoop
		case <-ticker.C:
			if initLooper != nil {
				op.refresh()
				initLooper.InitLoop(op)
			}
		}
	}

	op.refresh()
	if s, ok := mode.(Starter); ok {
		s.Start(op)
	}
	if s, ok := mode.(Stopper); ok {
		defer s.Stop(op)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			op.refresh()
			mode.Loop(op)
		}
	}
}

func (r *Runner) reportError(err error) {
	if r.deps.Telemetry == nil {
		return
	}
	r.deps.Telemetry.AddData("ERROR", err)
	r.deps.Telemetry.Update()
}
