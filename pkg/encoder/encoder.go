// Package encoder counts a quadrature motor encoder wired to two GPIO pins.
package encoder

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// edgeTimeout bounds how long a watcher blocks before checking for shutdown.
const edgeTimeout = 100 * time.Millisecond

// transitions maps (previous state << 2 | new state) to a tick delta. Invalid
// transitions, where both channels changed at once, count as zero.
var transitions = [16]int8{0, -1, 1, 0, 1, 0, 0, -1, -1, 0, 0, 1, 0, 1, -1, 0}

// Pin is the part of a periph GPIO pin that the decoder needs.
type Pin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
	Halt() error
}

type Quadrature struct {
	a, b   Pin
	logger *zap.SugaredLogger

	lock     sync.Mutex
	state    uint8
	position int
	errors   int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var initOnce sync.Once
var initErr error

// Open looks the pins up by name, for example "GPIO5", after loading the
// periph host drivers.
func Open(pinA, pinB string, logger *zap.SugaredLogger) (*Quadrature, error) {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "initialising periph")
	}
	a := gpioreg.ByName(pinA)
	if a == nil {
		return nil, errors.Errorf("no GPIO pin %q", pinA)
	}
	b := gpioreg.ByName(pinB)
	if b == nil {
		return nil, errors.Errorf("no GPIO pin %q", pinB)
	}
	return New(a, b, logger)
}

func New(a, b Pin, logger *zap.SugaredLogger) (*Quadrature, error) {
	for _, p := range []Pin{a, b} {
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, errors.Wrap(err, "configuring encoder pin")
		}
	}
	q := &Quadrature{a: a, b: b, logger: logger}
	q.state = q.read()
	return q, nil
}

func (q *Quadrature) read() uint8 {
	var s uint8
	if q.a.Read() == gpio.High {
		s |= 2
	}
	if q.b.Read() == gpio.High {
		s |= 1
	}
	return s
}

// sample reads both pins and applies the result. Pins are read under the
// lock so that a sample taken before another watcher's is never applied
// after it.
func (q *Quadrature) sample() {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.advance(q.read())
}

// advance moves to a new state. q.lock must be held.
func (q *Quadrature) advance(state uint8) {
	if state == q.state {
		return
	}
	delta := transitions[q.state<<2|state]
	if delta == 0 {
		// Both channels moved between samples; direction is unknown.
		q.errors++
	}
	q.position += int(delta)
	q.state = state
}

// Start watches both pins until ctx is done or Close is called.
func (q *Quadrature) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for _, p := range []Pin{q.a, q.b} {
		p := p
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for ctx.Err() == nil {
				if p.WaitForEdge(edgeTimeout) {
					q.sample()
				}
			}
		}()
	}
}

func (q *Quadrature) Position() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.position
}

// Errors returns how many invalid transitions have been seen.
func (q *Quadrature) Errors() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.errors
}

func (q *Quadrature) Close() error {
	if q.cancel != nil {
		q.cancel()
		q.wg.Wait()
	}
	if n := q.Errors(); n > 0 {
		q.logger.Warnw("Encoder missed transitions", "count", n)
	}
	return multierr.Combine(q.a.Halt(), q.b.Halt())
}
