package encoder

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"periph.io/x/periph/conn/gpio"
)

type fakePin struct {
	lock   sync.Mutex
	level  gpio.Level
	edges  chan struct{}
	pull   gpio.Pull
	halted bool
	onRead func()
}

func newFakePin() *fakePin {
	return &fakePin{edges: make(chan struct{}, 16)}
}

func (p *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.pull = pull
	return nil
}

func (p *fakePin) Read() gpio.Level {
	p.lock.Lock()
	l, hook := p.level, p.onRead
	p.lock.Unlock()
	if hook != nil {
		hook()
	}
	return l
}

func (p *fakePin) WaitForEdge(timeout time.Duration) bool {
	select {
	case <-p.edges:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *fakePin) Halt() error {
	p.halted = true
	return nil
}

func (p *fakePin) set(l gpio.Level) {
	p.lock.Lock()
	p.level = l
	p.lock.Unlock()
	p.edges <- struct{}{}
}

func TestAdvanceCountsGrayCode(t *testing.T) {
	q, err := New(newFakePin(), newFakePin(), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	// One full cycle forwards: 00 -> 10 -> 11 -> 01 -> 00.
	for _, s := range []uint8{2, 3, 1, 0} {
		q.advance(s)
	}
	if q.Position() != 4 {
		t.Fatalf("Expected 4 ticks forwards, got %d", q.Position())
	}
	// And back again.
	for _, s := range []uint8{1, 3, 2, 0, 1} {
		q.advance(s)
	}
	if q.Position() != -1 {
		t.Fatalf("Expected -1 after reversing, got %d", q.Position())
	}
	// Repeats are ignored; a double change is counted as an error.
	q.advance(1)
	q.advance(2)
	if q.Position() != -1 || q.Errors() != 1 {
		t.Fatalf("Expected -1 and one error, got %d and %d", q.Position(), q.Errors())
	}
}

func TestWatchesPins(t *testing.T) {
	a, b := newFakePin(), newFakePin()
	q, err := New(a, b, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	if a.pull != gpio.PullUp {
		t.Errorf("Expected pull-up, got %v", a.pull)
	}
	q.Start(context.Background())

	a.set(gpio.High)
	waitFor(t, func() bool { return q.Position() == 1 })
	b.set(gpio.High)
	waitFor(t, func() bool { return q.Position() == 2 })

	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if !a.halted || !b.halted {
		t.Error("Pins should be halted on close")
	}
}

func TestPinsSampledUnderLock(t *testing.T) {
	a, b := newFakePin(), newFakePin()
	q, err := New(a, b, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatal(err)
	}
	var unlocked, reads int
	var hookLock sync.Mutex
	hook := func() {
		hookLock.Lock()
		defer hookLock.Unlock()
		reads++
		if q.lock.TryLock() {
			unlocked++
			q.lock.Unlock()
		}
	}
	a.lock.Lock()
	a.onRead = hook
	a.lock.Unlock()
	b.lock.Lock()
	b.onRead = hook
	b.lock.Unlock()
	q.Start(context.Background())
	defer q.Close()

	// Edges on both channels close together: 00 -> 10 -> 11 -> 01 -> 00.
	a.set(gpio.High)
	b.set(gpio.High)
	a.set(gpio.Low)
	b.set(gpio.Low)
	waitFor(t, func() bool {
		hookLock.Lock()
		defer hookLock.Unlock()
		return reads >= 8
	})

	hookLock.Lock()
	defer hookLock.Unlock()
	if unlocked != 0 {
		t.Errorf("%d of %d pin reads happened without the lock held", unlocked, reads)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out")
		}
		time.Sleep(time.Millisecond)
	}
}
