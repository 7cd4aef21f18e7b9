package hardware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
)

type fakeDevice struct {
	lock       sync.Mutex
	values     map[int]float64
	failAfter  int
	writes     int
	configured bool
	closed     bool
}

func (d *fakeDevice) Configure() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.configured = true
	return nil
}

func (d *fakeDevice) SetServo(port int, value float64) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.writes++
	if d.failAfter > 0 && d.writes > d.failAfter {
		return errors.New("nack")
	}
	d.values[port] = value
	return nil
}

func (d *fakeDevice) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) value(port int) (float64, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	v, ok := d.values[port]
	return v, ok
}

// eventually advances the mock clock until cond holds.
func eventually(t *testing.T, clk *clock.Mock, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not met")
		}
		clk.Add(10 * time.Millisecond)
	}
}

func TestI2CLoopFlushesUpdates(t *testing.T) {
	clk := clock.NewMock()
	dev := &fakeDevice{values: map[int]float64{}}
	loop := NewI2CLoop(func() (PWMDevice, error) { return dev, nil }, 10*time.Millisecond, clk, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	var initDone sync.WaitGroup
	initDone.Add(1)
	done := make(chan struct{})
	go func() {
		loop.Loop(ctx, &initDone)
		close(done)
	}()
	initDone.Wait()

	// Every port starts neutral.
	eventually(t, clk, func() bool {
		v, ok := dev.value(15)
		return ok && v == 0.5
	})

	_ = loop.SetServo(3, 0.9)
	eventually(t, clk, func() bool {
		v, _ := dev.value(3)
		return v == 0.9
	})

	cancel()
	<-done
	if v, _ := dev.value(3); v != 0.5 {
		t.Errorf("Outputs should be left neutral, got %v", v)
	}
	if !dev.closed {
		t.Error("Device should be closed")
	}
}

func TestI2CLoopRecovers(t *testing.T) {
	clk := clock.NewMock()
	var lock sync.Mutex
	var opened []*fakeDevice
	open := func() (PWMDevice, error) {
		lock.Lock()
		defer lock.Unlock()
		dev := &fakeDevice{values: map[int]float64{}}
		if len(opened) == 0 {
			dev.failAfter = 4
		}
		opened = append(opened, dev)
		return dev, nil
	}
	loop := NewI2CLoop(open, 10*time.Millisecond, clk, zaptest.NewLogger(t).Sugar())
	_ = loop.SetServo(7, 0.2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Loop(ctx, nil)
		close(done)
	}()

	eventually(t, clk, func() bool {
		lock.Lock()
		defer lock.Unlock()
		if len(opened) < 2 {
			return false
		}
		v, _ := opened[1].value(7)
		return v == 0.2
	})
	cancel()
	<-done
}

func TestI2CLoopIgnoresBadPort(t *testing.T) {
	loop := NewI2CLoop(nil, time.Millisecond, clock.NewMock(), zaptest.NewLogger(t).Sugar())
	if err := loop.SetServo(NumServoPorts, 1); err != nil {
		t.Fatalf("Out of range port should only warn, got %v", err)
	}
}
