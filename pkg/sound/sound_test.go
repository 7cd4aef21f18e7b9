package sound

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
)

type fakeStream struct {
	name   string
	lock   *sync.Mutex
	closed *[]string
}

func (s *fakeStream) Stream(samples [][2]float64) (int, bool) { return 0, false }
func (s *fakeStream) Err() error                              { return nil }
func (s *fakeStream) Len() int                                { return 0 }
func (s *fakeStream) Position() int                           { return 0 }
func (s *fakeStream) Seek(p int) error                        { return nil }

func (s *fakeStream) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	*s.closed = append(*s.closed, s.name)
	return nil
}

type fakeOutput struct {
	initErr error

	lock    sync.Mutex
	played  []string
	stopped int
}

func (o *fakeOutput) Init(sr beep.SampleRate) error { return o.initErr }

func (o *fakeOutput) Play(ctrl *beep.Ctrl) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.played = append(o.played, ctrl.Streamer.(*fakeStream).name)
}

func (o *fakeOutput) Stop(ctrl *beep.Ctrl) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.stopped++
}

func (o *fakeOutput) snapshot() ([]string, int) {
	o.lock.Lock()
	defer o.lock.Unlock()
	return append([]string(nil), o.played...), o.stopped
}

func writeSound(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPlayerCutsOffPreviousSound(t *testing.T) {
	dir := t.TempDir()
	a, b := writeSound(t, dir, "a.wav"), writeSound(t, dir, "b.wav")

	var lock sync.Mutex
	var closed []string
	out := &fakeOutput{}
	p := NewPlayer(zaptest.NewLogger(t).Sugar())
	p.Output = out
	p.Decode = func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
		defer f.Close()
		return &fakeStream{name: filepath.Base(f.Name()), lock: &lock, closed: &closed}, beep.Format{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	p.Play(a)
	p.Play(filepath.Join(dir, "missing.wav"))
	p.Play("")
	p.Play(b)

	deadline := time.Now().Add(5 * time.Second)
	for {
		played, _ := out.snapshot()
		if len(played) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Only played %v", played)
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	played, stopped := out.snapshot()
	if diff := cmp.Diff([]string{"a.wav", "b.wav"}, played); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if stopped != 2 {
		t.Errorf("Expected both sounds stopped, got %d", stopped)
	}
	if diff := cmp.Diff([]string{"a.wav", "b.wav"}, closed); diff != "" {
		t.Errorf("Streams not closed (-want +got):\n%s", diff)
	}
}

func TestPlayerWithoutSpeakerDrainsQueue(t *testing.T) {
	p := NewPlayer(zaptest.NewLogger(t).Sugar())
	p.Output = &fakeOutput{initErr: errors.New("no audio device")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	for i := 0; i < 20; i++ {
		p.Play("x.wav")
	}
	cancel()
	<-done
}
