// Package sound plays the WAV clip announcing each op-mode.
package sound

import (
	"context"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const SampleRate = beep.SampleRate(44100)

// Output is where decoded sounds go.
type Output interface {
	Init(sr beep.SampleRate) error
	Play(ctrl *beep.Ctrl)
	Stop(ctrl *beep.Ctrl)
}

// Speaker is the default audio device.
type Speaker struct{}

func (Speaker) Init(sr beep.SampleRate) error {
	return speaker.Init(sr, sr.N(time.Second/5))
}

func (Speaker) Play(ctrl *beep.Ctrl) {
	speaker.Play(ctrl)
}

func (Speaker) Stop(ctrl *beep.Ctrl) {
	speaker.Lock()
	ctrl.Paused = true
	ctrl.Streamer = nil
	speaker.Unlock()
}

// Player plays one sound at a time; a new sound cuts off the previous one.
type Player struct {
	Output Output
	Decode func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

	logger *zap.SugaredLogger
	sounds chan string
}

func NewPlayer(logger *zap.SugaredLogger) *Player {
	return &Player{
		Output: Speaker{},
		Decode: func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
			return wav.Decode(f)
		},
		logger: logger.Named("sound"),
		sounds: make(chan string, 4),
	}
}

// Play queues a sound. It never blocks; if the queue is full the sound is
// dropped.
func (p *Player) Play(path string) {
	if path == "" {
		return
	}
	select {
	case p.sounds <- path:
	default:
		p.logger.Warnw("Sound queue full, dropping", "sound", path)
	}
}

// Run plays queued sounds until ctx is done. Without a working speaker it
// keeps draining the queue so Play stays cheap.
func (p *Player) Run(ctx context.Context) {
	if err := p.Output.Init(SampleRate); err != nil {
		p.logger.Warnw("Failed to open speaker", "error", err)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-p.sounds:
				p.logger.Infow("Unable to play", "sound", s)
			}
		}
	}

	var (
		ctrl   *beep.Ctrl
		stream beep.StreamSeekCloser
	)
	stop := func() {
		if ctrl != nil {
			p.Output.Stop(ctrl)
			ctrl = nil
		}
		if stream != nil {
			stream.Close()
			stream = nil
		}
	}
	defer stop()

	for {
		var path string
		select {
		case <-ctx.Done():
			return
		case path = <-p.sounds:
		}
		stop()
		s, err := p.open(path)
		if err != nil {
			p.logger.Warnw("Failed to play sound", "error", err)
			continue
		}
		stream = s
		ctrl = &beep.Ctrl{Streamer: s}
		p.Output.Play(ctrl)
	}
}

func (p *Player) open(path string) (beep.StreamSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sound")
	}
	s, _, err := p.Decode(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return s, nil
}
