// Package screen draws the controller's status on the robot's 128x128 TFT.
package screen

import (
	"context"
	"image"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	Size        = 128
	FrameBytes  = Size * Size * 2
	RefreshRate = 500 * time.Millisecond

	lineHeight = 12
	maxLines   = 7
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
)

// Screen holds what to draw. It is a telemetry sink, so the latest
// driver-station text is mirrored on the robot.
type Screen struct {
	lock   sync.Mutex
	mode   string
	notice string
	level  Level
	lines  []string
}

func New() *Screen {
	return &Screen{}
}

func (s *Screen) SetMode(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.mode = name
}

func (s *Screen) SetNotice(level Level, msg string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.level = level
	s.notice = msg
}

func (s *Screen) ClearNotice() {
	s.SetNotice(LevelInfo, "")
}

func (s *Screen) SetLines(lines []string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lines = append([]string(nil), lines...)
}

// Show implements telemetry.Sink.
func (s *Screen) Show(lines []string) {
	s.SetLines(lines)
}

func (s *Screen) Render() image.Image {
	s.lock.Lock()
	mode, notice, level := s.mode, s.notice, s.level
	lines := s.lines
	s.lock.Unlock()

	dc := gg.NewContext(Size, Size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	y := float64(lineHeight)
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(mode, 2, y)
	y += lineHeight

	if notice != "" {
		dc.Push()
		dc.Translate(10, y-2)
		if level == LevelWarning {
			DrawWarning(dc)
		} else {
			dc.SetRGB(0, 0.8, 0.2)
			dc.DrawCircle(0, 0, 5)
			dc.Fill()
		}
		dc.Pop()
		dc.SetRGB(1, 1, 1)
		dc.DrawString(notice, 22, y+2)
		y += lineHeight + 4
	}

	dc.SetRGB(0.8, 0.8, 0.8)
	for i, l := range lines {
		if i == maxLines {
			break
		}
		dc.DrawString(l, 2, y)
		y += lineHeight
	}
	return dc.Image()
}

// PackRGB565 converts img to the panel's byte layout. The panel is mounted on
// its side, so rows of the image become columns of the frame.
func PackRGB565(img image.Image, buf []byte) {
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(Size-1-y)*2+x*Size*2+1] = (rb << 3) | (gb >> 3)
			buf[(Size-1-y)*2+x*Size*2] = bb | (gb << 5)
		}
	}
}

// LoopUpdatingScreen redraws the screen onto the framebuffer device until ctx
// is done, then blanks it. A missing screen is logged and ignored.
func LoopUpdatingScreen(ctx context.Context, s *Screen, device string, clk clock.Clock, logger *zap.SugaredLogger) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		logger.Warnw("Failed to open screen, ignoring", "device", device, "error", err)
		return
	}
	defer f.Close()

	ticker := clk.Ticker(RefreshRate)
	defer ticker.Stop()
	var buf [FrameBytes]byte
	for {
		select {
		case <-ctx.Done():
			var blank [FrameBytes]byte
			if err := writeFrame(f, blank[:]); err != nil {
				logger.Warnw("Failed to blank screen", "error", err)
			}
			return
		case <-ticker.C:
		}
		PackRGB565(s.Render(), buf[:])
		if err := writeFrame(f, buf[:]); err != nil {
			logger.Errorw("Screen failure", "error", err)
			return
		}
	}
}

func writeFrame(f *os.File, buf []byte) error {
	if _, err := f.Seek(0, 0); err != nil {
		return errors.Wrap(err, "seeking framebuffer")
	}
	for i := 0; i < Size; i++ {
		if _, err := f.Write(buf[i*Size*2 : (i+1)*Size*2]); err != nil {
			return errors.Wrap(err, "writing framebuffer")
		}
	}
	return nil
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 7, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -2, 3)
}
