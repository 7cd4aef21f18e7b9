package screen

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
)

func TestPackRGB565(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(5, 127, color.RGBA{0, 0, 255, 255})
	img.Set(1, 2, color.RGBA{0, 255, 0, 255})

	var buf [FrameBytes]byte
	PackRGB565(img, buf[:])

	// Image row y lands in frame column 127-y.
	if buf[127*2+1] != 0xf8 || buf[127*2] != 0 {
		t.Errorf("Red pixel packed as %#x %#x", buf[127*2+1], buf[127*2])
	}
	if buf[5*256+1] != 0 || buf[5*256] != 0x1f {
		t.Errorf("Blue pixel packed as %#x %#x", buf[5*256+1], buf[5*256])
	}
	if buf[125*2+256+1] != 0x07 || buf[125*2+256] != 0xe0 {
		t.Errorf("Green pixel packed as %#x %#x", buf[125*2+256+1], buf[125*2+256])
	}
}

func TestRender(t *testing.T) {
	s := New()
	blank := s.Render()
	if blank.Bounds() != image.Rect(0, 0, Size, Size) {
		t.Fatalf("Unexpected bounds %v", blank.Bounds())
	}

	s.SetMode("Drive Op 1.2 - Competition")
	s.SetNotice(LevelWarning, "no IMU")
	s.Show([]string{"a : 1", "b : 2"})
	var before, after [FrameBytes]byte
	PackRGB565(blank, before[:])
	PackRGB565(s.Render(), after[:])
	if before == after {
		t.Error("Expected text to be drawn")
	}

	s.ClearNotice()
	if s.notice != "" || s.level != LevelInfo {
		t.Error("Notice should be cleared")
	}
}

func TestLoopWritesFramesAndBlanksOnExit(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "fb1")
	if err := os.WriteFile(dev, nil, 0666); err != nil {
		t.Fatal(err)
	}
	s := New()
	s.SetMode("Pause")
	clk := clock.NewMock()
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		LoopUpdatingScreen(ctx, s, dev, clk, zaptest.NewLogger(t).Sugar())
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		data, _ := os.ReadFile(dev)
		if len(data) == FrameBytes && !bytes.Equal(data, make([]byte, FrameBytes)) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("No frame written")
		}
		clk.Add(RefreshRate)
	}

	cancel()
	wg.Wait()
	data, err := os.ReadFile(dev)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, make([]byte, FrameBytes)) {
		t.Error("Screen should be blanked on exit")
	}
}

func TestLoopIgnoresMissingScreen(t *testing.T) {
	LoopUpdatingScreen(context.Background(), New(), filepath.Join(t.TempDir(), "missing"), clock.NewMock(), zaptest.NewLogger(t).Sugar())
}
