// Package webcam is a mineral detector that picks gold and silver out of
// webcam frames by colour.
package webcam

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/vision"
)

type HSVRange struct {
	HueMin, HueMax byte
	SatMin, SatMax byte
	ValMin, ValMax byte
}

// Minerals are the colour ranges for each label, in OpenCV's 0-180 hue scale.
// Silver is anything bright with little colour.
var Minerals = map[string]HSVRange{
	vision.LabelGoldMineral:   {15, 35, 120, 255, 100, 255},
	vision.LabelSilverMineral: {0, 180, 0, 40, 190, 255},
}

const (
	DefaultFrameWidth = 320
	DefaultMinSize    = 12
	DefaultFPS        = 10
)

type MineralDetector struct {
	DeviceID   int
	FrameWidth int
	MinSize    int
	FPS        int

	clock  clock.Clock
	logger *zap.SugaredLogger

	lock   sync.Mutex
	latest []vision.Recognition
	fresh  bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ vision.Detector = (*MineralDetector)(nil)

func New(deviceID int, clk clock.Clock, logger *zap.SugaredLogger) *MineralDetector {
	return &MineralDetector{
		DeviceID:   deviceID,
		FrameWidth: DefaultFrameWidth,
		MinSize:    DefaultMinSize,
		FPS:        DefaultFPS,
		clock:      clk,
		logger:     logger.Named("webcam").With("device", deviceID),
	}
}

// Activate opens the camera and starts processing frames in the background.
func (d *MineralDetector) Activate() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.cancel != nil {
		return nil
	}
	webcam, err := gocv.VideoCaptureDevice(d.DeviceID)
	if err != nil {
		return errors.Wrapf(err, "opening video capture device %d", d.DeviceID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer webcam.Close()
		d.loop(ctx, webcam)
	}()
	d.logger.Info("Activated")
	return nil
}

func (d *MineralDetector) Deactivate() {
	d.lock.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.lock.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
	d.logger.Info("Deactivated")
}

func (d *MineralDetector) UpdatedRecognitions() []vision.Recognition {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.fresh {
		return nil
	}
	d.fresh = false
	return d.latest
}

func (d *MineralDetector) Close() error {
	d.Deactivate()
	return nil
}

func (d *MineralDetector) loop(ctx context.Context, webcam *gocv.VideoCapture) {
	img := gocv.NewMat()
	defer img.Close()

	ticker := d.clock.Ticker(time.Second / time.Duration(d.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ok := webcam.Read(&img); !ok || img.Empty() {
			d.logger.Warn("Failed to read frame")
			continue
		}
		recs := d.detect(img)
		d.lock.Lock()
		d.latest = recs
		d.fresh = true
		d.lock.Unlock()
	}
}

func (d *MineralDetector) detect(img gocv.Mat) []vision.Recognition {
	hsv := ScaleAndConvertToHSV(img, d.FrameWidth)
	defer hsv.Close()

	var blobs []vision.Blob
	for label, r := range Minerals {
		blobs = append(blobs, FindBlobs(hsv, label, r)...)
	}
	return vision.Recognize(blobs, d.MinSize)
}

func ScaleAndConvertToHSV(img gocv.Mat, desiredWidth int) (hsv gocv.Mat) {
	scaleFactor := float64(desiredWidth) / float64(img.Cols())
	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(img, &scaled, image.Point{}, scaleFactor, scaleFactor, gocv.InterpolationLinear)

	hsv = gocv.NewMat()
	gocv.CvtColor(scaled, &hsv, gocv.ColorBGRToHSV)
	return
}

func hsvMaskNoWrapAround(hsv gocv.Mat, r HSVRange) gocv.Mat {
	lb, _ := gocv.NewMatFromBytes(1, 3, gocv.MatTypeCV8U, []byte{r.HueMin, r.SatMin, r.ValMin})
	defer lb.Close()
	ub, _ := gocv.NewMatFromBytes(1, 3, gocv.MatTypeCV8U, []byte{r.HueMax, r.SatMax, r.ValMax})
	defer ub.Close()
	mask := gocv.NewMatWithSize(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	gocv.InRange(hsv, lb, ub, &mask)
	return mask
}

// HSVMask selects the pixels in range. A range whose HueMax is below its
// HueMin wraps through red.
func HSVMask(hsv gocv.Mat, r HSVRange) gocv.Mat {
	if r.HueMax >= r.HueMin {
		return hsvMaskNoWrapAround(hsv, r)
	}
	upper := r
	upper.HueMax = 180
	mask1 := hsvMaskNoWrapAround(hsv, upper)
	defer mask1.Close()
	lower := r
	lower.HueMin = 0
	mask2 := hsvMaskNoWrapAround(hsv, lower)
	defer mask2.Close()
	mask := gocv.NewMatWithSize(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	gocv.BitwiseOr(mask1, mask2, &mask)
	return mask
}

// FindBlobs returns the outer contours of the pixels in range.
func FindBlobs(hsv gocv.Mat, label string, r HSVRange) []vision.Blob {
	mask := HSVMask(hsv, r)
	defer mask.Close()

	// Two rounds each of erosion and dilation to remove speckle.
	nullMat := gocv.NewMat()
	defer nullMat.Close()
	gocv.Erode(mask, &mask, nullMat)
	gocv.Erode(mask, &mask, nullMat)
	gocv.Dilate(mask, &mask, nullMat)
	gocv.Dilate(mask, &mask, nullMat)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	var blobs []vision.Blob
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		blobs = append(blobs, vision.Blob{
			Label: label,
			Rect:  gocv.BoundingRect(c),
			Area:  gocv.ContourArea(c),
		})
	}
	return blobs
}
