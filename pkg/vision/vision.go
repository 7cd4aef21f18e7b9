// Package vision finds minerals in camera frames.
package vision

import (
	"image"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
)

const (
	LabelGoldMineral   = "Gold Mineral"
	LabelSilverMineral = "Silver Mineral"
)

// Recognition is one detected object. Coordinates are in frame pixels.
type Recognition struct {
	Label      string
	Confidence float64
	Left       float64
	Top        float64
	Right      float64
	Bottom     float64
}

func (r Recognition) Width() float64  { return r.Right - r.Left }
func (r Recognition) Height() float64 { return r.Bottom - r.Top }

type Detector interface {
	Activate() error
	Deactivate()
	// UpdatedRecognitions returns the recognitions from the newest frame, or
	// nil if nothing has changed since the last call.
	UpdatedRecognitions() []Recognition
	Close() error
}

// FromMap looks up a detector in the hardware map.
func FromMap(hw *hardware.Map, name string) (Detector, error) {
	d, err := hw.Get(name)
	if err != nil {
		return nil, err
	}
	det, ok := d.(Detector)
	if !ok {
		return nil, errors.Wrapf(hardware.ErrWrongKind, "%q is a %T, not a detector", name, d)
	}
	return det, nil
}

// Blob is a connected patch of one colour.
type Blob struct {
	Label string
	Rect  image.Rectangle
	Area  float64
}

// Recognize turns blobs into recognitions, dropping any whose bounding box is
// smaller than minSize on either side. Confidence is the share of the bounding
// box the blob fills; a mineral seen face-on fills most of it. Results are
// ordered left to right.
func Recognize(blobs []Blob, minSize int) []Recognition {
	recs := []Recognition{}
	for _, b := range blobs {
		w, h := b.Rect.Dx(), b.Rect.Dy()
		if w < minSize || h < minSize {
			continue
		}
		conf := b.Area / float64(w*h)
		if conf > 1 {
			conf = 1
		}
		recs = append(recs, Recognition{
			Label:      b.Label,
			Confidence: conf,
			Left:       float64(b.Rect.Min.X),
			Top:        float64(b.Rect.Min.Y),
			Right:      float64(b.Rect.Max.X),
			Bottom:     float64(b.Rect.Max.Y),
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Left < recs[j].Left })
	return recs
}

// Fake is a detector that reports whatever it is given.
type Fake struct {
	lock    sync.Mutex
	active  bool
	closed  bool
	pending []Recognition
	fresh   bool
}

var _ Detector = (*Fake)(nil)

func (f *Fake) Activate() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.closed {
		return errors.New("detector closed")
	}
	f.active = true
	return nil
}

func (f *Fake) Deactivate() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.active = false
}

func (f *Fake) Active() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.active
}

// SetRecognitions queues a frame's worth of recognitions.
func (f *Fake) SetRecognitions(recs []Recognition) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pending = append([]Recognition{}, recs...)
	f.fresh = true
}

func (f *Fake) UpdatedRecognitions() []Recognition {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.active || !f.fresh {
		return nil
	}
	f.fresh = false
	return f.pending
}

func (f *Fake) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.active = false
	f.closed = true
	return nil
}
