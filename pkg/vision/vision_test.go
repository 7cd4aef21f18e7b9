package vision

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
)

func TestRecognize(t *testing.T) {
	blobs := []Blob{
		{Label: LabelSilverMineral, Rect: image.Rect(200, 10, 240, 50), Area: 1200},
		{Label: LabelGoldMineral, Rect: image.Rect(20, 30, 60, 70), Area: 1600},
		// Too small to be a mineral.
		{Label: LabelGoldMineral, Rect: image.Rect(100, 100, 105, 140), Area: 150},
	}
	got := Recognize(blobs, 12)
	want := []Recognition{
		{Label: LabelGoldMineral, Confidence: 1, Left: 20, Top: 30, Right: 60, Bottom: 70},
		{Label: LabelSilverMineral, Confidence: 0.75, Left: 200, Top: 10, Right: 240, Bottom: 50},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected recognitions (-want +got):\n%s", diff)
	}
	if got[1].Width() != 40 || got[1].Height() != 40 {
		t.Errorf("Unexpected size %vx%v", got[1].Width(), got[1].Height())
	}
}

func TestRecognizeNothing(t *testing.T) {
	got := Recognize(nil, 12)
	if got == nil || len(got) != 0 {
		t.Fatalf("Expected an empty, non-nil result, got %#v", got)
	}
}

func TestFakeOnlyReportsNewFramesWhileActive(t *testing.T) {
	f := &Fake{}
	gold := []Recognition{{Label: LabelGoldMineral, Confidence: 0.9}}
	f.SetRecognitions(gold)
	if f.UpdatedRecognitions() != nil {
		t.Fatal("Inactive detector should report nothing")
	}
	if err := f.Activate(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(gold, f.UpdatedRecognitions()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if f.UpdatedRecognitions() != nil {
		t.Error("Second read of the same frame should be nil")
	}
	f.Deactivate()
	if f.Active() {
		t.Error("Expected inactive")
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Activate(); err == nil {
		t.Error("Closed detector should not activate")
	}
}

func TestFromMap(t *testing.T) {
	hw := hardware.NewMap()
	fake := &Fake{}
	hw.Put("webcam", fake)
	hw.Put("imu", struct{}{})

	d, err := FromMap(hw, "webcam")
	if err != nil {
		t.Fatal(err)
	}
	if d != fake {
		t.Error("Expected the registered detector")
	}
	if _, err := FromMap(hw, "imu"); errors.Cause(err) != hardware.ErrWrongKind {
		t.Errorf("Expected ErrWrongKind, got %v", err)
	}
	if _, err := FromMap(hw, "nope"); errors.Cause(err) != hardware.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
