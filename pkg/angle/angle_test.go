package angle

import "testing"

func TestFromFloat(t *testing.T) {
	expectWrapped(t, 0, 0)
	expectWrapped(t, 179, 179)
	expectWrapped(t, 180, 180)
	expectWrapped(t, -180, 180)
	expectWrapped(t, 181, -179)
	expectWrapped(t, 360, 0)
	expectWrapped(t, 361, 1)
	expectWrapped(t, -361, -1)
	expectWrapped(t, 720+90, 90)
	expectWrapped(t, -270, 90)
}

func TestSub(t *testing.T) {
	// Crossing the seam should give the short way round.
	d := FromFloat(170).Sub(FromFloat(-170))
	if d.Float() != -20 {
		t.Errorf("170 - -170 = %f, expected -20", d.Float())
	}
	d = FromFloat(-170).Sub(FromFloat(170))
	if d.Float() != 20 {
		t.Errorf("-170 - 170 = %f, expected 20", d.Float())
	}
	if a := FromFloat(-90).AddFloat(-100); a.Float() != 170 {
		t.Errorf("-90 + -100 = %f, expected 170", a.Float())
	}
	if a := FromFloat(-45).Abs(); a != 45 {
		t.Errorf("|-45| = %f", a)
	}
}

func expectWrapped(t *testing.T, in, expected float64) {
	if a := FromFloat(in).Float(); a != expected {
		t.Errorf("FromFloat(%f) = %f, expected %f", in, a, expected)
	}
}
