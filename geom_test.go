package pageflow

import "testing"

func TestPointsToPixels(t *testing.T) {
	tests := []struct {
		pt   float64
		ppi  float64
		want int
	}{
		{72, 72, 72},    // one inch at 72 ppi
		{72, 144, 144},  // one inch at 144 ppi
		{612, 96, 816},  // US Letter width at 96 ppi
		{100, 96, 134},  // 133.33 rounds up
		{0.1, 96, 1},    // tiny sizes never collapse to zero
		{0, 96, 0},      // unset geometry
		{-10, 96, 0},    // negative guarded
		{100, 0, 0},     // invalid resolution
	}
	for _, tt := range tests {
		if got := PointsToPixels(tt.pt, tt.ppi); got != tt.want {
			t.Errorf("PointsToPixels(%v, %v) = %d, want %d", tt.pt, tt.ppi, got, tt.want)
		}
	}
}

func TestPixelSize(t *testing.T) {
	got := PixelSize(SizePt{Width: 612, Height: 792}, 96)
	if got.Width != 816 || got.Height != 1056 {
		t.Errorf("PixelSize = %+v, want 816x1056", got)
	}
}

func TestSizePxBytes(t *testing.T) {
	s := SizePx{Width: 816, Height: 1056}
	want := int64(816) * 1056 * 4
	if got := s.Bytes(); got != want {
		t.Errorf("Bytes() = %d, want %d", got, want)
	}
}

func TestSizePtIsZero(t *testing.T) {
	if !(SizePt{}).IsZero() {
		t.Error("zero SizePt should report IsZero")
	}
	if (SizePt{Width: 612, Height: 792}).IsZero() {
		t.Error("set SizePt should not report IsZero")
	}
}
