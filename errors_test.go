package pageflow

import (
	"errors"
	"testing"
)

func TestGeometryErrorUnwrap(t *testing.T) {
	cause := errors.New("engine exploded")
	err := &GeometryError{Page: 7, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("GeometryError should unwrap to its cause")
	}
	if got := err.Error(); got != "page 7: geometry fetch failed: engine exploded" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRasterErrorUnwrap(t *testing.T) {
	cause := errors.New("out of ink")
	err := &RasterError{Page: 3, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("RasterError should unwrap to its cause")
	}
	if got := err.Error(); got != "page 3: rasterization failed: out of ink" {
		t.Errorf("Error() = %q", got)
	}
}
