package exifgps

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDMSToDecimal(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		min  float64
		sec  float64
		ref  string
		want float64
	}{
		{"latitude north", 59, 19, 45.48, "N", 59.32930},
		{"latitude south", 59, 19, 45.48, "S", -59.32930},
		{"longitude east", 18, 4, 6.96, "E", 18.0686},
		{"longitude west", 18, 4, 6.96, "W", -18.0686},
		{"zero", 0, 0, 0, "N", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dmsToDecimal(tt.deg, tt.min, tt.sec, tt.ref)
			if math.Abs(got-tt.want) > 1e-5 {
				t.Errorf("dmsToDecimal(%g,%g,%g,%q) = %v, want %v",
					tt.deg, tt.min, tt.sec, tt.ref, got, tt.want)
			}
		})
	}
}

func TestDMSToDecimal_SignSymmetry(t *testing.T) {
	north := dmsToDecimal(59, 19, 45.48, "N")
	south := dmsToDecimal(59, 19, 45.48, "S")
	if north != -south {
		t.Errorf("expected N and S to be negations, got %v and %v", north, south)
	}
}

func TestSignedAltitude(t *testing.T) {
	if got := signedAltitude(50.0, 0); got != 50.0 {
		t.Errorf("above sea level: got %v, want 50.0", got)
	}
	if got := signedAltitude(50.0, 1); got != -50.0 {
		t.Errorf("below sea level: got %v, want -50.0", got)
	}
}

func TestExtract_NoExifData(t *testing.T) {
	// A PNG signature carries no EXIF block at all.
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	_, err := Extract(bytes.NewReader(png))
	if !errors.Is(err, ErrNoGPSData) {
		t.Errorf("expected ErrNoGPSData, got %v", err)
	}
}

func TestExtract_GarbageInput(t *testing.T) {
	_, err := Extract(strings.NewReader("not an image at all"))
	if !errors.Is(err, ErrNoGPSData) {
		t.Errorf("expected ErrNoGPSData, got %v", err)
	}
}

func TestExtractFile_MissingFile(t *testing.T) {
	_, err := ExtractFile("/nonexistent/image.jpg")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrNoGPSData) {
		t.Error("open failure must not be reported as missing GPS data")
	}
}
