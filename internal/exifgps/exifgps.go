// Package exifgps reads GPS position and capture metadata out of image files.
package exifgps

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoGPSData marks images without a usable GPS tag set. It is a per-image,
// recoverable condition: the caller decides whether to skip the image or keep
// it without coordinates.
var ErrNoGPSData = errors.New("no GPS data")

// Info is the structured result of a successful extraction.
type Info struct {
	Latitude  float64 // signed decimal degrees, WGS84
	Longitude float64 // signed decimal degrees, WGS84
	Elevation float64 // meters, negative below sea level, 0 when absent
	DateTaken string  // raw capture timestamp as stored in EXIF, "" when absent
}

// ExtractFile opens path and extracts GPS metadata from it.
func ExtractFile(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()

	return Extract(f)
}

// Extract decodes the EXIF tag set from r and converts the GPS sub-block into
// signed decimal degrees plus elevation. Formats without EXIF support, or tag
// sets missing any of the four latitude/longitude tags, yield ErrNoGPSData.
func Extract(r io.Reader) (*Info, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGPSData, err)
	}

	lat, err := coordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	if err != nil {
		return nil, err
	}
	lon, err := coordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if err != nil {
		return nil, err
	}

	return &Info{
		Latitude:  lat,
		Longitude: lon,
		Elevation: elevation(x),
		DateTaken: dateTaken(x),
	}, nil
}

// coordinate reads one DMS value plus its hemisphere reference and returns
// signed decimal degrees.
func coordinate(x *exif.Exif, valueField, refField exif.FieldName) (float64, error) {
	valueTag, err := x.Get(valueField)
	if err != nil {
		return 0, fmt.Errorf("%w: missing %s", ErrNoGPSData, valueField)
	}
	refTag, err := x.Get(refField)
	if err != nil {
		return 0, fmt.Errorf("%w: missing %s", ErrNoGPSData, refField)
	}
	ref, err := refTag.StringVal()
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable %s", ErrNoGPSData, refField)
	}

	deg, err := component(valueTag, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable %s", ErrNoGPSData, valueField)
	}
	min, err := component(valueTag, 1)
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable %s", ErrNoGPSData, valueField)
	}
	sec, err := component(valueTag, 2)
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable %s", ErrNoGPSData, valueField)
	}

	return dmsToDecimal(deg, min, sec, ref), nil
}

// dmsToDecimal converts a degree/minute/second triple to decimal degrees.
// The hemisphere sign is applied after the conversion, never before.
func dmsToDecimal(deg, min, sec float64, ref string) float64 {
	decimal := deg + min/60.0 + sec/3600.0
	if ref == "S" || ref == "W" {
		decimal = -decimal
	}
	return decimal
}

// component reads the i'th value of a tag as a float, preferring the
// numerator/denominator encoding with a plain integer fallback.
func component(tag *tiff.Tag, i int) (float64, error) {
	if num, den, err := tag.Rat2(i); err == nil {
		if den == 0 {
			return 0, fmt.Errorf("zero denominator in rational component")
		}
		return float64(num) / float64(den), nil
	}
	v, err := tag.Int64(i)
	if err != nil {
		return 0, err
	}
	return float64(v), nil
}

// elevation reads GPSAltitude and its reference flag. Reference value 1 means
// below sea level and negates the altitude. Any parse failure yields 0:
// elevation is optional metadata and never blocks GPS extraction.
func elevation(x *exif.Exif) float64 {
	altTag, err := x.Get(exif.GPSAltitude)
	if err != nil {
		return 0
	}
	alt, err := component(altTag, 0)
	if err != nil {
		return 0
	}

	ref := 0
	if refTag, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if v, err := refTag.Int(0); err == nil {
			ref = v
		}
	}
	return signedAltitude(alt, ref)
}

// signedAltitude applies the altitude reference flag: 1 means below sea
// level.
func signedAltitude(alt float64, ref int) float64 {
	if ref == 1 {
		return -alt
	}
	return alt
}

// dateTaken prefers the original capture time over the generic modified time.
func dateTaken(x *exif.Exif) string {
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		if tag, err := x.Get(field); err == nil {
			if s, err := tag.StringVal(); err == nil && s != "" {
				return s
			}
		}
	}
	return ""
}
