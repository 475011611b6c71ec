package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImageRecord is the interchange schema between extraction and IFC export.
// It is written as an ordered JSON array (processed_images.json) so the two
// steps can run in separate invocations.
type ImageRecord struct {
	Filename       string `json:"filename"`
	Filepath       string `json:"filepath,omitempty"`
	ImageURL       string `json:"image_url"`
	Filesize       int64  `json:"filesize,omitempty"`
	ProcessingDate string `json:"processing_date,omitempty"`
	HasGPS         bool   `json:"has_gps"`
	DateTaken      string `json:"date_taken,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`

	// Coordinates in the target CRS, meters. All three must be present for
	// the record to be placeable as a marker.
	TransformedX *float64 `json:"transformed_x,omitempty"`
	TransformedY *float64 `json:"transformed_y,omitempty"`
	TransformedZ *float64 `json:"transformed_z,omitempty"`

	CoordinateSystem string `json:"coordinate_system,omitempty"`
}

// HasTransformed reports whether the record carries a complete set of
// transformed coordinates.
func (r *ImageRecord) HasTransformed() bool {
	return r.TransformedX != nil && r.TransformedY != nil && r.TransformedZ != nil
}

// ElevationOrZero returns the elevation, defaulting to 0 when absent.
func (r *ImageRecord) ElevationOrZero() float64 {
	if r.Elevation == nil {
		return 0
	}
	return *r.Elevation
}

// LatitudeOrZero returns the latitude, defaulting to 0 when absent.
func (r *ImageRecord) LatitudeOrZero() float64 {
	if r.Latitude == nil {
		return 0
	}
	return *r.Latitude
}

// LongitudeOrZero returns the longitude, defaulting to 0 when absent.
func (r *ImageRecord) LongitudeOrZero() float64 {
	if r.Longitude == nil {
		return 0
	}
	return *r.Longitude
}

// ReadRecords loads an interchange file written by WriteRecords.
func ReadRecords(path string) ([]ImageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading records file: %w", err)
	}

	var records []ImageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error parsing records file %s: %w", path, err)
	}
	return records, nil
}

// WriteRecords persists the record list as an ordered, indented JSON array.
func WriteRecords(path string, records []ImageRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding records: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("error writing records file: %w", err)
	}
	return nil
}
