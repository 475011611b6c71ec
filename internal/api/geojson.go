package api

import (
	"github.com/rosbache/afry-img2ifc/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON maps geotagged records to point features. Records without GPS
// have no geometry to offer and are left out.
func toGeoJSON(records []models.ImageRecord) FeatureCollection {
	features := make([]Feature, 0, len(records))

	for _, r := range records {
		if !r.HasGPS || r.Latitude == nil || r.Longitude == nil {
			continue
		}

		props := map[string]any{
			"filename":  r.Filename,
			"image_url": r.ImageURL,
			"elevation": r.ElevationOrZero(),
		}
		if r.DateTaken != "" {
			props["date_taken"] = r.DateTaken
		}
		if r.HasTransformed() {
			props["transformed_x"] = *r.TransformedX
			props["transformed_y"] = *r.TransformedY
			props["transformed_z"] = *r.TransformedZ
			props["coordinate_system"] = r.CoordinateSystem
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{*r.Longitude, *r.Latitude},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
