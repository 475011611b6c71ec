// Package extract scans a directory of geotagged images and produces the
// interchange record list consumed by the IFC exporter.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rosbache/afry-img2ifc/internal/config"
	"github.com/rosbache/afry-img2ifc/internal/exifgps"
	"github.com/rosbache/afry-img2ifc/internal/geo"
	"github.com/rosbache/afry-img2ifc/internal/models"
)

// ErrDirectoryNotFound is the only fatal condition for an extraction run.
var ErrDirectoryNotFound = errors.New("input directory not found")

// Extractor reads GPS metadata from a single image file.
type Extractor interface {
	ExtractFile(path string) (*exifgps.Info, error)
}

// Projector converts geographic coordinates into the target CRS. Validate
// reports whether the pair is usable at all.
type Projector interface {
	Transform(sourceCRS, targetCRS string, lon, lat float64) (x, y float64, err error)
	Validate(sourceCRS, targetCRS string) error
}

// RecordStore persists produced records. Optional; used by the hosting server
// to keep batch history.
type RecordStore interface {
	Add(ctx context.Context, batch string, r *models.ImageRecord) error
}

// Result summarizes one extraction batch. Failed and NoGPS count files that
// were seen but produced no placeable record.
type Result struct {
	Candidates int
	Processed  int
	NoGPS      int
	Failed     int
	Records    []models.ImageRecord
}

type Builder struct {
	cfg       config.ExtractConfig
	extractor Extractor
	projector Projector
	store     RecordStore
}

func New(cfg config.ExtractConfig) *Builder {
	return &Builder{
		cfg:       cfg,
		extractor: fileExtractor{},
		projector: geo.NewProjector(),
	}
}

// WithStore attaches a record store that receives every produced record.
func (b *Builder) WithStore(store RecordStore) *Builder {
	b.store = store
	return b
}

// Run processes every supported image in inputDir sequentially. Per-file
// failures are logged and counted, never fatal; a missing input directory is
// the only fatal error. When outputJSON is non-empty the full record list is
// also written there as the interchange artifact.
func (b *Builder) Run(ctx context.Context, inputDir, outputJSON string) (*Result, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, inputDir)
		}
		return nil, fmt.Errorf("error reading input directory: %w", err)
	}

	// A CRS pair that cannot be resolved is a configuration error for the
	// whole batch, reported once instead of once per image.
	if err := b.projector.Validate(b.cfg.SourceCRS, b.cfg.TargetCRS); err != nil {
		return nil, fmt.Errorf("error validating coordinate systems: %w", err)
	}

	result := &Result{Records: []models.ImageRecord{}}
	batch := filepath.Base(inputDir)

	for _, entry := range entries {
		if entry.IsDir() || !b.supported(entry.Name()) {
			continue
		}
		result.Candidates++

		record, err := b.processFile(inputDir, entry.Name())
		if err != nil {
			if errors.Is(err, exifgps.ErrNoGPSData) {
				result.NoGPS++
				if !b.cfg.IncludeNoGPS {
					slog.Debug("skipping image without GPS data", "file", entry.Name())
					continue
				}
			} else {
				result.Failed++
				slog.Warn("skipping unprocessable image", "file", entry.Name(), "error", err)
				continue
			}
		}

		result.Records = append(result.Records, *record)
		result.Processed++

		if b.store != nil {
			if err := b.store.Add(ctx, batch, record); err != nil {
				slog.Warn("error persisting record", "file", record.Filename, "error", err)
			}
		}
	}

	if outputJSON != "" {
		if err := models.WriteRecords(outputJSON, result.Records); err != nil {
			return nil, err
		}
	}

	slog.Info("extraction complete",
		"candidates", result.Candidates,
		"processed", result.Processed,
		"no_gps", result.NoGPS,
		"failed", result.Failed)
	return result, nil
}

// processFile builds one record. A returned record together with
// exifgps.ErrNoGPSData means the file was readable but carries no GPS tags;
// the caller decides whether to keep it.
func (b *Builder) processFile(dir, name string) (*models.ImageRecord, error) {
	path := filepath.Join(dir, name)

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file info: %w", err)
	}

	record := &models.ImageRecord{
		Filename:       name,
		ImageURL:       b.imageURL(path, name),
		Filesize:       stat.Size(),
		ProcessingDate: time.Now().Format(time.RFC3339),
	}
	if abs, err := filepath.Abs(path); err == nil {
		record.Filepath = abs
	}

	info, err := b.extractor.ExtractFile(path)
	if err != nil {
		if errors.Is(err, exifgps.ErrNoGPSData) {
			return record, err
		}
		return nil, err
	}

	record.HasGPS = true
	record.Latitude = &info.Latitude
	record.Longitude = &info.Longitude
	elevation := info.Elevation
	record.Elevation = &elevation
	record.DateTaken = info.DateTaken

	x, y, err := b.projector.Transform(b.cfg.SourceCRS, b.cfg.TargetCRS, info.Longitude, info.Latitude)
	if err != nil {
		// The record cannot be placed without transformed coordinates.
		return nil, fmt.Errorf("error projecting %s: %w", name, err)
	}
	z := elevation
	record.TransformedX = &x
	record.TransformedY = &y
	record.TransformedZ = &z
	record.CoordinateSystem = b.cfg.TargetCRS

	slog.Debug("processed image",
		"file", name,
		"latitude", info.Latitude,
		"longitude", info.Longitude,
		"x", x,
		"y", y)
	return record, nil
}

func (b *Builder) imageURL(path, name string) string {
	if b.cfg.BaseImageURL != "" {
		return strings.TrimSuffix(b.cfg.BaseImageURL, "/") + "/" + name
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}

func (b *Builder) supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".tiff", ".tif":
		return true
	case ".bmp", ".gif":
		return b.cfg.ExtendedFormats
	}
	return false
}

type fileExtractor struct{}

func (fileExtractor) ExtractFile(path string) (*exifgps.Info, error) {
	return exifgps.ExtractFile(path)
}
