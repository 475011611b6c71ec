package repository

import (
	"context"

	"github.com/rosbache/afry-img2ifc/internal/models"
)

type Filter struct {
	Limit  int
	Offset int
	Batch  string
	HasGPS *bool
}

// RecordRepository stores processed image records per extraction batch. The
// hosting server reads from it; the extractor writes to it.
type RecordRepository interface {
	Add(ctx context.Context, batch string, r *models.ImageRecord) error
	Exists(ctx context.Context, batch, filename string) (bool, error)
	List(ctx context.Context, opts Filter) ([]models.ImageRecord, error)
	Count(ctx context.Context) (int, error)
}
