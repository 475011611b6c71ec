package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rosbache/afry-img2ifc/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			batch TEXT NOT NULL,
			filename TEXT NOT NULL,
			filepath TEXT,
			image_url TEXT NOT NULL,
			filesize INTEGER,
			processing_date TEXT,
			has_gps INTEGER NOT NULL,
			date_taken TEXT,
			latitude REAL,
			longitude REAL,
			elevation REAL,
			transformed_x REAL,
			transformed_y REAL,
			transformed_z REAL,
			coordinate_system TEXT,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (batch, filename)
		);

		CREATE INDEX IF NOT EXISTS idx_records_has_gps ON records(has_gps);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Add upserts one record; re-running a batch overwrites its previous rows.
func (s *SQLiteDB) Add(ctx context.Context, batch string, r *models.ImageRecord) error {
	query := `
		INSERT OR REPLACE INTO records (
			batch, filename, filepath, image_url, filesize, processing_date,
			has_gps, date_taken, latitude, longitude, elevation,
			transformed_x, transformed_y, transformed_z, coordinate_system,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		batch,
		r.Filename,
		r.Filepath,
		r.ImageURL,
		r.Filesize,
		r.ProcessingDate,
		r.HasGPS,
		r.DateTaken,
		nullableFloat(r.Latitude),
		nullableFloat(r.Longitude),
		nullableFloat(r.Elevation),
		nullableFloat(r.TransformedX),
		nullableFloat(r.TransformedY),
		nullableFloat(r.TransformedZ),
		r.CoordinateSystem,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("error inserting record: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Exists(ctx context.Context, batch, filename string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM records WHERE batch = ? AND filename = ?",
		batch, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking record existence: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteDB) List(ctx context.Context, opts Filter) ([]models.ImageRecord, error) {
	query := `
		SELECT filename, filepath, image_url, filesize, processing_date,
			has_gps, date_taken, latitude, longitude, elevation,
			transformed_x, transformed_y, transformed_z, coordinate_system
		FROM records
		WHERE 1=1
	`
	args := []any{}

	if opts.Batch != "" {
		query += " AND batch = ?"
		args = append(args, opts.Batch)
	}
	if opts.HasGPS != nil {
		query += " AND has_gps = ?"
		args = append(args, *opts.HasGPS)
	}

	query += " ORDER BY batch, filename"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	defer rows.Close()

	var records []models.ImageRecord
	for rows.Next() {
		var r models.ImageRecord
		var lat, lon, elev, tx, ty, tz sql.NullFloat64

		err := rows.Scan(
			&r.Filename, &r.Filepath, &r.ImageURL, &r.Filesize, &r.ProcessingDate,
			&r.HasGPS, &r.DateTaken, &lat, &lon, &elev,
			&tx, &ty, &tz, &r.CoordinateSystem,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}

		r.Latitude = floatPtr(lat)
		r.Longitude = floatPtr(lon)
		r.Elevation = floatPtr(elev)
		r.TransformedX = floatPtr(tx)
		r.TransformedY = floatPtr(ty)
		r.TransformedZ = floatPtr(tz)

		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting records: %w", err)
	}
	return count, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
