// Package db stores occupancy readings in sqlite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/heatsense/occupancy.report/internal/thermal"
)

// DB wraps the sqlite handle for the readings store.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if necessary) the readings database at path and
// applies any pending migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc sqlite is not safe for concurrent writers over one connection
	// pool without WAL.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// StoredReading is one persisted reading row with its clusters.
type StoredReading struct {
	ReadingID       string            `json:"reading_id"`
	SensorID        string            `json:"sensor_id"`
	CapturedAt      time.Time         `json:"captured_at"`
	OccupantCount   int               `json:"occupant_count"`
	AmbientEstimate float64           `json:"ambient_estimate"`
	Clusters        []thermal.Cluster `json:"clusters,omitempty"`
}

// RecordReading persists one reading and its qualifying clusters in a single
// transaction. Returns the generated reading id.
func (db *DB) RecordReading(ctx context.Context, r *thermal.Reading) (string, error) {
	id := uuid.New().String()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sensorID := r.SensorID
	if sensorID == "" {
		sensorID = "default"
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO readings (reading_id, sensor_id, captured_at, occupant_count, ambient_estimate)
		 VALUES (?, ?, ?, ?, ?)`,
		id, sensorID, r.Timestamp.UTC(), r.OccupantCount, r.AmbientEstimate,
	); err != nil {
		return "", fmt.Errorf("failed to insert reading: %w", err)
	}

	for _, c := range r.Clusters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reading_clusters (reading_id, cluster_id, size, centroid_row, centroid_col, peak_temperature, mean_temperature)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, c.ID, c.Size, c.CentroidRow, c.CentroidCol, c.PeakTemp, c.MeanTemp,
		); err != nil {
			return "", fmt.Errorf("failed to insert cluster %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit reading: %w", err)
	}
	return id, nil
}

// RecentReadings returns the most recent readings, newest first, with their
// clusters attached.
func (db *DB) RecentReadings(ctx context.Context, limit int) ([]StoredReading, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT reading_id, sensor_id, captured_at, occupant_count, ambient_estimate
		 FROM readings ORDER BY captured_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []StoredReading
	for rows.Next() {
		var r StoredReading
		if err := rows.Scan(&r.ReadingID, &r.SensorID, &r.CapturedAt, &r.OccupantCount, &r.AmbientEstimate); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range readings {
		clusters, err := db.readingClusters(ctx, readings[i].ReadingID)
		if err != nil {
			return nil, err
		}
		readings[i].Clusters = clusters
	}
	return readings, nil
}

func (db *DB) readingClusters(ctx context.Context, readingID string) ([]thermal.Cluster, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT cluster_id, size, centroid_row, centroid_col, peak_temperature, mean_temperature
		 FROM reading_clusters WHERE reading_id = ? ORDER BY cluster_id`, readingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	defer rows.Close()

	var clusters []thermal.Cluster
	for rows.Next() {
		var c thermal.Cluster
		if err := rows.Scan(&c.ID, &c.Size, &c.CentroidRow, &c.CentroidCol, &c.PeakTemp, &c.MeanTemp); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// OccupancyPoint is one sample of the occupancy time series.
type OccupancyPoint struct {
	CapturedAt    time.Time `json:"captured_at"`
	OccupantCount int       `json:"occupant_count"`
	Ambient       float64   `json:"ambient_estimate"`
}

// OccupancySeries returns occupancy over time since the given instant,
// oldest first, for charting.
func (db *DB) OccupancySeries(ctx context.Context, since time.Time) ([]OccupancyPoint, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT captured_at, occupant_count, ambient_estimate
		 FROM readings WHERE captured_at >= ? ORDER BY captured_at ASC`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy series: %w", err)
	}
	defer rows.Close()

	var points []OccupancyPoint
	for rows.Next() {
		var p OccupancyPoint
		if err := rows.Scan(&p.CapturedAt, &p.OccupantCount, &p.Ambient); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
