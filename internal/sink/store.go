package sink

import (
	"context"

	"github.com/heatsense/occupancy.report/internal/db"
	"github.com/heatsense/occupancy.report/internal/thermal"
)

// StoreSink persists readings to the sqlite store.
type StoreSink struct {
	DB *db.DB
}

// NewStoreSink creates a sink writing to the given store.
func NewStoreSink(database *db.DB) *StoreSink {
	return &StoreSink{DB: database}
}

// Report records the reading.
func (s *StoreSink) Report(ctx context.Context, r *thermal.Reading) error {
	_, err := s.DB.RecordReading(ctx, r)
	return err
}
