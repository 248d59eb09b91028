package storage

import (
	"context"
	"time"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

// MetricRepository is the durable store of raw telemetry records. Records are
// immutable once saved. Query methods take a half-open [start, end) interval
// and return records ordered by timestamp ascending; sleep sessions are
// keyed and ordered by their start time.
type MetricRepository interface {
	SaveSleep(ctx context.Context, rec *internal.SleepRecord) error
	SaveHeartRate(ctx context.Context, rec *internal.HeartRateRecord) error
	SaveWeight(ctx context.Context, rec *internal.WeightRecord) error

	QuerySleep(ctx context.Context, userID string, start, end time.Time) ([]internal.SleepRecord, error)
	QueryHeartRate(ctx context.Context, userID string, start, end time.Time) ([]internal.HeartRateRecord, error)
	QueryWeight(ctx context.Context, userID string, start, end time.Time) ([]internal.WeightRecord, error)
}
