package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

// fakeStore is an in-memory MetricRepository for pipeline tests.
type fakeStore struct {
	sleep  []internal.SleepRecord
	heart  []internal.HeartRateRecord
	weight []internal.WeightRecord
	err    error
}

func (f *fakeStore) SaveSleep(ctx context.Context, rec *internal.SleepRecord) error {
	f.sleep = append(f.sleep, *rec)
	return nil
}

func (f *fakeStore) SaveHeartRate(ctx context.Context, rec *internal.HeartRateRecord) error {
	f.heart = append(f.heart, *rec)
	return nil
}

func (f *fakeStore) SaveWeight(ctx context.Context, rec *internal.WeightRecord) error {
	f.weight = append(f.weight, *rec)
	return nil
}

func (f *fakeStore) QuerySleep(ctx context.Context, userID string, start, end time.Time) ([]internal.SleepRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []internal.SleepRecord
	for _, r := range f.sleep {
		if r.UserID == userID && !r.StartTime.Before(start) && r.StartTime.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) QueryHeartRate(ctx context.Context, userID string, start, end time.Time) ([]internal.HeartRateRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []internal.HeartRateRecord
	for _, r := range f.heart {
		if r.UserID == userID && !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) QueryWeight(ctx context.Context, userID string, start, end time.Time) ([]internal.WeightRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []internal.WeightRecord
	for _, r := range f.weight {
		if r.UserID == userID && !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAggregateHeartRateSingleDay(t *testing.T) {
	store := &fakeStore{heart: []internal.HeartRateRecord{
		{UserID: "u1", Timestamp: at("2024-03-20T08:00:00Z"), Value: 60},
		{UserID: "u1", Timestamp: at("2024-03-20T12:00:00Z"), Value: 70},
		{UserID: "u1", Timestamp: at("2024-03-20T18:00:00Z"), Value: 80},
	}}
	agg := NewAggregator(store, time.UTC)

	summaries, err := agg.Aggregate(context.Background(), "u1", internal.MetricHeartRate, day("2024-03-20"), day("2024-03-21"))
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 3, s.SampleCount)
	assert.InDelta(t, 60, *s.Min, 1e-9)
	assert.InDelta(t, 80, *s.Max, 1e-9)
	assert.InDelta(t, 70, *s.Mean, 1e-9)
}

func TestAggregateZeroRecordDaysArePresent(t *testing.T) {
	store := &fakeStore{weight: []internal.WeightRecord{
		{UserID: "u1", Timestamp: at("2024-03-20T07:00:00Z"), Value: 81.5},
	}}
	agg := NewAggregator(store, time.UTC)

	summaries, err := agg.Aggregate(context.Background(), "u1", internal.MetricWeight, day("2024-03-19"), day("2024-03-22"))
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, 0, summaries[0].SampleCount)
	assert.Nil(t, summaries[0].Mean)
	assert.Equal(t, 1, summaries[1].SampleCount)
	assert.InDelta(t, 81.5, *summaries[1].Mean, 1e-9)
	assert.Equal(t, 0, summaries[2].SampleCount)
	assert.Nil(t, summaries[2].Max)
}

func TestAggregateSleepStraddlingMidnight(t *testing.T) {
	store := &fakeStore{sleep: []internal.SleepRecord{{
		UserID:    "u1",
		StartTime: at("2024-03-20T22:00:00Z"),
		EndTime:   at("2024-03-21T06:00:00Z"),
		Quality:   78,
		Phases:    internal.SleepPhases{Deep: 120, Light: 240, REM: 90, Awake: 30},
	}}}
	agg := NewAggregator(store, time.UTC)

	summaries, err := agg.Aggregate(context.Background(), "u1", internal.MetricSleep, day("2024-03-20"), day("2024-03-22"))
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// The session belongs to the day it started on.
	s := summaries[0]
	assert.True(t, s.Date.Equal(day("2024-03-20")))
	assert.Equal(t, 1, s.SampleCount)
	assert.InDelta(t, 450, s.Extra["total_sleep_minutes"], 1e-9)
	assert.InDelta(t, 450, *s.Mean, 1e-9)
	assert.InDelta(t, 78, s.Extra["avg_quality"], 1e-9)

	assert.Equal(t, 0, summaries[1].SampleCount)
}

func TestAggregateInvalidRange(t *testing.T) {
	agg := NewAggregator(&fakeStore{}, time.UTC)

	_, err := agg.Aggregate(context.Background(), "u1", internal.MetricSleep, day("2024-03-22"), day("2024-03-20"))
	assert.ErrorIs(t, err, internal.ErrInvalidRange)
}

func TestAggregateStoreFailure(t *testing.T) {
	agg := NewAggregator(&fakeStore{err: errors.New("connection refused")}, time.UTC)

	_, err := agg.Aggregate(context.Background(), "u1", internal.MetricHeartRate, day("2024-03-20"), day("2024-03-21"))
	assert.ErrorIs(t, err, internal.ErrStoreUnavailable)
}
