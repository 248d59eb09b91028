package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/storage"
)

// Aggregator reduces raw records into one DailySummary per calendar day.
// Days are computed in loc so "daily" matches the user-facing calendar
// rather than UTC truncation.
type Aggregator struct {
	store storage.MetricRepository
	loc   *time.Location
}

func NewAggregator(store storage.MetricRepository, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{store: store, loc: loc}
}

func (a *Aggregator) Location() *time.Location { return a.loc }

// dayStart truncates t to midnight in the aggregation zone.
func (a *Aggregator) dayStart(t time.Time) time.Time {
	y, m, d := t.In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

// sample is one record's contribution to a day bucket.
type sample struct {
	day   time.Time
	value float64
	// optional secondary observations folded into DailySummary.Extra
	quality *float64 // sleep
	resting *float64 // heart rate
	bmi     *float64 // weight
}

// Aggregate returns exactly one summary per calendar day intersecting
// [start, end), in date order. Days without records are included with
// SampleCount == 0 and nil aggregates. Sleep sessions straddling midnight
// belong to the day containing their start time.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, t internal.MetricType, start, end time.Time) ([]internal.DailySummary, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s after end %s", internal.ErrInvalidRange, start, end)
	}

	samples, err := a.fetch(ctx, userID, t, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrStoreUnavailable, err)
	}

	buckets := make(map[time.Time][]sample)
	for _, s := range samples {
		buckets[s.day] = append(buckets[s.day], s)
	}

	var out []internal.DailySummary
	for day := a.dayStart(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		out = append(out, reduceDay(day, t, buckets[day]))
	}
	return out, nil
}

func (a *Aggregator) fetch(ctx context.Context, userID string, t internal.MetricType, start, end time.Time) ([]sample, error) {
	switch t {
	case internal.MetricSleep:
		recs, err := a.store.QuerySleep(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
		samples := make([]sample, 0, len(recs))
		for i := range recs {
			r := &recs[i]
			q := float64(r.Quality)
			samples = append(samples, sample{
				day:     a.dayStart(r.StartTime),
				value:   float64(r.AsleepMinutes()),
				quality: &q,
			})
		}
		return samples, nil
	case internal.MetricHeartRate:
		recs, err := a.store.QueryHeartRate(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
		samples := make([]sample, 0, len(recs))
		for _, r := range recs {
			s := sample{day: a.dayStart(r.Timestamp), value: float64(r.Value)}
			if r.RestingRate != nil {
				v := float64(*r.RestingRate)
				s.resting = &v
			}
			samples = append(samples, s)
		}
		return samples, nil
	case internal.MetricWeight:
		recs, err := a.store.QueryWeight(ctx, userID, start, end)
		if err != nil {
			return nil, err
		}
		samples := make([]sample, 0, len(recs))
		for _, r := range recs {
			s := sample{day: a.dayStart(r.Timestamp), value: r.Value}
			if r.BMI != nil {
				v := *r.BMI
				s.bmi = &v
			}
			samples = append(samples, s)
		}
		return samples, nil
	default:
		return nil, fmt.Errorf("unsupported metric type %q", t)
	}
}

func reduceDay(day time.Time, t internal.MetricType, samples []sample) internal.DailySummary {
	summary := internal.DailySummary{Date: day, MetricType: t, SampleCount: len(samples)}
	if len(samples) == 0 {
		return summary
	}

	min, max, sum := samples[0].value, samples[0].value, 0.0
	var qualitySum, qualityN, restingSum, restingN, bmiSum, bmiN float64
	for _, s := range samples {
		if s.value < min {
			min = s.value
		}
		if s.value > max {
			max = s.value
		}
		sum += s.value
		if s.quality != nil {
			qualitySum += *s.quality
			qualityN++
		}
		if s.resting != nil {
			restingSum += *s.resting
			restingN++
		}
		if s.bmi != nil {
			bmiSum += *s.bmi
			bmiN++
		}
	}
	mean := sum / float64(len(samples))
	summary.Min, summary.Max, summary.Mean = &min, &max, &mean

	extra := map[string]float64{}
	switch t {
	case internal.MetricSleep:
		extra["total_sleep_minutes"] = sum
		if qualityN > 0 {
			extra["avg_quality"] = qualitySum / qualityN
		}
	case internal.MetricHeartRate:
		if restingN > 0 {
			extra["avg_resting_rate"] = restingSum / restingN
		}
	case internal.MetricWeight:
		if bmiN > 0 {
			extra["avg_bmi"] = bmiSum / bmiN
		}
	}
	if len(extra) > 0 {
		summary.Extra = extra
	}
	return summary
}
