package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// MetricType identifies one of the supported health telemetry streams.
type MetricType string

const (
	MetricSleep     MetricType = "sleep"
	MetricHeartRate MetricType = "heart_rate"
	MetricWeight    MetricType = "weight"
)

// AllMetricTypes is sorted lexically; insight fingerprints depend on the order.
var AllMetricTypes = []MetricType{MetricHeartRate, MetricSleep, MetricWeight}

func (t MetricType) Valid() bool {
	switch t {
	case MetricSleep, MetricHeartRate, MetricWeight:
		return true
	}
	return false
}

type SleepPhases struct {
	Deep  int `json:"deep"`
	Light int `json:"light"`
	REM   int `json:"rem"`
	Awake int `json:"awake"`
}

type SleepRecord struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Quality   int         `json:"quality"` // 0–100 scale
	Phases    SleepPhases `json:"phases"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
}

// AsleepMinutes is the total time asleep, excluding awake minutes.
func (r *SleepRecord) AsleepMinutes() int {
	return r.Phases.Deep + r.Phases.Light + r.Phases.REM
}

type HeartRateRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Timestamp    time.Time `json:"timestamp"`
	Value        int       `json:"value"` // bpm
	RestingRate  *int      `json:"resting_rate,omitempty"`
	ActivityType string    `json:"activity_type,omitempty"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

type BodyComposition struct {
	BodyFat         float64  `json:"body_fat"`
	MuscleMass      float64  `json:"muscle_mass"`
	WaterPercentage float64  `json:"water_percentage"`
	BoneMass        *float64 `json:"bone_mass,omitempty"`
}

type WeightRecord struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Timestamp       time.Time        `json:"timestamp"`
	Value           float64          `json:"value"` // kg
	BMI             *float64         `json:"bmi,omitempty"`
	BodyComposition *BodyComposition `json:"body_composition,omitempty"`
	Source          string           `json:"source"`
	CreatedAt       time.Time        `json:"created_at"`
}

// DailySummary is the reduced statistical view of one metric type for one
// calendar day. Min/Max/Mean are nil when SampleCount is zero so callers can
// tell "no data" apart from "not requested". Extra holds type-specific
// derived values (total_sleep_minutes, avg_quality, avg_resting_rate, ...).
type DailySummary struct {
	Date        time.Time          `json:"date"` // midnight in the aggregation zone
	MetricType  MetricType         `json:"metric_type"`
	SampleCount int                `json:"sample_count"`
	Min         *float64           `json:"min,omitempty"`
	Max         *float64           `json:"max,omitempty"`
	Mean        *float64           `json:"mean,omitempty"`
	Extra       map[string]float64 `json:"extra,omitempty"`
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"` // exclusive
}

// Insight is generated natural-language analysis for a time range.
// Immutable once written; changed underlying data produces a new fingerprint
// and a new Insight rather than mutating an existing one.
type Insight struct {
	Fingerprint     string    `json:"fingerprint"`
	TimeRange       TimeRange `json:"time_range"`
	GeneratedText   string    `json:"generated_text"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	Concerns        []string  `json:"concerns"`
	GeneratedAt     time.Time `json:"generated_at"`
	ModelVersion    string    `json:"model_version"`
	Truncated       bool      `json:"truncated,omitempty"`
}
