package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/storage"
)

// Device ranges match what consumer wearables report; anything outside is a
// sensor glitch and rejected at the edge.
type HeartRateRequest struct {
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	Value        int       `json:"value" validate:"required,gte=30,lte=220"`
	RestingRate  *int      `json:"resting_rate,omitempty" validate:"omitempty,gte=30,lte=100"`
	ActivityType string    `json:"activity_type,omitempty"`
	Source       string    `json:"source" validate:"required"`
}

func ValidateHeartRateRequest(body *HeartRateRequest) error {
	return validate.Struct(body)
}

func CreateHeartRateRecord(ctx context.Context, repo storage.MetricRepository, user *internal.User, body *HeartRateRequest) (*internal.HeartRateRecord, error) {
	rec := &internal.HeartRateRecord{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Timestamp:    body.Timestamp,
		Value:        body.Value,
		RestingRate:  body.RestingRate,
		ActivityType: body.ActivityType,
		Source:       body.Source,
		CreatedAt:    time.Now(),
	}
	if err := repo.SaveHeartRate(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
