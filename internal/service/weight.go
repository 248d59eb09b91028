package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/storage"
)

type BodyCompositionRequest struct {
	BodyFat         float64  `json:"body_fat" validate:"gte=0,lte=100"`
	MuscleMass      float64  `json:"muscle_mass" validate:"gte=0,lte=100"`
	WaterPercentage float64  `json:"water_percentage" validate:"gte=0,lte=100"`
	BoneMass        *float64 `json:"bone_mass,omitempty" validate:"omitempty,gte=0"`
}

type WeightRequest struct {
	Timestamp       time.Time               `json:"timestamp" validate:"required"`
	Value           float64                 `json:"value" validate:"required,gt=0"`
	BMI             *float64                `json:"bmi,omitempty" validate:"omitempty,gt=0"`
	BodyComposition *BodyCompositionRequest `json:"body_composition,omitempty"`
	Source          string                  `json:"source" validate:"required"`
}

func ValidateWeightRequest(body *WeightRequest) error {
	return validate.Struct(body)
}

func CreateWeightRecord(ctx context.Context, repo storage.MetricRepository, user *internal.User, body *WeightRequest) (*internal.WeightRecord, error) {
	rec := &internal.WeightRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Timestamp: body.Timestamp,
		Value:     body.Value,
		BMI:       body.BMI,
		Source:    body.Source,
		CreatedAt: time.Now(),
	}
	if bc := body.BodyComposition; bc != nil {
		rec.BodyComposition = &internal.BodyComposition{
			BodyFat:         bc.BodyFat,
			MuscleMass:      bc.MuscleMass,
			WaterPercentage: bc.WaterPercentage,
			BoneMass:        bc.BoneMass,
		}
	}
	if err := repo.SaveWeight(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RecentWindow clamps days to the API bounds and returns the half-open query
// range ending now.
func RecentWindow(days int, now time.Time) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}
	if days > 30 {
		days = 30
	}
	return now.AddDate(0, 0, -days), now
}
