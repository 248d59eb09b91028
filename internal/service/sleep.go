package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/storage"
)

var validate = validator.New()

type SleepPhasesRequest struct {
	Deep  int `json:"deep" validate:"gte=0"`
	Light int `json:"light" validate:"gte=0"`
	REM   int `json:"rem" validate:"gte=0"`
	Awake int `json:"awake" validate:"gte=0"`
}

type SleepRequest struct {
	StartTime time.Time          `json:"start_time" validate:"required"`
	EndTime   time.Time          `json:"end_time" validate:"required,gtfield=StartTime"`
	Quality   int                `json:"quality" validate:"gte=0,lte=100"`
	Phases    SleepPhasesRequest `json:"phases" validate:"required"`
	Source    string             `json:"source" validate:"required"`
}

func ValidateSleepRequest(body *SleepRequest) error {
	return validate.Struct(body)
}

func CreateSleepRecord(ctx context.Context, repo storage.MetricRepository, user *internal.User, body *SleepRequest) (*internal.SleepRecord, error) {
	rec := &internal.SleepRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Quality:   body.Quality,
		Phases: internal.SleepPhases{
			Deep:  body.Phases.Deep,
			Light: body.Phases.Light,
			REM:   body.Phases.REM,
			Awake: body.Phases.Awake,
		},
		Source:    body.Source,
		CreatedAt: time.Now(),
	}
	if err := repo.SaveSleep(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
