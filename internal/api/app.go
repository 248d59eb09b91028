package api

import (
	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/insight"
	"github.com/FloatinggOnion/vogu-health-be/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Metrics() storage.MetricRepository
	Insights() *insight.Service
}
