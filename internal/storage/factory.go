package storage

import (
	"fmt"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/config"
)

// New selects the repository backend from config. The returned closer flushes
// pending writes (file backend) or releases the pool (postgres).
func New(cfg *config.Config, logger internal.Logger) (MetricRepository, func() error, error) {
	switch cfg.DBType {
	case "file":
		s, err := NewFileStorage(cfg.FileSleep, cfg.FileHeart, cfg.FileWeight, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "postgres":
		s, err := NewPostgresStorage(cfg.DBDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.DBType)
	}
}
