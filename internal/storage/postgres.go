package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStorage) SaveSleep(ctx context.Context, rec *internal.SleepRecord) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sleep_records
		(id, user_id, start_time, end_time, quality, deep_sleep, light_sleep, rem_sleep, awake_time, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.UserID, rec.StartTime, rec.EndTime, rec.Quality,
		rec.Phases.Deep, rec.Phases.Light, rec.Phases.REM, rec.Phases.Awake,
		rec.Source, rec.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert sleep record: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) SaveHeartRate(ctx context.Context, rec *internal.HeartRateRecord) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO heart_rate_records
		(id, user_id, ts, value, resting_rate, activity_type, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.UserID, rec.Timestamp, rec.Value, rec.RestingRate,
		rec.ActivityType, rec.Source, rec.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert heart rate record: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) SaveWeight(ctx context.Context, rec *internal.WeightRecord) error {
	var bodyFat, muscleMass, waterPct, boneMass *float64
	if bc := rec.BodyComposition; bc != nil {
		bodyFat, muscleMass, waterPct = &bc.BodyFat, &bc.MuscleMass, &bc.WaterPercentage
		boneMass = bc.BoneMass
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO weight_records
		(id, user_id, ts, value, bmi, body_fat, muscle_mass, water_percentage, bone_mass, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.UserID, rec.Timestamp, rec.Value, rec.BMI,
		bodyFat, muscleMass, waterPct, boneMass, rec.Source, rec.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert weight record: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) QuerySleep(ctx context.Context, userID string, start, end time.Time) ([]internal.SleepRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, start_time, end_time, quality,
		deep_sleep, light_sleep, rem_sleep, awake_time, source, created_at
		FROM sleep_records WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC`, userID, start, end)
	if err != nil {
		p.logger.Errorf("failed to query sleep records: %v", err)
		return nil, err
	}
	defer rows.Close()

	recs := []internal.SleepRecord{}
	for rows.Next() {
		var r internal.SleepRecord
		err := rows.Scan(&r.ID, &r.UserID, &r.StartTime, &r.EndTime, &r.Quality,
			&r.Phases.Deep, &r.Phases.Light, &r.Phases.REM, &r.Phases.Awake,
			&r.Source, &r.CreatedAt)
		if err != nil {
			p.logger.Errorf("failed to scan sleep record: %v", err)
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (p *PostgresStorage) QueryHeartRate(ctx context.Context, userID string, start, end time.Time) ([]internal.HeartRateRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, ts, value, resting_rate, activity_type, source, created_at
		FROM heart_rate_records WHERE user_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC`, userID, start, end)
	if err != nil {
		p.logger.Errorf("failed to query heart rate records: %v", err)
		return nil, err
	}
	defer rows.Close()

	recs := []internal.HeartRateRecord{}
	for rows.Next() {
		var r internal.HeartRateRecord
		err := rows.Scan(&r.ID, &r.UserID, &r.Timestamp, &r.Value, &r.RestingRate,
			&r.ActivityType, &r.Source, &r.CreatedAt)
		if err != nil {
			p.logger.Errorf("failed to scan heart rate record: %v", err)
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (p *PostgresStorage) QueryWeight(ctx context.Context, userID string, start, end time.Time) ([]internal.WeightRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, ts, value, bmi,
		body_fat, muscle_mass, water_percentage, bone_mass, source, created_at
		FROM weight_records WHERE user_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC`, userID, start, end)
	if err != nil {
		p.logger.Errorf("failed to query weight records: %v", err)
		return nil, err
	}
	defer rows.Close()

	recs := []internal.WeightRecord{}
	for rows.Next() {
		var r internal.WeightRecord
		var bodyFat, muscleMass, waterPct, boneMass *float64
		err := rows.Scan(&r.ID, &r.UserID, &r.Timestamp, &r.Value, &r.BMI,
			&bodyFat, &muscleMass, &waterPct, &boneMass, &r.Source, &r.CreatedAt)
		if err != nil {
			p.logger.Errorf("failed to scan weight record: %v", err)
			return nil, err
		}
		if bodyFat != nil && muscleMass != nil && waterPct != nil {
			r.BodyComposition = &internal.BodyComposition{
				BodyFat:         *bodyFat,
				MuscleMass:      *muscleMass,
				WaterPercentage: *waterPct,
				BoneMass:        boneMass,
			}
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// --- Compile-time assertions ---
var _ MetricRepository = (*PostgresStorage)(nil)
