package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

// FileStorage keeps all records in memory indexed per user and persists each
// metric type to its own JSON file through a debounced background worker.
// Writes go to a temp file first and are renamed into place.
type FileStorage struct {
	sleep  map[string][]*internal.SleepRecord     // userID -> records, ascending by StartTime
	heart  map[string][]*internal.HeartRateRecord // userID -> records, ascending by Timestamp
	weight map[string][]*internal.WeightRecord    // userID -> records, ascending by Timestamp
	mu     sync.RWMutex

	sleepFile  string
	heartFile  string
	weightFile string

	saveSleepChan  chan struct{}
	saveHeartChan  chan struct{}
	saveWeightChan chan struct{}
	shutdownChan   chan struct{}
	saveDelay      time.Duration
	logger         internal.Logger
}

func NewFileStorage(sleepFile, heartFile, weightFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		sleep:          make(map[string][]*internal.SleepRecord),
		heart:          make(map[string][]*internal.HeartRateRecord),
		weight:         make(map[string][]*internal.WeightRecord),
		sleepFile:      sleepFile,
		heartFile:      heartFile,
		weightFile:     weightFile,
		saveSleepChan:  make(chan struct{}, 1),
		saveHeartChan:  make(chan struct{}, 1),
		saveWeightChan: make(chan struct{}, 1),
		shutdownChan:   make(chan struct{}),
		saveDelay:      500 * time.Millisecond,
		logger:         logger,
	}

	if err := s.loadAll(); err != nil {
		logger.Errorf("storage: failed to load records: %v", err)
		return nil, err
	}

	go s.saveWorker(s.saveSleepChan, s.saveSleep)
	go s.saveWorker(s.saveHeartChan, s.saveHeart)
	go s.saveWorker(s.saveWeightChan, s.saveWeight)

	return s, nil
}

func loadJSONFile[T any](path string) ([]*T, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var out []*T
	if err := json.NewDecoder(file).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (s *FileStorage) loadAll() error {
	sleeps, err := loadJSONFile[internal.SleepRecord](s.sleepFile)
	if err != nil {
		return err
	}
	hearts, err := loadJSONFile[internal.HeartRateRecord](s.heartFile)
	if err != nil {
		return err
	}
	weights, err := loadJSONFile[internal.WeightRecord](s.weightFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range sleeps {
		s.sleep[r.UserID] = append(s.sleep[r.UserID], r)
	}
	for _, r := range hearts {
		s.heart[r.UserID] = append(s.heart[r.UserID], r)
	}
	for _, r := range weights {
		s.weight[r.UserID] = append(s.weight[r.UserID], r)
	}
	for userID := range s.sleep {
		recs := s.sleep[userID]
		sort.Slice(recs, func(i, j int) bool { return recs[i].StartTime.Before(recs[j].StartTime) })
	}
	for userID := range s.heart {
		recs := s.heart[userID]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	}
	for userID := range s.weight {
		recs := s.weight[userID]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveSleep() error {
	s.mu.RLock()
	recs := make([]*internal.SleepRecord, 0)
	for _, userRecs := range s.sleep {
		recs = append(recs, userRecs...)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.sleepFile, recs)
}

func (s *FileStorage) saveHeart() error {
	s.mu.RLock()
	recs := make([]*internal.HeartRateRecord, 0)
	for _, userRecs := range s.heart {
		recs = append(recs, userRecs...)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.heartFile, recs)
}

func (s *FileStorage) saveWeight() error {
	s.mu.RLock()
	recs := make([]*internal.WeightRecord, 0)
	for _, userRecs := range s.weight {
		recs = append(recs, userRecs...)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.weightFile, recs)
}

func (s *FileStorage) saveWorker(trigger <-chan struct{}, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-trigger:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving records: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	// Flush pending data synchronously on shutdown.
	if err := s.saveSleep(); err != nil {
		return err
	}
	if err := s.saveHeart(); err != nil {
		return err
	}
	return s.saveWeight()
}

func signalSave(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// insertSorted keeps a user's slice ordered ascending by the given key.
func insertSorted[T any](recs []*T, rec *T, at func(*T) time.Time) []*T {
	i := sort.Search(len(recs), func(i int) bool { return at(recs[i]).After(at(rec)) })
	recs = append(recs, nil)
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	return recs
}

// --- MetricRepository ---

func (s *FileStorage) SaveSleep(ctx context.Context, rec *internal.SleepRecord) error {
	s.mu.Lock()
	s.sleep[rec.UserID] = insertSorted(s.sleep[rec.UserID], rec,
		func(r *internal.SleepRecord) time.Time { return r.StartTime })
	s.mu.Unlock()
	signalSave(s.saveSleepChan)
	return nil
}

func (s *FileStorage) SaveHeartRate(ctx context.Context, rec *internal.HeartRateRecord) error {
	s.mu.Lock()
	s.heart[rec.UserID] = insertSorted(s.heart[rec.UserID], rec,
		func(r *internal.HeartRateRecord) time.Time { return r.Timestamp })
	s.mu.Unlock()
	signalSave(s.saveHeartChan)
	return nil
}

func (s *FileStorage) SaveWeight(ctx context.Context, rec *internal.WeightRecord) error {
	s.mu.Lock()
	s.weight[rec.UserID] = insertSorted(s.weight[rec.UserID], rec,
		func(r *internal.WeightRecord) time.Time { return r.Timestamp })
	s.mu.Unlock()
	signalSave(s.saveWeightChan)
	return nil
}

func (s *FileStorage) QuerySleep(ctx context.Context, userID string, start, end time.Time) ([]internal.SleepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.SleepRecord{}
	for _, r := range s.sleep[userID] {
		if !r.StartTime.Before(start) && r.StartTime.Before(end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *FileStorage) QueryHeartRate(ctx context.Context, userID string, start, end time.Time) ([]internal.HeartRateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.HeartRateRecord{}
	for _, r := range s.heart[userID] {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *FileStorage) QueryWeight(ctx context.Context, userID string, start, end time.Time) ([]internal.WeightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.WeightRecord{}
	for _, r := range s.weight[userID] {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

// --- Compile-time assertions ---
var _ MetricRepository = (*FileStorage)(nil)
