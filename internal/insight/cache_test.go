package insight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

func testInsight(fp string) *internal.Insight {
	return &internal.Insight{Fingerprint: fp, GeneratedText: "all good"}
}

func TestCacheSingleLeasePerFingerprint(t *testing.T) {
	c := NewCache(time.Hour, 16, internal.NopLogger{})

	var leases atomic.Int32
	var wg sync.WaitGroup
	results := make([]*internal.Insight, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := c.ReserveOrGet("fp1")
			if res.Lease != nil {
				leases.Add(1)
				time.Sleep(10 * time.Millisecond) // let other goroutines pile up as waiters
				res.Lease.Complete(testInsight("fp1"))
			}
			ins, err := res.Wait(context.Background())
			assert.NoError(t, err)
			results[i] = ins
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), leases.Load())
	for _, ins := range results {
		assert.Same(t, results[0], ins)
	}
}

func TestCacheHitAfterComplete(t *testing.T) {
	c := NewCache(time.Hour, 16, internal.NopLogger{})

	res := c.ReserveOrGet("fp1")
	require.NotNil(t, res.Lease)
	res.Lease.Complete(testInsight("fp1"))

	hit := c.ReserveOrGet("fp1")
	require.NotNil(t, hit.Insight)
	assert.Nil(t, hit.Lease)
	assert.Equal(t, "fp1", hit.Insight.Fingerprint)
}

func TestCacheFailureIsNotMemoized(t *testing.T) {
	c := NewCache(time.Hour, 16, internal.NopLogger{})

	res := c.ReserveOrGet("fp1")
	require.NotNil(t, res.Lease)
	boom := errors.New("model exploded")
	res.Lease.Fail(boom)

	_, err := res.Wait(context.Background())
	assert.ErrorIs(t, err, boom)

	// next request gets a fresh lease, not the stale failure
	retry := c.ReserveOrGet("fp1")
	assert.NotNil(t, retry.Lease)
	assert.Nil(t, retry.Insight)
}

func TestCacheWaiterTimeoutDoesNotCancelGeneration(t *testing.T) {
	c := NewCache(time.Hour, 16, internal.NopLogger{})

	res := c.ReserveOrGet("fp1")
	require.NotNil(t, res.Lease)

	waiter := c.ReserveOrGet("fp1")
	require.Nil(t, waiter.Lease)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := waiter.Wait(ctx)
	assert.ErrorIs(t, err, internal.ErrTimeout)

	// generation still completes and populates the cache
	res.Lease.Complete(testInsight("fp1"))
	hit := c.ReserveOrGet("fp1")
	require.NotNil(t, hit.Insight)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache(time.Hour, 16, internal.NopLogger{})
	now := time.Now()
	c.now = func() time.Time { return now }

	res := c.ReserveOrGet("fp1")
	require.NotNil(t, res.Lease)
	res.Lease.Complete(testInsight("fp1"))

	now = now.Add(30 * time.Minute)
	assert.NotNil(t, c.ReserveOrGet("fp1").Insight)

	now = now.Add(31 * time.Minute)
	stale := c.ReserveOrGet("fp1")
	assert.Nil(t, stale.Insight)
	assert.NotNil(t, stale.Lease)
}

func TestCacheSizeBoundEvictsOldestReady(t *testing.T) {
	c := NewCache(time.Hour, 2, internal.NopLogger{})
	now := time.Now()
	c.now = func() time.Time { return now }

	for _, fp := range []string{"a", "b", "c"} {
		res := c.ReserveOrGet(fp)
		require.NotNil(t, res.Lease)
		res.Lease.Complete(testInsight(fp))
		now = now.Add(time.Minute)
	}

	// reserving a fourth triggers the sweep; "a" was ready first
	res := c.ReserveOrGet("d")
	require.NotNil(t, res.Lease)
	res.Lease.Complete(testInsight("d"))

	assert.NotNil(t, c.ReserveOrGet("a").Lease, "oldest entry should have been evicted")
}

func TestCacheClear(t *testing.T) {
	c := NewCache(time.Hour, 16, internal.NopLogger{})
	res := c.ReserveOrGet("fp1")
	require.NotNil(t, res.Lease)
	res.Lease.Complete(testInsight("fp1"))
	require.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.NotNil(t, c.ReserveOrGet("fp1").Lease)
}
