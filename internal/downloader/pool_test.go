package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igharvest/pkg/logger"
)

// MockFetcher is a mock implementation of the media fetcher
type MockFetcher struct {
	delay   time.Duration
	err     error
	counter int32
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	atomic.AddInt32(&m.counter, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return []byte("mock media data"), nil
}

func (m *MockFetcher) Count() int {
	return int(atomic.LoadInt32(&m.counter))
}

// MockStorage is a mock implementation of the storage manager
type MockStorage struct {
	saved   map[string]bool
	saveErr error
	mu      sync.Mutex
}

func NewMockStorage() *MockStorage {
	return &MockStorage{saved: make(map[string]bool)}
}

func (m *MockStorage) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[name]
}

func (m *MockStorage) Save(r io.Reader, name string) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[name] = true
	return int64(len(data)), nil
}

func (m *MockStorage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func jobs(n int) []MediaJob {
	out := make([]MediaJob, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, MediaJob{
			URL:       fmt.Sprintf("https://cdn.example.com/%d.jpg", i),
			Name:      fmt.Sprintf("alice/P%d.jpg", i),
			Shortcode: fmt.Sprintf("P%d", i),
		})
	}
	return out
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	fetcher := &MockFetcher{delay: 10 * time.Millisecond}
	storage := NewMockStorage()

	pool := NewWorkerPool(3, fetcher, storage, logger.NewNopLogger())
	pool.Start(context.Background())

	var results []MediaResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	for _, job := range jobs(10) {
		require.NoError(t, pool.Submit(job))
	}

	pool.Stop()
	wg.Wait()

	require.Len(t, results, 10)
	for _, result := range results {
		assert.NoError(t, result.Error)
		assert.False(t, result.Skipped)
		assert.Equal(t, int64(len("mock media data")), result.Size)
	}
	assert.Equal(t, 10, fetcher.Count())
	assert.Equal(t, 10, storage.Count())
}

func TestWorkerPoolWithErrors(t *testing.T) {
	fetcher := &MockFetcher{err: fmt.Errorf("download error")}
	pool := NewWorkerPool(2, fetcher, NewMockStorage(), logger.NewNopLogger())
	pool.Start(context.Background())
	defer pool.Stop()

	results, err := pool.DownloadAll(jobs(5))
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, result := range results {
		assert.Error(t, result.Error)
		assert.Contains(t, result.Error.Error(), "download failed")
	}
}

func TestWorkerPoolSaveErrors(t *testing.T) {
	storage := NewMockStorage()
	storage.saveErr = fmt.Errorf("disk full")
	pool := NewWorkerPool(1, &MockFetcher{}, storage, logger.NewNopLogger())
	pool.Start(context.Background())
	defer pool.Stop()

	results, err := pool.DownloadAll(jobs(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Error, "save failed")
}

func TestWorkerPoolConcurrency(t *testing.T) {
	fetcher := &MockFetcher{delay: 100 * time.Millisecond}
	pool := NewWorkerPool(5, fetcher, NewMockStorage(), logger.NewNopLogger())
	pool.Start(context.Background())
	defer pool.Stop()

	start := time.Now()
	results, err := pool.DownloadAll(jobs(10))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, results, 10)
	// 5 workers, 10 jobs of 100ms each
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestWorkerPoolManyJobsSingleWorker(t *testing.T) {
	// More jobs than both queue buffers together
	pool := NewWorkerPool(1, &MockFetcher{}, NewMockStorage(), logger.NewNopLogger())
	pool.Start(context.Background())
	defer pool.Stop()

	results, err := pool.DownloadAll(jobs(25))
	require.NoError(t, err)
	assert.Len(t, results, 25)
}

func TestWorkerPoolSkipsExisting(t *testing.T) {
	fetcher := &MockFetcher{}
	storage := NewMockStorage()
	storage.saved["alice/P1.jpg"] = true
	storage.saved["alice/P3.jpg"] = true

	pool := NewWorkerPool(2, fetcher, storage, logger.NewNopLogger())
	pool.Start(context.Background())
	defer pool.Stop()

	results, err := pool.DownloadAll(jobs(4))
	require.NoError(t, err)
	require.Len(t, results, 4)

	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
	}
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 2, fetcher.Count())
	assert.Equal(t, 4, storage.Count())
}

func TestWorkerPoolCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(1, &MockFetcher{delay: time.Second}, NewMockStorage(), logger.NewNopLogger())
	pool.Start(ctx)
	defer pool.Stop()

	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := pool.DownloadAll(jobs(3))
	assert.ErrorIs(t, err, context.Canceled)
}
