package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"igharvest/pkg/logger"
)

// MediaJob is a single media file to fetch and store
type MediaJob struct {
	URL       string
	Name      string
	Shortcode string
}

// MediaResult is the outcome of a MediaJob
type MediaResult struct {
	Job      MediaJob
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int64
}

// Fetcher downloads the bytes behind a media URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Storage persists named media files
type Storage interface {
	Exists(name string) bool
	Save(r io.Reader, name string) (int64, error)
}

// WorkerPool manages concurrent media download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan MediaJob
	resultQueue chan MediaResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     Fetcher
	storage     Storage
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(numWorkers int, fetcher Fetcher, storage Storage, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan MediaJob, numWorkers*2),
		resultQueue: make(chan MediaResult, numWorkers),
		fetcher:     fetcher,
		storage:     storage,
		logger:      log.WithField("component", "downloader"),
	}
}

// Start launches the workers. They stop when ctx is cancelled or Stop is called.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job MediaJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan MediaResult {
	return wp.resultQueue
}

// DownloadAll submits jobs and blocks until each of them has a result.
// Results come back in completion order.
func (wp *WorkerPool) DownloadAll(jobs []MediaJob) ([]MediaResult, error) {
	submitErr := make(chan error, 1)
	go func() {
		for _, job := range jobs {
			if err := wp.Submit(job); err != nil {
				submitErr <- err
				return
			}
		}
		submitErr <- nil
	}()

	results := make([]MediaResult, 0, len(jobs))
	for len(results) < len(jobs) {
		select {
		case result := <-wp.resultQueue:
			results = append(results, result)
		case <-wp.ctx.Done():
			// The submitter must be done before Stop closes the queue
			<-submitErr
			return results, wp.ctx.Err()
		}
	}

	return results, <-submitErr
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			return
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job MediaJob, workerID int) MediaResult {
	start := time.Now()
	result := MediaResult{Job: job}

	if wp.storage.Exists(job.Name) {
		result.Skipped = true
		result.Duration = time.Since(start)
		logger.LogMediaSaved(wp.logger, job.Shortcode, job.Name, 0, true)
		return result
	}

	data, err := wp.fetcher.Fetch(wp.ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to download media", map[string]interface{}{
			"worker_id": workerID,
			"shortcode": job.Shortcode,
			"file":      job.Name,
			"error":     err.Error(),
		})
		return result
	}

	size, err := wp.storage.Save(bytes.NewReader(data), job.Name)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to save media", map[string]interface{}{
			"worker_id": workerID,
			"shortcode": job.Shortcode,
			"file":      job.Name,
			"error":     err.Error(),
		})
		return result
	}

	result.Size = size
	result.Duration = time.Since(start)
	logger.LogMediaSaved(wp.logger, job.Shortcode, job.Name, size, false)

	return result
}
