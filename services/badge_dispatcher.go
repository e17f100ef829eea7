package services

import (
	"context"
	"sync"
	"time"

	"snapChallengeAPI/internal/badge"
	"snapChallengeAPI/internal/logger"
	"snapChallengeAPI/internal/metrics"
)

type BadgeEvaluator interface {
	EvaluateBadges(ctx context.Context, userID string) ([]badge.Badge, error)
}

// BadgeDispatcher runs badge evaluation on a bounded worker pool so the
// request that triggered it never waits on or fails because of it.
type BadgeDispatcher struct {
	evaluator      BadgeEvaluator
	workers        int
	jobQueue       chan string
	stopChan       chan struct{}
	wg             sync.WaitGroup

	// mu orders enqueues before Stop closes stopChan, so a job is either
	// drained by the workers or counted as dropped.
	mu      sync.RWMutex
	stopped bool

	enqueueTimeout time.Duration
	jobTimeout     time.Duration
}

func NewBadgeDispatcher(evaluator BadgeEvaluator, workers, queueSize int) *BadgeDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	d := &BadgeDispatcher{
		evaluator:      evaluator,
		workers:        workers,
		jobQueue:       make(chan string, queueSize),
		stopChan:       make(chan struct{}),
		enqueueTimeout: 100 * time.Millisecond,
		jobTimeout:     10 * time.Second,
	}
	d.startWorkers()
	return d
}

func (d *BadgeDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *BadgeDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case userID := <-d.jobQueue:
			d.process(userID)
		case <-d.stopChan:
			d.drain()
			return
		}
	}
}

func (d *BadgeDispatcher) drain() {
	for {
		select {
		case userID := <-d.jobQueue:
			d.process(userID)
		default:
			return
		}
	}
}

func (d *BadgeDispatcher) process(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()

	awarded, err := d.evaluator.EvaluateBadges(ctx, userID)
	if err != nil {
		metrics.BadgeEvaluationFailures.Inc()
		logger.Error("BadgeDispatcher: evaluation failed for user %s: %v", userID, err)
		return
	}
	for _, b := range awarded {
		logger.Info("BadgeDispatcher: user %s earned %s", userID, b.ID)
	}
}

// Trigger queues an evaluation per distinct user id. It waits at most the
// enqueue timeout and drops the job when the queue stays full.
func (d *BadgeDispatcher) Trigger(userIDs ...string) {
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		d.enqueue(userID)
	}
}

func (d *BadgeDispatcher) enqueue(userID string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		metrics.BadgeJobsDropped.Inc()
		logger.Warn("BadgeDispatcher: stopped, dropping evaluation for user %s", userID)
		return
	}

	select {
	case d.jobQueue <- userID:
		logger.Debug("BadgeDispatcher: queued evaluation for user %s", userID)
	case <-time.After(d.enqueueTimeout):
		metrics.BadgeJobsDropped.Inc()
		logger.Warn("BadgeDispatcher: queue full, dropping evaluation for user %s", userID)
	}
}

// Stop finishes queued jobs and waits for the workers to exit.
func (d *BadgeDispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.stopChan)
	}
	d.mu.Unlock()

	d.wg.Wait()
	logger.Info("BadgeDispatcher: stopped")
}
