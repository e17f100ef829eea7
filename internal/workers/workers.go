// Package workers runs periodic maintenance jobs in the background.
package workers

import (
	"context"
	"sync"
	"time"

	"snapChallengeAPI/internal/admin"
	"snapChallengeAPI/internal/logger"
)

const reconcileTimeout = 5 * time.Minute

// Reconciler repairs denormalized counters; implemented by services.ReconcileService.
type Reconciler interface {
	Reconcile(ctx context.Context) (*admin.ReconcileReport, error)
}

// ReconcileWorker runs a Reconciler on a fixed interval until stopped.
type ReconcileWorker struct {
	reconciler Reconciler
	interval   time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReconcileWorker(reconciler Reconciler, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		interval:   interval,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the ticker loop. A non-positive interval disables the worker.
func (w *ReconcileWorker) Start() {
	if w.interval <= 0 {
		return
	}
	logger.Info("Reconcile worker: running every %s", w.interval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.runOnce()
			case <-w.stopChan:
				return
			}
		}
	}()
}

func (w *ReconcileWorker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	report, err := w.reconciler.Reconcile(ctx)
	if err != nil {
		logger.Error("Reconcile worker: %v", err)
		return
	}
	if report.SubmissionsFixed > 0 || report.UsersFixed > 0 {
		logger.Warn("Reconcile worker: repaired %d submissions, %d users", report.SubmissionsFixed, report.UsersFixed)
	}
}

// Stop waits for an in-flight run to finish. It is safe to call more than once.
func (w *ReconcileWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
}
