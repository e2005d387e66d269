// internal/app/system/workers/escalationworker.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/caretrack/internal/app/system/escalation"
	"go.uber.org/zap"
)

// EscalationWorker runs the escalation sweep on a fixed interval. Sweeps
// are serialized: the next tick waits for the previous sweep to return,
// so two sweeps never process the same candidate set.
type EscalationWorker struct {
	sweeper  *escalation.Sweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewEscalationWorker creates the worker. interval is how often a sweep
// runs (e.g., 5 minutes).
func NewEscalationWorker(sw *escalation.Sweeper, logger *zap.Logger, interval time.Duration) *EscalationWorker {
	return &EscalationWorker{
		sweeper:  sw,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *EscalationWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("escalation worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *EscalationWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("escalation worker stopped")
}

func (w *EscalationWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *EscalationWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Sweep errors are already logged with the sweep ID; a failed run
	// simply leaves its candidates for the next tick.
	_, _ = w.sweeper.Sweep(ctx, time.Now().UTC())
}
