package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velesk/marketplace-api/internal/pkg/logger"
)

const (
	// Debounce window - events for the same product within this duration
	// collapse into a single recompute
	debounceWindow = 1 * time.Second

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
)

// ReviewEvent is the wire shape of review.created / review.deleted events
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ProductID uuid.UUID `json:"product_id"`
	ReviewID  uuid.UUID `json:"review_id"`
}

// Reconciler consumes review events and re-runs the full rating recompute
// per product. Recomputation is idempotent, so duplicates and redeliveries
// are harmless.
type Reconciler struct {
	calculator *Calculator
	logger     *logger.Logger

	mu         sync.Mutex
	pending    map[uuid.UUID]*pendingUpdate
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

type pendingUpdate struct {
	timestamp time.Time
	timer     *time.Timer
}

// NewReconciler creates a new rating reconciler
func NewReconciler(calculator *Calculator, logger *logger.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Reconciler{
		calculator: calculator,
		logger:     logger,
		pending:    make(map[uuid.UUID]*pendingUpdate),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// HandleEvent processes a review event
func (w *Reconciler) HandleEvent(data []byte) error {
	var event ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"product_id": event.ProductID.String(),
		"review_id":  event.ReviewID.String(),
	}).Info("Received review event")

	w.scheduleUpdate(event.ProductID, event.Timestamp)

	return nil
}

// scheduleUpdate debounces recomputes: multiple events for the same product
// within the window result in a single database update.
func (w *Reconciler) scheduleUpdate(productID uuid.UUID, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Reconciler shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pending[productID]
	if found {
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"product_id": productID.String(),
			}).Debug("Ignoring stale event")
			return
		}
		// Stop reports whether the timer was cancelled before firing. A
		// fired timer's processUpdate consumes the existing WaitGroup slot,
		// so the replacement needs its own.
		if !existing.timer.Stop() {
			w.wg.Add(1)
		}
	} else {
		w.wg.Add(1)
	}

	entry := &pendingUpdate{timestamp: timestamp}
	entry.timer = time.AfterFunc(debounceWindow, func() {
		w.processUpdate(productID, entry)
	})
	w.pending[productID] = entry
}

// processUpdate executes the recompute with bounded retries
func (w *Reconciler) processUpdate(productID uuid.UUID, entry *pendingUpdate) {
	defer w.wg.Done()

	w.mu.Lock()
	// The entry may have been replaced by a newer event while this run was
	// waiting on the lock. Only remove our own.
	if current, ok := w.pending[productID]; ok && current == entry {
		delete(w.pending, productID)
	}
	w.mu.Unlock()

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"product_id": productID.String(),
				"attempt":    attempt + 1,
			}).Warn("Retrying rating reconciliation")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				w.logger.Info("Reconciler context cancelled, aborting retry")
				return
			}

			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, 5*time.Second)
		err := w.calculator.Recompute(ctx, productID)
		cancel()

		if err == nil {
			return
		}

		lastErr = err
		w.logger.Errorf(err, "Failed to reconcile rating for product %s (attempt %d)", productID, attempt+1)
	}

	w.logger.WithFields(map[string]any{
		"product_id":  productID.String(),
		"max_retries": maxRetries,
	}).Error("Rating reconciliation failed after all retries", lastErr)
}

// Shutdown gracefully shuts down the reconciler: pending timers are
// cancelled and in-flight recomputes are awaited up to the context deadline.
func (w *Reconciler) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down rating reconciler...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	cancelled := 0
	for _, update := range w.pending {
		// A timer that already fired has a processUpdate waiting on the
		// lock; it releases its own WaitGroup slot.
		if update.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
	}
	w.pending = make(map[uuid.UUID]*pendingUpdate)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": cancelled,
	}).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// PendingCount returns the number of pending updates (used in tests)
func (w *Reconciler) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
