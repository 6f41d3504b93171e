// Package dispatch implements the transport boundary of the
// notification engine: an in-process queue drained by a worker pool
// that persists notifications for in-app consumption. The router
// enqueues and moves on; delivery is asynchronous.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/Framerrr/Framerr-app-sub000/pkg/config"
	"github.com/Framerrr/Framerr-app-sub000/pkg/db"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/log"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// Manager owns the queue and its workers.
type Manager struct {
	config *config.DispatchConfig
	repo   *db.Repository
	logger *log.Logger
	queue  chan engine.Notification
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

var _ engine.Dispatcher = (*Manager)(nil)

// NewManager creates a dispatch manager.
func NewManager(cfg *config.DispatchConfig, repo *db.Repository, logger *log.Logger) *Manager {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}

	return &Manager{
		config: cfg,
		repo:   repo,
		logger: logger,
		queue:  make(chan engine.Notification, size),
		stopCh: make(chan struct{}),
	}
}

// Start launches the worker pool.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true

	workerCount := m.config.WorkerCount
	if workerCount <= 0 {
		workerCount = 4
	}

	m.logger.WithField("worker_count", workerCount).Info("Starting dispatch workers")

	for i := 0; i < workerCount; i++ {
		m.wg.Add(1)
		go m.worker(ctx, i+1)
	}

	return nil
}

// Stop signals the workers and waits for them to drain in-flight work.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.logger.Info("Stopping dispatch manager...")
	close(m.stopCh)
	m.wg.Wait()
	m.logger.Info("Dispatch manager stopped")
}

// Enqueue hands a notification to the worker pool without blocking.
// When the queue is full the notification is dropped and logged; the
// webhook path must never stall on delivery.
func (m *Manager) Enqueue(n engine.Notification) {
	select {
	case m.queue <- n:
	default:
		m.logger.WithFields(log.Fields{
			"recipient_id": n.RecipientID,
			"event_type":   n.EventType,
			"kind":         string(n.Kind),
		}).Error("Dispatch queue full, dropping notification")
	}
}

func (m *Manager) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	m.logger.WithField("worker_id", id).Debug("Dispatch worker started")

	for {
		select {
		case <-ctx.Done():
			m.drain()
			return
		case <-m.stopCh:
			m.drain()
			return
		case n := <-m.queue:
			m.deliver(n)
		}
	}
}

// drain persists whatever is already queued before the worker exits.
func (m *Manager) drain() {
	for {
		select {
		case n := <-m.queue:
			m.deliver(n)
		default:
			return
		}
	}
}

// deliver persists one notification. It runs on its own context, not
// the lifecycle context, so shutdown does not abort writes for work
// already accepted into the queue.
func (m *Manager) deliver(n engine.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notification := &models.Notification{
		RecipientID:   n.RecipientID,
		IntegrationID: n.IntegrationID,
		EventType:     n.EventType,
		Kind:          n.Kind,
		Title:         n.Title,
		Body:          n.Body,
		Metadata:      n.Metadata,
	}

	if err := m.repo.CreateNotification(ctx, notification); err != nil {
		m.logger.LogDispatch(0, n.RecipientID, string(n.Kind), false, err.Error())
		return
	}

	m.logger.LogDispatch(notification.ID, n.RecipientID, string(n.Kind), true, "")
}
