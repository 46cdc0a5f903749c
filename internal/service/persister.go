package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/pkg/jobs"
)

const jobTypeSnapshotSave = "snapshot.save"

// SnapshotStore loads and saves whole class snapshots. Load returns nil, nil
// when the class has never been saved.
type SnapshotStore interface {
	Load(ctx context.Context, classID string) (*models.Snapshot, error)
	Save(ctx context.Context, classID string, snap *models.Snapshot) error
}

// PersisterConfig tunes the write-back queue.
type PersisterConfig struct {
	Workers     int
	BufferSize  int
	SaveTimeout time.Duration
}

// Persister writes snapshots back to the store in the background. Bursts of
// changes to one class coalesce: only the newest pending snapshot is saved.
// Failed saves are logged and counted but never retried or rolled back.
type Persister struct {
	store   SnapshotStore
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*models.Snapshot
	queued  map[string]bool
	locks   map[string]*sync.Mutex
}

// NewPersister constructs a persister. Call Start before scheduling.
func NewPersister(store SnapshotStore, metrics *MetricsService, logger *zap.Logger, cfg PersisterConfig) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	p := &Persister{
		store:   store,
		metrics: metrics,
		logger:  logger,
		timeout: cfg.SaveTimeout,
		pending: make(map[string]*models.Snapshot),
		queued:  make(map[string]bool),
		locks:   make(map[string]*sync.Mutex),
	}
	p.queue = jobs.NewQueue("snapshot-writeback", p.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		NoRetry:    true,
		Logger:     logger,
	})
	return p
}

// Start launches the workers.
func (p *Persister) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop saves whatever is still pending and stops the workers.
func (p *Persister) Stop(ctx context.Context) error {
	err := p.Flush(ctx)
	p.queue.Stop()
	return err
}

// Schedule records snap as the newest state of classID and queues a save
// unless one is already queued. It never blocks. snap must not be mutated
// afterwards.
func (p *Persister) Schedule(classID string, snap *models.Snapshot) {
	p.mu.Lock()
	p.pending[classID] = snap
	if p.queued[classID] {
		p.mu.Unlock()
		return
	}
	p.queued[classID] = true
	p.mu.Unlock()

	p.enqueue(classID)
}

// enqueue expects queued[classID] to be set. When the buffer is full the
// class stays pending and is picked up after the next save completes.
func (p *Persister) enqueue(classID string) {
	if err := p.queue.TryEnqueue(jobs.Job{ID: classID, Type: jobTypeSnapshotSave, Payload: classID}); err != nil {
		p.mu.Lock()
		p.queued[classID] = false
		p.mu.Unlock()
		p.logger.Warn("snapshot save deferred", zap.String("class_id", classID), zap.Error(err))
	}
}

// requeueDeferred queues every pending class that has no save queued.
func (p *Persister) requeueDeferred() {
	p.mu.Lock()
	var deferred []string
	for classID := range p.pending {
		if !p.queued[classID] {
			p.queued[classID] = true
			deferred = append(deferred, classID)
		}
	}
	p.mu.Unlock()

	for _, classID := range deferred {
		p.enqueue(classID)
	}
}

// Pending reports how many classes have unsaved snapshots.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Flush synchronously saves every pending snapshot.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	classIDs := make([]string, 0, len(p.pending))
	for classID := range p.pending {
		classIDs = append(classIDs, classID)
	}
	p.mu.Unlock()

	var errs []error
	for _, classID := range classIDs {
		if err := p.saveLatest(ctx, classID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Persister) handle(ctx context.Context, job jobs.Job) error {
	classID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	p.mu.Lock()
	p.queued[classID] = false
	p.mu.Unlock()
	err := p.saveLatest(ctx, classID)
	p.requeueDeferred()
	return err
}

// saveLatest serialises saves per class so an older snapshot can never
// overwrite a newer one.
func (p *Persister) saveLatest(ctx context.Context, classID string) error {
	lock := p.classLock(classID)
	lock.Lock()
	defer lock.Unlock()

	p.mu.Lock()
	snap := p.pending[classID]
	delete(p.pending, classID)
	p.mu.Unlock()
	if snap == nil {
		return nil
	}

	saveCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.store.Save(saveCtx, classID, snap)
	p.metrics.RecordSnapshotSave(err, time.Since(start))
	if err != nil {
		p.logger.Error("snapshot save failed", zap.String("class_id", classID), zap.Error(err))
		return fmt.Errorf("save snapshot %s: %w", classID, err)
	}
	p.logger.Debug("snapshot saved", zap.String("class_id", classID), zap.Time("updated_at", snap.UpdatedAt))
	return nil
}

func (p *Persister) classLock(classID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[classID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[classID] = lock
	}
	return lock
}
