package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/models"
)

type memorySnapshotStore struct {
	mu      sync.Mutex
	snaps   map[string]*models.Snapshot
	saves   map[string]int
	loadErr error
	saveErr error
}

func newMemorySnapshotStore() *memorySnapshotStore {
	return &memorySnapshotStore{snaps: map[string]*models.Snapshot{}, saves: map[string]int{}}
}

func (m *memorySnapshotStore) Load(_ context.Context, classID string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.snaps[classID].Clone(), nil
}

func (m *memorySnapshotStore) Save(_ context.Context, classID string, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snaps[classID] = snap.Clone()
	m.saves[classID]++
	return nil
}

func (m *memorySnapshotStore) List(context.Context) ([]models.SnapshotInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SnapshotInfo, 0, len(m.snaps))
	for id, snap := range m.snaps {
		out = append(out, models.SnapshotInfo{ClassID: id, UpdatedAt: snap.UpdatedAt})
	}
	return out, nil
}

func (m *memorySnapshotStore) saved(classID string) (*models.Snapshot, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snaps[classID], m.saves[classID]
}

func stampedSnapshot(at time.Time) *models.Snapshot {
	snap := models.NewSnapshot(nil)
	snap.UpdatedAt = at
	return snap
}

func TestPersisterCoalescesPendingSnapshots(t *testing.T) {
	store := newMemorySnapshotStore()
	p := NewPersister(store, nil, nil, PersisterConfig{Workers: 1, BufferSize: 4})

	first := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	p.Schedule("room-1", stampedSnapshot(first))
	p.Schedule("room-1", stampedSnapshot(first.Add(time.Minute)))
	p.Schedule("room-2", stampedSnapshot(first))
	assert.Equal(t, 2, p.Pending())

	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, 0, p.Pending())

	snap, saves := store.saved("room-1")
	require.NotNil(t, snap)
	assert.Equal(t, 1, saves)
	assert.True(t, snap.UpdatedAt.Equal(first.Add(time.Minute)))
	_, saves = store.saved("room-2")
	assert.Equal(t, 1, saves)
}

func TestPersisterWorkerSavesScheduledSnapshot(t *testing.T) {
	store := newMemorySnapshotStore()
	metrics := NewMetricsService()
	p := NewPersister(store, metrics, nil, PersisterConfig{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.Schedule("room-1", stampedSnapshot(time.Now().UTC()))

	assert.Eventually(t, func() bool {
		_, saves := store.saved("room-1")
		return saves == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, 0, p.Pending())
}

func TestPersisterFailedSaveIsReportedNotRetried(t *testing.T) {
	store := newMemorySnapshotStore()
	store.saveErr = errors.New("disk full")
	metrics := NewMetricsService()
	p := NewPersister(store, metrics, nil, PersisterConfig{})

	p.Schedule("room-1", stampedSnapshot(time.Now()))
	err := p.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.saveErr)
	assert.Equal(t, 0, p.Pending(), "failed snapshots are dropped, not retried")
	assert.Equal(t, uint64(1), metrics.Snapshot().SnapshotSaveFailures)
}

// gatedSnapshotStore holds the first save of one class until released.
type gatedSnapshotStore struct {
	*memorySnapshotStore
	gated   string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSnapshotStore) Save(ctx context.Context, classID string, snap *models.Snapshot) error {
	if classID == g.gated {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.memorySnapshotStore.Save(ctx, classID, snap)
}

func TestPersisterSavesClassesDeferredByFullBuffer(t *testing.T) {
	store := &gatedSnapshotStore{
		memorySnapshotStore: newMemorySnapshotStore(),
		gated:               "room-a",
		entered:             make(chan struct{}),
		release:             make(chan struct{}),
	}
	p := NewPersister(store, nil, nil, PersisterConfig{Workers: 1, BufferSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	now := time.Now().UTC()
	p.Schedule("room-a", stampedSnapshot(now))
	<-store.entered
	p.Schedule("room-b", stampedSnapshot(now))
	p.Schedule("room-c", stampedSnapshot(now))
	assert.Equal(t, 2, p.Pending(), "room-a is already being saved")
	close(store.release)

	assert.Eventually(t, func() bool {
		for _, classID := range []string{"room-a", "room-b", "room-c"} {
			if _, saves := store.saved(classID); saves != 1 {
				return false
			}
		}
		return p.Pending() == 0
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))
}
