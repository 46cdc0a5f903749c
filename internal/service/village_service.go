package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/internal/ledger"
	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/internal/tasklog"
	"github.com/noah-isme/village-api/pkg/events"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
)

type snapshotScheduler interface {
	Schedule(classID string, snap *models.Snapshot)
}

type snapshotLister interface {
	List(ctx context.Context) ([]models.SnapshotInfo, error)
}

// session is the in-memory state of one class. Every read and write of snap
// happens under mu.
type session struct {
	mu      sync.Mutex
	classID string
	snap    *models.Snapshot
	logs    *tasklog.Store
	avatars *AvatarPool
}

// VillageServiceParams groups constructor dependencies.
type VillageServiceParams struct {
	Store     SnapshotStore
	Persister snapshotScheduler
	Cache     *CacheService
	Metrics   *MetricsService
	Events    events.Publisher
	Seed      *models.Settings
	Validator *validator.Validate
	Logger    *zap.Logger
	CacheTTL  time.Duration
	Now       func() time.Time
	NewID     func() string
}

// VillageService owns the class sessions and implements every action the
// classroom UI can take against them.
type VillageService struct {
	store     SnapshotStore
	persister snapshotScheduler
	cache     *CacheService
	metrics   *MetricsService
	events    events.Publisher
	seed      *models.Settings
	validator *validator.Validate
	logger    *zap.Logger
	engine    *ledger.Engine
	cacheTTL  time.Duration
	now       func() time.Time
	newID     func() string

	mu       sync.Mutex
	sessions map[string]*session
}

// NewVillageService constructs the service and registers its validators.
func NewVillageService(params VillageServiceParams) *VillageService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	publisher := params.Events
	if publisher == nil {
		publisher = events.Nop{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	svc := &VillageService{
		store:     params.Store,
		persister: params.Persister,
		cache:     params.Cache,
		metrics:   params.Metrics,
		events:    publisher,
		seed:      params.Seed,
		validator: validate,
		logger:    logger,
		engine:    ledger.New(ledger.WithClock(now), ledger.WithIDs(newID)),
		cacheTTL:  params.CacheTTL,
		now:       now,
		newID:     newID,
		sessions:  make(map[string]*session),
	}
	svc.validator.RegisterValidation("group", func(fl validator.FieldLevel) bool {
		raw := strings.TrimSpace(fl.Field().String())
		return strings.EqualFold(raw, string(models.GroupUnassigned)) || models.GroupID(strings.ToUpper(raw)).Valid()
	})
	svc.validator.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		return strings.EqualFold(strings.TrimSpace(raw), "unset") || models.ParseStatus(raw).Valid()
	})
	return svc
}

func (s *VillageService) validate(payload interface{}) error {
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return nil
}

// session returns the loaded class, reading it from the store on first use.
// A class that was never saved starts from the seed settings.
func (s *VillageService) session(ctx context.Context, classID string) (*session, error) {
	if !models.ValidClassID(classID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[classID]; ok {
		return sess, nil
	}

	var snap *models.Snapshot
	if s.store != nil {
		loaded, err := s.store.Load(ctx, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load class")
		}
		snap = loaded
	}
	if snap == nil {
		snap = models.NewSnapshot(s.seedSettings())
		s.logger.Info("class initialised", zap.String("class_id", classID))
	} else {
		models.FillDefaults(snap)
		s.repairBanks(classID, snap)
	}

	sess := s.newSession(classID, snap)
	s.sessions[classID] = sess
	return sess, nil
}

func (s *VillageService) newSession(classID string, snap *models.Snapshot) *session {
	return &session{
		classID: classID,
		snap:    snap,
		logs:    tasklog.NewStore(snap.Logs, s.now),
		avatars: NewAvatarPool(classID, nil),
	}
}

func (s *VillageService) seedSettings() *models.Settings {
	if s.seed == nil {
		return nil
	}
	settings := cloneSettings(*s.seed)
	return &settings
}

func cloneSettings(settings models.Settings) models.Settings {
	return (&models.Snapshot{Settings: settings}).Clone().Settings
}

// repairBanks rebuilds the cached balances of banks whose ledger does not fold.
func (s *VillageService) repairBanks(classID string, snap *models.Snapshot) {
	for i := range snap.Students {
		st := &snap.Students[i]
		if err := ledger.Verify(&st.Bank); err != nil {
			s.logger.Warn("repairing student bank",
				zap.String("class_id", classID),
				zap.String("student_id", st.ID),
				zap.Error(err),
			)
			ledger.Rebuild(&st.Bank)
		}
	}
}

// change collects the side effects of one mutation.
type change struct {
	classID string
	events  []events.LedgerEvent
}

func (c *change) record(kind, studentID string, tx models.Transaction) {
	c.events = append(c.events, events.LedgerEvent{
		Kind:          kind,
		ClassID:       c.classID,
		StudentID:     studentID,
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Balance:       tx.Balance,
		Reason:        tx.Reason,
		OccurredAt:    tx.Timestamp,
	})
}

// mutate runs fn under the class lock. When fn reports a change the snapshot
// is stamped, queued for write-back and the class dashboards are invalidated.
func (s *VillageService) mutate(ctx context.Context, classID string, fn func(sess *session, c *change) (bool, error)) error {
	sess, err := s.session(ctx, classID)
	if err != nil {
		return err
	}

	c := &change{classID: classID}
	sess.mu.Lock()
	changed, err := fn(sess, c)
	if err == nil && changed {
		sess.snap.UpdatedAt = s.now().UTC()
		s.schedule(classID, sess.snap)
	}
	sess.mu.Unlock()
	if err != nil || !changed {
		return err
	}

	s.afterChange(ctx, classID, c.events)
	return nil
}

// schedule must be called with the class lock held so saves are queued in
// mutation order.
func (s *VillageService) schedule(classID string, snap *models.Snapshot) {
	if s.persister != nil {
		s.persister.Schedule(classID, snap.Clone())
	}
}

func (s *VillageService) afterChange(ctx context.Context, classID string, evts []events.LedgerEvent) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, DashboardPattern(classID))
	}
	if len(evts) == 0 {
		return
	}
	for _, evt := range evts {
		s.metrics.RecordLedgerTransaction(evt.Kind)
	}
	if err := s.events.Publish(ctx, evts...); err != nil {
		s.logger.Warn("ledger events not published", zap.String("class_id", classID), zap.Int("count", len(evts)), zap.Error(err))
	}
}

// read runs fn under the class lock without scheduling a save.
func (s *VillageService) read(ctx context.Context, classID string, fn func(sess *session) error) error {
	sess, err := s.session(ctx, classID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess)
}

// ExportSnapshot returns a copy of the class state.
func (s *VillageService) ExportSnapshot(ctx context.Context, classID string) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := s.read(ctx, classID, func(sess *session) error {
		snap = sess.snap.Clone()
		return nil
	})
	return snap, err
}

// ImportSnapshot replaces the class state wholesale. The snapshot is
// normalized and its banks repaired before it becomes visible.
func (s *VillageService) ImportSnapshot(ctx context.Context, classID string, snap *models.Snapshot) (*models.Snapshot, error) {
	if snap == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "snapshot is required")
	}
	if !models.ValidClassID(classID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class id")
	}
	incoming := snap.Clone()
	models.FillDefaults(incoming)
	s.repairBanks(classID, incoming)
	incoming.UpdatedAt = s.now().UTC()

	out := incoming.Clone()

	s.mu.Lock()
	sess, ok := s.sessions[classID]
	if !ok {
		sess = s.newSession(classID, incoming)
		s.sessions[classID] = sess
	}
	sess.mu.Lock()
	if ok {
		fresh := s.newSession(classID, incoming)
		sess.snap, sess.logs, sess.avatars = fresh.snap, fresh.logs, fresh.avatars
	}
	s.schedule(classID, incoming)
	sess.mu.Unlock()
	s.mu.Unlock()

	s.afterChange(ctx, classID, nil)
	s.logger.Info("class snapshot imported",
		zap.String("class_id", classID),
		zap.Int("students", len(incoming.Students)),
		zap.Int("logs", len(incoming.Logs)),
	)
	return out, nil
}

// GetSettings returns the class settings.
func (s *VillageService) GetSettings(ctx context.Context, classID string) (*models.Settings, error) {
	var out models.Settings
	err := s.read(ctx, classID, func(sess *session) error {
		out = cloneSettings(sess.snap.Settings)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings replaces the class settings, filling defaults for anything omitted.
func (s *VillageService) UpdateSettings(ctx context.Context, classID string, settings models.Settings) (*models.Settings, error) {
	settings.FillDefaults()
	for _, job := range settings.Jobs {
		switch job.Cycle {
		case "", models.PayDaily, models.PayWeekly, models.PayMonthly:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pay cycle "+string(job.Cycle))
		}
	}
	var out models.Settings
	err := s.mutate(ctx, classID, func(sess *session, _ *change) (bool, error) {
		sess.snap.Settings = settings
		out = cloneSettings(settings)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FormatCurrency decomposes points using the class exchange rates.
func (s *VillageService) FormatCurrency(ctx context.Context, classID string, points int64) (currency.Breakdown, error) {
	var out currency.Breakdown
	err := s.read(ctx, classID, func(sess *session) error {
		out = currency.Format(points, sess.snap.Settings.Rates)
		return nil
	})
	return out, err
}

// ListClasses lists the classes known to the store.
func (s *VillageService) ListClasses(ctx context.Context) ([]models.SnapshotInfo, error) {
	lister, ok := s.store.(snapshotLister)
	if !ok {
		return []models.SnapshotInfo{}, nil
	}
	classes, err := lister.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list classes")
	}
	return classes, nil
}

func mapTaskError(err error) error {
	switch {
	case errors.Is(err, tasklog.ErrDuplicateTask):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "task id already exists")
	case errors.Is(err, tasklog.ErrInvalidDate), errors.Is(err, tasklog.ErrEmptyTitle):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	default:
		return err
	}
}
