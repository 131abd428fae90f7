package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/config"
	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/edirooss/witness-console/internal/metrics"
	"github.com/edirooss/witness-console/pkg/urlutil"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// RegistryService
// -----------------------------------------------------------------------------
//
// Runtime model
//   • The backend is the source of truth for which cameras run. The in-memory
//     list only changes after the backend answered 2xx.
//   • Operations are NOT serialized against each other: two AddCamera calls in
//     flight can both append. The list itself is guarded by a mutex.
//   • After every mutation the whole list is written to the store. Saves are
//     serialized and always write the latest list, so the store converges to
//     memory even when mutations finish out of order.
//
// Loading
//   • Set on start and cleared on completion of ANY operation, so it reflects
//     the most recently started/finished one. It is a UI hint, not a lock.

// ErrDuplicateLabel is returned when the reject policy finds the label already registered.
var ErrDuplicateLabel = errors.New("camera label already registered")

// ErrInvalidCamera wraps registration input errors.
var ErrInvalidCamera = errors.New("invalid camera")

// CameraBackend is the subset of the backend client the registry needs.
type CameraBackend interface {
	BaseURL() string
	AddCamera(ctx context.Context, reg camera.Registration) (backend.AddStatus, error)
	StopCamera(ctx context.Context, label camera.Label) error
	StopAll(ctx context.Context) error
}

// CameraStore persists the whole camera list.
type CameraStore interface {
	Load(ctx context.Context) camera.List
	Save(ctx context.Context, list camera.List) error
}

// RegistryService owns the console's list of registered cameras.
type RegistryService struct {
	log     *zap.Logger
	backend CameraBackend
	store   CameraStore
	metrics *metrics.Metrics
	policy  config.DuplicateLabelPolicy

	mu      sync.RWMutex
	cameras camera.List

	persistMu sync.Mutex
	loading   atomic.Bool

	changes *hub[camera.List]
}

// NewRegistryService loads the persisted list (empty on any problem) and returns the service.
func NewRegistryService(ctx context.Context, log *zap.Logger, be CameraBackend, store CameraStore, m *metrics.Metrics, policy config.DuplicateLabelPolicy) *RegistryService {
	log = log.Named("registry")
	if policy == "" {
		policy = config.DuplicateLabelsAllow
	}

	s := &RegistryService{
		log:     log,
		backend: be,
		store:   store,
		metrics: m,
		policy:  policy,
		cameras: store.Load(ctx),
		changes: newHub[camera.List](nil),
	}
	m.Cameras.Set(float64(len(s.cameras)))

	log.Info("camera list loaded", zap.Int("cameras", len(s.cameras)), zap.String("duplicate_labels", string(policy)))
	return s
}

// Cameras returns a copy of the current list.
func (s *RegistryService) Cameras() camera.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameras.Clone()
}

// Has reports whether label is registered.
func (s *RegistryService) Has(label camera.Label) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameras.Has(label)
}

// Loading reports whether an operation is outstanding (see type docs).
func (s *RegistryService) Loading() bool { return s.loading.Load() }

// Subscribe returns a mailbox receiving the full list after each change.
func (s *RegistryService) Subscribe() (int, <-chan camera.List) { return s.changes.Subscribe() }

// Unsubscribe releases a Subscribe mailbox.
func (s *RegistryService) Unsubscribe(id int) { s.changes.Unsubscribe(id) }

// AddCamera registers a camera with the backend and, on success, appends its descriptor.
// On failure the list is unchanged; the error is logged and returned.
func (s *RegistryService) AddCamera(ctx context.Context, reg camera.Registration) (camera.Descriptor, error) {
	if err := reg.Validate(); err != nil {
		return camera.Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidCamera, err)
	}
	if s.policy == config.DuplicateLabelsReject && s.Has(reg.Label) {
		s.metrics.RegistryOps.WithLabelValues("add", metrics.ResultRejected).Inc()
		return camera.Descriptor{}, fmt.Errorf("label %q: %w", reg.Label, ErrDuplicateLabel)
	}

	s.loading.Store(true)
	defer s.loading.Store(false)

	st, err := s.backend.AddCamera(ctx, reg)
	s.metrics.RegistryOps.WithLabelValues("add", metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error("add camera failed",
			zap.String("label", reg.Label.String()),
			zap.String("address", urlutil.RedactUserinfo(reg.IPAddress)),
			zap.Error(err))
		return camera.Descriptor{}, fmt.Errorf("add camera: %w", err)
	}

	d := camera.NewDescriptor(s.backend.BaseURL(), reg.Label)
	s.mutate(ctx, func(cur camera.List) camera.List { return append(cur, d) })

	s.log.Info("camera added",
		zap.String("label", reg.Label.String()),
		zap.String("address", urlutil.RedactUserinfo(reg.IPAddress)),
		zap.String("status", st.Status))
	return d, nil
}

// DeleteCamera stops label on the backend and, on success, removes every descriptor carrying it.
func (s *RegistryService) DeleteCamera(ctx context.Context, label camera.Label) error {
	if err := label.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCamera, err)
	}

	s.loading.Store(true)
	defer s.loading.Store(false)

	err := s.backend.StopCamera(ctx, label)
	s.metrics.RegistryOps.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error("delete camera failed", zap.String("label", label.String()), zap.Error(err))
		return fmt.Errorf("delete camera: %w", err)
	}

	s.mutate(ctx, func(cur camera.List) camera.List { return cur.Without(label) })

	s.log.Info("camera deleted", zap.String("label", label.String()))
	return nil
}

// DeleteAll stops every camera on the backend and, on success, clears the list.
func (s *RegistryService) DeleteAll(ctx context.Context) error {
	s.loading.Store(true)
	defer s.loading.Store(false)

	err := s.backend.StopAll(ctx)
	s.metrics.RegistryOps.WithLabelValues("delete_all", metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error("delete all cameras failed", zap.Error(err))
		return fmt.Errorf("delete all: %w", err)
	}

	s.mutate(ctx, func(camera.List) camera.List { return camera.List{} })

	s.log.Info("all cameras deleted")
	return nil
}

// mutate applies fn to the list, then persists and publishes the latest list.
// A store failure is logged; memory stays authoritative and the next save catches up.
func (s *RegistryService) mutate(ctx context.Context, fn func(camera.List) camera.List) {
	s.mu.Lock()
	s.cameras = fn(s.cameras.Clone())
	s.mu.Unlock()

	s.publish(context.WithoutCancel(ctx))
}

// publish is serialized so the store and subscribers always end on the newest list.
func (s *RegistryService) publish(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	latest := s.Cameras()
	s.metrics.Cameras.Set(float64(len(latest)))
	if err := s.store.Save(ctx, latest); err != nil {
		s.log.Error("persist camera list failed", zap.Int("cameras", len(latest)), zap.Error(err))
	}
	s.changes.Broadcast(latest)
}
