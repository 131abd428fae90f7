package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/edirooss/witness-console/internal/domain/detection"
	"github.com/edirooss/witness-console/internal/metrics"
	"github.com/edirooss/witness-console/pkg/ring"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------
// MirrorService
// -----------------------------------------------------------------------------
//
// Keeps two live views current from the backend's push feeds:
//   • counts feed → Snapshot, each message REPLACES the previous snapshot;
//   • events feed → event log, each message is APPENDED (oldest evicted past capacity).
//
// Subscriptions
//   • Opened only while at least one camera is registered.
//   • Every camera-set change closes the current pair and opens a fresh one.
//   • Dial or read failures are logged; there is no retry. Stale views remain
//     until the next camera-set change triggers a new attempt.
//   • Malformed messages are logged and dropped; prior state is kept.

// Update is a bit set telling view subscribers which parts of the mirror changed.
type Update uint8

const (
	UpdatePrecision Update = 1 << iota // counts snapshot replaced
	UpdateEvents                       // event log appended or filtered
)

// Has reports whether u includes part.
func (u Update) Has(part Update) bool { return u&part != 0 }

func mergeUpdates(pending, next Update) Update { return pending | next }

// CameraSource is where the mirror learns about camera-set changes.
type CameraSource interface {
	Cameras() camera.List
	Subscribe() (int, <-chan camera.List)
	Unsubscribe(id int)
}

// MirrorService folds feed messages into in-memory view state.
type MirrorService struct {
	log     *zap.Logger
	dialer  backend.Dialer
	metrics *metrics.Metrics

	mu          sync.RWMutex
	snapshot    detection.Snapshot
	hasSnapshot bool
	perCamera   detection.PerCamera

	events *ring.Buffer[detection.Event]

	active  atomic.Int32 // open feeds
	cycles  atomic.Int64 // subscription cycles started
	updates *hub[Update]
}

// NewMirrorService creates a mirror holding at most eventCapacity events (0: unbounded).
func NewMirrorService(log *zap.Logger, dialer backend.Dialer, m *metrics.Metrics, eventCapacity int) *MirrorService {
	return &MirrorService{
		log:      log.Named("mirror"),
		dialer:   dialer,
		metrics:  m,
		snapshot: detection.Snapshot{PerCamera: []detection.PerCamera{}},
		events:   ring.New[detection.Event](eventCapacity),
		updates:  newHub[Update](mergeUpdates),
	}
}

// Run follows camera-set changes from src until ctx is done.
func (s *MirrorService) Run(ctx context.Context, src CameraSource) error {
	id, changes := src.Subscribe()
	defer src.Unsubscribe(id)

	var (
		stop func()
		wg   sync.WaitGroup
	)
	restart := func(list camera.List) {
		if stop != nil {
			stop()
			wg.Wait()
			stop = nil
		}
		if len(list) == 0 {
			s.log.Debug("no cameras registered; feeds stay closed")
			return
		}

		cycleCtx, cancel := context.WithCancel(ctx)
		stop = cancel
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.subscribe(cycleCtx)
		}()
	}

	restart(src.Cameras())
	for {
		select {
		case <-ctx.Done():
			restart(nil)
			return nil
		case list, ok := <-changes:
			if !ok {
				restart(nil)
				return nil
			}
			restart(list)
		}
	}
}

// subscribe opens both feeds and blocks until both have ended.
// The feeds are independent: one failing does not close the other.
func (s *MirrorService) subscribe(ctx context.Context) {
	s.log.Debug("opening feeds", zap.Int64("cycle", s.cycles.Add(1)))

	var g errgroup.Group
	g.Go(func() error {
		s.runFeed(ctx, backend.FeedCounts, s.applyCounts)
		return nil
	})
	g.Go(func() error {
		s.runFeed(ctx, backend.FeedEvents, s.applyEvent)
		return nil
	})
	_ = g.Wait()
}

func (s *MirrorService) runFeed(ctx context.Context, kind backend.FeedKind, apply func([]byte)) {
	log := s.log.With(zap.String("feed", string(kind)))

	feed, err := s.dialer.DialFeed(ctx, kind)
	s.metrics.FeedDials.WithLabelValues(string(kind), metrics.Outcome(err)).Inc()
	if err != nil {
		if ctx.Err() == nil {
			log.Error("feed subscription failed", zap.Error(err))
		}
		return
	}

	s.active.Add(1)
	defer s.active.Add(-1)
	log.Info("feed subscribed")

	if err := feed.Run(ctx, apply); err != nil {
		log.Error("feed dropped", zap.Error(err))
		return
	}
	log.Info("feed closed")
}

// applyCounts replaces the whole snapshot with one counts message.
func (s *MirrorService) applyCounts(raw []byte) {
	snap, err := detection.ParseSnapshot(raw)
	if err != nil {
		s.metrics.FeedMessages.WithLabelValues(string(backend.FeedCounts), metrics.ResultDropped).Inc()
		s.log.Warn("dropping malformed counts message", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.snapshot = snap
	s.hasSnapshot = true
	s.mu.Unlock()

	s.metrics.FeedMessages.WithLabelValues(string(backend.FeedCounts), metrics.ResultApplied).Inc()
	s.updates.Broadcast(UpdatePrecision)
}

// applyEvent appends one events message to the log.
func (s *MirrorService) applyEvent(raw []byte) {
	evt, err := detection.ParseEvent(raw)
	if err != nil {
		s.metrics.FeedMessages.WithLabelValues(string(backend.FeedEvents), metrics.ResultDropped).Inc()
		s.log.Warn("dropping malformed event message", zap.Error(err))
		return
	}

	if s.events.Append(evt) {
		s.metrics.EventsEvicted.Inc()
	}
	s.metrics.EventLogSize.Set(float64(s.events.Len()))
	s.metrics.FeedMessages.WithLabelValues(string(backend.FeedEvents), metrics.ResultApplied).Inc()
	s.updates.Broadcast(UpdateEvents)
}

// Snapshot returns a copy of the latest counts snapshot (zero-valued before the first push).
func (s *MirrorService) Snapshot() detection.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// GetPerCamera looks label up in the latest snapshot. When found it becomes the
// held per-camera value; when no snapshot arrived yet or no entry matches, the
// previously held value is returned unchanged.
func (s *MirrorService) GetPerCamera(label camera.Label) detection.PerCamera {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSnapshot || s.snapshot.Empty() {
		s.log.Debug("no counts snapshot yet", zap.String("label", label.String()))
		return s.perCamera
	}
	pc, ok := s.snapshot.Find(label)
	if !ok {
		s.log.Debug("label absent from counts snapshot", zap.String("label", label.String()))
		return s.perCamera
	}
	s.perCamera = pc
	return pc
}

// Events returns the event log oldest → newest.
func (s *MirrorService) Events() []detection.Event { return s.events.Items() }

// EventLog returns the event log and a cursor for EventsSince.
func (s *MirrorService) EventLog() ([]detection.Event, ring.Cursor) { return s.events.Snapshot() }

// EventsSince returns the events appended after cur. ok is false once the log
// was filtered after cur was taken; callers then re-read EventLog.
func (s *MirrorService) EventsSince(cur ring.Cursor) ([]detection.Event, ring.Cursor, bool) {
	return s.events.Since(cur)
}

// EventCount returns the number of events held.
func (s *MirrorService) EventCount() int { return s.events.Len() }

// SelectForExport keeps only events whose Type equals category. Destructive:
// the others are discarded and further calls narrow further. Returns how many were dropped.
func (s *MirrorService) SelectForExport(category string) int {
	removed := s.events.Retain(func(e detection.Event) bool { return e.Type == category })
	s.metrics.EventLogSize.Set(float64(s.events.Len()))
	if removed > 0 {
		s.updates.Broadcast(UpdateEvents)
	}
	s.log.Info("event log filtered", zap.String("type", category), zap.Int("removed", removed), zap.Int("kept", s.events.Len()))
	return removed
}

// ActiveFeeds returns the number of currently open feed connections.
func (s *MirrorService) ActiveFeeds() int { return int(s.active.Load()) }

// EventCapacity returns the event log cap (0: unbounded).
func (s *MirrorService) EventCapacity() int { return s.events.Cap() }

// SubscribeUpdates returns a mailbox notified after each state change.
func (s *MirrorService) SubscribeUpdates() (int, <-chan Update) { return s.updates.Subscribe() }

// UnsubscribeUpdates releases a SubscribeUpdates mailbox.
func (s *MirrorService) UnsubscribeUpdates(id int) { s.updates.Unsubscribe(id) }
