package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/domain/camera"
)

const testBaseURL = "http://127.0.0.1:8000"

// fakeBackend records calls and fails when the matching error is set.
type fakeBackend struct {
	mu       sync.Mutex
	addErr   error
	stopErr  error
	allErr   error
	added    []camera.Registration
	stopped  []camera.Label
	stopAlls int

	// addGate, when set, blocks AddCamera until it is closed.
	addGate chan struct{}
	// addEntered receives once per AddCamera call, before blocking.
	addEntered chan struct{}
}

func (f *fakeBackend) BaseURL() string { return testBaseURL }

func (f *fakeBackend) AddCamera(ctx context.Context, reg camera.Registration) (backend.AddStatus, error) {
	if f.addEntered != nil {
		f.addEntered <- struct{}{}
	}
	if f.addGate != nil {
		<-f.addGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return backend.AddStatus{}, f.addErr
	}
	f.added = append(f.added, reg)
	return backend.AddStatus{Status: "Started"}, nil
}

func (f *fakeBackend) StopCamera(ctx context.Context, label camera.Label) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		return f.stopErr
	}
	f.stopped = append(f.stopped, label)
	return nil
}

func (f *fakeBackend) StopAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allErr != nil {
		return f.allErr
	}
	f.stopAlls++
	return nil
}

// memStore is an in-memory CameraStore.
type memStore struct {
	mu      sync.Mutex
	list    camera.List
	saves   int
	saveErr error
}

func (m *memStore) Load(context.Context) camera.List {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Clone()
}

func (m *memStore) Save(_ context.Context, list camera.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.list = list.Clone()
	return nil
}

// fakeDialer hands out fakeFeeds and counts dials per kind.
type fakeDialer struct {
	mu     sync.Mutex
	dials  map[backend.FeedKind]int
	feeds  map[backend.FeedKind][]*fakeFeed
	failOn map[backend.FeedKind]bool
	opened chan backend.FeedKind
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		dials:  map[backend.FeedKind]int{},
		feeds:  map[backend.FeedKind][]*fakeFeed{},
		failOn: map[backend.FeedKind]bool{},
		opened: make(chan backend.FeedKind, 64),
	}
}

func (d *fakeDialer) DialFeed(ctx context.Context, kind backend.FeedKind) (backend.FeedConn, error) {
	d.mu.Lock()
	d.dials[kind]++
	fail := d.failOn[kind]
	var f *fakeFeed
	if !fail {
		f = &fakeFeed{msgs: make(chan []byte, 16)}
		d.feeds[kind] = append(d.feeds[kind], f)
	}
	d.mu.Unlock()

	d.opened <- kind
	if fail {
		return nil, errors.New("connection refused")
	}
	return f, nil
}

func (d *fakeDialer) dialCount(kind backend.FeedKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[kind]
}

func (d *fakeDialer) latest(kind backend.FeedKind) *fakeFeed {
	d.mu.Lock()
	defer d.mu.Unlock()
	fs := d.feeds[kind]
	if len(fs) == 0 {
		return nil
	}
	return fs[len(fs)-1]
}

// fakeFeed delivers whatever is pushed on msgs.
type fakeFeed struct {
	msgs    chan []byte
	stopped atomic.Bool
}

func (f *fakeFeed) Run(ctx context.Context, handle func([]byte)) error {
	defer f.stopped.Store(true)
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-f.msgs:
			if !ok {
				return errors.New("connection reset")
			}
			handle(m)
		}
	}
}
