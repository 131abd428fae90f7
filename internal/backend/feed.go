package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FeedKind names one of the backend's push feeds.
type FeedKind string

const (
	FeedCounts FeedKind = "counts" // aggregate per-camera counts, overwrite semantics
	FeedEvents FeedKind = "events" // individual detection events, append semantics
)

// Path returns the backend WebSocket path for the feed.
func (k FeedKind) Path() string {
	switch k {
	case FeedCounts:
		return "/ws/counts-list"
	case FeedEvents:
		return "/ws/events"
	}
	return ""
}

// Feed is one open WebSocket subscription. It is read-only from our side.
type Feed struct {
	kind FeedKind
	conn *websocket.Conn
	log  *zap.Logger
}

// Dialer opens feeds. It is an interface so the mirror can be driven by fakes in tests.
type Dialer interface {
	DialFeed(ctx context.Context, kind FeedKind) (FeedConn, error)
}

// FeedConn is an open subscription.
type FeedConn interface {
	// Run delivers every message to handle until ctx is done or the connection drops.
	// A cancelled ctx or a normal close returns nil.
	Run(ctx context.Context, handle func([]byte)) error
}

// DialFeed opens the WebSocket for kind.
func (c *Client) DialFeed(ctx context.Context, kind FeedKind) (FeedConn, error) {
	path := kind.Path()
	if path == "" {
		return nil, fmt.Errorf("unknown feed %q", kind)
	}

	d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if c.timeout > 0 {
		d.HandshakeTimeout = c.timeout
	}

	conn, resp, err := d.DialContext(ctx, c.wsURL+path, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s feed: %w", kind, &StatusError{Op: "dial " + string(kind), StatusCode: resp.StatusCode})
		}
		return nil, fmt.Errorf("dial %s feed: %w: %w", kind, ErrTransport, err)
	}

	return &Feed{kind: kind, conn: conn, log: c.log.Named(string(kind) + "_feed")}, nil
}

// Run implements FeedConn.
func (f *Feed) Run(ctx context.Context, handle func([]byte)) error {
	done := make(chan struct{})
	defer close(done)

	// Unblock ReadMessage on cancellation.
	go func() {
		select {
		case <-ctx.Done():
			_ = f.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = f.conn.Close()
		case <-done:
		}
	}()
	defer f.conn.Close()

	for {
		_, msg, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) && (ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway) {
				f.log.Info("feed closed by backend", zap.Int("code", ce.Code))
				return nil
			}
			return fmt.Errorf("read %s feed: %w", f.kind, err)
		}
		handle(msg)
	}
}
