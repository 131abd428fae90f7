package backend

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func TestFeedPaths(t *testing.T) {
	assert.Equal(t, "/ws/counts-list", FeedCounts.Path())
	assert.Equal(t, "/ws/events", FeedEvents.Path())
	assert.Empty(t, FeedKind("other").Path())
}

func TestDialFeedDeliversMessages(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/events", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for _, m := range []string{`{"type":"person"}`, `{"type":"vehicle"}`} {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(m)))
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))

	feed, err := c.DialFeed(context.Background(), FeedEvents)
	require.NoError(t, err)

	var got []string
	err = feed.Run(context.Background(), func(b []byte) { got = append(got, string(b)) })
	assert.NoError(t, err)
	assert.Equal(t, []string{`{"type":"person"}`, `{"type":"vehicle"}`}, got)
}

func TestFeedRunStopsOnCancel(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer wg.Done()
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		// hold the socket open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	feed, err := c.DialFeed(context.Background(), FeedCounts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx, func([]byte) {}) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	wg.Wait()
}

func TestDialFeedRejected(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	_, err := c.DialFeed(context.Background(), FeedCounts)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestFeedDroppedIsError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn.Close() // no close frame
	}))

	feed, err := c.DialFeed(context.Background(), FeedCounts)
	require.NoError(t, err)
	assert.Error(t, feed.Run(context.Background(), func([]byte) {}))
}
