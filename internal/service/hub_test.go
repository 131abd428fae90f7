package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubNewestWinsWithoutMerge(t *testing.T) {
	h := newHub[int](nil)
	id, ch := h.Subscribe()

	h.Broadcast(1)
	h.Broadcast(2)
	h.Broadcast(3)
	assert.Equal(t, 3, <-ch)

	h.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	assert.Empty(t, h.clients)
}

func TestHubMergesPendingValues(t *testing.T) {
	h := newHub[Update](mergeUpdates)
	_, slow := h.Subscribe()
	_, fast := h.Subscribe()

	h.Broadcast(UpdatePrecision)
	assert.Equal(t, UpdatePrecision, <-fast)
	h.Broadcast(UpdateEvents)

	assert.Equal(t, UpdatePrecision|UpdateEvents, <-slow)
	// the fast client only sees what came after its last read
	assert.Equal(t, UpdateEvents, <-fast)
}

func TestHubUnsubscribeUnknownID(t *testing.T) {
	h := newHub[int](nil)
	h.Unsubscribe(42)
	assert.Empty(t, h.clients)
}
