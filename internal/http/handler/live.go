package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const liveKeepalive = 30 * time.Second

// LiveHandler pushes view updates to the browser over Server-Sent Events.
//
// Events:
//   - cameras   → full camera list, after every registry change
//   - precision → full counts snapshot, after every counts message
//   - events    → full event log, initially and after every filter
//   - events-appended → {events, total}: only the events appended since the
//     last push, and how many the log holds now (older rows beyond it were evicted)
//
// The first three events carry the current state so a fresh page needs no extra fetches.
type LiveHandler struct {
	log      *zap.Logger
	registry *service.RegistryService
	mirror   *service.MirrorService
}

func NewLiveHandler(log *zap.Logger, registry *service.RegistryService, mirror *service.MirrorService) *LiveHandler {
	return &LiveHandler{log: log.Named("live"), registry: registry, mirror: mirror}
}

// Stream handles GET /live.
func (h *LiveHandler) Stream(c *gin.Context) {
	camID, cams := h.registry.Subscribe()
	defer h.registry.Unsubscribe(camID)
	updID, updates := h.mirror.SubscribeUpdates()
	defer h.mirror.UnsubscribeUpdates(updID)

	// the stream outlives the server's write timeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Debug("could not clear write deadline", zap.Error(err))
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("cameras", h.registry.Cameras())
	c.SSEvent("precision", h.mirror.Snapshot())
	events, cursor := h.mirror.EventLog()
	c.SSEvent("events", events)
	c.Writer.Flush()

	keepalive := time.NewTicker(liveKeepalive)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("live client disconnected", zap.String("client_ip", c.ClientIP()))
			return
		case list, ok := <-cams:
			if !ok {
				return
			}
			c.SSEvent("cameras", list)
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Has(service.UpdatePrecision) {
				c.SSEvent("precision", h.mirror.Snapshot())
			}
			if u.Has(service.UpdateEvents) {
				added, next, ok := h.mirror.EventsSince(cursor)
				switch {
				case !ok:
					events, next = h.mirror.EventLog()
					c.SSEvent("events", events)
				case len(added) > 0:
					c.SSEvent("events-appended", gin.H{"events": added, "total": h.mirror.EventCount()})
				}
				cursor = next
			}
		case <-keepalive.C:
			if _, err := io.WriteString(c.Writer, ": keepalive\n\n"); err != nil {
				return
			}
		}
		c.Writer.Flush()
	}
}
