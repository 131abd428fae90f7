package handler

import (
	"net/http"
	"strconv"

	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MirrorHandler serves the live detection views.
type MirrorHandler struct {
	log      *zap.Logger
	registry *service.RegistryService
	mirror   *service.MirrorService
}

func NewMirrorHandler(log *zap.Logger, registry *service.RegistryService, mirror *service.MirrorService) *MirrorHandler {
	return &MirrorHandler{log: log.Named("mirror"), registry: registry, mirror: mirror}
}

// Status handles GET /status: registry loading flag, camera count, whether feeds
// are open, and the event log's size against its cap (0: unbounded).
func (h *MirrorHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"loading":    h.registry.Loading(),
		"cameras":    len(h.registry.Cameras()),
		"subscribed": h.mirror.ActiveFeeds() > 0,

		"events":         h.mirror.EventCount(),
		"event_capacity": h.mirror.EventCapacity(),
	})
}

// GetPrecision handles GET /precision: the latest counts snapshot.
func (h *MirrorHandler) GetPrecision(c *gin.Context) {
	c.JSON(http.StatusOK, h.mirror.Snapshot())
}

// GetPerCamera handles GET /precision/{label}.
// Unknown labels return the previously held value, not 404.
func (h *MirrorHandler) GetPerCamera(c *gin.Context) {
	c.JSON(http.StatusOK, h.mirror.GetPerCamera(camera.Label(c.Param("label"))))
}

// GetEvents handles GET /events: the event log, oldest first.
func (h *MirrorHandler) GetEvents(c *gin.Context) {
	events := h.mirror.Events()
	c.Header("X-Total-Count", strconv.Itoa(len(events)))
	c.JSON(http.StatusOK, events)
}

// SelectEvents handles POST /events/select. The filter is destructive.
func (h *MirrorHandler) SelectEvents(c *gin.Context) {
	var req struct {
		Type string `json:"type"`
	}
	if err := bind(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	removed := h.mirror.SelectForExport(req.Type)
	c.JSON(http.StatusOK, gin.H{"removed": removed, "events": h.mirror.Events()})
}
