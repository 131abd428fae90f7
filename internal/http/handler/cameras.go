package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CamerasHandler exposes the camera registry.
//
// Supported operations:
//   - GET    /cameras         → List registered cameras
//   - POST   /cameras         → Register a camera with the backend
//   - DELETE /cameras/{label} → Stop every camera carrying label
//   - DELETE /cameras         → Stop all cameras
type CamerasHandler struct {
	log *zap.Logger
	svc *service.RegistryService
}

func NewCamerasHandler(log *zap.Logger, svc *service.RegistryService) *CamerasHandler {
	return &CamerasHandler{log: log.Named("cameras"), svc: svc}
}

// GetCameraList handles GET /cameras.
func (h *CamerasHandler) GetCameraList(c *gin.Context) {
	cams := h.svc.Cameras()
	c.Header("X-Total-Count", strconv.Itoa(len(cams)))
	c.JSON(http.StatusOK, cams)
}

// AddCamera handles POST /cameras.
//
// Status Codes:
//   - 201 Created → JSON of the new descriptor
//   - 400 Bad Request → invalid JSON
//   - 409 Conflict → label already registered (reject policy only)
//   - 422 Unprocessable Entity → empty label or address
//   - 502 Bad Gateway → backend refused or unreachable
func (h *CamerasHandler) AddCamera(c *gin.Context) {
	var req camera.Registration
	if err := bind(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	d, err := h.svc.AddCamera(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Location", "/api/cameras/"+url.PathEscape(d.Label.String()))
	c.JSON(http.StatusCreated, d)
}

// DeleteCamera handles DELETE /cameras/{label}.
func (h *CamerasHandler) DeleteCamera(c *gin.Context) {
	label := camera.Label(c.Param("label"))
	if err := h.svc.DeleteCamera(c.Request.Context(), label); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label})
}

// DeleteAllCameras handles DELETE /cameras.
func (h *CamerasHandler) DeleteAllCameras(c *gin.Context) {
	if err := h.svc.DeleteAll(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
