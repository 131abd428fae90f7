package handler

import (
	"net/http"

	mw "github.com/edirooss/witness-console/internal/http/middleware"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services the routes are served from.
type Deps struct {
	Auth     *service.AuthService
	Registry *service.RegistryService
	Mirror   *service.MirrorService
	Export   *service.ExportService

	// ExportConcurrency caps simultaneous export downloads (0: 4).
	ExportConcurrency int
}

// ConfigureEngine sets the routing options the label routes depend on.
// Labels may contain '/', so routes match on the escaped path and :label is
// unescaped afterwards.
func ConfigureEngine(r *gin.Engine) {
	r.UseRawPath = true
	r.UnescapePathValues = true
}

// RegisterRoutes mounts the dashboard page and the /api surface on r.
// Session middleware must already be installed on r, and an engine passed
// through ConfigureEngine.
func RegisterRoutes(r gin.IRouter, log *zap.Logger, d Deps) {
	if d.ExportConcurrency <= 0 {
		d.ExportConcurrency = 4
	}

	// --- Public endpoints (no auth) ---
	{
		r.GET("/", NewDashboardHandler(log, d.Auth, d.Registry, d.Mirror).Index)
		r.GET("/api/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

		usrsesshndler := NewUserSessionsHandler(log, d.Auth)
		r.POST("/api/login", usrsesshndler.Login)
		r.POST("/api/logout", usrsesshndler.Logout)
		r.GET("/api/csrf", IssueSessionCSRF(d.Auth))
	}

	// --- Protected endpoints (operator session required) ---
	authed := r.Group("/api", mw.Authentication(d.Auth), mw.ValidateSessionCSRF(d.Auth))
	authed.GET("/me", Me(d.Auth))

	{
		camerashndlr := NewCamerasHandler(log, d.Registry)
		authed.GET("/cameras", camerashndlr.GetCameraList)
		authed.POST("/cameras", camerashndlr.AddCamera)
		authed.DELETE("/cameras", camerashndlr.DeleteAllCameras)
		authed.DELETE("/cameras/:label", camerashndlr.DeleteCamera)
	}

	{
		mirrorhndlr := NewMirrorHandler(log, d.Registry, d.Mirror)
		authed.GET("/status", mirrorhndlr.Status)
		authed.GET("/precision", mirrorhndlr.GetPrecision)
		authed.GET("/precision/:label", mirrorhndlr.GetPerCamera)
		authed.GET("/events", mirrorhndlr.GetEvents)
		authed.POST("/events/select", mirrorhndlr.SelectEvents)
		authed.GET("/live", NewLiveHandler(log, d.Registry, d.Mirror).Stream)
	}

	{
		exporthndlr := NewExportHandler(log, d.Export)
		limit := mw.LimitConcurrentRequests(d.ExportConcurrency)
		authed.GET("/export/pdf", limit, exporthndlr.Download(service.FormatPDF))
		authed.GET("/export/csv", limit, exporthndlr.Download(service.FormatCSV))
	}
}
