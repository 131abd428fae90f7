package handler

import (
	"mime"
	"net/http"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExportHandler struct {
	log *zap.Logger
	svc *service.ExportService
}

func NewExportHandler(log *zap.Logger, svc *service.ExportService) *ExportHandler {
	return &ExportHandler{log: log.Named("export"), svc: svc}
}

// Download handles GET /export/{pdf,csv}?start=&end=&label=&class=.
// The document is streamed back as an attachment under its fixed filename.
func (h *ExportHandler) Download(format service.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q backend.ExportQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		doc, err := h.svc.DownloadDocument(c.Request.Context(), q, format)
		if err != nil {
			fail(c, err)
			return
		}

		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, doc.ContentType, doc.Body)
	}
}
