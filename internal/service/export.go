package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownFormat is returned for export formats other than pdf and csv.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export document format.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// ParseFormat accepts "pdf" and "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPDF, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// Filename is the fixed name the document is offered under.
func (f Format) Filename() string { return "detections." + string(f) }

// ContentType is used when the backend does not name one.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/pdf"
}

// Document is an exported file, opaque to the console.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter fetches rendered documents from the backend.
type Exporter interface {
	Export(ctx context.Context, format string, q backend.ExportQuery) ([]byte, string, error)
}

// ExportService requests detection documents for a time range, camera and class.
// Identical requests in flight at the same time share one backend call.
type ExportService struct {
	log     *zap.Logger
	backend Exporter
	metrics *metrics.Metrics
	sg      singleflight.Group
}

func NewExportService(log *zap.Logger, be Exporter, m *metrics.Metrics) *ExportService {
	return &ExportService{log: log.Named("export"), backend: be, metrics: m}
}

// DownloadDocument fetches the document. Query values are passed through unvalidated
// (operators type free text such as "12h-34").
func (s *ExportService) DownloadDocument(ctx context.Context, q backend.ExportQuery, format Format) (*Document, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	key := strings.Join([]string{string(format), q.Start, q.End, q.Label, q.Class}, "\x00")
	// The flight outlives a cancelled caller. Each caller stops waiting on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.sg.DoChan(key, func() (any, error) {
		body, ct, err := s.backend.Export(flightCtx, string(format), q)
		if err != nil {
			return nil, err
		}
		if ct == "" {
			ct = format.ContentType()
		}
		return &Document{Filename: format.Filename(), ContentType: ct, Body: body}, nil
	})

	var (
		v      any
		err    error
		shared bool
	)
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case res := <-ch:
		v, err, shared = res.Val, res.Err, res.Shared
	}
	s.metrics.Exports.WithLabelValues(string(format), metrics.Outcome(err)).Inc()

	log := s.log.With(
		zap.String("format", string(format)),
		zap.String("start", q.Start),
		zap.String("end", q.End),
		zap.String("label", q.Label),
		zap.String("class", q.Class),
		zap.Bool("shared", shared),
	)
	if err != nil {
		log.Error("export failed", zap.Error(err))
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	doc := v.(*Document)
	log.Info("export ready", zap.Int("bytes", len(doc.Body)))
	return doc, nil
}
