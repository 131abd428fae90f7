package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edirooss/witness-console/internal/backend"
	"github.com/edirooss/witness-console/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExporter struct {
	calls   atomic.Int32
	err     error
	ct      string
	gate    chan struct{}
	entered chan struct{}
	last    backend.ExportQuery
	format  string
	mu      sync.Mutex
}

func (f *fakeExporter) Export(ctx context.Context, format string, q backend.ExportQuery) ([]byte, string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last, f.format = q, format
	f.mu.Unlock()
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("%PDF-1.4"), f.ct, nil
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "detections.pdf", f.Filename())
	assert.Equal(t, "detections.csv", FormatCSV.Filename())

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDownloadDocumentPassesQueryThrough(t *testing.T) {
	be := &fakeExporter{}
	s := NewExportService(zap.NewNop(), be, metrics.New())

	q := backend.ExportQuery{Start: "12h-34", End: "tomorrow", Label: "Salon", Class: "person"}
	doc, err := s.DownloadDocument(context.Background(), q, FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, q, be.last)
	assert.Equal(t, "pdf", be.format)
	assert.Equal(t, "detections.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), doc.Body)
}

func TestDownloadDocumentKeepsBackendContentType(t *testing.T) {
	be := &fakeExporter{ct: "text/csv"}
	s := NewExportService(zap.NewNop(), be, metrics.New())

	doc, err := s.DownloadDocument(context.Background(), backend.ExportQuery{}, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.Equal(t, "detections.csv", doc.Filename)
}

func TestDownloadDocumentFailure(t *testing.T) {
	be := &fakeExporter{err: &backend.StatusError{Op: "export pdf", StatusCode: 500}}
	s := NewExportService(zap.NewNop(), be, metrics.New())

	doc, err := s.DownloadDocument(context.Background(), backend.ExportQuery{}, FormatPDF)
	assert.Nil(t, doc)
	assert.True(t, backend.IsStatus(err, 500))

	_, err = s.DownloadDocument(context.Background(), backend.ExportQuery{}, Format("xlsx"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.EqualValues(t, 1, be.calls.Load())
}

func TestIdenticalExportsShareOneCall(t *testing.T) {
	be := &fakeExporter{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewExportService(zap.NewNop(), be, metrics.New())
	q := backend.ExportQuery{Label: "Salon"}

	var wg sync.WaitGroup
	results := make([]*Document, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = s.DownloadDocument(context.Background(), q, FormatPDF)
	}()
	<-be.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = s.DownloadDocument(context.Background(), q, FormatPDF)
	}()
	// let the second caller join the flight before releasing it
	time.Sleep(50 * time.Millisecond)
	close(be.gate)
	wg.Wait()

	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.EqualValues(t, 1, be.calls.Load())
	assert.Equal(t, results[0].Body, results[1].Body)
}

func TestDifferentExportsAreNotShared(t *testing.T) {
	be := &fakeExporter{}
	s := NewExportService(zap.NewNop(), be, metrics.New())

	_, err := s.DownloadDocument(context.Background(), backend.ExportQuery{Label: "Salon"}, FormatPDF)
	require.NoError(t, err)
	_, err = s.DownloadDocument(context.Background(), backend.ExportQuery{Label: "Cuisine"}, FormatPDF)
	require.NoError(t, err)
	_, err = s.DownloadDocument(context.Background(), backend.ExportQuery{Label: "Cuisine"}, FormatCSV)
	require.NoError(t, err)
	assert.EqualValues(t, 3, be.calls.Load())
}

func TestCancelledCallerDoesNotAbortSharedExport(t *testing.T) {
	be := &fakeExporter{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewExportService(zap.NewNop(), be, metrics.New())
	q := backend.ExportQuery{Label: "Salon"}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.DownloadDocument(firstCtx, q, FormatPDF)
		firstErr <- err
	}()
	<-be.entered

	type result struct {
		doc *Document
		err error
	}
	second := make(chan result, 1)
	go func() {
		doc, err := s.DownloadDocument(context.Background(), q, FormatPDF)
		second <- result{doc, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(be.gate)
	res := <-second
	require.NoError(t, res.err)
	require.NotNil(t, res.doc)
	assert.Equal(t, []byte("%PDF-1.4"), res.doc.Body)
	assert.EqualValues(t, 1, be.calls.Load())
}
