package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edirooss/witness-console/internal/config"
	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client talks to the AI backend's HTTP API.
//
// Supported operations:
//   - POST /api/add_camera            → AddCamera
//   - POST /api/stop_camera?label=... → StopCamera
//   - POST /api/stop_all              → StopAll
//   - GET  /api/export/{pdf,csv}?...  → Export
//
// Any 2xx is success. Nothing is retried.
type Client struct {
	log     *zap.Logger
	http    *resty.Client
	baseURL string
	wsURL   string
	timeout time.Duration
}

// maxDocumentBytes caps export downloads held in memory.
const maxDocumentBytes = 64 << 20

// NewClient builds a backend client. A nil httpClient uses a dedicated default transport.
func NewClient(log *zap.Logger, cfg config.BackendConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	log = log.Named("backend")
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	r := resty.NewWithClient(httpClient)
	r.SetBaseURL(baseURL)
	r.SetLogger(log.Sugar())

	return &Client{
		log:     log,
		http:    r,
		baseURL: baseURL,
		wsURL:   strings.TrimRight(cfg.WSURL, "/"),
		timeout: cfg.RequestTimeout,
	}
}

// BaseURL returns the backend origin the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// AddStatus is the backend's answer to a registration ("Started", "Already running").
type AddStatus struct {
	Status string `json:"status"`
}

// AddCamera registers a camera with the backend.
// The status payload is informational; an undecodable body on 2xx is still a success.
func (c *Client) AddCamera(ctx context.Context, reg camera.Registration) (AddStatus, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reg)
	resp, err := c.do(req, http.MethodPost, "add camera", "/api/add_camera")
	if err != nil {
		return AddStatus{}, err
	}

	var st AddStatus
	if err := json.Unmarshal(resp.Body(), &st); err != nil {
		c.log.Warn("add camera: undecodable status payload", zap.String("label", reg.Label.String()), zap.Error(err))
	}
	return st, nil
}

// StopCamera asks the backend to stop the worker for label.
func (c *Client) StopCamera(ctx context.Context, label camera.Label) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("label", label.String())
	_, err := c.do(req, http.MethodPost, "stop camera", "/api/stop_camera")
	return err
}

// StopAll asks the backend to stop every camera worker.
func (c *Client) StopAll(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.do(c.http.R().SetContext(ctx), http.MethodPost, "stop all", "/api/stop_all")
	return err
}

// ExportQuery selects the detections to render. Values are passed through verbatim.
type ExportQuery struct {
	Start string `form:"start" json:"start"`
	End   string `form:"end" json:"end"`
	Label string `form:"label" json:"label"`
	Class string `form:"class" json:"class"`
}

func (q ExportQuery) values() url.Values {
	return url.Values{
		"start": {q.Start},
		"end":   {q.End},
		"label": {q.Label},
		"class": {q.Class},
	}
}

// Export downloads a rendered document (format "pdf" or "csv") as an opaque blob.
// Returns the body and the backend's Content-Type.
func (c *Client) Export(ctx context.Context, format string, q ExportQuery) ([]byte, string, error) {
	op := "export " + format
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	// The document is streamed off the raw body so the size cap applies before buffering.
	req := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q.values()).
		SetDoNotParseResponse(true)
	resp, err := req.Get("/api/export/" + format)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		snippet, _ := io.ReadAll(io.LimitReader(body, 512))
		return nil, "", &StatusError{Op: op, StatusCode: resp.StatusCode(), Body: strings.TrimSpace(string(snippet))}
	}

	data, err := io.ReadAll(io.LimitReader(body, maxDocumentBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%s: read body: %w: %w", op, ErrTransport, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, "", fmt.Errorf("%s: document exceeds %d bytes", op, maxDocumentBytes)
	}
	return data, resp.Header().Get("Content-Type"), nil
}

// do executes a small request and maps failures onto ErrTransport / StatusError.
func (c *Client) do(req *resty.Request, method, op, path string) (*resty.Response, error) {
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}

	c.log.Debug("backend call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", time.Since(start)),
	)

	if !resp.IsSuccess() {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode(), Body: snippet(resp.Body())}
	}
	return resp, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return strings.TrimSpace(string(b))
}
