// Package printclient issues the composed print request against the map
// server and returns the raw response for validation.
package printclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sogis/landreg-extract/internal/core/model"
	"github.com/sogis/landreg-extract/internal/core/observability"
	"github.com/sogis/landreg-extract/internal/printreq"
)

// maxDocumentBytes caps how much of a print response is buffered.
const maxDocumentBytes = 64 << 20

// maxErrorExcerpt bounds how much of an upstream error body is kept for
// diagnostics; error pages are never forwarded verbatim.
const maxErrorExcerpt = 8 << 10

// RawResponse is the unvalidated upstream result.
type RawResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

type Client struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint string
	timeout  time.Duration
	startNow func() time.Time // for tests
}

// New builds a client for the project's print endpoint. timeout bounds each
// print call; renders are slow, so it should be generous but finite.
func New(logger *slog.Logger, httpClient *http.Client, endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		logger:   logger,
		client:   httpClient,
		endpoint: endpoint,
		timeout:  timeout,
		startNow: time.Now,
	}
}

// Send performs the single blocking network call of the pipeline. It never
// retries: printing is not guaranteed to be free of side effects on the map
// server, so retry policy belongs to the caller.
func (c *Client) Send(ctx context.Context, params printreq.Parameters) (RawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := params.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form))
	if err != nil {
		return RawResponse{}, fmt.Errorf("build print request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("print request",
		"endpoint", c.endpoint,
		"template", params.Template,
		"layers", len(params.Layers))

	start := c.startNow()
	resp, err := c.client.Do(req)
	if err != nil {
		return RawResponse{}, model.WrapError(model.KindUpstreamUnavailable, "print", err)
	}
	defer func() { _ = resp.Body.Close() }()

	dur := time.Since(start)
	observability.ObserveUpstreamLatency("mapserver", dur.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
		return RawResponse{}, model.WrapError(model.KindUpstreamError,
			fmt.Sprintf("status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(b))))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return RawResponse{}, model.WrapError(model.KindUpstreamUnavailable, "print", err)
	}

	c.logger.Debug("print response",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", dur.String())

	return RawResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
