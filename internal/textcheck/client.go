// Package textcheck asks the backend for a scam verdict on pasted text.
package textcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/metrics"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

// EmptyTextPrompt is shown when the user submits nothing.
const EmptyTextPrompt = "กรุณาพิมพ์ข้อความที่ต้องการตรวจสอบ"

// ErrEmptyText is returned without a network call when the input is blank.
var ErrEmptyText = errors.New("text is empty")

// BackendError is a handled failure reported in the response's error field.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// Verdict is the classification of one checked text.
type Verdict struct {
	Label      protocol.Status
	Confidence *float64
	Reason     string
	Text       string
}

// Percent returns the confidence as a rounded percentage. ok is false when the
// backend sent no confidence.
func (v Verdict) Percent() (pct int, ok bool) {
	if v.Confidence == nil {
		return 0, false
	}
	return protocol.Percent(*v.Confidence), true
}

// Client posts text to the check endpoint.
type Client struct {
	url     string
	http    *http.Client
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	url, err := protocol.CheckURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.WithComponent("textcheck"),
		metrics: metrics.DefaultMetrics,
	}, nil
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// WithMetrics replaces the metrics sink.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// Check sends text for classification. Blank input fails with ErrEmptyText
// before any request is made.
func (c *Client) Check(ctx context.Context, text string) (Verdict, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.metrics.TextChecks.WithLabelValues("empty").Inc()
		return Verdict{}, ErrEmptyText
	}

	start := time.Now()
	v, err := c.post(ctx, text)
	latency := time.Since(start)

	outcome := "error"
	if err == nil {
		outcome = strings.ToLower(string(v.Label))
	}
	c.metrics.RecordTextCheck(outcome, latency.Seconds())

	if err != nil {
		c.logger.Warn().Err(err).Dur("latency", latency).Msg("Text check failed")
		return Verdict{}, err
	}
	c.logger.Info().
		Str("label", string(v.Label)).
		Dur("latency", latency).
		Msg("Text check complete")
	return v, nil
}

func (c *Client) post(ctx context.Context, text string) (Verdict, error) {
	body, err := json.Marshal(protocol.CheckRequest{Text: text})
	if err != nil {
		return Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("check-text request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Verdict{}, fmt.Errorf("reading check-text response: %w", err)
	}

	var cr protocol.CheckResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		if resp.StatusCode >= 300 {
			return Verdict{}, fmt.Errorf("check-text http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return Verdict{}, fmt.Errorf("decoding check-text response: %w", err)
	}
	if cr.Error != "" {
		return Verdict{}, &BackendError{Message: cr.Error}
	}
	if resp.StatusCode >= 300 {
		return Verdict{}, fmt.Errorf("check-text http %d", resp.StatusCode)
	}
	if cr.Label == "" {
		return Verdict{}, errors.New("check-text response has no label")
	}

	return Verdict{
		Label:      cr.Label,
		Confidence: cr.Confidence,
		Reason:     cr.Reason,
		Text:       cr.Text,
	}, nil
}
