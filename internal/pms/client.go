// Package pms talks to the Unifound print management service: an anonymous
// SOAP InitSession login and the JSON GetDevices station listing.
package pms

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/randytsao24/pmsstatus/internal/models"
)

// DefaultBaseURL is the institution's PMS host.
const DefaultBaseURL = "http://pms.sustc.edu.cn"

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// Client provides access to the PMS upstream
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a PMS client with its own http.Client
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a PMS client around a caller-supplied http.Client
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// InitSession opens an anonymous upstream session and returns its token.
// A result without the "ok," prefix is a KindAuth error whose Msg is the
// literal upstream text.
func (c *Client) InitSession(ctx context.Context) (string, error) {
	const op = "pms.InitSession"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+servicePath, strings.NewReader(initSessionEnvelope))
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("SOAPAction", soapAction)
	req.Header.Set("Content-Type", soapMimeType)

	status, body, err := c.do(ctx, op, req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &Error{Kind: KindAuth, Op: op, Status: status, Msg: snippet(body)}
	}

	result, err := decodeInitSession(body)
	if err != nil {
		return "", &Error{Kind: KindAuth, Op: op, Status: status, Err: err}
	}

	token, ok := parseSessionResult(result)
	if !ok {
		return "", &Error{Kind: KindAuth, Op: op, Status: status, Msg: result}
	}

	c.logger.Debug("pms session acquired", "session", token)
	return token, nil
}

// GetDevices fetches the station list with the given session token.
// An expired session, a non-empty ErrorMessage and malformed JSON are all
// KindFetch errors.
func (c *Client) GetDevices(ctx context.Context, sessionID string) ([]models.Station, error) {
	const op = "pms.GetDevices"

	payload, err := json.Marshal(devicesRequest{SessionID: sessionID})
	if err != nil {
		return nil, &Error{Kind: KindFetch, Op: op, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+devicesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	status, body, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &Error{Kind: KindFetch, Op: op, Status: status, Msg: snippet(body)}
	}

	res := decodeDevices(body)
	switch res.Outcome {
	case outcomeOK:
		return res.Stations, nil
	case outcomeSessionExpired:
		return nil, &Error{Kind: KindFetch, Op: op, Status: status, Err: ErrSessionOut}
	default:
		return nil, &Error{Kind: KindFetch, Op: op, Status: status, Msg: res.Message, Err: res.Err}
	}
}

func (c *Client) do(ctx context.Context, op string, req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, transportError(op, ctx.Err(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, transportError(op, ctx.Err(), fmt.Errorf("reading response: %w", err))
	}
	return resp.StatusCode, body, nil
}

// snippet trims an error body for logs and error messages.
func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
