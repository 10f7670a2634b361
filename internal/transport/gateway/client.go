// Package gateway binds the transport capability to a WhatsApp REST gateway.
//
// The gateway is an external process that owns the WhatsApp Web session
// (pairing, reconnects). This client only sends messages and polls the
// gateway's connection status into a transport.State.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/bulksend/internal/transport"
)

// DefaultRecipientSuffix is the chat-ID domain for individual WhatsApp users.
const DefaultRecipientSuffix = "@c.us"

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// Options configures a Client.
type Options struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	RecipientSuffix string

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client sends messages through the gateway. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	token   string
	suffix  string
	http    *http.Client
	state   *transport.State
	log     *slog.Logger
}

// Status is the gateway's view of the WhatsApp session.
type Status struct {
	Connected bool   `json:"connected"`
	User      string `json:"user"`
	QR        string `json:"qr"`
}

type sendRequest struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New creates a Client that reports connection changes into state.
func New(opts Options, state *transport.State) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base URL %q must be http or https", opts.BaseURL)
	}
	if state == nil {
		state = transport.NewState()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	suffix := opts.RecipientSuffix
	if suffix == "" {
		suffix = DefaultRecipientSuffix
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL: u,
		token:   opts.Token,
		suffix:  suffix,
		http:    httpClient,
		state:   state,
		log:     log.With("component", "gateway"),
	}, nil
}

// State returns the connection state this client maintains.
func (c *Client) State() *transport.State {
	return c.state
}

// Recipient returns the gateway chat ID for a phone number.
func (c *Client) Recipient(phone string) string {
	return phone + c.suffix
}

// Send implements transport.Sender.
func (c *Client) Send(ctx context.Context, phone, text string) error {
	payload, err := json.Marshal(sendRequest{ChatID: c.Recipient(phone), Text: text})
	if err != nil {
		return fmt.Errorf("gateway: encode message: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg := readErrorMessage(resp.Body)
	if resp.StatusCode == http.StatusServiceUnavailable {
		// The gateway lost its session; stop accepting new dispatches until
		// the status poller sees it come back.
		c.state.SetConnected(false, "")
		return fmt.Errorf("gateway: %w: %s", transport.ErrNotConnected, msg)
	}
	return fmt.Errorf("gateway: %s (HTTP %d)", msg, resp.StatusCode)
}

// FetchStatus asks the gateway for its current session status.
func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return Status{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("gateway: status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("gateway: status: %s (HTTP %d)", readErrorMessage(resp.Body), resp.StatusCode)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return Status{}, fmt.Errorf("gateway: decode status: %w", err)
	}
	return st, nil
}

// Refresh fetches the gateway status once and applies it to the state.
// An unreachable gateway is recorded as disconnected.
func (c *Client) Refresh(ctx context.Context) error {
	st, err := c.FetchStatus(ctx)
	wasReady := c.state.Ready()
	if err != nil {
		c.state.SetConnected(false, "")
		if wasReady {
			c.log.Warn("gateway unreachable, marking transport not ready", "error", err)
		}
		return err
	}

	if st.Connected {
		c.state.SetConnected(true, st.User)
		if !wasReady {
			c.log.Info("whatsapp client ready", "user", st.User)
		}
		return nil
	}

	c.state.SetConnected(false, "")
	if st.QR != "" && st.QR != c.state.Snapshot().QR {
		c.state.SetQR(st.QR)
		c.log.Info("pairing code received, scan it on the gateway to connect")
	}
	if wasReady {
		c.log.Warn("whatsapp client disconnected")
	}
	return nil
}

// Watch polls the gateway status every interval until ctx is done.
func (c *Client) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	_ = c.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Debug("status poll failed", "error", err)
			}
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// readErrorMessage extracts a human-readable reason from an error body.
func readErrorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		if er.Error != "" {
			return er.Error
		}
		if er.Message != "" {
			return er.Message
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return "empty response"
}
