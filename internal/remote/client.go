package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// requestTimeout bounds a single endpoint call. The endpoint answers
// from a database, so anything slower than this is effectively down.
const requestTimeout = 30 * time.Second

// connection pooling limits; the client talks to a single host
const (
	defaultMaxIdleConns    = 10
	defaultIdleConnTimeout = 60 * time.Second
)

// ErrRemote marks soft remote failures: transport errors, non-2xx
// responses, and endpoint-reported failures. Callers treat these as
// transient and retry on the next cycle without mutating state.
var ErrRemote = errors.New("remote endpoint failure")

// Endpoint protocol methods.
const (
	methodGetConfiguration   = "get-configuration"
	methodGetTrackingUpdates = "get-tracking-updates"
)

// controlID is a control identifier on the wire. The endpoint sends it
// as either a JSON string or a JSON number; it is always handled as a
// string internally.
type controlID string

func (c *controlID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = controlID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("control id is neither string nor number: %s", data)
	}
	*c = controlID(n.String())
	return nil
}

// TrackingUpdate is one checkin record from the endpoint.
type TrackingUpdate struct {
	FramePlateNumber string    `json:"frame_plate_number"`
	Control          controlID `json:"control"`

	// CheckinTime is an ISO-8601 timestamp; null marks a checkin without
	// a time (a DNF record).
	CheckinTime *string `json:"checkin_time"`
}

// TrackingUpdates is the payload of a successful get-tracking-updates call.
type TrackingUpdates struct {
	Updates []TrackingUpdate

	// NextSince is the cursor to pass on the next poll.
	NextSince string
}

// EventPayload is the event metadata from a get-configuration call.
type EventPayload struct {
	Name   map[string]string `json:"name"`
	Start  string            `json:"start"`
	Finish string            `json:"finish"`
}

// ControlPayload is one control from a get-configuration call.
type ControlPayload struct {
	Name     map[string]string `json:"name"`
	Distance float64           `json:"distance"`
	Finish   bool              `json:"finish"`
}

// Configuration is the payload of a successful get-configuration call.
type Configuration struct {
	Event    EventPayload
	Controls map[string]ControlPayload

	// Participants maps frame plate numbers to participant names.
	Participants map[string]string
}

type apiStatus struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message"`
}

type trackingRequest struct {
	Token  string  `json:"token"`
	Method string  `json:"method"`
	Since  *string `json:"since"`
}

type configurationRequest struct {
	Token  string `json:"token"`
	Method string `json:"method"`
}

type trackingResponse struct {
	apiStatus
	Updates   []TrackingUpdate `json:"updates"`
	NextSince string           `json:"next_since"`
}

type configurationResponse struct {
	apiStatus
	Event        EventPayload              `json:"event"`
	Controls     map[string]ControlPayload `json:"controls"`
	Participants map[string]string         `json:"participants"`
}

// Client calls the remote tracking endpoint.
//
// The endpoint is a single HTTP POST URL taking a JSON body with a
// method field and a shared-secret token. Transport errors, non-2xx
// statuses, and success:false responses all come back wrapped in
// [ErrRemote]; a 2xx response that fails to decode does not, since a
// malformed payload is not a transient condition.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	logger     *slog.Logger
}

// NewClient creates a Client for the endpoint at url, authenticating
// with the given shared-secret token.
func NewClient(url, token string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - requests carry a context timeout
			Transport: &http.Transport{
				MaxIdleConns:    defaultMaxIdleConns,
				IdleConnTimeout: defaultIdleConnTimeout,
			},
		},
		url:    url,
		token:  token,
		logger: logger,
	}
}

// TrackingUpdates fetches checkins newer than the cursor. A nil cursor
// requests updates from the beginning of the feed.
func (c *Client) TrackingUpdates(ctx context.Context, since *string) (*TrackingUpdates, error) {
	var resp trackingResponse
	if err := c.post(ctx, trackingRequest{Token: c.token, Method: methodGetTrackingUpdates, Since: since}, &resp); err != nil {
		return nil, err
	}
	return &TrackingUpdates{Updates: resp.Updates, NextSince: resp.NextSince}, nil
}

// Configuration fetches the event, control, and participant reference data.
func (c *Client) Configuration(ctx context.Context) (*Configuration, error) {
	var resp configurationResponse
	if err := c.post(ctx, configurationRequest{Token: c.token, Method: methodGetConfiguration}, &resp); err != nil {
		return nil, err
	}
	return &Configuration{Event: resp.Event, Controls: resp.Controls, Participants: resp.Participants}, nil
}

// apiStatuser lets post inspect the success flag of any response type.
type apiStatuser interface {
	status() apiStatus
}

func (s apiStatus) status() apiStatus { return s }

// post sends one endpoint request and decodes the response into out.
func (c *Client) post(ctx context.Context, payload any, out apiStatuser) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Info("got HTTP error response", "status", resp.StatusCode)
		return fmt.Errorf("%w: HTTP %d", ErrRemote, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrRemote, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if status := out.status(); !status.Success {
		c.logger.Info("got API error response", "error_message", status.ErrorMessage)
		return fmt.Errorf("%w: %s", ErrRemote, status.ErrorMessage)
	}
	return nil
}
