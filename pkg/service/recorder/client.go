package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

const (
	// DefaultTimeout bounds each provider call; polls and transcript
	// fetches are background work, so this is looser than the webhook
	// budget but still bounded.
	DefaultTimeout = 30 * time.Second
	// DefaultRetryCount is the fixed number of attempts per call
	// before the error surfaces to the scheduler.
	DefaultRetryCount = 3
	// DefaultBotName is the display name the bot joins meetings with
	DefaultBotName = "meetsync notetaker"
)

// client implements Service against the bot vendor's REST API
type client struct {
	baseURL    string
	token      string
	botName    string
	retryCount int
	httpClient *http.Client
}

// Option is a functional option for client configuration
type Option func(*client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithBotName sets the display name the bot joins meetings with
func WithBotName(name string) Option {
	return func(c *client) {
		c.botName = name
	}
}

// WithRetryCount sets the fixed attempt count per provider call
func WithRetryCount(n int) Option {
	return func(c *client) {
		c.retryCount = n
	}
}

// New creates a new bot provider client
func New(baseURL, token string, opts ...Option) (Service, error) {
	if baseURL == "" {
		return nil, goerr.New("recorder base URL is required")
	}
	if token == "" {
		return nil, goerr.New("recorder API token is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, goerr.Wrap(err, "invalid recorder base URL", goerr.V("baseURL", baseURL))
	}

	c := &client{
		baseURL:    baseURL,
		token:      token,
		botName:    DefaultBotName,
		retryCount: DefaultRetryCount,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// do runs one HTTP call with the fixed retry count. Only transport
// errors and 5xx responses are retried; 4xx responses surface at once.
func (c *client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request body")
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return goerr.Wrap(ctx.Err(), "recorder call cancelled")
			case <-time.After(time.Second * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return goerr.Wrap(err, "failed to create request", goerr.V("path", path))
		}
		req.Header.Set("Authorization", "Token "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = goerr.Wrap(err, "recorder request failed", goerr.V("path", path))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = goerr.Wrap(err, "failed to read recorder response", goerr.V("path", path))
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = goerr.New("recorder server error",
				goerr.V("path", path), goerr.V("status", resp.StatusCode))
			continue
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return goerr.New("recorder request rejected",
				goerr.V("path", path), goerr.V("status", resp.StatusCode), goerr.V("body", string(body)))
		}

		if respBody != nil {
			if err := json.Unmarshal(body, respBody); err != nil {
				return goerr.Wrap(err, "failed to decode recorder response", goerr.V("path", path))
			}
		}
		return nil
	}

	return lastErr
}

type dispatchRequest struct {
	MeetingURL string         `json:"meeting_url"`
	BotName    string         `json:"bot_name"`
	Settings   map[string]any `json:"settings,omitempty"`
}

type dispatchResponse struct {
	ID string `json:"id"`
}

func (c *client) Dispatch(ctx context.Context, meetingURL string, settings map[string]any) (types.BotID, error) {
	if meetingURL == "" {
		return "", goerr.New("meeting URL is required for dispatch")
	}

	req := dispatchRequest{
		MeetingURL: meetingURL,
		BotName:    c.botName,
		Settings:   settings,
	}
	var resp dispatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/bot", &req, &resp); err != nil {
		return "", goerr.Wrap(err, "failed to dispatch bot", goerr.V("meetingURL", meetingURL))
	}
	if resp.ID == "" {
		return "", goerr.New("recorder returned empty bot ID")
	}

	return types.BotID(resp.ID), nil
}

type statusResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// vendorStatus maps the vendor's status codes onto the local lifecycle
var vendorStatus = map[string]types.BotStatus{
	"ready":         types.BotStatusPending,
	"scheduled":     types.BotStatusScheduled,
	"joining_call":  types.BotStatusJoined,
	"in_call":       types.BotStatusJoined,
	"call_ended":    types.BotStatusTranscribing,
	"transcribing":  types.BotStatusTranscribing,
	"done":          types.BotStatusCompleted,
	"fatal":         types.BotStatusFailed,
	"access_denied": types.BotStatusFailed,
}

func (c *client) Status(ctx context.Context, botID types.BotID) (types.BotStatus, error) {
	var resp statusResponse
	path := fmt.Sprintf("/api/v1/bot/%s", url.PathEscape(botID.String()))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", goerr.Wrap(err, "failed to get bot status", goerr.V("botID", botID))
	}

	status, ok := vendorStatus[resp.Status]
	if !ok {
		return "", goerr.New("unknown vendor bot status",
			goerr.V("botID", botID), goerr.V("status", resp.Status))
	}
	return status, nil
}

type transcriptResponse struct {
	Summary         string  `json:"summary"`
	DurationSeconds float64 `json:"duration_seconds"`
	AudioURL        string  `json:"audio_url"`
	VideoURL        string  `json:"video_url"`
	Segments        []struct {
		Speaker string  `json:"speaker"`
		Text    string  `json:"text"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
	} `json:"segments"`
	Participants []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"participants"`
}

func (c *client) Transcript(ctx context.Context, botID types.BotID) (*model.Transcript, error) {
	var resp transcriptResponse
	path := fmt.Sprintf("/api/v1/bot/%s/transcript", url.PathEscape(botID.String()))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("botID", botID))
	}

	t := &model.Transcript{
		Summary:         resp.Summary,
		DurationSeconds: resp.DurationSeconds,
		AudioURL:        resp.AudioURL,
		VideoURL:        resp.VideoURL,
	}
	for _, seg := range resp.Segments {
		t.Segments = append(t.Segments, model.TranscriptSegment{
			Speaker:     seg.Speaker,
			Text:        seg.Text,
			StartOffset: seg.Start,
			EndOffset:   seg.End,
		})
	}
	for _, p := range resp.Participants {
		t.Participants = append(t.Participants, model.Participant{
			Name:  p.Name,
			Email: p.Email,
		})
	}

	return t, nil
}
