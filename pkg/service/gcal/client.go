package gcal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// client implements Client over the Google Calendar API
type client struct {
	svc *calendar.Service
}

// Option is a functional option for client configuration
type Option func(*options)

type options struct {
	credentialsFile string
	httpClient      *http.Client
}

// WithCredentialsFile sets a service account credentials file. Without
// it, application default credentials are used.
func WithCredentialsFile(path string) Option {
	return func(o *options) {
		o.credentialsFile = path
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// New creates a new Google Calendar client
func New(ctx context.Context, opts ...Option) (Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []option.ClientOption
	if o.credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(o.credentialsFile))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	}
	clientOpts = append(clientOpts, option.WithScopes(calendar.CalendarReadonlyScope))

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create calendar service")
	}

	return &client{svc: svc}, nil
}

func (c *client) Watch(ctx context.Context, calendarID types.CalendarID, channelID types.ChannelID, secret, address string) (*WatchResult, error) {
	ch := &calendar.Channel{
		Id:      channelID.String(),
		Type:    "web_hook",
		Address: address,
		Token:   secret,
	}

	resp, err := c.svc.Events.Watch(calendarID.String(), ch).Context(ctx).Do()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to watch calendar",
			goerr.V("calendarID", calendarID), goerr.V("channelID", channelID))
	}

	return &WatchResult{
		ChannelID:  types.ChannelID(resp.Id),
		ResourceID: resp.ResourceId,
		Expiration: time.UnixMilli(resp.Expiration).UTC(),
	}, nil
}

func (c *client) Stop(ctx context.Context, channelID types.ChannelID, resourceID string) error {
	ch := &calendar.Channel{
		Id:         channelID.String(),
		ResourceId: resourceID,
	}

	if err := c.svc.Channels.Stop(ch).Context(ctx).Do(); err != nil {
		return goerr.Wrap(err, "failed to stop channel",
			goerr.V("channelID", channelID), goerr.V("resourceID", resourceID))
	}
	return nil
}

func (c *client) Changes(ctx context.Context, calendarID types.CalendarID, syncToken string) (*ChangeSet, error) {
	if syncToken == "" {
		return nil, goerr.Wrap(types.ErrSyncTokenInvalid, "no sync token stored")
	}

	var result ChangeSet
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID.String()).
			SingleEvents(true).
			ShowDeleted(true).
			SyncToken(syncToken).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			// The provider signals an expired or invalidated token
			// with HTTP 410; this is a distinct error class that
			// triggers the full-resync fallback.
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && gerr.Code == http.StatusGone {
				return nil, goerr.Wrap(types.ErrSyncTokenInvalid, "provider rejected sync token",
					goerr.V("calendarID", calendarID))
			}
			return nil, goerr.Wrap(err, "failed to list changed events",
				goerr.V("calendarID", calendarID))
		}

		for _, item := range resp.Items {
			result.Events = append(result.Events, normalizeEvent(item))
		}

		if resp.NextPageToken == "" {
			result.NextSyncToken = resp.NextSyncToken
			return &result, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *client) ListWindow(ctx context.Context, calendarID types.CalendarID, from, to time.Time) (*ChangeSet, error) {
	var result ChangeSet
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID.String()).
			SingleEvents(true).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list events in window",
				goerr.V("calendarID", calendarID), goerr.V("from", from), goerr.V("to", to))
		}

		for _, item := range resp.Items {
			result.Events = append(result.Events, normalizeEvent(item))
		}

		if resp.NextPageToken == "" {
			result.NextSyncToken = resp.NextSyncToken
			return &result, nil
		}
		pageToken = resp.NextPageToken
	}
}

// normalizeEvent maps a provider event to the local representation
func normalizeEvent(ev *calendar.Event) model.CalendarEvent {
	e := model.CalendarEvent{
		ID:        types.EventID(ev.Id),
		Title:     ev.Summary,
		Cancelled: ev.Status == "cancelled",
	}

	if ev.Start != nil {
		e.StartTime = parseEventTime(ev.Start)
	}
	if ev.End != nil {
		e.EndTime = parseEventTime(ev.End)
	}
	e.MeetingURL = meetingURL(ev)

	return e
}

func parseEventTime(t *calendar.EventDateTime) time.Time {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed.UTC()
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// meetingURL extracts a joinable conference URL from the event, checking
// the hangout link, conference entry points, then a URL-shaped location.
func meetingURL(ev *calendar.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri
			}
		}
	}
	if strings.HasPrefix(ev.Location, "https://") || strings.HasPrefix(ev.Location, "http://") {
		return ev.Location
	}
	return ""
}
