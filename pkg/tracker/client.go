package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	eventsPath          = "/api/tracking/events"
	defaultTimeout      = 10 * time.Second
	leaveSendTimeout    = 5 * time.Second
	eventPageView       = "page_view"
	eventPageLeave      = "page_leave"
	eventLanguageChange = "language_change"
)

type Config struct {
	BaseURL    string
	ListingID  int64
	CampaignID *int64
	Language   string
	Timeout    time.Duration
}

type TrackResponse struct {
	Success   bool   `json:"success"`
	ID        int64  `json:"id"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

type trackRequest struct {
	SessionID        string  `json:"session_id"`
	ListingID        int64   `json:"ponuda_id"`
	CampaignID       *int64  `json:"kampanja_id"`
	EventType        string  `json:"event_type"`
	EventData        any     `json:"event_data"`
	Language         *string `json:"language"`
	TimeSpentSeconds *int    `json:"time_spent_seconds,omitempty"`
}

// Client reports engagement for one page load of one listing.
type Client struct {
	http         *resty.Client
	sessions     *SessionManager
	listingID    int64
	campaignID   *int64
	language     atomic.Pointer[string]
	startedAt    time.Time
	now          func() time.Time
	pageViewSent atomic.Bool
	pending      sync.WaitGroup
}

func NewClient(cfg Config, sessions *SessionManager) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &Client{
		http:       httpClient,
		sessions:   sessions,
		listingID:  cfg.ListingID,
		campaignID: cfg.CampaignID,
		now:        time.Now,
	}
	c.startedAt = c.now()
	if cfg.Language != "" {
		lang := cfg.Language
		c.language.Store(&lang)
	}
	return c
}

// TrackPageView sends page_view at most once per Client. Later calls
// return nil, nil.
func (c *Client) TrackPageView(ctx context.Context) (*TrackResponse, error) {
	if !c.pageViewSent.CompareAndSwap(false, true) {
		return nil, nil
	}
	resp, err := c.send(ctx, trackRequest{EventType: eventPageView})
	if err != nil {
		c.pageViewSent.Store(false)
	}
	return resp, err
}

// Track sends any other interaction event.
func (c *Client) Track(ctx context.Context, eventType string, data any) (*TrackResponse, error) {
	if eventType == eventPageView {
		return c.TrackPageView(ctx)
	}
	return c.send(ctx, trackRequest{EventType: eventType, EventData: data})
}

// ChangeLanguage records the switch and tags later events with lang.
func (c *Client) ChangeLanguage(ctx context.Context, lang string) (*TrackResponse, error) {
	previous := ""
	if p := c.language.Load(); p != nil {
		previous = *p
	}
	c.language.Store(&lang)
	return c.send(ctx, trackRequest{
		EventType: eventLanguageChange,
		EventData: map[string]string{"from": previous, "to": lang},
	})
}

// Leave sends page_leave with the seconds since the Client was created. It
// never blocks and delivery is not guaranteed.
func (c *Client) Leave() {
	spent := int(c.now().Sub(c.startedAt).Seconds())
	if spent < 0 {
		spent = 0
	}
	req := trackRequest{EventType: eventPageLeave, TimeSpentSeconds: &spent}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), leaveSendTimeout)
		defer cancel()
		if _, err := c.send(ctx, req); err != nil {
			log.Debug().Err(err).Msg("page_leave delivery failed")
		}
	}()
}

// Wait blocks until detached sends have finished.
func (c *Client) Wait() {
	c.pending.Wait()
}

func (c *Client) send(ctx context.Context, req trackRequest) (*TrackResponse, error) {
	req.SessionID = c.sessions.GetOrCreate()
	req.ListingID = c.listingID
	req.CampaignID = c.campaignID
	req.Language = c.language.Load()

	var result TrackResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post(eventsPath)
	if err != nil {
		return nil, fmt.Errorf("send %s event: %w", req.EventType, err)
	}
	if resp.IsError() {
		return &result, fmt.Errorf("send %s event: %s: %s", req.EventType, resp.Status(), result.Error)
	}
	return &result, nil
}
