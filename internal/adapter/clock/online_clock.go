package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	_ "time/tzdata"
)

type timeAPIResponse struct {
	Datetime string `json:"datetime"`
}

// Online reads the current time from a world-time HTTP API and falls back to
// the local clock, shifted into the configured zone, when the API is unreachable.
type Online struct {
	client   *resty.Client
	endpoint string
	location *time.Location
	local    func() time.Time
	logger   *zap.Logger
}

func NewOnline(endpoint, zone string, logger *zap.Logger) (*Online, error) {
	location, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	client := resty.New()
	client.SetTimeout(5 * time.Second)
	client.SetHeader("accept", "application/json")

	return &Online{
		client:   client,
		endpoint: endpoint,
		location: location,
		local:    time.Now,
		logger:   logger,
	}, nil
}

// Now never fails; the fallback is logged.
func (c *Online) Now(ctx context.Context) time.Time {
	t, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("online time unavailable, using local clock", zap.String("endpoint", c.endpoint), zap.Error(err))
		return c.local().In(c.location)
	}
	return t.In(c.location)
}

func (c *Online) fetch(ctx context.Context) (time.Time, error) {
	if c.endpoint == "" {
		return time.Time{}, fmt.Errorf("no time API configured")
	}
	res, err := c.client.R().
		SetContext(ctx).
		// Some time APIs answer JSON as text/plain.
		ForceContentType("application/json").
		SetResult(&timeAPIResponse{}).
		Get(c.endpoint)
	if err != nil {
		return time.Time{}, err
	}
	if res.IsError() {
		return time.Time{}, fmt.Errorf("time API status %d", res.StatusCode())
	}

	body := res.Result().(*timeAPIResponse)
	t, err := time.Parse(time.RFC3339Nano, body.Datetime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time API datetime %q: %w", body.Datetime, err)
	}
	return t, nil
}
