// Package notifications delivers match results to a Slack incoming
// webhook. An unconfigured webhook yields a no-op service so callers
// never need to branch on whether notifications are enabled.
package notifications

import (
	"context"
	"time"
)

// MatchedEvent describes a signal that was matched to a company.
type MatchedEvent struct {
	SignalID     string
	SignalName   string
	SignalText   string
	CompanyName  string
	Stage        string
	Confidence   float64
	TotalMatches int
	OwnerName    string
	WatcherNames []string
}

// UnmatchedEvent describes a signal for which no company cleared the
// confidence threshold.
type UnmatchedEvent struct {
	SignalID       string
	SignalName     string
	SignalText     string
	ExtractedNames []string
}

// Service delivers match notifications. Implementations must be safe for
// concurrent use.
type Service interface {
	NotifySignalMatched(ctx context.Context, event MatchedEvent) error
	NotifySignalUnmatched(ctx context.Context, event UnmatchedEvent) error
	Test(ctx context.Context) error
}

// Config holds the webhook settings.
type Config struct {
	WebhookURL     string
	RequestTimeout time.Duration
}

// NewService returns a Slack-backed service, or a no-op service when the
// webhook URL is empty.
func NewService(cfg Config) Service {
	if cfg.WebhookURL == "" {
		return &noopService{}
	}
	return newSlackService(cfg)
}

type noopService struct{}

func (n *noopService) NotifySignalMatched(context.Context, MatchedEvent) error     { return nil }
func (n *noopService) NotifySignalUnmatched(context.Context, UnmatchedEvent) error { return nil }
func (n *noopService) Test(context.Context) error                                  { return nil }
