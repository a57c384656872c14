package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sigmatch/internal/textutil"
)

const (
	previewLimit       = 150
	defaultPostTimeout = 10 * time.Second
)

var stageEmoji = map[string]string{
	"Customer": "\U0001F49A", // 💚
	"Prospect": "\U0001F535", // 🔵
	"Agency":   "\U0001F7E3", // 🟣
}

type slackService struct {
	webhookURL string
	httpClient *http.Client
}

func newSlackService(cfg Config) *slackService {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultPostTimeout
	}
	return &slackService{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func section(markdown string) slackBlock {
	return slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: markdown}}
}

func header(text string) slackBlock {
	return slackBlock{Type: "header", Text: &slackText{Type: "plain_text", Text: text}}
}

func (s *slackService) NotifySignalMatched(ctx context.Context, event MatchedEvent) error {
	emoji := stageEmoji[event.Stage]
	if emoji == "" {
		emoji = "\U0001F50E" // 🔎
	}
	title := fmt.Sprintf("%s Signal matched: %s", emoji, event.CompanyName)

	lines := []string{
		fmt.Sprintf("*Signal:* %s (%s)", orDash(event.SignalName), event.SignalID),
		fmt.Sprintf("*Company:* %s (%s)", event.CompanyName, orDash(event.Stage)),
		fmt.Sprintf("*Confidence:* %s", confidenceLabel(event.Confidence)),
	}
	if event.TotalMatches > 1 {
		lines = append(lines, fmt.Sprintf("*Total matches:* %d", event.TotalMatches))
	}
	if event.OwnerName != "" {
		lines = append(lines, fmt.Sprintf("*Owner:* %s", event.OwnerName))
	}
	if len(event.WatcherNames) > 0 {
		lines = append(lines, fmt.Sprintf("*Shared with:* %s", strings.Join(event.WatcherNames, ", ")))
	}

	blocks := []slackBlock{header(title), section(strings.Join(lines, "\n"))}
	if preview := textutil.Preview(event.SignalText, previewLimit); preview != "" {
		blocks = append(blocks, section("> "+preview))
	}

	return s.post(ctx, slackMessage{Text: title, Blocks: blocks})
}

func (s *slackService) NotifySignalUnmatched(ctx context.Context, event UnmatchedEvent) error {
	title := fmt.Sprintf("⚪ No match for signal %s", event.SignalID)
	lines := []string{
		fmt.Sprintf("*Signal:* %s (%s)", orDash(event.SignalName), event.SignalID),
	}
	if len(event.ExtractedNames) > 0 {
		lines = append(lines, fmt.Sprintf("*Extracted names:* %s", strings.Join(event.ExtractedNames, ", ")))
	} else {
		lines = append(lines, "*Extracted names:* none")
	}
	blocks := []slackBlock{header(title), section(strings.Join(lines, "\n"))}
	if preview := textutil.Preview(event.SignalText, previewLimit); preview != "" {
		blocks = append(blocks, section("> "+preview))
	}
	return s.post(ctx, slackMessage{Text: title, Blocks: blocks})
}

func (s *slackService) Test(ctx context.Context) error {
	return s.post(ctx, slackMessage{Text: "sigmatch notification test"})
}

func (s *slackService) post(ctx context.Context, message slackMessage) error {
	encoded, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("slack post: encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("slack post: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack post: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func confidenceLabel(confidence float64) string {
	switch {
	case confidence >= 1.0:
		return "Exact match"
	case confidence >= 0.9:
		return "High confidence"
	default:
		return fmt.Sprintf("%.0f%% confidence", confidence*100)
	}
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
