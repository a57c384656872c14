// Package extract pulls organization names out of free-form signal text
// using a JSON-only language model completion.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"sigmatch/internal/llm"
	"sigmatch/internal/ratelimit"
	"sigmatch/internal/services"
	"sigmatch/internal/textutil"
)

const systemPrompt = `You extract organization names from business signal text.

Return a JSON object with a single key "companies" holding an array of
distinct organization names mentioned in the text, for example:
{"companies": ["Acme Corporation", "Globex"]}

Rules:
- Include only real organizations: companies, agencies, institutions.
- Exclude person names, job titles, product names, and generic terms such
  as "the client", "the team", or "our partner".
- Preserve each name as written in the text; do not expand or abbreviate.
- Return {"companies": []} when no organizations are mentioned.`

// Completer is the completion surface the extractor needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Extractor turns signal text into candidate organization names.
type Extractor struct {
	completer  Completer
	limiter    *ratelimit.Limiter
	charBudget int
	logger     *slog.Logger
}

// New constructs an Extractor. The limiter may be nil, in which case
// requests are not throttled.
func New(completer Completer, limiter *ratelimit.Limiter, charBudget int, logger *slog.Logger) *Extractor {
	if charBudget <= 0 {
		charBudget = 2000
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		completer:  completer,
		limiter:    limiter,
		charBudget: charBudget,
		logger:     logger,
	}
}

// Names extracts distinct organization names from text, preserving the
// order of first mention. Text beyond the character budget is dropped
// before the request is made.
func (e *Extractor) Names(ctx context.Context, text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	truncated := textutil.Truncate(trimmed, e.charBudget)
	if len(truncated) < len(trimmed) {
		e.logger.Debug("truncated signal text for extraction",
			"original_chars", len(trimmed), "sent_chars", len(truncated))
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("extract names: rate limit wait: %w", err)
	}

	content, err := e.completer.CompleteJSON(ctx, systemPrompt, truncated)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "extract", "complete", "extraction request failed", err)
	}

	var parsed struct {
		Companies []string `json:"companies"`
	}
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrValidation, "extract", "decode", "extraction payload was not valid JSON", err)
	}

	seen := make(map[string]struct{}, len(parsed.Companies))
	names := make([]string, 0, len(parsed.Companies))
	for _, raw := range parsed.Companies {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := textutil.NormalizeName(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}
