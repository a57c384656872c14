// Package match implements the signal-to-company matching engine:
// name extraction, candidate scoring, association writes, owner
// assignment, and notification.
package match

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"sigmatch/internal/crm"
	"sigmatch/internal/notifications"
	"sigmatch/internal/refstore"
	"sigmatch/internal/services"
)

// CRM is the slice of the CRM client the engine consumes.
type CRM interface {
	GetSignal(ctx context.Context, id string) (*crm.Signal, error)
	GetCompany(ctx context.Context, id string) (*crm.CompanyDetails, error)
	CreateAssociation(ctx context.Context, signalID, companyID string) error
	SetOwner(ctx context.Context, signalID, ownerID string) error
	SetWatchers(ctx context.Context, signalID string, watcherIDs []string) error
	ResolveOwnerName(ctx context.Context, ownerID string) string
}

// Store is the slice of the reference store the engine consumes.
type Store interface {
	SearchByName(ctx context.Context, name string) ([]refstore.SearchHit, error)
	LogMatch(ctx context.Context, entry refstore.AuditEntry) error
}

// Extractor turns signal text into candidate organization names.
type Extractor interface {
	Names(ctx context.Context, text string) ([]string, error)
}

// Options tunes the engine for one Matcher instance.
type Options struct {
	// ConfidenceThreshold gates candidate admission. Zero admits every
	// search hit (used by dry runs).
	ConfidenceThreshold float64
	// CustomerStages holds lower-cased lifecycle values classified as
	// Customer.
	CustomerStages map[string]struct{}
	// DryRun skips every CRM write and audit entry while still running
	// the full pipeline.
	DryRun bool
}

// Matcher runs the per-signal pipeline. Each external call gets exactly
// one attempt; step failures are absorbed and logged, never raised.
type Matcher struct {
	crm       CRM
	store     Store
	extractor Extractor
	notifier  notifications.Service
	logger    *slog.Logger
	opts      Options
}

// NewMatcher wires the engine. The notifier may be nil, in which case a
// no-op service is substituted.
func NewMatcher(crmClient CRM, store Store, extractor Extractor, notifier notifications.Service, logger *slog.Logger, opts Options) *Matcher {
	if notifier == nil {
		notifier = notifications.NewService(notifications.Config{})
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(opts.CustomerStages) == 0 {
		opts.CustomerStages = map[string]struct{}{"customer": {}, "closedwon": {}}
	}
	return &Matcher{
		crm:       crmClient,
		store:     store,
		extractor: extractor,
		notifier:  notifier,
		logger:    logger,
		opts:      opts,
	}
}

// MatchSignal resolves one signal end to end and always returns an
// Outcome. Fatal orchestration failures, including recovered panics, are
// reported through Outcome.Error.
func (m *Matcher) MatchSignal(ctx context.Context, signalID string) (outcome *Outcome) {
	requestID := uuid.NewString()
	ctx = services.WithSignalID(ctx, signalID)
	ctx = services.WithRequestID(ctx, requestID)
	logger := m.logger.With("signal_id", signalID, "request_id", requestID)

	outcome = &Outcome{SignalID: signalID}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while matching signal",
				"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			outcome.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	signal, err := m.crm.GetSignal(ctx, signalID)
	if err != nil {
		logger.Error("failed to load signal", "error", err)
		outcome.Error = err.Error()
		return outcome
	}
	outcome.SignalKind = signal.Kind

	text := signal.Text()
	if text == "" {
		logger.Info("signal has no text content, nothing to match")
		outcome.Error = "no text content"
		return outcome
	}

	names := m.extractNames(ctx, logger, text)
	outcome.ExtractedNames = names
	if len(names) == 0 {
		logger.Info("no organization names extracted")
		m.notifyUnmatched(ctx, logger, signal, names)
		return outcome
	}

	candidates := m.collectCandidates(ctx, logger, names)
	outcome.Candidates = candidates
	outcome.TotalMatches = len(candidates)
	if len(candidates) == 0 {
		logger.Info("no candidates cleared the threshold",
			"threshold", m.opts.ConfidenceThreshold, "names", len(names))
		m.notifyUnmatched(ctx, logger, signal, names)
		return outcome
	}

	outcome.AssociationsCreated = m.linkAll(ctx, logger, signal, requestID, candidates)

	bestIdx := SelectBest(candidates)
	best := &candidates[bestIdx]
	authoritative := &AuthoritativeMatch{
		CRMID:      best.CRMID,
		Name:       best.Name,
		Similarity: best.Similarity,
		Stage:      best.Stage,
	}
	m.applyAssignment(ctx, logger, signal, best, authoritative)
	outcome.Authoritative = authoritative

	m.notifyMatched(ctx, logger, signal, outcome)
	logger.Info("signal matched",
		"company_id", best.CRMID,
		"similarity", best.Similarity,
		"stage", string(best.Stage),
		"total_matches", outcome.TotalMatches,
		"associations_created", outcome.AssociationsCreated)
	return outcome
}

func (m *Matcher) extractNames(ctx context.Context, logger *slog.Logger, text string) []string {
	ctx = services.WithStep(ctx, "extract")
	names, err := m.extractor.Names(ctx, text)
	if err != nil {
		logger.Warn("name extraction failed, continuing unmatched", "error", err)
		return nil
	}
	return names
}

// collectCandidates searches the reference store for every extracted
// name and admits hits that clear the threshold. CRM ids are admitted at
// most once; the first admission wins even against a later higher score.
func (m *Matcher) collectCandidates(ctx context.Context, logger *slog.Logger, names []string) []Candidate {
	ctx = services.WithStep(ctx, "search")
	seen := make(map[string]struct{})
	var candidates []Candidate
	for _, name := range names {
		hits, err := m.store.SearchByName(ctx, name)
		if err != nil {
			logger.Warn("reference search failed, skipping name", "name", name, "error", err)
			continue
		}
		for _, hit := range hits {
			if hit.Similarity < m.opts.ConfidenceThreshold {
				continue
			}
			if _, dup := seen[hit.Company.CRMID]; dup {
				continue
			}
			seen[hit.Company.CRMID] = struct{}{}
			candidates = append(candidates, m.buildCandidate(ctx, logger, hit))
		}
	}
	return candidates
}

func (m *Matcher) buildCandidate(ctx context.Context, logger *slog.Logger, hit refstore.SearchHit) Candidate {
	candidate := Candidate{
		CRMID:      hit.Company.CRMID,
		Name:       hit.Company.Name,
		Similarity: hit.Similarity,
		Stage:      StageUnknown,
	}
	details, err := m.crm.GetCompany(ctx, hit.Company.CRMID)
	if err != nil {
		logger.Warn("company details unavailable, candidate stays unranked",
			"company_id", hit.Company.CRMID, "error", err)
		return candidate
	}
	if details.Name != "" {
		candidate.Name = details.Name
	}
	candidate.Stage = ClassifyStage(details, m.opts.CustomerStages)
	assignment := ResolveAssignment(candidate.Stage, details)
	candidate.OwnerID = assignment.OwnerID
	candidate.WatcherIDs = assignment.WatcherIDs
	return candidate
}

// linkAll creates one association per admitted candidate not already
// linked, writing one audit entry per attempt. Already-linked candidates
// are skipped without an audit entry, which keeps reruns idempotent.
func (m *Matcher) linkAll(ctx context.Context, logger *slog.Logger, signal *crm.Signal, requestID string, candidates []Candidate) int {
	ctx = services.WithStep(ctx, "associate")
	created := 0
	for i := range candidates {
		candidate := &candidates[i]
		if signal.HasCompanyAssociation(candidate.CRMID) {
			logger.Info("association already exists, skipping",
				"company_id", candidate.CRMID)
			continue
		}
		if m.opts.DryRun {
			logger.Info("dry run, skipping association write",
				"company_id", candidate.CRMID)
			continue
		}
		err := m.crm.CreateAssociation(ctx, signal.ID, candidate.CRMID)
		if err != nil {
			logger.Warn("association write failed",
				"company_id", candidate.CRMID, "error", err)
		} else {
			candidate.LinkCreated = true
			created++
		}
		entry := refstore.AuditEntry{
			SignalID:   signal.ID,
			CompanyID:  candidate.CRMID,
			Kind:       signal.Kind,
			Confidence: candidate.Similarity,
			Created:    candidate.LinkCreated,
			RequestID:  requestID,
		}
		if auditErr := m.store.LogMatch(ctx, entry); auditErr != nil {
			logger.Warn("audit write failed",
				"company_id", candidate.CRMID, "error", auditErr)
		}
	}
	return created
}

// applyAssignment writes the owner and watchers of the best candidate to
// the signal. Failures are absorbed; the outcome then simply carries no
// applied-owner fields.
func (m *Matcher) applyAssignment(ctx context.Context, logger *slog.Logger, signal *crm.Signal, best *Candidate, authoritative *AuthoritativeMatch) {
	ctx = services.WithStep(ctx, "assign")
	if m.opts.DryRun {
		return
	}
	if best.OwnerID != "" {
		if err := m.crm.SetOwner(ctx, signal.ID, best.OwnerID); err != nil {
			logger.Warn("owner assignment failed", "owner_id", best.OwnerID, "error", err)
		} else {
			authoritative.OwnerName = m.resolveName(ctx, best.OwnerID)
		}
	}
	if len(best.WatcherIDs) > 0 {
		if err := m.crm.SetWatchers(ctx, signal.ID, best.WatcherIDs); err != nil {
			logger.Warn("watcher assignment failed", "watcher_ids", best.WatcherIDs, "error", err)
		} else {
			for _, id := range best.WatcherIDs {
				if name := m.resolveName(ctx, id); name != "" {
					authoritative.WatcherNames = append(authoritative.WatcherNames, name)
				}
			}
		}
	}
}

// resolveName returns a display name for an owner id, falling back to
// the id itself when the lookup yields nothing.
func (m *Matcher) resolveName(ctx context.Context, ownerID string) string {
	if name := m.crm.ResolveOwnerName(ctx, ownerID); name != "" {
		return name
	}
	return ownerID
}

func (m *Matcher) notifyMatched(ctx context.Context, logger *slog.Logger, signal *crm.Signal, outcome *Outcome) {
	ctx = services.WithStep(ctx, "notify")
	event := notifications.MatchedEvent{
		SignalID:     signal.ID,
		SignalName:   signal.Name,
		SignalText:   signal.Text(),
		CompanyName:  outcome.Authoritative.Name,
		Stage:        string(outcome.Authoritative.Stage),
		Confidence:   outcome.Authoritative.Similarity,
		TotalMatches: outcome.TotalMatches,
		OwnerName:    outcome.Authoritative.OwnerName,
		WatcherNames: outcome.Authoritative.WatcherNames,
	}
	if err := m.notifier.NotifySignalMatched(ctx, event); err != nil {
		logger.Warn("matched notification failed", "error", err)
	}
}

func (m *Matcher) notifyUnmatched(ctx context.Context, logger *slog.Logger, signal *crm.Signal, names []string) {
	ctx = services.WithStep(ctx, "notify")
	event := notifications.UnmatchedEvent{
		SignalID:       signal.ID,
		SignalName:     signal.Name,
		SignalText:     signal.Text(),
		ExtractedNames: names,
	}
	if err := m.notifier.NotifySignalUnmatched(ctx, event); err != nil {
		logger.Warn("unmatched notification failed", "error", err)
	}
}
