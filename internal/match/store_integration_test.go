package match

import (
	"context"
	"testing"

	"sigmatch/internal/crm"
	"sigmatch/internal/refstore"
	"sigmatch/internal/testsupport"
)

// Runs the engine against a real sqlite reference store instead of the
// stub, covering the search, scoring, and audit paths end to end.
func TestMatchSignalAgainstSqliteStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t)
	ctx := context.Background()

	companies := []refstore.Company{
		{CRMID: "55", Name: "Acme Corp", Domain: "acme.test"},
		{CRMID: "56", Name: "Acme Corporation Holdings"},
		{CRMID: "57", Name: "Globex"},
	}
	for _, company := range companies {
		if err := store.UpsertCompany(ctx, company); err != nil {
			t.Fatalf("UpsertCompany: %v", err)
		}
	}

	crmStub, _, extractor, notifier := newFixture()
	extractor.names = []string{"Acme Corp"}
	crmStub.companies["55"] = &crm.CompanyDetails{
		ID: "55", Name: "Acme Corp", LifecycleStage: "customer", GenericOwner: "gen-1",
	}
	crmStub.companies["56"] = &crm.CompanyDetails{
		ID: "56", Name: "Acme Corporation Holdings", LifecycleStage: "lead",
	}

	matcher := NewMatcher(crmStub, store, extractor, notifier, nil, Options{
		ConfidenceThreshold: cfg.Matching.ConfidenceThreshold,
		CustomerStages:      cfg.CustomerStageSet(),
	})

	outcome := matcher.MatchSignal(ctx, "1001")
	if outcome.Error != "" {
		t.Fatalf("unexpected error: %q", outcome.Error)
	}
	if outcome.TotalMatches != 2 {
		t.Fatalf("expected exact and containment matches, got %d", outcome.TotalMatches)
	}
	if outcome.Authoritative == nil || outcome.Authoritative.CRMID != "55" {
		t.Fatalf("exact match must be authoritative: %+v", outcome.Authoritative)
	}
	if outcome.Authoritative.Stage != StageCustomer {
		t.Fatalf("lifecycle from config stage set not applied: %+v", outcome.Authoritative)
	}
	if outcome.AssociationsCreated != 2 {
		t.Fatalf("expected both candidates linked, got %d", outcome.AssociationsCreated)
	}

	trail, err := store.AuditBySignal(ctx, "1001")
	if err != nil {
		t.Fatalf("AuditBySignal: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected one audit entry per attempt, got %d", len(trail))
	}
}
