package refstore

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.db")
	store, err := Open(context.Background(), path, 5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *Store, companies ...Company) {
	t.Helper()
	for _, company := range companies {
		if err := store.UpsertCompany(context.Background(), company); err != nil {
			t.Fatalf("UpsertCompany(%s): %v", company.CRMID, err)
		}
	}
}

func TestSearchByNameScoring(t *testing.T) {
	store := newTestStore(t)
	seed(t, store,
		Company{CRMID: "1", Name: "Acme Corp", Domain: "acme.test"},
		Company{CRMID: "2", Name: "Acme Corporation Holdings"},
		Company{CRMID: "3", Name: "Globex"},
	)

	hits, err := store.SearchByName(context.Background(), "Acme Corp")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].Company.CRMID != "1" || hits[0].Similarity != 1.0 {
		t.Fatalf("expected exact match first with 1.0, got %+v", hits[0])
	}
	if hits[1].Company.CRMID != "2" || hits[1].Similarity != 0.9 {
		t.Fatalf("expected containment match with 0.9, got %+v", hits[1])
	}
}

func TestSearchByNameCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, Company{CRMID: "1", Name: "Acme Corp"})

	hits, err := store.SearchByName(context.Background(), "ACME CORP")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(hits) != 1 || hits[0].Similarity != 1.0 {
		t.Fatalf("case-folded exact match expected, got %+v", hits)
	}
}

func TestSearchByNameEscapesWildcards(t *testing.T) {
	store := newTestStore(t)
	seed(t, store,
		Company{CRMID: "1", Name: "100% Design"},
		Company{CRMID: "2", Name: "Percent Unrelated"},
	)

	hits, err := store.SearchByName(context.Background(), "100% Design")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(hits) != 1 || hits[0].Company.CRMID != "1" {
		t.Fatalf("LIKE wildcards must be neutralized, got %+v", hits)
	}
}

func TestSearchByNameRespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.db")
	store, err := Open(context.Background(), path, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	seed(t, store,
		Company{CRMID: "1", Name: "Widget One"},
		Company{CRMID: "2", Name: "Widget Two"},
		Company{CRMID: "3", Name: "Widget Three"},
	)

	hits, err := store.SearchByName(context.Background(), "Widget")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected limit of 2 hits, got %d", len(hits))
	}
}

func TestSearchByNameBlankQuery(t *testing.T) {
	store := newTestStore(t)
	hits, err := store.SearchByName(context.Background(), "   ")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if hits != nil {
		t.Fatalf("blank query should return nothing, got %+v", hits)
	}
}

func TestUpsertCompanyRefreshesExisting(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, Company{CRMID: "1", Name: "Old Name"})
	seed(t, store, Company{CRMID: "1", Name: "New Name", Domain: "new.test"})

	count, err := store.CompanyCount(context.Background())
	if err != nil {
		t.Fatalf("CompanyCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert should not duplicate, count = %d", count)
	}
	hits, err := store.SearchByName(context.Background(), "New Name")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(hits) != 1 || hits[0].Company.Domain != "new.test" {
		t.Fatalf("upsert did not refresh the record: %+v", hits)
	}
}

func TestLogMatchAndAuditBySignal(t *testing.T) {
	store := newTestStore(t)

	entries := []AuditEntry{
		{SignalID: "1001", CompanyID: "55", Kind: "company", Confidence: 1.0, Created: true, RequestID: "req-1"},
		{SignalID: "1001", CompanyID: "56", Kind: "company", Confidence: 0.9, Created: false, RequestID: "req-1"},
		{SignalID: "2002", CompanyID: "57", Kind: "company", Confidence: 0.8, Created: true, RequestID: "req-2"},
	}
	for _, entry := range entries {
		if err := store.LogMatch(context.Background(), entry); err != nil {
			t.Fatalf("LogMatch: %v", err)
		}
	}

	trail, err := store.AuditBySignal(context.Background(), "1001")
	if err != nil {
		t.Fatalf("AuditBySignal: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 entries for signal 1001, got %d", len(trail))
	}
	if trail[0].CompanyID != "55" || !trail[0].Created {
		t.Fatalf("unexpected first entry: %+v", trail[0])
	}
	if trail[1].CompanyID != "56" || trail[1].Created {
		t.Fatalf("unexpected second entry: %+v", trail[1])
	}
	if trail[0].CreatedAt.IsZero() {
		t.Fatal("created_at should be populated")
	}
}

func TestOpenRejectsSecondProcessLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.db")
	first, err := Open(context.Background(), path, 5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()

	if _, err := Open(context.Background(), path, 5); err == nil {
		t.Fatal("expected second open to fail while locked")
	}
}
