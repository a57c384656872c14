package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{
		BaseURL:           server.URL,
		AccessToken:       "token-1",
		SignalObject:      "signals",
		AssociationTypeID: 421,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestGetSignalParsesPropertiesAndAssociations(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if !strings.HasPrefix(r.URL.Path, "/crm/v3/objects/signals/1001") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{
			"id": "1001",
			"properties": {
				"signal_name": "Expansion news",
				"description": "Acme Corp is expanding.",
				"citation": "https://news.example.test/acme"
			},
			"associations": {
				"companies": {"results": [{"id": "55"}]},
				"contacts": {"results": [{"id": "77"}, {"id": "78"}]}
			}
		}`))
	}))

	signal, err := client.GetSignal(context.Background(), "1001")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if signal.Kind != "company" {
		t.Fatalf("missing signal_type should default to company, got %q", signal.Kind)
	}
	if len(signal.CompanyIDs) != 1 || signal.CompanyIDs[0] != "55" {
		t.Fatalf("unexpected company associations: %v", signal.CompanyIDs)
	}
	if len(signal.ContactIDs) != 2 {
		t.Fatalf("unexpected contact associations: %v", signal.ContactIDs)
	}
	if !strings.Contains(signal.Text(), "Acme Corp is expanding.") {
		t.Fatalf("text missing description: %q", signal.Text())
	}
	if !strings.Contains(signal.Text(), "https://news.example.test/acme") {
		t.Fatalf("text missing citation: %q", signal.Text())
	}
}

func TestGetSignalNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no such object"}`))
	}))

	_, err := client.GetSignal(context.Background(), "9999")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound, got %v", err)
	}
}

func TestGetCompanyMapsOwnerFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "champion_contact") {
			t.Fatalf("expected owner properties requested, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"id": "55",
			"properties": {
				"name": "Acme Corp",
				"domain": "acme.test",
				"company_type": "Agency",
				"lifecyclestage": "customer",
				"sales_owner": " 201 ",
				"hubspot_owner_id": "200"
			}
		}`))
	}))

	details, err := client.GetCompany(context.Background(), "55")
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if details.Type != "Agency" || details.LifecycleStage != "customer" {
		t.Fatalf("unexpected stage attributes: %+v", details)
	}
	if details.SalesOwner != "201" {
		t.Fatalf("owner ids must be trimmed, got %q", details.SalesOwner)
	}
	if details.GenericOwner != "200" {
		t.Fatalf("unexpected generic owner: %q", details.GenericOwner)
	}
}

func TestCreateAssociationSendsTypeID(t *testing.T) {
	var gotBody []map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/crm/v4/objects/signals/1001/associations/companies/55" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	}))

	if err := client.CreateAssociation(context.Background(), "1001", "55"); err != nil {
		t.Fatalf("CreateAssociation: %v", err)
	}
	if len(gotBody) != 1 {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if gotBody[0]["associationTypeId"] != float64(421) {
		t.Fatalf("unexpected association type id: %v", gotBody[0]["associationTypeId"])
	}
}

func TestSetWatchersJoinsWithSemicolons(t *testing.T) {
	var got map[string]map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	}))

	if err := client.SetWatchers(context.Background(), "1001", []string{"201", "200"}); err != nil {
		t.Fatalf("SetWatchers: %v", err)
	}
	if got["properties"]["shared_with"] != "201;200" {
		t.Fatalf("unexpected shared_with value: %q", got["properties"]["shared_with"])
	}
}

func TestResolveOwnerNameFallsBackToEmail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"firstName":"","lastName":"","email":"jordan@example.test"}`))
	}))

	if name := client.ResolveOwnerName(context.Background(), "201"); name != "jordan@example.test" {
		t.Fatalf("unexpected owner name: %q", name)
	}
}

func TestResolveOwnerNameAbsorbsFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if name := client.ResolveOwnerName(context.Background(), "201"); name != "" {
		t.Fatalf("lookup failure should yield empty name, got %q", name)
	}
}

func TestListUnassociatedSignalsFiltersAndPages(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		switch after {
		case "":
			_, _ = w.Write([]byte(`{
				"results": [
					{"id": "1", "properties": {}, "associations": {"companies": {"results": [{"id": "9"}]}}},
					{"id": "2", "properties": {}}
				],
				"paging": {"next": {"after": "cursor-1"}}
			}`))
		case "cursor-1":
			_, _ = w.Write([]byte(`{"results": [{"id": "3", "properties": {}}]}`))
		default:
			t.Fatalf("unexpected cursor %q", after)
		}
	}))

	signals, err := client.ListUnassociatedSignals(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUnassociatedSignals: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("expected 2 unassociated signals, got %d", len(signals))
	}
	if signals[0].ID != "2" || signals[1].ID != "3" {
		t.Fatalf("unexpected signal ids: %s, %s", signals[0].ID, signals[1].ID)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "http://x"}); err == nil {
		t.Fatal("expected error for missing access token")
	}
	if _, err := NewClient(Config{AccessToken: "t"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
