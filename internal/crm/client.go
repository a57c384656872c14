// Package crm is a minimal HubSpot-shaped REST client covering the
// object reads, association writes, and property patches the matching
// engine needs.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sigmatch/internal/services"
)

const defaultRequestTimeout = 15 * time.Second

var signalProperties = []string{"signal_name", "description", "citation", "signal_type"}

var companyProperties = []string{
	"name", "domain", "company_type", "lifecyclestage",
	"sales_owner", "outreach_owner", "champion_contact", "hubspot_owner_id",
}

// Config captures the connection settings for the CRM API.
type Config struct {
	BaseURL           string
	AccessToken       string
	SignalObject      string
	AssociationTypeID int
	RequestTimeout    time.Duration
}

// Client talks to the CRM REST API. Construct with NewClient.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.SignalObject = strings.TrimSpace(cfg.SignalObject)
	if cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "crm", "new", "base url required", nil)
	}
	if cfg.AccessToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "crm", "new", "access token required", nil)
	}
	if cfg.SignalObject == "" {
		cfg.SignalObject = "signals"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type objectRecord struct {
	ID           string            `json:"id"`
	Properties   map[string]string `json:"properties"`
	Associations map[string]struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	} `json:"associations"`
}

type listResponse struct {
	Results []objectRecord `json:"results"`
	Paging  *struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// GetSignal fetches a signal record with its properties and existing
// company/contact associations.
func (c *Client) GetSignal(ctx context.Context, id string) (*Signal, error) {
	if strings.TrimSpace(id) == "" {
		return nil, services.Wrap(services.ErrValidation, "crm", "get signal", "signal id required", nil)
	}
	query := url.Values{}
	query.Set("properties", strings.Join(signalProperties, ","))
	query.Set("associations", "companies,contacts")
	path := fmt.Sprintf("/crm/v3/objects/%s/%s", url.PathEscape(c.cfg.SignalObject), url.PathEscape(id))

	var record objectRecord
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &record); err != nil {
		return nil, fmt.Errorf("get signal %s: %w", id, err)
	}
	return signalFromRecord(record), nil
}

func signalFromRecord(record objectRecord) *Signal {
	signal := &Signal{
		ID:          record.ID,
		Name:        record.Properties["signal_name"],
		Description: record.Properties["description"],
		Citation:    record.Properties["citation"],
		Kind:        strings.TrimSpace(record.Properties["signal_type"]),
	}
	if signal.Kind == "" {
		signal.Kind = "company"
	}
	if assoc, ok := record.Associations["companies"]; ok {
		for _, result := range assoc.Results {
			signal.CompanyIDs = append(signal.CompanyIDs, result.ID)
		}
	}
	if assoc, ok := record.Associations["contacts"]; ok {
		for _, result := range assoc.Results {
			signal.ContactIDs = append(signal.ContactIDs, result.ID)
		}
	}
	return signal
}

// GetCompany fetches the company attributes used for stage
// classification and owner assignment.
func (c *Client) GetCompany(ctx context.Context, id string) (*CompanyDetails, error) {
	if strings.TrimSpace(id) == "" {
		return nil, services.Wrap(services.ErrValidation, "crm", "get company", "company id required", nil)
	}
	query := url.Values{}
	query.Set("properties", strings.Join(companyProperties, ","))
	path := fmt.Sprintf("/crm/v3/objects/companies/%s", url.PathEscape(id))

	var record objectRecord
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &record); err != nil {
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}
	props := record.Properties
	return &CompanyDetails{
		ID:              record.ID,
		Name:            props["name"],
		Domain:          props["domain"],
		Type:            props["company_type"],
		LifecycleStage:  props["lifecyclestage"],
		SalesOwner:      strings.TrimSpace(props["sales_owner"]),
		OutreachOwner:   strings.TrimSpace(props["outreach_owner"]),
		ChampionContact: strings.TrimSpace(props["champion_contact"]),
		GenericOwner:    strings.TrimSpace(props["hubspot_owner_id"]),
	}, nil
}

// CreateAssociation links a signal to a company using the configured
// association type.
func (c *Client) CreateAssociation(ctx context.Context, signalID, companyID string) error {
	if strings.TrimSpace(signalID) == "" || strings.TrimSpace(companyID) == "" {
		return services.Wrap(services.ErrValidation, "crm", "create association", "signal and company ids required", nil)
	}
	path := fmt.Sprintf("/crm/v4/objects/%s/%s/associations/companies/%s",
		url.PathEscape(c.cfg.SignalObject), url.PathEscape(signalID), url.PathEscape(companyID))
	body := []map[string]any{
		{
			"associationCategory": "HUBSPOT_DEFINED",
			"associationTypeId":   c.cfg.AssociationTypeID,
		},
	}
	if err := c.doJSON(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("associate signal %s with company %s: %w", signalID, companyID, err)
	}
	return nil
}

// SetOwner assigns the signal's owner property.
func (c *Client) SetOwner(ctx context.Context, signalID, ownerID string) error {
	return c.patchSignalProperties(ctx, signalID, map[string]string{"hubspot_owner_id": ownerID})
}

// SetWatchers writes the signal's shared-with list as a semicolon-joined
// id string, matching the CRM's multi-value property format.
func (c *Client) SetWatchers(ctx context.Context, signalID string, watcherIDs []string) error {
	return c.patchSignalProperties(ctx, signalID, map[string]string{
		"shared_with": strings.Join(watcherIDs, ";"),
	})
}

func (c *Client) patchSignalProperties(ctx context.Context, signalID string, props map[string]string) error {
	if strings.TrimSpace(signalID) == "" {
		return services.Wrap(services.ErrValidation, "crm", "patch signal", "signal id required", nil)
	}
	path := fmt.Sprintf("/crm/v3/objects/%s/%s", url.PathEscape(c.cfg.SignalObject), url.PathEscape(signalID))
	body := map[string]any{"properties": props}
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, body, nil); err != nil {
		return fmt.Errorf("update signal %s: %w", signalID, err)
	}
	return nil
}

// ResolveOwnerName returns a display name for a CRM owner id, or the
// empty string when the lookup fails or the id is blank.
func (c *Client) ResolveOwnerName(ctx context.Context, ownerID string) string {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return ""
	}
	var owner struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	}
	path := fmt.Sprintf("/crm/v3/owners/%s", url.PathEscape(ownerID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &owner); err != nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(owner.FirstName) + " " + strings.TrimSpace(owner.LastName))
	if name != "" {
		return name
	}
	return strings.TrimSpace(owner.Email)
}

// ListSignals pages through the signal object. It returns up to limit
// records starting at the paging cursor, plus the cursor for the next
// page (empty when exhausted).
func (c *Client) ListSignals(ctx context.Context, limit int, after string) ([]*Signal, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("properties", strings.Join(signalProperties, ","))
	query.Set("associations", "companies,contacts")
	if after != "" {
		query.Set("after", after)
	}
	path := fmt.Sprintf("/crm/v3/objects/%s", url.PathEscape(c.cfg.SignalObject))

	var page listResponse
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &page); err != nil {
		return nil, "", fmt.Errorf("list signals: %w", err)
	}
	signals := make([]*Signal, 0, len(page.Results))
	for _, record := range page.Results {
		signals = append(signals, signalFromRecord(record))
	}
	next := ""
	if page.Paging != nil {
		next = page.Paging.Next.After
	}
	return signals, next, nil
}

// ListUnassociatedSignals collects up to limit signals that have no
// company association yet, paging until the limit is met or the object
// is exhausted.
func (c *Client) ListUnassociatedSignals(ctx context.Context, limit int) ([]*Signal, error) {
	if limit <= 0 {
		limit = 100
	}
	var collected []*Signal
	after := ""
	for {
		page, next, err := c.ListSignals(ctx, 100, after)
		if err != nil {
			return nil, err
		}
		for _, signal := range page {
			if len(signal.CompanyIDs) > 0 {
				continue
			}
			collected = append(collected, signal)
			if len(collected) >= limit {
				return collected, nil
			}
		}
		if next == "" {
			return collected, nil
		}
		after = next
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, target any) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return services.Wrap(services.ErrNotFound, "crm", method, fmt.Sprintf("http 404: %s", summarizeBody(payload)), nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("http %d: %s", resp.StatusCode, summarizeBody(payload))
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func summarizeBody(payload []byte) string {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return "empty body"
	}
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}

// IsNotFound reports whether err represents a missing CRM record.
func IsNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
