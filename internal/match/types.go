package match

// Candidate is a company admitted by the scorer for one signal run.
// CRMIDs are unique within a run; the first admission wins.
type Candidate struct {
	CRMID       string   `json:"crm_id"`
	Name        string   `json:"name"`
	Similarity  float64  `json:"similarity"`
	Stage       Stage    `json:"stage"`
	OwnerID     string   `json:"owner_id,omitempty"`
	WatcherIDs  []string `json:"watcher_ids,omitempty"`
	LinkCreated bool     `json:"link_created"`
}

// AuthoritativeMatch summarizes the single best candidate.
type AuthoritativeMatch struct {
	CRMID        string   `json:"crm_id"`
	Name         string   `json:"name"`
	Similarity   float64  `json:"similarity"`
	Stage        Stage    `json:"stage"`
	OwnerName    string   `json:"owner_name,omitempty"`
	WatcherNames []string `json:"watcher_names,omitempty"`
}

// Outcome is the full result of matching one signal. Error is set only
// when orchestration itself failed; per-step failures are absorbed.
type Outcome struct {
	SignalID            string              `json:"signal_id"`
	SignalKind          string              `json:"signal_kind,omitempty"`
	ExtractedNames      []string            `json:"extracted_names,omitempty"`
	Candidates          []Candidate         `json:"candidates,omitempty"`
	Authoritative       *AuthoritativeMatch `json:"authoritative,omitempty"`
	TotalMatches        int                 `json:"total_matches"`
	AssociationsCreated int                 `json:"associations_created"`
	Error               string              `json:"error,omitempty"`
}

// Matched reports whether at least one candidate cleared the threshold.
func (o *Outcome) Matched() bool {
	return o != nil && o.TotalMatches > 0
}
