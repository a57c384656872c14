package crm

import "strings"

// Signal is a custom CRM object carrying the text the engine matches
// against. Kind defaults to "company" when the record has no explicit
// signal type.
type Signal struct {
	ID          string
	Name        string
	Description string
	Citation    string
	Kind        string
	CompanyIDs  []string
	ContactIDs  []string
}

// Text returns the matchable text of the signal: description and
// citation concatenated and trimmed.
func (s *Signal) Text() string {
	parts := make([]string, 0, 2)
	if d := strings.TrimSpace(s.Description); d != "" {
		parts = append(parts, d)
	}
	if c := strings.TrimSpace(s.Citation); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n\n")
}

// HasCompanyAssociation reports whether the signal is already linked to
// the given company.
func (s *Signal) HasCompanyAssociation(companyID string) bool {
	for _, id := range s.CompanyIDs {
		if id == companyID {
			return true
		}
	}
	return false
}

// CompanyDetails holds the company attributes the engine classifies and
// assigns from. Owner fields are CRM user ids and may be empty.
type CompanyDetails struct {
	ID              string
	Name            string
	Domain          string
	Type            string
	LifecycleStage  string
	SalesOwner      string
	OutreachOwner   string
	ChampionContact string
	GenericOwner    string
}
