package match

import (
	"strings"

	"sigmatch/internal/crm"
)

// Stage is the business relationship stage of a matched company.
type Stage string

const (
	StageCustomer Stage = "Customer"
	StageProspect Stage = "Prospect"
	StageAgency   Stage = "Agency"
	// StageUnknown marks candidates whose company details could not be
	// fetched; they rank below every classified stage.
	StageUnknown Stage = ""
)

// Priority orders stages for best-match selection. Higher wins.
func (s Stage) Priority() int {
	switch s {
	case StageCustomer:
		return 3
	case StageProspect:
		return 2
	case StageAgency:
		return 1
	default:
		return 0
	}
}

// ClassifyStage derives the stage from company attributes. The agency
// type attribute wins over any lifecycle stage; customerStages holds the
// lower-cased lifecycle values that count as Customer.
func ClassifyStage(details *crm.CompanyDetails, customerStages map[string]struct{}) Stage {
	if details == nil {
		return StageUnknown
	}
	if strings.EqualFold(strings.TrimSpace(details.Type), "agency") {
		return StageAgency
	}
	lifecycle := strings.ToLower(strings.TrimSpace(details.LifecycleStage))
	if _, ok := customerStages[lifecycle]; ok {
		return StageCustomer
	}
	return StageProspect
}
