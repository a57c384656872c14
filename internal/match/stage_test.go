package match

import (
	"testing"

	"sigmatch/internal/crm"
)

var customerStages = map[string]struct{}{"customer": {}, "closedwon": {}}

func TestClassifyStage(t *testing.T) {
	tests := []struct {
		name    string
		details *crm.CompanyDetails
		want    Stage
	}{
		{"agency type wins", &crm.CompanyDetails{Type: "Agency", LifecycleStage: "customer"}, StageAgency},
		{"agency case insensitive", &crm.CompanyDetails{Type: "AGENCY"}, StageAgency},
		{"customer lifecycle", &crm.CompanyDetails{LifecycleStage: "customer"}, StageCustomer},
		{"closedwon lifecycle", &crm.CompanyDetails{LifecycleStage: "ClosedWon"}, StageCustomer},
		{"default prospect", &crm.CompanyDetails{LifecycleStage: "lead"}, StageProspect},
		{"empty attributes", &crm.CompanyDetails{}, StageProspect},
		{"nil details unranked", nil, StageUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyStage(tc.details, customerStages); got != tc.want {
				t.Fatalf("ClassifyStage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStagePriorityOrdering(t *testing.T) {
	if !(StageCustomer.Priority() > StageProspect.Priority() &&
		StageProspect.Priority() > StageAgency.Priority() &&
		StageAgency.Priority() > StageUnknown.Priority()) {
		t.Fatal("stage priorities must order Customer > Prospect > Agency > unranked")
	}
}
