package match

import "sigmatch/internal/crm"

// Assignment is the owner and watcher set derived for a matched company.
// Watchers never contain the owner, empties, or duplicates.
type Assignment struct {
	OwnerID    string
	WatcherIDs []string
}

// ResolveAssignment derives the assignment from the stage and the
// company's owner fields. Pure.
func ResolveAssignment(stage Stage, details *crm.CompanyDetails) Assignment {
	if details == nil {
		return Assignment{}
	}
	switch stage {
	case StageProspect:
		owner := details.SalesOwner
		if owner == "" {
			owner = details.GenericOwner
		}
		return Assignment{
			OwnerID:    owner,
			WatcherIDs: watcherSet(owner, details.OutreachOwner, details.GenericOwner),
		}
	case StageCustomer:
		owner := details.ChampionContact
		if owner == "" {
			owner = details.GenericOwner
		}
		return Assignment{
			OwnerID:    owner,
			WatcherIDs: watcherSet(owner, details.GenericOwner),
		}
	default:
		return Assignment{OwnerID: details.GenericOwner}
	}
}

// watcherSet filters candidate watcher ids: drops empties, the owner,
// and duplicates while preserving order.
func watcherSet(owner string, candidates ...string) []string {
	var watchers []string
	seen := map[string]struct{}{}
	for _, id := range candidates {
		if id == "" || id == owner {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		watchers = append(watchers, id)
	}
	return watchers
}
