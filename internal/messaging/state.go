package messaging

// State is the read-mostly cache of facts extracted from the shared-state
// snapshot of the last successful drain step. It is copied by value into the
// route handlers so the drain loop stays free of hidden aliasing.
type State struct {
	ECID                     string
	ExperienceEventDatasetID string
}

// update refreshes the cache from a freshly resolved snapshot. Keys absent
// from the snapshot leave the previous value in place, so a config flap
// without a dataset ID does not wipe a previously learned one.
func (s *State) update(configState, identityState map[string]any) {
	if v, ok := configState[KeyEventDataset].(string); ok {
		s.ExperienceEventDatasetID = v
	}
	if ecid := ecidFromIdentityMap(identityState); ecid != "" {
		s.ECID = ecid
	}
}

// ecidFromIdentityMap digs the first ECID entry out of an identity XDM
// payload of the shape {"identityMap":{"ECID":[{"id":"..."}]}}.
func ecidFromIdentityMap(identityState map[string]any) string {
	identityMap, ok := identityState["identityMap"].(map[string]any)
	if !ok {
		return ""
	}
	ecids, ok := identityMap[ecidNamespaceCode].([]any)
	if !ok || len(ecids) == 0 {
		return ""
	}
	first, ok := ecids[0].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := first["id"].(string)
	return id
}
