package scenesync

import (
	"sort"
	"strings"

	"obs-stream-sync/internal/status"
)

// SceneName is the OBS scene that mirrors a stream.
func SceneName(prefix, stream string) string {
	return prefix + stream
}

// BuildPlan diffs the existing scene names against the live streams.
// Only scenes carrying prefix are ever scheduled for removal.
func BuildPlan(existing []string, live []status.StreamRecord, prefix string) Plan {
	have := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		have[name] = struct{}{}
	}

	liveNames := make(map[string]struct{}, len(live))
	var plan Plan
	for _, s := range live {
		if _, dup := liveNames[s.Name]; dup {
			continue
		}
		liveNames[s.Name] = struct{}{}
		if _, ok := have[SceneName(prefix, s.Name)]; !ok {
			plan.Create = append(plan.Create, s)
		}
	}

	for name := range have {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, ok := liveNames[strings.TrimPrefix(name, prefix)]; !ok {
			plan.Remove = append(plan.Remove, name)
		}
	}
	sort.Strings(plan.Remove)

	return plan
}
