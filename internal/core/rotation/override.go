package rotation

// Override types.
const (
	OverrideManualSwap   = "manual_swap"
	OverrideCompensation = "compensation"
)

// Override sources.
const (
	SourceManual             = "manual"
	SourceTakeoverCompletion = "takeover_completion"
)

// Override statuses. At most one row per (week, status) exists in the store.
const (
	OverrideStatusPlanned  = "planned"
	OverrideStatusApplied  = "applied"
	OverrideStatusCanceled = "canceled"
)

// Override is the minimal view of an override needed to resolve a week.
type Override struct {
	Type       string
	MemberFrom string
	MemberTo   string
}

// Apply returns the effective assignee for a baseline under o.
//
// A manual swap exchanges its two parties and leaves any other baseline alone,
// even within its own week. A compensation only redirects member_from to
// member_to.
func Apply(baseline string, o *Override) string {
	if baseline == "" || o == nil {
		return baseline
	}

	switch o.Type {
	case OverrideManualSwap:
		if baseline == o.MemberFrom {
			return o.MemberTo
		}
		if baseline == o.MemberTo {
			return o.MemberFrom
		}
	case OverrideCompensation:
		if baseline == o.MemberFrom {
			return o.MemberTo
		}
	}
	return baseline
}

// Involves returns the members of ids that are parties to o, from first.
func (o Override) Involves(ids map[string]bool) []string {
	var hit []string
	if ids[o.MemberFrom] {
		hit = append(hit, o.MemberFrom)
	}
	if ids[o.MemberTo] && o.MemberTo != o.MemberFrom {
		hit = append(hit, o.MemberTo)
	}
	return hit
}
