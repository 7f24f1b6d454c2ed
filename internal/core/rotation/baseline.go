// Package rotation contains the pure business logic of the weekly rotation:
// baseline computation, override application, guards, and the bounded
// forward search for return weeks. Nothing here touches storage.
package rotation

import (
	"time"

	"github.com/example/rota/internal/core/week"
)

// Assignment statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusMissed  = "missed"
)

// Completion modes.
const (
	CompletionOwn      = "own"
	CompletionTakeover = "takeover"
)

// Frozen reports whether an assignment status no longer follows the rotation.
// Only pending rows have their cached assignee refreshed.
func Frozen(status string) bool {
	return status == StatusDone || status == StatusMissed
}

// RefreshAssignee returns the assignee a stored row should carry: the freshly
// computed effective assignee while pending, the cached one once frozen.
func RefreshAssignee(status, cached, effective string) string {
	if Frozen(status) {
		return cached
	}
	return effective
}

// Reconcile merges the stored rotation order with the currently active member
// ids. Survivors keep their relative order, new ids are appended in the order
// given, missing ids are dropped.
func Reconcile(ordered, active []string) []string {
	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	result := make([]string, 0, len(active))
	seen := make(map[string]bool, len(active))
	for _, id := range ordered {
		if activeSet[id] && !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	for _, id := range active {
		if !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	return result
}

// ReconcileAnchor returns the anchor to store after reconciliation. The anchor
// is fixed the first time the order becomes non-empty and never moves again.
func ReconcileAnchor(anchor time.Time, ordered []string, now time.Time) time.Time {
	if anchor.IsZero() && len(ordered) > 0 {
		return week.Start(now)
	}
	return anchor
}

// Baseline returns the member the rotation assigns to w, or "" when the
// rotation is empty. Weeks before the anchor wrap around using floor modulo.
func Baseline(ordered []string, anchor, w time.Time) string {
	if len(ordered) == 0 {
		return ""
	}
	if anchor.IsZero() {
		anchor = w
	}
	idx := week.Mod(week.Between(anchor, w), len(ordered))
	return ordered[idx]
}
