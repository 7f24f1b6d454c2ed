package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/rota/internal/core/reminder"
	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/primary"
)

// notify builds a notification for memberID. Unknown members yield a
// notification without a channel so the host can still audit it.
func (e *engine) notify(ctx context.Context, memberID string, w time.Time, kind, sourceAction, message string) primary.Notification {
	n := primary.Notification{
		MemberID:     memberID,
		Title:        reminder.Title,
		Message:      message,
		Category:     reminder.Category,
		WeekStart:    w,
		Kind:         kind,
		SourceAction: sourceAction,
	}
	if m, err := e.member(ctx, memberID); err == nil && m != nil {
		n.NotifyChannel = m.NotifyChannel
	}
	e.metrics.ObserveNotification(kind)
	return n
}

func actorPrefix(a actor) string {
	if name := a.name(); name != "" {
		return name + " "
	}
	return "A flatmate "
}

func recordedPrefix(a actor) string {
	if name := a.name(); name != "" {
		return name + " recorded that "
	}
	return "A flatmate recorded that "
}

func returnLabel(r time.Time) string {
	if r.IsZero() {
		return "the next regular week"
	}
	return "week " + week.Format(r)
}

func originalSuffix(w time.Time, originalName string) string {
	if originalName == "" {
		return ""
	}
	return fmt.Sprintf(" Original assignee for %s: %s.", week.Format(w), originalName)
}

func swapCreatedToA(a actor, w, r time.Time, bName string) string {
	return fmt.Sprintf("%sswapped shifts between week %s and %s with %s. %s is assigned for %s, and you are assigned for %s.",
		actorPrefix(a), week.Format(w), returnLabel(r), bName, bName, week.Format(w), returnLabel(r))
}

func swapCreatedToB(a actor, w, r time.Time, aName string) string {
	return fmt.Sprintf("%sswapped shifts between week %s and %s with %s. You are assigned for %s, and %s is assigned for %s.",
		actorPrefix(a), week.Format(w), returnLabel(r), aName, week.Format(w), aName, returnLabel(r))
}

func swapUpdatedToA(a actor, w, r time.Time, bName string) string {
	return fmt.Sprintf("%supdated the shift swap: %s now covers week %s, and you cover %s.",
		actorPrefix(a), bName, week.Format(w), returnLabel(r))
}

func swapUpdatedToB(a actor, w, r time.Time, aName string) string {
	return fmt.Sprintf("%supdated the shift swap: you now cover week %s, and %s covers %s.",
		actorPrefix(a), week.Format(w), aName, returnLabel(r))
}

func swapCanceled(a actor, w, r time.Time) string {
	return fmt.Sprintf("%scanceled the shift swap between week %s and %s. Everyone is back on their regular schedule.",
		actorPrefix(a), week.Format(w), returnLabel(r))
}

func swapDisplaced(a actor, w time.Time, newName string) string {
	return fmt.Sprintf("%schanged the swap for week %s. %s is now swapped in instead of you. Your original schedule is restored.",
		actorPrefix(a), week.Format(w), newName)
}

func doneConfirmation(a actor, w time.Time) string {
	name := a.name()
	if name == "" {
		name = "A flatmate"
	}
	return fmt.Sprintf("%s marked your cleaning shift as done for week %s.", name, week.Format(w))
}

func undoneToAssignee(a actor, w time.Time) string {
	return fmt.Sprintf("%smarked the cleaning shift for week %s as not done yet.", actorPrefix(a), week.Format(w))
}

func undoneToCompleter(a actor, w time.Time) string {
	return fmt.Sprintf("%sundid the completion for week %s. The shift still needs to be done.", actorPrefix(a), week.Format(w))
}

func undoneCompensationToCleaner(a actor, w, c time.Time) string {
	return fmt.Sprintf("%sundid the takeover for week %s. Your regular shift for week %s is back.",
		actorPrefix(a), week.Format(w), week.Format(c))
}

func undoneCompensationToOriginal(a actor, w, c time.Time) string {
	return fmt.Sprintf("%sundid the takeover for week %s. Your return shift for week %s is no longer needed.",
		actorPrefix(a), week.Format(w), week.Format(c))
}

func compensationToCleaner(a actor, s, c time.Time, originalName string) string {
	return fmt.Sprintf("%syou took over %s's shift in week %s. %s will cover your regular week %s in return.",
		recordedPrefix(a), originalName, week.Format(s), originalName, week.Format(c))
}

func compensationToOriginal(a actor, s, c time.Time, cleanerName string) string {
	return fmt.Sprintf("%s%s took over your shift in week %s. Your return shift is planned for week %s.",
		recordedPrefix(a), cleanerName, week.Format(s), week.Format(c))
}

func overrideCanceledInactive(overrideType string, w time.Time, names []string) string {
	label := "cleaning swap"
	if overrideType != rotation.OverrideManualSwap {
		label = "return shift"
	}
	who := "a former flatmate"
	if len(names) > 0 {
		who = strings.Join(names, ", ")
	}
	return fmt.Sprintf("A planned %s for week %s was canceled because %s is no longer active in the flat.",
		label, week.Format(w), who)
}
