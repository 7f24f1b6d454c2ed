// Package reminder decides which reminder slot, if any, a wall-clock minute
// falls on, and what the reminder says. It is pure: callers supply the
// assignment state.
package reminder

import "time"

// Notification kinds.
const (
	KindWeeklyAssignment       = "weekly_assignment"
	KindWeeklyReminder         = "weekly_reminder"
	KindSwapNotice             = "swap_notice"
	KindCompletionConfirmation = "completion_confirmation"
	KindUndoNotice             = "undo_notice"
	KindCompensationNotice     = "takeover_compensation_notice"
	KindOverrideCanceledNotice = "override_canceled_notice"
)

// Title and Category are shared by every cleaning notification.
const (
	Title    = "Weekly Cleaning Shift"
	Category = "cleaning"
)

// SourceAction tags notifications produced by the scheduler.
const SourceAction = "cleaning_notifications_due"

// Slot identifies one reminder window.
type Slot struct {
	Name string
	Kind string
	// RequiresPending limits the slot to weeks whose assignment is still pending.
	RequiresPending bool
}

var (
	// SlotMonday11 announces the week's assignee.
	SlotMonday11 = Slot{Name: "monday_11", Kind: KindWeeklyAssignment}
	// SlotSunday18 asks for confirmation.
	SlotSunday18 = Slot{Name: "sunday_18", Kind: KindWeeklyReminder, RequiresPending: true}
	// SlotSunday21 is the final reminder.
	SlotSunday21 = Slot{Name: "sunday_21", Kind: KindWeeklyReminder, RequiresPending: true}
)

// Slots lists every slot in evaluation order.
var Slots = []Slot{SlotMonday11, SlotSunday18, SlotSunday21}

// DueSlot returns the slot at the exact minute t, in t's location.
func DueSlot(t time.Time) (Slot, bool) {
	if t.Minute() != 0 {
		return Slot{}, false
	}

	switch {
	case t.Weekday() == time.Monday && t.Hour() == 11:
		return SlotMonday11, true
	case t.Weekday() == time.Sunday && t.Hour() == 18:
		return SlotSunday18, true
	case t.Weekday() == time.Sunday && t.Hour() == 21:
		return SlotSunday21, true
	}
	return Slot{}, false
}

// Message returns the reminder copy for a slot. previousWeekDone only affects
// the Monday announcement.
func Message(slot Slot, previousWeekDone bool) string {
	switch slot.Name {
	case SlotMonday11.Name:
		msg := "It is your turn to clean the common areas this week."
		if !previousWeekDone {
			msg += " Warning: last week is still unconfirmed."
		}
		return msg
	case SlotSunday18.Name:
		return "Please mark this week's cleaning as done after you finish. " +
			"If it is not confirmed, the next person may miss a reminder."
	case SlotSunday21.Name:
		return "Final reminder: mark this week's cleaning as done now " +
			"so next week's reminder can be sent correctly."
	}
	return ""
}
