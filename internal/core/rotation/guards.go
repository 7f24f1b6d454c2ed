package rotation

import (
	"fmt"
	"time"

	"github.com/example/rota/internal/core/week"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	kind := r.Kind
	if kind == nil {
		kind = ErrValidation
	}
	return Errorf(kind, "%s", r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(kind error, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...), Kind: kind}
}

// MemberState is the minimal member info guards need.
type MemberState struct {
	ID     string
	Exists bool
	Active bool
}

// CanUseWeek checks that a week parameter is a Monday.
func CanUseWeek(w time.Time) GuardResult {
	if !week.IsMonday(w) {
		return deny(ErrValidation, "week %s must be a Monday", week.Format(w))
	}
	return allow()
}

// CanAct checks that an operation names its actor.
func CanAct(actorExternalID string) GuardResult {
	if actorExternalID == "" {
		return deny(ErrValidation, "actor is required")
	}
	return allow()
}

// PlanSwapContext provides context for planning or editing a manual swap.
type PlanSwapContext struct {
	Week    time.Time
	MemberA MemberState
	MemberB MemberState
	// ExistingPlannedType is the type of the planned override already at Week, or "".
	ExistingPlannedType string
}

// CanPlanSwap evaluates whether a manual swap can be planned or edited.
// Rules:
// - Week must be a Monday
// - The parties must differ
// - Both parties must exist and be active
// - The week must not hold a planned override of another type
func CanPlanSwap(ctx PlanSwapContext) GuardResult {
	if r := CanUseWeek(ctx.Week); !r.Allowed {
		return r
	}
	if ctx.MemberA.ID == ctx.MemberB.ID {
		return deny(ErrValidation, "swap parties must be different members")
	}
	if r := requireActive(ctx.MemberA, "member A"); !r.Allowed {
		return r
	}
	if r := requireActive(ctx.MemberB, "member B"); !r.Allowed {
		return r
	}
	if ctx.ExistingPlannedType != "" && ctx.ExistingPlannedType != OverrideManualSwap {
		return deny(ErrConflict, "a planned %s override already exists for week %s",
			ctx.ExistingPlannedType, week.Format(ctx.Week))
	}
	return allow()
}

// MarkDoneContext provides context for own completion.
type MarkDoneContext struct {
	AssigneeID string
	// Completer is the explicitly named completer; nil means the actor completes.
	Completer *MemberState
}

// CanMarkDone evaluates whether a week can be marked done by its completer.
// Rules:
// - An explicit completer must exist
// - An explicit completer must be the assignee (otherwise it is a takeover)
func CanMarkDone(ctx MarkDoneContext) GuardResult {
	if ctx.Completer == nil {
		return allow()
	}
	if !ctx.Completer.Exists {
		return deny(errUnknownMember, "completed-by member %s not found", ctx.Completer.ID)
	}
	if ctx.AssigneeID != "" && ctx.Completer.ID != ctx.AssigneeID {
		return deny(ErrUseTakeover, "%s", ErrUseTakeover.Error())
	}
	return allow()
}

// TakeoverContext provides context for takeover completion.
type TakeoverContext struct {
	Week             time.Time
	OriginalAssignee MemberState
	Cleaner          MemberState
}

// CanMarkTakeover evaluates whether a takeover completion can be recorded.
// Rules:
// - Week must be a Monday
// - Both members must exist and be active
// - The cleaner must differ from the original assignee
func CanMarkTakeover(ctx TakeoverContext) GuardResult {
	if r := CanUseWeek(ctx.Week); !r.Allowed {
		return r
	}
	if r := requireActive(ctx.OriginalAssignee, "original assignee"); !r.Allowed {
		return r
	}
	if r := requireActive(ctx.Cleaner, "cleaner"); !r.Allowed {
		return r
	}
	if ctx.OriginalAssignee.ID == ctx.Cleaner.ID {
		return deny(ErrValidation, "cleaner must differ from the original assignee; use mark done instead")
	}
	return allow()
}

func requireActive(m MemberState, field string) GuardResult {
	if !m.Exists {
		return deny(errUnknownMember, "%s %s not found", field, m.ID)
	}
	if !m.Active {
		return deny(ErrValidation, "%s %s is inactive", field, m.ID)
	}
	return allow()
}
