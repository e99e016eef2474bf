package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
)

var (
	ErrMilestoneNotFound  = errors.New("milestone not found for component")
	ErrComponentNotFound  = errors.New("component not found")
	ErrAccessDenied       = errors.New("user is not a member of the project's organization")
	ErrValueMismatch      = errors.New("value kind does not match component workflow type")
	ErrNoValue            = errors.New("update carries no milestone value")
	ErrFutureDate         = errors.New("effective date is in the future")
	ErrGraceWindowClosed  = errors.New("effective date is outside the backdating grace window")
	ErrUnknownStrategy    = errors.New("unknown conflict resolution strategy")
	ErrAtomicValidation   = errors.New("atomic batch rejected: one or more updates failed validation")
	ErrCrossProjectBatch  = errors.New("bulk update spans more than one project")
	ErrAlreadyRolledBack  = errors.New("transaction has already been rolled back")
	ErrTransactionPending = errors.New("transaction has no audit entries to revert")
)

// ValueKind discriminates the three milestone value representations.
type ValueKind string

const (
	ValueKindDiscrete   ValueKind = "discrete"
	ValueKindPercentage ValueKind = "percentage"
	ValueKindQuantity   ValueKind = "quantity"
)

// MilestoneValue is a tagged union over the three value
// representations. Values are built through the constructors so a
// malformed value cannot exist past construction.
type MilestoneValue struct {
	kind      ValueKind
	completed bool
	percent   float64
	quantity  float64
}

// DiscreteValue builds a done/not-done value.
func DiscreteValue(completed bool) MilestoneValue {
	return MilestoneValue{kind: ValueKindDiscrete, completed: completed}
}

// PercentageValue builds a percentage value in [0, 100].
func PercentageValue(percent float64) (MilestoneValue, error) {
	if percent < 0 || percent > 100 {
		return MilestoneValue{}, fmt.Errorf("percentage value %.2f out of range [0, 100]", percent)
	}
	return MilestoneValue{kind: ValueKindPercentage, percent: percent}, nil
}

// QuantityValue builds a non-negative quantity value.
func QuantityValue(quantity float64) (MilestoneValue, error) {
	if quantity < 0 {
		return MilestoneValue{}, fmt.Errorf("quantity value %.2f must not be negative", quantity)
	}
	return MilestoneValue{kind: ValueKindQuantity, quantity: quantity}, nil
}

// Kind returns the discriminator; the zero MilestoneValue has none.
func (v MilestoneValue) Kind() ValueKind {
	return v.kind
}

// kindForWorkflow maps a component workflow type onto the value kind
// its milestones accept.
func kindForWorkflow(workflowType string) ValueKind {
	switch workflowType {
	case entity.WorkflowPercentage:
		return ValueKindPercentage
	case entity.WorkflowQuantity:
		return ValueKindQuantity
	default:
		return ValueKindDiscrete
	}
}

// Reporting weeks run Sunday through Saturday. Corrections to a closed
// reporting week stay open until a grace cutoff at Tuesday 09:00 of the
// following week.
const (
	graceCutoffWeekday = time.Tuesday
	graceCutoffHour    = 9
)

// ValidateEffectiveDate applies the backdating policy as a pure
// function of the proposed effective date and the current time. Future
// dates are always rejected; a date in a closed reporting week is
// rejected once now passes that week's grace cutoff.
func ValidateEffectiveDate(effective, now time.Time) error {
	eff := dateOnly(effective)
	today := dateOnly(now)

	if eff.After(today) {
		return ErrFutureDate
	}
	if !now.Before(graceCutoff(eff)) {
		return ErrGraceWindowClosed
	}
	return nil
}

// graceCutoff returns the instant after which the reporting week
// containing d can no longer be corrected: Tuesday 09:00 of the week
// after d's reporting week.
func graceCutoff(d time.Time) time.Time {
	nextWeek := weekStart(d).AddDate(0, 0, 7)
	return nextWeek.
		AddDate(0, 0, int(graceCutoffWeekday)).
		Add(graceCutoffHour * time.Hour)
}

// weekStart truncates t to the Sunday beginning its reporting week.
func weekStart(t time.Time) time.Time {
	d := dateOnly(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MilestoneUpdate is one proposed milestone change.
type MilestoneUpdate struct {
	ComponentID   string
	MilestoneName string
	Value         MilestoneValue
	EffectiveDate *time.Time
	WelderID      *string
	Comments      string
}

// resolvedUpdate is a validated update together with the records it
// touches. idx preserves submission order through batching.
type resolvedUpdate struct {
	idx       int
	update    MilestoneUpdate
	component *entity.Component
	milestone *entity.ComponentMilestone
	changes   entity.JSONB
}

// validateUpdate runs the per-item checks in order: milestone exists,
// actor belongs to the owning organization, value kind matches the
// workflow type, effective date inside the backdating window. The
// membership cache spares repeated lookups across a bulk request.
func (s *MilestoneService) validateUpdate(ctx context.Context, userID string, upd MilestoneUpdate, memberCache map[string]bool) (*entity.Component, *entity.ComponentMilestone, error) {
	component, err := s.componentRepo.FindByID(ctx, upd.ComponentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrComponentNotFound
		}
		return nil, nil, err
	}

	var milestone *entity.ComponentMilestone
	for i := range component.Milestones {
		if component.Milestones[i].Name == upd.MilestoneName {
			milestone = &component.Milestones[i]
			break
		}
	}
	if milestone == nil {
		return nil, nil, fmt.Errorf("%w: %q on component %s", ErrMilestoneNotFound, upd.MilestoneName, component.ComponentID)
	}

	isMember, cached := memberCache[component.ProjectID]
	if !cached {
		isMember, err = s.projectRepo.IsOrgMember(ctx, userID, component.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		memberCache[component.ProjectID] = isMember
	}
	if !isMember {
		return nil, nil, ErrAccessDenied
	}

	if upd.Value.Kind() == "" {
		return nil, nil, ErrNoValue
	}
	if upd.Value.Kind() != kindForWorkflow(component.WorkflowType) {
		return nil, nil, fmt.Errorf("%w: %s value for %s component", ErrValueMismatch, upd.Value.Kind(), component.WorkflowType)
	}

	if upd.EffectiveDate != nil {
		if err := ValidateEffectiveDate(*upd.EffectiveDate, s.now()); err != nil {
			return nil, nil, err
		}
	}

	return component, milestone, nil
}
