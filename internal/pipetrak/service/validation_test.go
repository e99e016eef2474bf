package service

import (
	"errors"
	"testing"
	"time"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
)

// Reporting weeks run Sunday through Saturday. The fixtures below pin
// specific calendar dates: 2025-06-08 is a Sunday.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestValidateEffectiveDateCurrentWeek(t *testing.T) {
	now := at(2025, time.June, 11, 14, 0) // Wednesday
	for _, eff := range []time.Time{
		date(2025, time.June, 11), // today
		date(2025, time.June, 8),  // Sunday of this week
		date(2025, time.June, 9),
	} {
		if err := ValidateEffectiveDate(eff, now); err != nil {
			t.Errorf("Expected %s to be accepted at %s, got %v", eff.Format("2006-01-02"), now, err)
		}
	}
}

func TestValidateEffectiveDateFuture(t *testing.T) {
	now := at(2025, time.June, 11, 14, 0)
	err := ValidateEffectiveDate(date(2025, time.June, 12), now)
	if !errors.Is(err, ErrFutureDate) {
		t.Errorf("Expected ErrFutureDate, got %v", err)
	}
}

func TestValidateEffectiveDatePriorWeekInsideGrace(t *testing.T) {
	// Prior reporting week is Jun 1 (Sun) through Jun 7 (Sat). Its
	// grace window closes Tuesday Jun 10 at 09:00.
	eff := date(2025, time.June, 5)

	now := at(2025, time.June, 10, 8, 59)
	if err := ValidateEffectiveDate(eff, now); err != nil {
		t.Errorf("Expected acceptance just before the cutoff, got %v", err)
	}

	now = at(2025, time.June, 10, 9, 0)
	if err := ValidateEffectiveDate(eff, now); !errors.Is(err, ErrGraceWindowClosed) {
		t.Errorf("Expected ErrGraceWindowClosed exactly at the cutoff, got %v", err)
	}

	now = at(2025, time.June, 10, 9, 1)
	if err := ValidateEffectiveDate(eff, now); !errors.Is(err, ErrGraceWindowClosed) {
		t.Errorf("Expected ErrGraceWindowClosed after the cutoff, got %v", err)
	}
}

func TestValidateEffectiveDateOldWeekRejected(t *testing.T) {
	now := at(2025, time.June, 11, 14, 0)
	err := ValidateEffectiveDate(date(2025, time.May, 20), now)
	if !errors.Is(err, ErrGraceWindowClosed) {
		t.Errorf("Expected ErrGraceWindowClosed for a week-old date, got %v", err)
	}
}

func TestMilestoneValueConstructors(t *testing.T) {
	v := DiscreteValue(true)
	if v.Kind() != ValueKindDiscrete {
		t.Errorf("Expected discrete kind, got %s", v.Kind())
	}

	if _, err := PercentageValue(100); err != nil {
		t.Errorf("Expected 100 to be a valid percentage: %v", err)
	}
	if _, err := PercentageValue(100.1); err == nil {
		t.Error("Expected out-of-range percentage to be rejected")
	}
	if _, err := PercentageValue(-1); err == nil {
		t.Error("Expected negative percentage to be rejected")
	}

	if _, err := QuantityValue(0); err != nil {
		t.Errorf("Expected 0 to be a valid quantity: %v", err)
	}
	if _, err := QuantityValue(-0.5); err == nil {
		t.Error("Expected negative quantity to be rejected")
	}

	var zero MilestoneValue
	if zero.Kind() != "" {
		t.Errorf("Expected zero value to carry no kind, got %s", zero.Kind())
	}
}

func TestKindForWorkflow(t *testing.T) {
	cases := map[string]ValueKind{
		entity.WorkflowDiscrete:   ValueKindDiscrete,
		entity.WorkflowPercentage: ValueKindPercentage,
		entity.WorkflowQuantity:   ValueKindQuantity,
	}
	for workflow, want := range cases {
		if got := kindForWorkflow(workflow); got != want {
			t.Errorf("kindForWorkflow(%s) = %s, want %s", workflow, got, want)
		}
	}
}

func TestClampBatchSize(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, DefaultBatchSize},
		{-5, MinBatchSize},
		{1, 1},
		{50, 50},
		{500, 500},
		{501, MaxBatchSize},
	}
	for _, c := range cases {
		if got := clampBatchSize(c.in); got != c.want {
			t.Errorf("clampBatchSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestChunkResolved(t *testing.T) {
	items := make([]resolvedUpdate, 50)
	for i := range items {
		items[i].idx = i
	}

	chunks := chunkResolved(items, 20)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 20 || len(chunks[1]) != 20 || len(chunks[2]) != 10 {
		t.Errorf("Expected chunk sizes [20 20 10], got [%d %d %d]",
			len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	// Submission order survives chunking
	if chunks[2][9].idx != 49 {
		t.Errorf("Expected last item idx 49, got %d", chunks[2][9].idx)
	}

	if got := chunkResolved(nil, 20); got != nil {
		t.Errorf("Expected no chunks for empty input, got %d", len(got))
	}
}
