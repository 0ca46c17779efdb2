package grid

import (
	"reflect"
	"testing"
)

func stateAt(t *testing.T, g *Grid, day Weekday, hour int) SlotState {
	t.Helper()
	s, ok := g.SlotAt(day, hour)
	if !ok {
		t.Fatalf("no slot at (%s,%d)", day, hour)
	}
	return s.State
}

func TestNewGridAllFree(t *testing.T) {
	g := New()

	if got := len(g.Snapshot()); got != 168 {
		t.Fatalf("expected 168 slots, got %d", got)
	}
	for _, s := range g.Snapshot() {
		if s.State != StateFree {
			t.Fatalf("slot (%s,%d) not free: %s", s.Day, s.Hour, s.State)
		}
		if s.Hour <= 5 && s.GroupKey != s.Day {
			t.Fatalf("slot (%s,%d) missing group key", s.Day, s.Hour)
		}
		if s.Hour > 5 && s.GroupKey != "" {
			t.Fatalf("slot (%s,%d) unexpectedly grouped", s.Day, s.Hour)
		}
	}
	if refs := g.Intent(); len(refs) != 0 {
		t.Fatalf("untouched grid should have empty intent, got %v", refs)
	}
}

func TestToggleSingleSlot(t *testing.T) {
	g := New()

	g.Toggle(Tuesday, 14)
	if got := stateAt(t, g, Tuesday, 14); got != StateSelected {
		t.Fatalf("expected selected, got %s", got)
	}
	// neighbours untouched
	if got := stateAt(t, g, Tuesday, 13); got != StateFree {
		t.Fatalf("neighbour toggled: %s", got)
	}

	g.Toggle(Tuesday, 14)
	if got := stateAt(t, g, Tuesday, 14); got != StateFree {
		t.Fatalf("expected free after second toggle, got %s", got)
	}
}

func TestOvernightGroupToggleRoundTrip(t *testing.T) {
	g := New()

	// one click on (Monday,0) selects all six overnight hours
	g.Toggle(Monday, 0)
	for h := 0; h <= 5; h++ {
		if got := stateAt(t, g, Monday, h); got != StateSelected {
			t.Fatalf("hour %d not selected: %s", h, got)
		}
	}
	if got := stateAt(t, g, Monday, 6); got != StateFree {
		t.Fatalf("hour 6 must stay free, got %s", got)
	}

	// clicking any other member deselects the whole group
	g.Toggle(Monday, 3)
	for h := 0; h <= 5; h++ {
		if got := stateAt(t, g, Monday, h); got != StateFree {
			t.Fatalf("hour %d not deselected: %s", h, got)
		}
	}
}

func TestGroupNeverMixedAfterToggles(t *testing.T) {
	g := New()

	// arbitrary click sequence on group members
	for _, h := range []int{2, 5, 0, 0, 3, 1} {
		g.Toggle(Friday, h)

		first := stateAt(t, g, Friday, 0)
		for hh := 1; hh <= 5; hh++ {
			if got := stateAt(t, g, Friday, hh); got != first {
				t.Fatalf("mixed group after toggle(%d): hour 0 is %s, hour %d is %s", h, first, hh, got)
			}
		}
	}
}

func TestGroupToggleSkipsReservedMembers(t *testing.T) {
	g := New()
	g.ApplySnapshot([]Reservation{{Day: Monday, TimeIndex: 2, Username: "alice"}}, "bob")

	g.Toggle(Monday, 0)
	for h := 0; h <= 5; h++ {
		want := StateSelected
		if h == 2 {
			want = StateReservedByOther
		}
		if got := stateAt(t, g, Monday, h); got != want {
			t.Fatalf("hour %d: expected %s, got %s", h, want, got)
		}
	}

	// the reserved member itself is inert
	g.Toggle(Monday, 2)
	if got := stateAt(t, g, Monday, 2); got != StateReservedByOther {
		t.Fatalf("reserved slot toggled: %s", got)
	}
}

func TestApplySnapshotSelfVsOther(t *testing.T) {
	snap := []Reservation{{Day: Monday, TimeIndex: 9, Username: "alice"}}

	g := New()
	g.ApplySnapshot(snap, "alice")
	if got := stateAt(t, g, Monday, 9); got != StateReservedBySelf {
		t.Fatalf("expected reserved_by_self, got %s", got)
	}
	s, _ := g.SlotAt(Monday, 9)
	if s.Occupant != "alice" {
		t.Fatalf("occupant label lost: %q", s.Occupant)
	}

	g = New()
	g.ApplySnapshot(snap, "bob")
	if got := stateAt(t, g, Monday, 9); got != StateReservedByOther {
		t.Fatalf("expected reserved_by_other, got %s", got)
	}
}

func TestApplySnapshotIdempotent(t *testing.T) {
	snap := []Reservation{
		{Day: Monday, TimeIndex: 9, Username: "alice"},
		{Day: Sunday, TimeIndex: 23, Username: "bob"},
	}

	g := New()
	g.Toggle(Wednesday, 10)
	g.ApplySnapshot(snap, "alice")
	once := g.Snapshot()

	g.ApplySnapshot(snap, "alice")
	twice := g.Snapshot()

	if !reflect.DeepEqual(once, twice) {
		t.Fatal("applying the same snapshot twice changed the grid")
	}
}

func TestSnapshotEvictsConflictingSelection(t *testing.T) {
	g := New()
	g.Toggle(Tuesday, 14)

	g.ApplySnapshot([]Reservation{{Day: Tuesday, TimeIndex: 14, Username: "carol"}}, "bob")

	if got := stateAt(t, g, Tuesday, 14); got != StateReservedByOther {
		t.Fatalf("reservation must win over selection, got %s", got)
	}
	for _, ref := range g.Intent() {
		if ref.Day == Tuesday && ref.TimeIndex == 14 {
			t.Fatal("evicted slot still present in intent")
		}
	}
}

func TestSnapshotPreservesValidSelection(t *testing.T) {
	g := New()
	g.Toggle(Tuesday, 14)
	g.Toggle(Thursday, 8)

	g.ApplySnapshot([]Reservation{{Day: Tuesday, TimeIndex: 14, Username: "carol"}}, "bob")

	if got := stateAt(t, g, Thursday, 8); got != StateSelected {
		t.Fatalf("unrelated selection lost: %s", got)
	}
	want := []SlotRef{{Day: Thursday, TimeIndex: 8}}
	if got := g.Intent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("intent mismatch: got %v want %v", got, want)
	}
}

func TestIntentTraversalOrder(t *testing.T) {
	g := New()
	// select out of order
	g.Toggle(Sunday, 7)
	g.Toggle(Monday, 22)
	g.Toggle(Monday, 10)
	g.Toggle(Wednesday, 0) // selects the whole overnight group

	want := []SlotRef{
		{Day: Monday, TimeIndex: 10},
		{Day: Monday, TimeIndex: 22},
		{Day: Wednesday, TimeIndex: 0},
		{Day: Wednesday, TimeIndex: 1},
		{Day: Wednesday, TimeIndex: 2},
		{Day: Wednesday, TimeIndex: 3},
		{Day: Wednesday, TimeIndex: 4},
		{Day: Wednesday, TimeIndex: 5},
		{Day: Sunday, TimeIndex: 7},
	}
	if got := g.Intent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("intent order mismatch:\ngot  %v\nwant %v", got, want)
	}
}

func TestClearSelection(t *testing.T) {
	g := New()
	g.Toggle(Monday, 10)
	g.Toggle(Saturday, 0)
	g.ApplySnapshot([]Reservation{{Day: Friday, TimeIndex: 12, Username: "alice"}}, "alice")

	g.ClearSelection()

	if refs := g.Intent(); len(refs) != 0 {
		t.Fatalf("selection not cleared: %v", refs)
	}
	// reservations untouched
	if got := stateAt(t, g, Friday, 12); got != StateReservedBySelf {
		t.Fatalf("clear touched reserved slot: %s", got)
	}
}

func TestSnapshotSkipsMalformedEntries(t *testing.T) {
	g := New()
	g.ApplySnapshot([]Reservation{
		{Day: "Funday", TimeIndex: 3, Username: "x"},
		{Day: Monday, TimeIndex: 24, Username: "x"},
		{Day: Monday, TimeIndex: -1, Username: "x"},
		{Day: Monday, TimeIndex: 9, Username: "alice"},
	}, "bob")

	reserved := 0
	for _, s := range g.Snapshot() {
		if s.State == StateReservedByOther || s.State == StateReservedBySelf {
			reserved++
		}
	}
	if reserved != 1 {
		t.Fatalf("expected exactly 1 reserved slot, got %d", reserved)
	}
}

func TestParseWeekday(t *testing.T) {
	if d, ok := ParseWeekday("Wednesday"); !ok || d != Wednesday {
		t.Fatalf("ParseWeekday(Wednesday) = %v, %v", d, ok)
	}
	if _, ok := ParseWeekday("wednesday"); ok {
		t.Fatal("lowercase day must not parse")
	}
	if _, ok := ParseWeekday(""); ok {
		t.Fatal("empty day must not parse")
	}
}
