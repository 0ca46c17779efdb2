package grid

import "sync"

// Weekday is the canonical day identifier used on the wire and in storage.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// WeekOrder is the traversal order for the grid.
var WeekOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayIndex = map[Weekday]int{
	Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4, Saturday: 5, Sunday: 6,
}

// ParseWeekday validates a raw day string from a request or snapshot.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(s)
	_, ok := dayIndex[d]
	return d, ok
}

type SlotState string

const (
	StateFree            SlotState = "free"
	StateSelected        SlotState = "selected"
	StateReservedByOther SlotState = "reserved_by_other"
	StateReservedBySelf  SlotState = "reserved_by_self"
)

const (
	daysPerWeek = 7
	hoursPerDay = 24
	// Hours 0..overnightLastHour of one day form an indivisible booking
	// block spanning midnight.
	overnightLastHour = 5
)

// Reservation is one entry of an authoritative snapshot.
type Reservation struct {
	Day       Weekday `json:"day"`
	TimeIndex int     `json:"time_index"`
	Username  string  `json:"username"`
}

// SlotRef identifies one bookable hour, as sent in a reservation intent.
type SlotRef struct {
	Day       Weekday `json:"day"`
	TimeIndex int     `json:"time_index"`
}

// Slot is the derived per-hour state. Copies are handed out; callers never
// mutate grid storage directly.
type Slot struct {
	Day      Weekday   `json:"day"`
	Hour     int       `json:"hour"`
	State    SlotState `json:"state"`
	Occupant string    `json:"occupant,omitempty"`
	GroupKey Weekday   `json:"groupKey,omitempty"`
}

// Grid reconciles the local user's in-progress selection against
// authoritative reservation snapshots pushed by the server. It owns the
// full 7x24 slot matrix; slot state is derived, never persisted.
//
// The mutex is there because snapshots arrive on the WebSocket read
// goroutine while toggles come from whatever drives the UI.
type Grid struct {
	mu    sync.Mutex
	slots [daysPerWeek][hoursPerDay]Slot
}

// New builds a grid of 168 free slots with overnight group keys assigned.
func New() *Grid {
	g := &Grid{}
	for d, day := range WeekOrder {
		for h := 0; h < hoursPerDay; h++ {
			s := Slot{Day: day, Hour: h, State: StateFree}
			if h <= overnightLastHour {
				s.GroupKey = day
			}
			g.slots[d][h] = s
		}
	}
	return g
}

// Toggle flips the selection of one slot. Reserved slots are inert. If the
// slot belongs to an overnight group the whole group is toggled as a unit:
// if any member is selected the group is deselected, otherwise every member
// that is still free becomes selected. Reserved members are skipped and do
// not block the rest of the group.
func (g *Grid) Toggle(day Weekday, hour int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	d, ok := dayIndex[day]
	if !ok || hour < 0 || hour >= hoursPerDay {
		return
	}
	s := &g.slots[d][hour]
	if s.State != StateFree && s.State != StateSelected {
		return
	}

	if s.GroupKey == "" {
		if s.State == StateSelected {
			s.State = StateFree
		} else {
			s.State = StateSelected
		}
		return
	}

	anySelected := false
	for h := 0; h <= overnightLastHour; h++ {
		if g.slots[d][h].State == StateSelected {
			anySelected = true
			break
		}
	}
	for h := 0; h <= overnightLastHour; h++ {
		m := &g.slots[d][h]
		if anySelected {
			if m.State == StateSelected {
				m.State = StateFree
			}
		} else {
			if m.State == StateFree {
				m.State = StateSelected
			}
		}
	}
}

// ApplySnapshot replaces all reservation state with the given authoritative
// snapshot, then restores whatever part of the previous selection is still
// free. Restoration runs strictly after reservations are applied so a slot
// just taken by someone else can never come back selected. Applying the
// same snapshot twice yields the same grid.
//
// Entries with an unknown day or an out-of-range hour are skipped; the
// operation is total.
func (g *Grid) ApplySnapshot(entries []Reservation, localIdentity string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var selected [daysPerWeek][hoursPerDay]bool
	for d := range g.slots {
		for h := range g.slots[d] {
			s := &g.slots[d][h]
			selected[d][h] = s.State == StateSelected
			s.State = StateFree
			s.Occupant = ""
		}
	}

	for _, e := range entries {
		d, ok := dayIndex[e.Day]
		if !ok || e.TimeIndex < 0 || e.TimeIndex >= hoursPerDay {
			continue
		}
		s := &g.slots[d][e.TimeIndex]
		if e.Username == localIdentity {
			s.State = StateReservedBySelf
		} else {
			s.State = StateReservedByOther
		}
		s.Occupant = e.Username
	}

	for d := range selected {
		for h, wasSelected := range selected[d] {
			if wasSelected && g.slots[d][h].State == StateFree {
				g.slots[d][h].State = StateSelected
			}
		}
	}
}

// Intent returns the currently selected slots in grid traversal order:
// canonical week order, hour ascending. This is the outgoing reservation
// payload; submitting it is the caller's job.
func (g *Grid) Intent() []SlotRef {
	g.mu.Lock()
	defer g.mu.Unlock()

	var refs []SlotRef
	for d, day := range WeekOrder {
		for h := 0; h < hoursPerDay; h++ {
			if g.slots[d][h].State == StateSelected {
				refs = append(refs, SlotRef{Day: day, TimeIndex: h})
			}
		}
	}
	return refs
}

// ClearSelection drops every local selection. Called after the server has
// acknowledged a submission; on failure the selection is left untouched so
// the user can retry.
func (g *Grid) ClearSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for d := range g.slots {
		for h := range g.slots[d] {
			if g.slots[d][h].State == StateSelected {
				g.slots[d][h].State = StateFree
			}
		}
	}
}

// SlotAt returns a copy of one slot's derived state.
func (g *Grid) SlotAt(day Weekday, hour int) (Slot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	d, ok := dayIndex[day]
	if !ok || hour < 0 || hour >= hoursPerDay {
		return Slot{}, false
	}
	return g.slots[d][hour], true
}

// Snapshot returns a copy of every slot in traversal order, for UI layers
// that repaint the whole table.
func (g *Grid) Snapshot() []Slot {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Slot, 0, len(WeekOrder)*hoursPerDay)
	for d := range WeekOrder {
		for h := 0; h < hoursPerDay; h++ {
			out = append(out, g.slots[d][h])
		}
	}
	return out
}
