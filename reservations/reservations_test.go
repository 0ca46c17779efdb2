package reservations

import (
	"reflect"
	"testing"
	"time"

	"timegrid/grid"

	"go.mongodb.org/mongo-driver/bson"
)

func TestValidateRefs(t *testing.T) {
	cases := []struct {
		name string
		refs []grid.SlotRef
		ok   bool
	}{
		{"empty", nil, false},
		{"valid single", []grid.SlotRef{{Day: grid.Monday, TimeIndex: 9}}, true},
		{"valid overnight block", []grid.SlotRef{
			{Day: grid.Wednesday, TimeIndex: 0},
			{Day: grid.Wednesday, TimeIndex: 1},
			{Day: grid.Wednesday, TimeIndex: 2},
			{Day: grid.Wednesday, TimeIndex: 3},
			{Day: grid.Wednesday, TimeIndex: 4},
			{Day: grid.Wednesday, TimeIndex: 5},
		}, true},
		{"bad day", []grid.SlotRef{{Day: "Someday", TimeIndex: 9}}, false},
		{"hour too high", []grid.SlotRef{{Day: grid.Monday, TimeIndex: 24}}, false},
		{"negative hour", []grid.SlotRef{{Day: grid.Monday, TimeIndex: -1}}, false},
		{"duplicate", []grid.SlotRef{
			{Day: grid.Monday, TimeIndex: 9},
			{Day: grid.Monday, TimeIndex: 9},
		}, false},
	}

	for _, tc := range cases {
		reason := validateRefs(tc.refs)
		if tc.ok && reason != "" {
			t.Errorf("%s: unexpected rejection: %s", tc.name, reason)
		}
		if !tc.ok && reason == "" {
			t.Errorf("%s: expected rejection", tc.name)
		}
	}
}

func TestSlotsFilter(t *testing.T) {
	refs := []grid.SlotRef{
		{Day: grid.Monday, TimeIndex: 9},
		{Day: grid.Friday, TimeIndex: 20},
	}
	want := bson.M{"$or": []bson.M{
		{"reservation_day": grid.Monday, "time_index": 9},
		{"reservation_day": grid.Friday, "time_index": 20},
	}}
	if got := slotsFilter(refs); !reflect.DeepEqual(got, want) {
		t.Fatalf("slotsFilter mismatch:\ngot  %v\nwant %v", got, want)
	}
}

// The rollback after a lost insert race must touch only the rows of that one
// submission, never the user's pre-existing reservations.
func TestRollbackFilterPinsBatch(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	refs := []grid.SlotRef{{Day: grid.Monday, TimeIndex: 9}}

	got := rollbackFilter("alice", at, refs)

	if got["username"] != "alice" {
		t.Fatalf("rollback not pinned to user: %v", got)
	}
	if got["createdAt"] != at {
		t.Fatalf("rollback not pinned to the batch timestamp: %v", got)
	}
	if !reflect.DeepEqual(got["$or"], []bson.M{{"reservation_day": grid.Monday, "time_index": 9}}) {
		t.Fatalf("rollback not pinned to the requested slots: %v", got)
	}
}
