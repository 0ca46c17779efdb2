package schedule

import (
	"testing"
	"time"
)

func TestResetTimeLeadsOpenTimeByOneHour(t *testing.T) {
	openAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	want := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if got := resetTimeFor(openAt); !got.Equal(want) {
		t.Fatalf("resetTimeFor = %s, want %s", got, want)
	}
}
