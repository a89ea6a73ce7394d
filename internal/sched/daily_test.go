package sched

import (
	"context"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: TimeOfDay{0, 0}},
		{in: "23:59", want: TimeOfDay{23, 59}},
		{in: "9:05", want: TimeOfDay{9, 5}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): want error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNextIsStrictlyAfterNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Later today.
	fire := TimeOfDay{Hour: 18, Minute: 30}.next(now)
	want := time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)
	if !fire.Equal(want) {
		t.Errorf("next = %v, want %v", fire, want)
	}

	// Already passed today rolls to tomorrow.
	fire = TimeOfDay{Hour: 6, Minute: 0}.next(now)
	want = time.Date(2024, 6, 2, 6, 0, 0, 0, time.UTC)
	if !fire.Equal(want) {
		t.Errorf("next = %v, want %v", fire, want)
	}

	// Exactly now rolls to tomorrow, never fires twice for one tick.
	fire = TimeOfDay{Hour: 12, Minute: 0}.next(now)
	want = time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
	if !fire.Equal(want) {
		t.Errorf("next = %v, want %v", fire, want)
	}
}

func TestDailyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		Daily(ctx, TimeOfDay{Hour: 0, Minute: 0}, func(context.Context) {
			t.Error("fn must not fire after cancellation")
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Daily did not return after cancellation")
	}
}
