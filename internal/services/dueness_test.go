package services

import (
	"testing"
	"time"
)

func tp(t time.Time) *time.Time { return &t }

func TestInstallmentDue(t *testing.T) {
	tests := []struct {
		name          string
		lastGenerated *time.Time
		now           time.Time
		dayOfMonth    int
		want          bool
	}{
		{
			name:       "never generated and day reached",
			now:        time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			dayOfMonth: 15,
			want:       true,
		},
		{
			name:       "never generated and day not reached",
			now:        time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC),
			dayOfMonth: 15,
			want:       false,
		},
		{
			name:          "already generated this month",
			lastGenerated: tp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
			now:           time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC),
			dayOfMonth:    15,
			want:          false,
		},
		{
			name:          "generated previous month and day reached",
			lastGenerated: tp(time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)),
			now:           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			dayOfMonth:    15,
			want:          true,
		},
		{
			name:          "generated previous month but day not reached",
			lastGenerated: tp(time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)),
			now:           time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			dayOfMonth:    15,
			want:          false,
		},
		{
			name:       "day 31 clamps to end of february",
			now:        time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
			dayOfMonth: 31,
			want:       true,
		},
		{
			name:       "day 31 clamps to leap day",
			now:        time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			dayOfMonth: 31,
			want:       true,
		},
		{
			name:       "day 31 not reached in february",
			now:        time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC),
			dayOfMonth: 31,
			want:       false,
		},
		{
			name:       "day 31 clamps to april 30",
			now:        time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
			dayOfMonth: 31,
			want:       true,
		},
		{
			name:          "worker down for two months catches up once",
			lastGenerated: tp(time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)),
			now:           time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			dayOfMonth:    1,
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InstallmentDue(tt.lastGenerated, tt.now, tt.dayOfMonth)
			if got != tt.want {
				t.Errorf("InstallmentDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstallmentDate(t *testing.T) {
	now := time.Date(2024, 2, 29, 15, 30, 0, 0, time.UTC)
	got := InstallmentDate(now, 31)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("InstallmentDate() = %v, want %v", got, want)
	}
}
