package domain

import (
	"testing"
	"time"
)

func TestNextExpirationAdvancesOnePeriod(t *testing.T) {
	tests := []struct {
		name      string
		period    BillingPeriod
		frequency int
		prev      time.Time
		want      time.Time
	}{
		{
			name:   "monthly mid-month",
			period: PeriodMonth,
			prev:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "monthly clamps to month end",
			period: PeriodMonth,
			prev:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "monthly from clamped anchor keeps the day",
			period: PeriodMonth,
			prev:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "every three months",
			period:    PeriodMonth,
			frequency: 3,
			prev:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			want:      time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "quarter clamps across year boundary",
			period: PeriodQuarter,
			prev:   time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "yearly clamps leap day",
			period: PeriodYear,
			prev:   time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC),
			want:   time.Date(2025, 2, 28, 12, 30, 0, 0, time.UTC),
		},
		{
			name:   "weekly",
			period: PeriodWeek,
			prev:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "daily",
			period: PeriodDay,
			prev:   time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subscription{
				Period:     tt.period,
				Frequency:  tt.frequency,
				Expiration: tt.prev,
			}
			got := sub.NextExpiration()
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNextExpirationIgnoresWallClock(t *testing.T) {
	// A subscription ten days overdue still advances from its own anchor.
	sub := Subscription{
		Period:     PeriodMonth,
		Frequency:  1,
		Expiration: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	want := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	if got := sub.NextExpiration(); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
