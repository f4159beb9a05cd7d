package fees

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestNextPaymentDate(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		termDays  int
		salaryDay int
		want      time.Time
	}{
		{
			name:      "salary day later this month",
			start:     date(2026, 3, 10),
			salaryDay: 25,
			want:      date(2026, 3, 25),
		},
		{
			name:      "salary day already passed rolls to next month",
			start:     date(2026, 3, 26),
			salaryDay: 25,
			want:      date(2026, 4, 25),
		},
		{
			name:      "start on salary day is strictly after",
			start:     date(2026, 3, 25),
			salaryDay: 25,
			want:      date(2026, 4, 25),
		},
		{
			name:      "day 31 clamps in a 30 day month",
			start:     date(2026, 4, 5),
			salaryDay: 31,
			want:      date(2026, 4, 30),
		},
		{
			name:      "day 31 clamps in february",
			start:     date(2026, 2, 1),
			salaryDay: 31,
			want:      date(2026, 2, 28),
		},
		{
			name:      "day 29 in leap year february",
			start:     date(2028, 2, 1),
			salaryDay: 29,
			want:      date(2028, 2, 29),
		},
		{
			name:     "no salary day falls back to term offset",
			start:    date(2026, 3, 10),
			termDays: 30,
			want:     date(2026, 4, 9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextPaymentDate(tt.start, tt.termDays, tt.salaryDay)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextPaymentDateIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2026, 3, 24, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, date(2026, 3, 25), NextPaymentDate(late, 30, 25))
}
