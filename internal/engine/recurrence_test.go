package engine

import "testing"

func TestOccurrences(t *testing.T) {
	tests := []struct {
		name        string
		anchor      int
		interval    int
		monthLength int
		want        []int
	}{
		{
			name:   "biweekly anchored on 3 in a 31-day month",
			anchor: 3, interval: 14, monthLength: 31,
			want: []int{3, 17, 31},
		},
		{
			name:   "weekly anchored on 1 in a 30-day month",
			anchor: 1, interval: 7, monthLength: 30,
			want: []int{1, 8, 15, 22, 29},
		},
		{
			name:   "monthly produces exactly one occurrence",
			anchor: 15, interval: 31, monthLength: 31,
			want: []int{15},
		},
		{
			name:   "monthly on the last day of the longest month",
			anchor: 31, interval: 31, monthLength: 31,
			want: []int{31},
		},
		{
			name:   "anchor past the end of the month produces nothing",
			anchor: 31, interval: 7, monthLength: 30,
			want: nil,
		},
		{
			name:   "biweekly landing exactly on month end",
			anchor: 14, interval: 14, monthLength: 28,
			want: []int{14, 28},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Occurrences(tt.anchor, tt.interval, tt.monthLength)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

// Every valid expansion is strictly increasing, starts at the anchor, steps
// by exactly the interval, and stays within the month.
func TestOccurrencesProperties(t *testing.T) {
	for _, monthLength := range []int{28, 29, 30, 31} {
		for _, interval := range []int{7, 14, 31} {
			for anchor := 1; anchor <= monthLength; anchor++ {
				days := Occurrences(anchor, interval, monthLength)
				if len(days) == 0 {
					t.Fatalf("anchor %d within month %d must produce at least one day", anchor, monthLength)
				}
				if days[0] != anchor {
					t.Fatalf("first occurrence %d != anchor %d", days[0], anchor)
				}
				for i := 1; i < len(days); i++ {
					if days[i]-days[i-1] != interval {
						t.Fatalf("step %d != interval %d", days[i]-days[i-1], interval)
					}
				}
				if last := days[len(days)-1]; last > monthLength {
					t.Fatalf("occurrence %d exceeds month length %d", last, monthLength)
				}
			}
		}
	}
}

func TestOccurrencesDegenerateInput(t *testing.T) {
	if got := Occurrences(0, 7, 31); got != nil {
		t.Fatalf("anchor 0: got %v, want nil", got)
	}
	if got := Occurrences(1, 0, 31); got != nil {
		t.Fatalf("interval 0: got %v, want nil", got)
	}
}
