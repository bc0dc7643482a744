package score

import (
	"testing"

	"github.com/robalobadob/memorama/internal/cards"
)

func TestCalculateZeroPenaltyIsBase(t *testing.T) {
	if got := Calculate(0, 0, cards.Easy); got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
	if got := Standard.Calculate(0, 0, cards.Medium); got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}
	if got := Legacy.Calculate(0, 0, cards.Hard); got != 3000 {
		t.Fatalf("expected 3000, got %d", got)
	}
}

func TestCalculatePenalties(t *testing.T) {
	tests := []struct {
		table   Table
		moves   int
		elapsed int
		d       cards.Difficulty
		want    int
	}{
		{Standard, 10, 30, cards.Easy, 1000 - 100 - 60},
		{Legacy, 10, 30, cards.Easy, 1000 - 100 - 150},
		{Standard, 200, 0, cards.Easy, 0},
		{Standard, 0, 10000, cards.Hard, 0},
	}
	for _, tc := range tests {
		if got := tc.table.Calculate(tc.moves, tc.elapsed, tc.d); got != tc.want {
			t.Errorf("Calculate(%d, %d, %s) = %d, want %d", tc.moves, tc.elapsed, tc.d, got, tc.want)
		}
	}
}

func TestCalculateIsMonotonicAndNonNegative(t *testing.T) {
	for _, table := range []Table{Standard, Legacy} {
		for _, d := range cards.Difficulties {
			for tm := 0; tm < 200; tm += 7 {
				prev := table.Calculate(0, tm, d)
				for m := 1; m < 150; m++ {
					cur := table.Calculate(m, tm, d)
					if cur > prev {
						t.Fatalf("score rose with moves: m=%d t=%d %d > %d", m, tm, cur, prev)
					}
					if cur < 0 {
						t.Fatalf("negative score %d", cur)
					}
					prev = cur
				}
			}
			for m := 0; m < 100; m += 9 {
				prev := table.Calculate(m, 0, d)
				for tm := 1; tm < 600; tm++ {
					cur := table.Calculate(m, tm, d)
					if cur > prev {
						t.Fatalf("score rose with time: m=%d t=%d %d > %d", m, tm, cur, prev)
					}
					prev = cur
				}
			}
		}
	}
}

func TestByName(t *testing.T) {
	if tb, err := ByName("LEGACY"); err != nil || tb.TimePenalty != 5 {
		t.Fatalf("expected legacy table, got %+v %v", tb, err)
	}
	if _, err := ByName("bogus"); err == nil {
		t.Fatal("expected error")
	}
}
