package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(code, discount string, stackable bool, priority int) Evaluation {
	c := newCoupon(code, CartWise{}, percent("10"))
	c.Stackable = stackable
	c.Priority = priority
	return Evaluation{
		Breakdown:  Breakdown{TotalDiscount: d(discount)},
		Coupon:     c,
		Applicable: true,
	}
}

func codes(evs []Evaluation) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Coupon.Code
	}
	return out
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Evaluation
		want       []string
	}{
		{
			name: "single non-stackable beats best stack",
			candidates: []Evaluation{
				candidate("S40", "40", true, 1),
				candidate("S50", "50", true, 2),
				candidate("S25", "25", true, 3),
				candidate("BIG", "125", false, 0),
			},
			want: []string{"BIG"},
		},
		{
			name: "stack of three wins",
			candidates: []Evaluation{
				candidate("S40", "40", true, 1),
				candidate("S50", "50", true, 2),
				candidate("S25", "25", true, 3),
				candidate("SMALL", "100", false, 0),
			},
			want: []string{"S25", "S50", "S40"},
		},
		{
			name: "no stackable picks max non-stackable",
			candidates: []Evaluation{
				candidate("A", "10", false, 0),
				candidate("B", "30", false, 0),
				candidate("C", "30", false, 0),
			},
			want: []string{"B"},
		},
		{
			name:       "no candidates",
			candidates: nil,
			want:       []string{},
		},
		{
			name: "combination size is bounded",
			candidates: []Evaluation{
				candidate("S1", "10", true, 5),
				candidate("S2", "10", true, 4),
				candidate("S3", "10", true, 3),
				candidate("S4", "10", true, 2),
				candidate("S5", "10", true, 1),
			},
			want: []string{"S1", "S2", "S3"},
		},
		{
			name: "ties keep the first combination found",
			candidates: []Evaluation{
				candidate("LOW", "20", true, 1),
				candidate("HIGH", "20", true, 9),
				candidate("ONLY", "40", false, 0),
			},
			want: []string{"HIGH", "LOW"},
		},
		{
			name: "zero discounts select nothing",
			candidates: []Evaluation{
				candidate("Z1", "0", true, 0),
				candidate("Z2", "0", false, 0),
			},
			want: []string{},
		},
		{
			name: "zero stackable loses to positive exclusive",
			candidates: []Evaluation{
				candidate("Z1", "0", true, 0),
				candidate("X", "0.01", false, 0),
			},
			want: []string{"X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBest(tt.candidates)
			assert.Equal(t, tt.want, codes(got))
			assert.LessOrEqual(t, len(got), MaxStackSize)
		})
	}
}

func TestSelectBest_NeverWorseThanAnySingleCandidate(t *testing.T) {
	candidates := []Evaluation{
		candidate("A", "12.50", true, 3),
		candidate("B", "7.25", true, 1),
		candidate("C", "99.99", false, 0),
		candidate("D", "45", true, 2),
		candidate("E", "60", false, 0),
		candidate("F", "3", true, 7),
	}

	best := SelectBest(candidates)
	require.NotEmpty(t, best)

	total := d("0")
	for _, ev := range best {
		total = total.Add(ev.TotalDiscount)
	}
	for _, c := range candidates {
		assert.True(t, total.GreaterThanOrEqual(c.TotalDiscount), "%s beats chosen total %s", c.Coupon.Code, total)
	}
}

func TestSelectBest_DoesNotReorderInput(t *testing.T) {
	candidates := []Evaluation{
		candidate("LOW", "1", true, 1),
		candidate("HIGH", "1", true, 2),
	}
	_ = SelectBest(candidates)
	assert.Equal(t, []string{"LOW", "HIGH"}, codes(candidates))
}
