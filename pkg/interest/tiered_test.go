package interest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressive() Table {
	return Table{
		{Start: Bound(1), End: Bound(30), Rate: 8},
		{Start: Bound(31), End: Bound(90), Rate: 10},
		{Start: Bound(91), Rate: 12},
	}
}

func TestCalculateFlatFixtures(t *testing.T) {
	tests := []struct {
		name      string
		principal int64
		days      int
		rate      float64
		expected  int64
	}{
		{"3 percent for 30 days", 10_000_000, 30, 3.0, 24_657},
		{"10 percent for 29 days", 5_000_000, 29, 10.0, 39_726},
		{"Zero days", 5_000_000, 0, 10.0, 0},
		{"Zero principal", 0, 30, 10.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(tt.principal, tt.days, Flat(tt.rate))
			require.True(t, result.Matched())
			assert.Equal(t, tt.expected, result.Amount)
		})
	}
}

func TestCalculateProgressive(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		expected int64
		segments int
	}{
		// 10,000,000 × 20 × 8% / 365
		{"Inside first bracket", 20, 43_835, 1},
		// 30 days at 8% + 15 days at 10% = 65,753.42 + 41,095.89
		{"Spans two brackets", 45, 106_849, 2},
		// 30@8 + 60@10 + 10@12 = 65,753.42 + 164,383.56 + 32,876.71
		{"Reaches open tail", 100, 263_013, 3},
		{"Exactly at first end", 30, 65_753, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(10_000_000, tt.days, progressive())
			require.True(t, result.Matched())
			assert.Equal(t, tt.expected, result.Amount)
			assert.Len(t, result.Segments, tt.segments)

			covered := 0
			for _, seg := range result.Segments {
				covered += seg.Days
			}
			assert.Equal(t, tt.days, covered)
		})
	}
}

func TestCalculateStartlessBracket(t *testing.T) {
	table := Table{
		{End: Bound(0), Rate: 3},
		{Start: Bound(1), Rate: 10},
	}

	early := Calculate(10_000_000, -30, table)
	require.True(t, early.Matched())
	assert.Equal(t, int64(-24_657), early.Amount)

	late := Calculate(5_000_000, 29, table)
	require.True(t, late.Matched())
	assert.Equal(t, int64(39_726), late.Amount)
}

func TestCalculateMixedUnboundedUsesRanges(t *testing.T) {
	table := Table{
		{Start: Bound(1), End: Bound(30), Rate: 10},
		{Rate: 5},
	}
	result := Calculate(5_000_000, 20, table)
	require.True(t, result.Matched())
	// 5,000,000 × 20 × 10% / 365
	assert.Equal(t, int64(27_397), result.Amount)
	assert.Equal(t, []Segment{{Days: 20, Rate: 10}}, result.Segments)
}

func TestCalculateEarly(t *testing.T) {
	combined := Table{
		{End: Bound(0), Rate: 3},
		{Start: Bound(1), Rate: 10},
	}

	tests := []struct {
		name     string
		table    Table
		days     int
		expected int64
		rate     float64
	}{
		{"Startless bracket prices prepayment", combined, 182, 149_589, 3},
		{"Flat table", Flat(3), 182, 149_589, 3},
		{"Ranged table without startless bracket", Table{{Start: Bound(1), Rate: 10}}, 182, 498_630, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateEarly(10_000_000, tt.days, tt.table)
			require.True(t, result.Matched())
			assert.Equal(t, tt.expected, result.Amount)
			assert.Equal(t, []Segment{{Days: tt.days, Rate: tt.rate}}, result.Segments)
		})
	}

	none := CalculateEarly(10_000_000, 0, combined)
	assert.True(t, none.Matched())
	assert.Zero(t, none.Amount)
}

func TestCalculateNoBracket(t *testing.T) {
	tests := []struct {
		name   string
		table  Table
		days   int
		reason Reason
	}{
		{"Empty table", nil, 10, ReasonEmptyTable},
		{"Negative days without startless bracket", progressive(), -5, ReasonNoBracket},
		{"Days before first bracket", Table{{Start: Bound(10), Rate: 5}}, 5, ReasonNoBracket},
		{"Unbounded bracket beside ranged ones", Table{{Start: Bound(10), End: Bound(30), Rate: 10}, {Rate: 5}}, 5, ReasonNoBracket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Calculate(1_000_000, tt.days, tt.table)
			assert.False(t, result.Matched())
			assert.Equal(t, tt.reason, result.Reason)
			assert.Zero(t, result.Amount)
		})
	}
}

func TestCalculateGapAccruesNothing(t *testing.T) {
	table := Table{
		{Start: Bound(1), End: Bound(30), Rate: 10},
		{Start: Bound(61), Rate: 10},
	}
	inGap := Calculate(3_650_000, 45, table)
	assert.Equal(t, int64(30_000), inGap.Amount)

	pastGap := Calculate(3_650_000, 65, table)
	assert.Equal(t, int64(35_000), pastGap.Amount)
}

func TestCalculateMonotonic(t *testing.T) {
	tables := map[string]Table{
		"flat":        Flat(10),
		"progressive": progressive(),
	}
	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			prev := int64(0)
			for days := 0; days <= 400; days++ {
				result := Calculate(65_188_000, days, table)
				require.GreaterOrEqual(t, result.Amount, prev, "day %d", days)
				prev = result.Amount
			}
		})
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		wantErr bool
	}{
		{"Flat", Flat(10), false},
		{"Progressive", progressive(), false},
		{"Startless plus tail", Table{{End: Bound(0), Rate: 3}, {Start: Bound(1), Rate: 10}}, false},
		{"Two startless", Table{{End: Bound(0), Rate: 3}, {End: Bound(5), Rate: 3}}, true},
		{"Two open tails", Table{{Start: Bound(1), Rate: 3}, {Start: Bound(10), Rate: 3}}, true},
		{"Overlap", Table{{Start: Bound(1), End: Bound(30), Rate: 3}, {Start: Bound(30), End: Bound(60), Rate: 3}}, true},
		{"Inverted", Table{{Start: Bound(30), End: Bound(1), Rate: 3}}, true},
		{"Negative rate", Flat(-1), true},
		{"Unbounded beside ranged", Table{{Start: Bound(1), End: Bound(30), Rate: 10}, {Rate: 5}}, true},
		{"Unbounded beside startless", Table{{End: Bound(0), Rate: 3}, {Rate: 5}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableString(t *testing.T) {
	assert.Equal(t, "[(_,_]@10.00%]", Flat(10).String())
	assert.Equal(t, "[(1,30]@8.00% (31,_]@10.00%]",
		Table{{Start: Bound(1), End: Bound(30), Rate: 8}, {Start: Bound(31), Rate: 10}}.String())
}
