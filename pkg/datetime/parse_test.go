package datetime

import (
	"testing"
	"time"
)

func TestMustParseTime(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		dateStr  string
		expected string
	}{
		{
			name:     "Valid date",
			layout:   DateLayout,
			dateStr:  "2025-01-15",
			expected: "2025-01-15",
		},
		{
			name:     "Leap day",
			layout:   DateLayout,
			dateStr:  "2024-02-29",
			expected: "2024-02-29",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseTime(tt.layout, tt.dateStr)
			if result.Format(tt.layout) != tt.expected {
				t.Errorf("MustParseTime() = %s, expected %s", result.Format(tt.layout), tt.expected)
			}
		})
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateLayout, "invalid-date")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOK  bool
		wantErr bool
	}{
		{"Empty", "", false, false},
		{"Whitespace", "   ", false, false},
		{"Valid", "2024-06-14", true, false},
		{"Month only", "2024-06", false, true},
		{"Garbage", "tomorrow", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Errorf("ParseDate(%q) ok = %v, expected %v", tt.input, ok, tt.wantOK)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{"Same day", "2024-06-14", "2024-06-14", 0},
		{"83 days late", "2024-06-14", "2024-09-05", 83},
		{"105 days late", "2024-06-14", "2024-09-27", 105},
		{"Across leap day", "2024-02-28", "2024-03-01", 2},
		{"Negative", "2024-03-01", "2024-02-28", -2},
		{"Across year", "2023-12-31", "2024-01-01", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DaysBetween(MustDate(tt.start), MustDate(tt.end))
			if result != tt.expected {
				t.Errorf("DaysBetween(%s, %s) = %d, expected %d", tt.start, tt.end, result, tt.expected)
			}
		})
	}
}

func TestDaysBetweenIgnoresClock(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	start := time.Date(2024, 6, 14, 23, 59, 0, 0, loc)
	end := time.Date(2024, 6, 15, 0, 1, 0, 0, loc)
	if got := DaysBetween(start, end); got != 1 {
		t.Errorf("DaysBetween() = %d, expected 1", got)
	}
}

func TestLaterAndAddDays(t *testing.T) {
	a := MustDate("2024-01-01")
	b := AddDays(a, 45)
	if b.Format(DateLayout) != "2024-02-15" {
		t.Errorf("AddDays() = %s, expected 2024-02-15", b.Format(DateLayout))
	}
	if !Later(a, b).Equal(b) || !Later(b, a).Equal(b) {
		t.Errorf("Later() did not return the later date")
	}
	if Format(time.Time{}) != "-" {
		t.Errorf("Format(zero) = %q, expected \"-\"", Format(time.Time{}))
	}
}
