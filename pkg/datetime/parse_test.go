package datetime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Date
		wantErr  bool
	}{
		{
			name:     "Valid date",
			input:    "2026-01-05",
			expected: Date{Year: 2026, Month: time.January, Day: 5},
		},
		{
			name:     "Leap day",
			input:    "2024-02-29",
			expected: Date{Year: 2024, Month: time.February, Day: 29},
		},
		{
			name:    "Not a leap year",
			input:   "2026-02-29",
			wantErr: true,
		},
		{
			name:    "Month only",
			input:   "2026-01",
			wantErr: true,
		},
		{
			name:    "Garbage",
			input:   "invalid-date",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && result != tt.expected {
				t.Errorf("Parse(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMustParsePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParse to panic with invalid date")
		}
	}()

	MustParse("invalid-date")
}

func TestNewNormalizesOverflow(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		month    time.Month
		day      int
		expected string
	}{
		{"February 31 in common year", 2026, time.February, 31, "2026-03-03"},
		{"February 31 in leap year", 2024, time.February, 31, "2024-03-02"},
		{"April 31", 2026, time.April, 31, "2026-05-01"},
		{"Month 13", 2026, 13, 10, "2027-01-10"},
		{"Day zero", 2026, time.March, 0, "2026-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.year, tt.month, tt.day).String()
			if result != tt.expected {
				t.Errorf("New(%d, %d, %d) = %s, expected %s", tt.year, tt.month, tt.day, result, tt.expected)
			}
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
	}{
		{"Next month", "2026-01-15", 1, "2026-02-15"},
		{"Cross year boundary forward", "2025-06-10", 8, "2026-02-10"},
		{"Subtract multiple years", "2025-01-10", -24, "2023-01-10"},
		{"Overflow rolls forward", "2026-01-31", 1, "2026-03-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParse(tt.date).AddMonths(tt.months).String()
			if result != tt.expected {
				t.Errorf("AddMonths() = %s, expected %s", result, tt.expected)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		expected int
	}{
		{"Same day", "2026-01-05", "2026-01-05", 0},
		{"Forward within month", "2026-01-15", "2026-02-10", 26},
		{"Backward", "2026-02-10", "2026-01-15", -26},
		{"Across leap day", "2024-02-28", "2024-03-01", 2},
		{"Full common year", "2026-01-01", "2027-01-01", 365},
		{"Across European DST change", "2026-03-28", "2026-03-30", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DaysBetween(MustParse(tt.from), MustParse(tt.to))
			if result != tt.expected {
				t.Errorf("DaysBetween(%s, %s) = %d, expected %d", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestBeforeAfter(t *testing.T) {
	a := MustParse("2026-01-05")
	b := MustParse("2026-01-06")

	if !a.Before(b) || a.After(b) {
		t.Errorf("expected %s before %s", a, b)
	}
	if !b.After(a) || b.Before(a) {
		t.Errorf("expected %s after %s", b, a)
	}
	if a.Before(a) || a.After(a) {
		t.Errorf("a date is neither before nor after itself")
	}
}

func TestWeekday(t *testing.T) {
	if got := MustParse("2026-02-10").Weekday(); got != time.Tuesday {
		t.Errorf("Weekday() = %v, expected Tuesday", got)
	}
	if got := MustParse("2026-01-10").Weekday(); got != time.Saturday {
		t.Errorf("Weekday() = %v, expected Saturday", got)
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Due Date `json:"due"`
	}

	data, err := json.Marshal(wrapper{Due: MustParse("2026-03-10")})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"due":"2026-03-10"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var decoded wrapper
	if err := json.Unmarshal([]byte(`{"due":"2026-04-10"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Due.String() != "2026-04-10" {
		t.Errorf("Unmarshal() = %s, expected 2026-04-10", decoded.Due)
	}

	if err := json.Unmarshal([]byte(`{"due":"2026-13-01"}`), &decoded); err == nil {
		t.Errorf("expected error for invalid month")
	}
}
