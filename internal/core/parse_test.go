package core

import (
	"testing"
	"time"
)

func TestParseMoneyCell(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"-45.00", -45, true},
		{"+$3", 3, true},
		{"$-12.50", -12.5, true},
		{"1234", 1234, true},
		{"1,234", 1234, true},
		{"0.99", 0.99, true},
		{"12.345", 0, false},
		{"1,23.45", 0, false},
		{"", 0, false},
		{"groceries", 0, false},
		{"2020-01-15", 0, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, ok := ParseMoneyCell(c.in)
			if ok != c.ok {
				t.Fatalf("ParseMoneyCell(%q) ok = %v, want %v", c.in, ok, c.ok)
			}
			if ok && got != c.want {
				t.Errorf("ParseMoneyCell(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestParseDateCell(t *testing.T) {
	want := time.Date(2023, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2023-03-05", "2023/03/05", "03/05/2023", "3/5/2023", "Mar 5, 2023", "2023-03-05 14:22:10"} {
		t.Run(in, func(t *testing.T) {
			got, ok := ParseDateCell(in)
			if !ok {
				t.Fatalf("ParseDateCell(%q) failed", in)
			}
			if !got.Equal(want) {
				t.Errorf("ParseDateCell(%q) = %v, want %v", in, got, want)
			}
		})
	}

	t.Run("rejects non-dates", func(t *testing.T) {
		for _, in := range []string{"", "$45.00", "coffee shop", "1234"} {
			if _, ok := ParseDateCell(in); ok {
				t.Errorf("ParseDateCell(%q) unexpectedly succeeded", in)
			}
		}
	})

	t.Run("discards time of day", func(t *testing.T) {
		got, ok := ParseDateCell("2023-03-05T18:30:00Z")
		if !ok {
			t.Fatal("parse failed")
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Errorf("time of day survived: %v", got)
		}
	})
}

func TestMonthHelpers(t *testing.T) {
	jan := Month{Year: 2024, Mon: time.January}

	t.Run("next rolls over years", func(t *testing.T) {
		dec := Month{Year: 2023, Mon: time.December}
		if got := dec.Next(); got != jan {
			t.Errorf("Next() = %v, want %v", got, jan)
		}
	})

	t.Run("date clamps short months", func(t *testing.T) {
		feb := Month{Year: 2023, Mon: time.February}
		if got := feb.Date(31); got.Day() != 28 {
			t.Errorf("Feb 2023 day 31 clamped to %d, want 28", got.Day())
		}
		leap := Month{Year: 2024, Mon: time.February}
		if got := leap.Date(31); got.Day() != 29 {
			t.Errorf("Feb 2024 day 31 clamped to %d, want 29", got.Day())
		}
	})

	t.Run("range is contiguous and inclusive", func(t *testing.T) {
		months := MonthRange(Month{Year: 2023, Mon: time.November}, Month{Year: 2024, Mon: time.February})
		if len(months) != 4 {
			t.Fatalf("got %d months, want 4", len(months))
		}
		if months[0].String() != "2023-11" || months[3].String() != "2024-02" {
			t.Errorf("unexpected endpoints: %v .. %v", months[0], months[3])
		}
	})

	t.Run("key round trip", func(t *testing.T) {
		parsed, err := ParseMonth(jan.String())
		if err != nil {
			t.Fatalf("ParseMonth: %v", err)
		}
		if parsed != jan {
			t.Errorf("round trip changed month: %v", parsed)
		}
	})
}
