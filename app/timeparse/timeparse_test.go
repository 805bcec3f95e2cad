package timeparse

import (
	"errors"
	"testing"
	"time"
)

func fixedParser() *Parser {
	base := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	return New(time.UTC).WithClock(func() time.Time { return base })
}

func TestParse_Layouts(t *testing.T) {
	p := fixedParser()
	want := time.Date(2026, 11, 2, 19, 30, 0, 0, time.UTC)
	for _, in := range []string{"2026-11-02 19:30", "2026-11-02T19:30", " 2026-11-02 7:30pm ", "02.11.2026 19:30"} {
		got, err := p.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParse_NaturalLanguage(t *testing.T) {
	got, err := fixedParser().Parse("tomorrow at 7pm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Day() != 15 || got.Month() != time.October || got.Hour() != 19 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"   ", ErrEmpty},
		{"banana pancakes", ErrUnrecognized},
		{"2020-01-01 10:00", ErrInPast},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			_, err := fixedParser().Parse(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tc.in, err, tc.want)
			}
		})
	}
}
