package extractor

import (
	"errors"
	"testing"
)

func TestParseTimePhrase(t *testing.T) {
	cases := []struct {
		phrase   string
		wantDay  int
		wantTime string
	}{
		{"Tuesdays, 6.30pm", 2, "18:30"},
		{"Tuesdays, 6:30pm", 2, "18:30"},
		{"Every Thursday at 8pm", 4, "20:00"},
		{"Friday 7pm", 5, "19:00"},
		{"MONDAY 9PM", 1, "21:00"},
		{"Sundays from 12pm", 7, "12:00"},
		{"Wed 12am (doors 11.30pm)", 3, "00:00"},
		{"Every Sat at 10:15am", 6, "10:15"},
	}

	for _, tc := range cases {
		t.Run(tc.phrase, func(t *testing.T) {
			got, err := ParseTimePhrase(tc.phrase)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.DayOfWeek != tc.wantDay {
				t.Errorf("day = %d, want %d", got.DayOfWeek, tc.wantDay)
			}
			if got.StartTime != tc.wantTime {
				t.Errorf("time = %s, want %s", got.StartTime, tc.wantTime)
			}
		})
	}
}

func TestParseTimePhraseFailsClosed(t *testing.T) {
	bad := []string{
		"sometime soon",
		"",
		"Tuesday",          // day without a time
		"8pm",              // time without a day
		"Friday at 13pm",   // impossible clock value
		"Blursday, 7.30pm", // unknown day
	}
	for _, phrase := range bad {
		t.Run(phrase, func(t *testing.T) {
			_, err := ParseTimePhrase(phrase)
			if err == nil {
				t.Fatalf("expected error for %q", phrase)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestParseFee(t *testing.T) {
	cases := []struct {
		text  string
		cents int
		ok    bool
	}{
		{"£5", 500, true},
		{"$10.50", 1050, true},
		{"Free entry", 0, true},
		{"5,00 €", 500, true},
		{"donations welcome", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		cents, ok := ParseFee(tc.text)
		if ok != tc.ok || cents != tc.cents {
			t.Errorf("ParseFee(%q) = (%d, %v), want (%d, %v)", tc.text, cents, ok, tc.cents, tc.ok)
		}
	}
}
