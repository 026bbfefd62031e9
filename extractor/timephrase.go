package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"micmap/models"
)

var dayTokens = map[string]int{
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2, "tues": 2,
	"wednesday": 3, "wed": 3, "weds": 3,
	"thursday": 4, "thu": 4, "thur": 4, "thurs": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
	"sunday": 7, "sun": 7,
}

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	fillerRe        = regexp.MustCompile(`\b(every|each|at|from|on|the)\b`)
	dayRe           = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues|tue|weds|wed|thurs|thur|thu|fri|sat|sun)s?\b`)
	clockRe         = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\s*(am|pm)\b`)
	hourRe          = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
)

// ParseTimePhrase turns free text like "Tuesdays, 6.30pm" or
// "Every Thursday at 8pm" into a day of week and a 24-hour start time.
// Parsing fails closed: an unmatched day or time is an explicit error naming
// the offending fragment, never a guessed default.
func ParseTimePhrase(phrase string) (models.Schedule, error) {
	text := strings.ToLower(strings.TrimSpace(phrase))
	text = parentheticalRe.ReplaceAllString(text, " ")
	text = fillerRe.ReplaceAllString(text, " ")

	m := dayRe.FindString(text)
	if m == "" {
		return models.Schedule{}, &ValidationError{
			Field: "schedule", Value: phrase, Reason: "no day-of-week token",
		}
	}
	day := dayTokens[strings.TrimSuffix(m, "s")]
	if day == 0 {
		day = dayTokens[m]
	}
	if day == 0 {
		return models.Schedule{}, &ValidationError{
			Field: "schedule", Value: phrase, Reason: fmt.Sprintf("unknown day token %q", m),
		}
	}

	var hour, minute int
	var meridiem string
	if cm := clockRe.FindStringSubmatch(text); cm != nil {
		hour, _ = strconv.Atoi(cm[1])
		minute, _ = strconv.Atoi(cm[2])
		meridiem = cm[3]
	} else if hm := hourRe.FindStringSubmatch(text); hm != nil {
		hour, _ = strconv.Atoi(hm[1])
		meridiem = hm[2]
	} else {
		return models.Schedule{}, &ValidationError{
			Field: "schedule", Value: phrase, Reason: "no time-of-day token",
		}
	}

	if hour < 1 || hour > 12 || minute > 59 {
		return models.Schedule{}, &ValidationError{
			Field: "schedule", Value: phrase,
			Reason: fmt.Sprintf("clock value %d:%02d%s out of range", hour, minute, meridiem),
		}
	}
	if meridiem == "pm" && hour != 12 {
		hour += 12
	}
	if meridiem == "am" && hour == 12 {
		hour = 0
	}

	return models.Schedule{
		DayOfWeek: day,
		StartTime: fmt.Sprintf("%02d:%02d", hour, minute),
	}, nil
}
