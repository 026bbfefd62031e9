package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var feeRe = regexp.MustCompile(`(\d+)(?:[.,](\d{2}))?`)

var freeWords = []string{"free", "no charge", "no cover", "gratis"}

// ParseFee turns fee text like "£5", "$10.50" or "Free entry" into cents.
// Unrecognised text returns ok=false; the raw text still lands in the
// EventSource metadata so nothing is lost.
func ParseFee(text string) (cents int, ok bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return 0, false
	}
	for _, w := range freeWords {
		if strings.Contains(t, w) {
			return 0, true
		}
	}
	m := feeRe.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	units, _ := strconv.Atoi(m[1])
	cents = units * 100
	if m[2] != "" {
		sub, _ := strconv.Atoi(m[2])
		cents += sub
	}
	return cents, true
}
