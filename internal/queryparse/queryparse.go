// Package queryparse extracts structured query parameters (tax identifiers,
// year ranges) from free-form Russian user text.
package queryparse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	innRe        = regexp.MustCompile(`\b\d{10}\b|\b\d{12}\b`)
	yearRangeRe  = regexp.MustCompile(`(\d{4})\s*[-–—]\s*(\d{4})`)
	lastYearsRe  = regexp.MustCompile(`(?i)(?:за|последни[ех])\s*(\d+)\s*(?:лет|год|г\.?)`)
	singleYearRe = regexp.MustCompile(`\b(20[12][0-9])\b`)
)

// lastKnownYear caps "last N years" requests at the most recent year the
// dataset reliably covers.
const lastKnownYear = 2023

// ExtractINN finds a 10- or 12-digit tax identifier in the text, or "".
func ExtractINN(text string) string {
	return innRe.FindString(text)
}

// ParseYears extracts a year selection from the text. It understands
// explicit ranges ("2021-2023"), relative windows ("за 5 лет"), and single
// years; fallback is returned when the text names none.
func ParseYears(text string, fallback []int) []int {
	if m := yearRangeRe.FindStringSubmatch(text); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start > end {
			start, end = end, start
		}
		return yearSpan(start, end)
	}

	if m := lastYearsRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 0 {
			return yearSpan(lastKnownYear-n+1, lastKnownYear)
		}
	}

	// A single year only counts when it is not part of the inn digits.
	withoutINN := innRe.ReplaceAllString(text, "")
	if m := singleYearRe.FindStringSubmatch(withoutINN); m != nil {
		y, _ := strconv.Atoi(m[1])
		return []int{y}
	}

	return append([]int(nil), fallback...)
}

// HasAnyFold reports whether the lowercased text contains any keyword.
func HasAnyFold(text string, keywords ...string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func yearSpan(start, end int) []int {
	out := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		out = append(out, y)
	}
	return out
}
