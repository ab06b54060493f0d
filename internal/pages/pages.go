package pages

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RangeDescriptor is one accepted page-range token in normalized form.
// Start and End are inclusive and Start <= End always holds.
type RangeDescriptor struct {
	ID    string `json:"id"`
	Raw   string `json:"raw"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ParseResult collects accepted ranges and per-token errors.
// Success is true only when Errors is empty.
type ParseResult struct {
	Success bool              `json:"success"`
	Ranges  []RangeDescriptor `json:"ranges"`
	Errors  []string          `json:"errors,omitempty"`
}

// rangeSeparators are the accepted dash variants between range endpoints.
var rangeSeparators = []string{"—", "–", "-"}

// ParseRangeInput parses a comma-separated page selection such as
// "1,3-5, 8 – 10". A malformed token is reported as an error without
// aborting the remaining tokens.
func ParseRangeInput(input string) ParseResult {
	if strings.TrimSpace(input) == "" {
		return ParseResult{Errors: []string{"empty input: enter page numbers or ranges, e.g. 1,3-5"}}
	}

	var result ParseResult
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		descriptor, err := parseToken(token)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Ranges = append(result.Ranges, descriptor)
	}
	result.Success = len(result.Errors) == 0
	return result
}

// parseToken accepts either a single non-negative integer or "A-B" with an
// optional en-dash or em-dash as the separator.
func parseToken(token string) (RangeDescriptor, error) {
	normalized := token
	for _, sep := range rangeSeparators {
		normalized = strings.ReplaceAll(normalized, sep, "-")
	}

	parts := strings.Split(normalized, "-")
	switch len(parts) {
	case 1:
		page, ok := parsePageNumber(parts[0])
		if !ok {
			return RangeDescriptor{}, malformedTokenError(token)
		}
		return newRange(token, page, page), nil
	case 2:
		start, okStart := parsePageNumber(parts[0])
		end, okEnd := parsePageNumber(parts[1])
		if !okStart || !okEnd {
			return RangeDescriptor{}, malformedTokenError(token)
		}
		if start > end {
			return RangeDescriptor{}, fmt.Errorf("invalid range %q: start %d is greater than end %d", token, start, end)
		}
		return newRange(token, start, end), nil
	default:
		return RangeDescriptor{}, malformedTokenError(token)
	}
}

func malformedTokenError(token string) error {
	return fmt.Errorf("invalid token %q: expected a single page (e.g. 5) or a range (e.g. 2-8)", token)
}

func parsePageNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func newRange(raw string, start, end int) RangeDescriptor {
	return RangeDescriptor{ID: uuid.NewString(), Raw: raw, Start: start, End: end}
}

// ExpandRangesToPages flattens the ranges into a deduplicated ascending
// page list with inclusive bounds on both sides.
func ExpandRangesToPages(ranges []RangeDescriptor) []int {
	seen := make(map[int]struct{})
	for _, r := range ranges {
		for page := r.Start; page <= r.End; page++ {
			seen[page] = struct{}{}
		}
	}
	expanded := make([]int, 0, len(seen))
	for page := range seen {
		expanded = append(expanded, page)
	}
	sort.Ints(expanded)
	return expanded
}
