package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
)

// SplitEach requests one output document per page.
const SplitEach = "each"

// ParseRanges reads the ranges of a split over a document of pages pages.
// It accepts SplitEach, a JSON array of {"start","end","name"} objects, or a
// compact list such as "1-3,5,7-9". A nil slice means one document per page.
func ParseRanges(s string, pages int) ([]pdfservice.Range, error) {
	s = strings.TrimSpace(s)

	var ranges []pdfservice.Range
	switch {
	case strings.EqualFold(s, SplitEach):
		return nil, nil
	case s == "":
		return nil, fmt.Errorf("%w: define at least one range", ErrInvalidRange)
	case strings.HasPrefix(s, "["):
		if err := json.Unmarshal([]byte(s), &ranges); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
	default:
		for part := range strings.SplitSeq(s, ",") {
			r, err := parseCompact(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, r)
		}
	}

	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: define at least one range", ErrInvalidRange)
	}

	for _, r := range ranges {
		if r.Start < 1 || r.End < r.Start || r.End > pages {
			return nil, fmt.Errorf("%w: %d-%d outside 1-%d", ErrInvalidRange, r.Start, r.End, pages)
		}
	}

	return ranges, nil
}

func parseCompact(part string) (pdfservice.Range, error) {
	lo, hi, found := strings.Cut(part, "-")

	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return pdfservice.Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, part)
	}
	if !found {
		return pdfservice.Range{Start: start, End: start}, nil
	}

	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return pdfservice.Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, part)
	}
	return pdfservice.Range{Start: start, End: end}, nil
}
