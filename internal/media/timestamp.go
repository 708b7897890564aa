package media

import (
	"fmt"
	"strconv"
	"strings"
)

// parseTimestamp converts "SS", "MM:SS" or "HH:MM:SS" (fractions allowed)
// into seconds.
func parseTimestamp(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}

	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad timestamp %q", ts)
		}
		total = total*60 + v
	}
	return total, nil
}
