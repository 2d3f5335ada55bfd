package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// ParseTimezoneLocation accepts an IANA name ("Asia/Tokyo"), "UTC"/"GMT",
// or a fixed offset such as "UTC+9", "GMT-3:30", "+09:00" or "-7".
// Fixed offsets are returned as time.FixedZone and ignore DST.
func ParseTimezoneLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	switch strings.ToUpper(tz) {
	case "", "UTC", "GMT", "Z", "ETC/UTC":
		return time.UTC, nil
	}

	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}

	offset, err := parseOffset(tz)
	if err != nil {
		return nil, fmt.Errorf("unsupported timezone %q: %w", tz, err)
	}
	if offset == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(offsetName(offset), offset), nil
}

func parseOffset(s string) (int, error) {
	upper := strings.ToUpper(s)
	for _, prefix := range []string{"UTC", "GMT"} {
		if strings.HasPrefix(upper, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	if s == "" {
		return 0, nil
	}

	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("offset must start with + or -")
	}

	hours, minutes, found := strings.Cut(s[1:], ":")
	if !found {
		minutes = "0"
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 14 {
		return 0, fmt.Errorf("bad hour %q", hours)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", minutes)
	}

	return sign * (h*3600 + m*60), nil
}

func offsetName(sec int) string {
	sign := '+'
	if sec < 0 {
		sign, sec = '-', -sec
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, sec/3600, sec%3600/60)
}
