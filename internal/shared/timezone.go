package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fallbackTimezone = "UTC"

var localtimePath = "/etc/localtime"

// LocalTimezone resolves the viewer's IANA zone name.
//
// Order: override (from config), $TZ, the /etc/localtime symlink target, then "UTC".
// Names that [time.LoadLocation] can't resolve are skipped.
func LocalTimezone(override string) string {
	for _, name := range []string{override, strings.TrimPrefix(os.Getenv("TZ"), ":"), zoneFromLink(localtimePath)} {
		if name == "" || name == "Local" {
			continue
		}
		if _, err := time.LoadLocation(name); err == nil {
			return name
		}
	}
	return fallbackTimezone
}

// zoneFromLink extracts "Area/City" from a zoneinfo symlink such as /usr/share/zoneinfo/Asia/Shanghai.
func zoneFromLink(path string) string {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return ""
	}

	const marker = "zoneinfo/"
	idx := strings.LastIndex(target, marker)
	if idx < 0 {
		return ""
	}
	return target[idx+len(marker):]
}

// Today returns the calendar date of now in loc formatted as YYYY-MM-DD.
func Today(loc *time.Location) string {
	return time.Now().In(loc).Format(DateLayout)
}

// DateLayout is the wire format for date query parameters.
const DateLayout = "2006-01-02"

// ParseDate validates a YYYY-MM-DD date string. Failures wrap [ErrInvalidInput].
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}
