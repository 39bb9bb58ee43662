// Package timeutil formats times for CLI output.
package timeutil

import (
	"strconv"
	"strings"
	"time"
)

// LocalTimeFormat is the layout for local times in tables.
const LocalTimeFormat = "2006-01-02 15:04"

var uptimeUnits = []struct {
	suffix string
	size   time.Duration
}{
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

// FormatUptime renders a Go duration string ("72h30m15s") as "3d 0h 30m 15s",
// starting at the largest non-zero unit. Unparseable input is returned
// unchanged.
func FormatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}
	d = d.Truncate(time.Second)

	var parts []string
	for i, u := range uptimeUnits {
		n := d / u.size
		d -= n * u.size
		if n == 0 && len(parts) == 0 && i < len(uptimeUnits)-1 {
			continue
		}
		parts = append(parts, strconv.FormatInt(int64(n), 10)+u.suffix)
	}
	return strings.Join(parts, " ")
}

// FormatTime renders t in local time, or "-" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(LocalTimeFormat)
}
