package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

const (
	msPerHour   = 3600000
	msPerMinute = 60000
	msPerSecond = 1000
)

var timestampRegex = regexp.MustCompile(`^(-?)(\d{2,}):(\d{2}):(\d{2})[,.](\d{3})$`)

// converts an offset in seconds to whole milliseconds, halves rounded away
// from zero
func RoundToMillis(seconds float64) int64 {
	return int64(math.Round(seconds * msPerSecond))
}

// EncodeTimestamp formats an offset in seconds as [-]HH:MM:SS,mmm.
//
// The magnitude is rounded to the millisecond before it is split, so a
// fraction rounding up to 1000ms carries into the seconds field. Hours are
// not bounded and are printed with at least two digits.
func EncodeTimestamp(seconds float64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}

	return sign + formatMillis(RoundToMillis(seconds), ',')
}

func formatMillis(ms int64, sep byte) string {
	hours := ms / msPerHour
	ms %= msPerHour
	minutes := ms / msPerMinute
	ms %= msPerMinute
	secs := ms / msPerSecond
	ms %= msPerSecond

	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, ms)
}

// DecodeTimestamp parses HH:MM:SS,mmm (or HH:MM:SS.mmm) into milliseconds.
func DecodeTimestamp(s string) (int64, error) {
	m := timestampRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, &FormatError{Value: s}
	}

	weights := [4]int64{msPerHour, msPerMinute, msPerSecond, 1}
	var total int64
	for i, w := range weights {
		n, err := strconv.ParseInt(m[i+2], 10, 64)
		if err != nil {
			return 0, &FormatError{Value: s, Err: err}
		}
		total += n * w
	}

	if m[1] == "-" {
		total = -total
	}
	return total, nil
}
