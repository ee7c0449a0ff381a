package format

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Bytes renders a byte count with binary prefixes (e.g. "1.5 KiB", "79 MiB").
// Negative and non-finite values render as "0 B".
func Bytes(b float64) string {
	if b <= 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return "0 B"
	}
	return humanize.IBytes(uint64(b))
}

// Speed renders a bytes-per-second rate in MB/s, or "--" when unknown.
func Speed(bytesPerSec float64) string {
	if bytesPerSec <= 0 || math.IsNaN(bytesPerSec) {
		return "--"
	}
	return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1024*1024))
}

// ETA renders a duration as MM:SS. Minutes keep growing past 59 rather
// than rolling into hours.
func ETA(d time.Duration, ok bool) string {
	if !ok || d < 0 {
		return "--:--"
	}
	secs := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
