package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

// FormatTime renders seconds as m:ss. Zero, negative and non-finite values
// render as 0:00.
func FormatTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// SpeakerLabel is the header of a transcript line.
func SpeakerLabel(l Line) string {
	who := "Receiver"
	if l.Role == protocol.RoleCaller {
		who = "Caller"
	}
	return fmt.Sprintf("%s (%s)", who, l.Speaker)
}

// TimeRange renders a line's interval as m:ss - m:ss.
func TimeRange(l Line) string {
	return FormatTime(l.Start) + " - " + FormatTime(l.End)
}

// Progress renders position and duration as m:ss / m:ss.
func Progress(p PlayerState) string {
	return FormatTime(p.Position) + " / " + FormatTime(p.Duration)
}

// ProgressBar draws a fixed-width bar for the playback position.
func ProgressBar(p PlayerState, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if p.Duration > 0 {
		filled = int(math.Round(p.Position / p.Duration * float64(width)))
	}
	filled = min(max(filled, 0), width)
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}
