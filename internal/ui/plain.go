package ui

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

var (
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	callerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	recvStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	scamStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	safeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	modalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("124")).Bold(true).Padding(0, 1)
	surfaceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

func levelStyle(l Level) lipgloss.Style {
	switch l {
	case LevelSafe:
		return safeStyle
	case LevelWarning:
		return warnStyle
	case LevelDanger:
		return scamStyle
	default:
		return dimStyle
	}
}

func badgeStyle(phase string) lipgloss.Style {
	switch phase {
	case "ready", "connected":
		return safeStyle
	case "error", "disconnected":
		return scamStyle
	default:
		return warnStyle
	}
}

func checkStyle(label protocol.Status) lipgloss.Style {
	switch label {
	case protocol.StatusScam:
		return scamStyle
	case protocol.StatusWait:
		return warnStyle
	default:
		return safeStyle
	}
}

// Plain writes one styled line per update. It is used when no terminal UI is
// wanted, e.g. when stdout is piped.
type Plain struct {
	mu      sync.Mutex
	w       io.Writer
	playing bool
}

// NewPlain creates a plain view writing to w.
func NewPlain(w io.Writer) *Plain {
	return &Plain{w: w}
}

func (p *Plain) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *Plain) Reset(sessionID string) {
	p.println(dimStyle.Render("── session " + sessionID + " ──"))
}

func (p *Plain) Connection(phase, label string) {
	p.println(badgeStyle(phase).Render("● " + label))
}

func (p *Plain) Transcript(l Line) {
	who := recvStyle
	if l.Role == protocol.RoleCaller {
		who = callerStyle
	}
	text := textStyle
	if l.Scam() {
		text = scamStyle
	}
	out := fmt.Sprintf("%s %s %s", dimStyle.Render("["+TimeRange(l)+"]"), who.Render(SpeakerLabel(l)), text.Render(l.Text))
	if l.ShowsReason() {
		out += "\n    " + scamStyle.Render("⚠ "+l.Reason)
	}
	p.println(out)
}

func (p *Plain) Toast(title, message string, _ time.Duration) {
	p.println(scamStyle.Render("🛡 "+title) + " " + message)
}

func (p *Plain) WarningModal(reason string) {
	p.println(modalStyle.Render("WARNING: " + WarningText(reason)))
}

func (p *Plain) Status(level Level, text string) {
	p.println(levelStyle(level).Render("◆ " + text))
}

func (p *Plain) Alert(percent int, reason string) {
	p.println(scamStyle.Render(fmt.Sprintf("ALERT %d%%", percent)) + " " + reason)
}

func (p *Plain) CallerIdentified(speaker string) {
	p.println(callerStyle.Render("Caller identified: " + speaker + " (CALLER)"))
}

func (p *Plain) Counters(segments, scams int) {
	p.println(dimStyle.Render(fmt.Sprintf("segments=%d scams=%d", segments, scams)))
}

func (p *Plain) Log(surface protocol.Surface, step, message string) {
	p.println(surfaceStyle.Render(fmt.Sprintf("[%s] %s: %s", surface, step, message)))
}

// Player only reports play/pause changes; per-tick progress would flood the
// output.
func (p *Plain) Player(state PlayerState) {
	p.mu.Lock()
	changed := state.Playing != p.playing
	p.playing = state.Playing
	p.mu.Unlock()

	switch {
	case state.Waiting:
		p.println(noticeStyle.Render("⏳ waiting for AI"))
	case changed && state.Playing:
		p.println(noticeStyle.Render("▶ " + Progress(state)))
	case changed:
		p.println(noticeStyle.Render("⏸ " + Progress(state)))
	}
}

func (p *Plain) CheckBusy(busy bool) {
	if busy {
		p.println(noticeStyle.Render("checking..."))
	}
}

func (p *Plain) CheckResult(res CheckResult) {
	switch {
	case res.Notice != "":
		p.println(warnStyle.Render(res.Notice))
	case res.Err != "":
		p.println(scamStyle.Render("check failed: " + res.Err))
	default:
		out := checkStyle(res.Label).Render(string(res.Label))
		if res.HasPercent {
			out += fmt.Sprintf(" %d%%", res.Percent)
		}
		if res.Reason != "" {
			out += " " + res.Reason
		}
		p.println(out)
	}
}

// ReadCommands turns line commands from r into actions until r is exhausted:
//
//	p            play/pause
//	+N / -N      seek by N seconds (default 5)
//	@N, seek N   seek to N seconds
//	check TEXT   text check
//	r            reset
//	q            quit
func ReadCommands(r io.Reader, onAction ActionFunc) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if a, ok := ParseCommand(sc.Text()); ok {
			onAction(a)
		}
	}
	return sc.Err()
}

// ParseCommand parses one ReadCommands line.
func ParseCommand(line string) (Action, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Action{}, false
	case line == "p" || line == "play" || line == "pause":
		return Action{Kind: ActionTogglePlay}, true
	case line == "r" || line == "reset":
		return Action{Kind: ActionReset}, true
	case line == "q" || line == "quit":
		return Action{Kind: ActionQuit}, true
	case line[0] == '+' || line[0] == '-':
		delta := 5.0
		if len(line) > 1 {
			n, ok := parseSeconds(line[1:])
			if !ok {
				return Action{}, false
			}
			delta = n
		}
		if line[0] == '-' {
			delta = -delta
		}
		return Action{Kind: ActionSeek, Delta: delta}, true
	case line[0] == '@' || strings.HasPrefix(line, "seek "):
		at, ok := parseSeconds(strings.TrimPrefix(strings.TrimPrefix(line, "@"), "seek "))
		if !ok {
			return Action{}, false
		}
		return Action{Kind: ActionSeekTo, At: at}, true
	case line == "check" || strings.HasPrefix(line, "check "):
		return Action{Kind: ActionCheck, Text: strings.TrimPrefix(line, "check")}, true
	default:
		return Action{}, false
	}
}

// parseSeconds accepts a finite, non-negative number of seconds.
func parseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
