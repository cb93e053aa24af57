package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

// TUI message types
type sessionMsg struct{ ID string }
type connectionMsg struct{ Phase, Label string }
type lineMsg struct{ Line Line }
type toastMsg struct {
	Title, Message string
	TTL            time.Duration
}
type toastExpiredMsg struct{ ID int }
type modalMsg struct{ Reason string }
type statusMsg struct {
	Level Level
	Text  string
}
type alertMsg struct {
	Percent int
	Reason  string
}
type callerMsg struct{ Speaker string }
type countersMsg struct{ Segments, Scams int }
type logMsg struct {
	Surface       protocol.Surface
	Step, Message string
}
type playerMsg struct{ State PlayerState }
type checkBusyMsg struct{ Busy bool }
type checkResultMsg struct{ Result CheckResult }

const (
	maxTranscriptLines = 200
	maxLogLines        = 4
)

var logSurfaces = []protocol.Surface{protocol.SurfaceASR, protocol.SurfaceCaller, protocol.SurfaceScam, protocol.SurfaceSLM}

type toast struct {
	id             int
	title, message string
}

type tuiModel struct {
	onAction      ActionFunc
	width, height int

	sessionID   string
	connPhase   string
	connLabel   string
	level       Level
	statusText  string
	alertShown  bool
	alertPct    int
	alertReason string
	caller      string
	segments    int
	scams       int
	lines       []Line
	logs        map[protocol.Surface][]string
	toasts      []toast
	nextToast   int
	modalShown  bool
	modal       string
	player      PlayerState

	inputting bool
	input     []rune
	checkBusy bool
	check     *CheckResult
}

func newTUIModel(onAction ActionFunc) tuiModel {
	if onAction == nil {
		onAction = func(Action) {}
	}
	return tuiModel{
		onAction:   onAction,
		connLabel:  "Idle",
		statusText: "Press space to play",
		logs:       make(map[protocol.Surface][]string),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionMsg:
		fresh := newTUIModel(m.onAction)
		fresh.width, fresh.height = m.width, m.height
		fresh.sessionID = msg.ID
		fresh.nextToast = m.nextToast
		return fresh, nil

	case connectionMsg:
		m.connPhase, m.connLabel = msg.Phase, msg.Label

	case lineMsg:
		m.lines = append(m.lines, msg.Line)
		if len(m.lines) > maxTranscriptLines {
			m.lines = m.lines[len(m.lines)-maxTranscriptLines:]
		}

	case toastMsg:
		id := m.nextToast
		m.nextToast++
		m.toasts = append(m.toasts, toast{id: id, title: msg.Title, message: msg.Message})
		return m, tea.Tick(msg.TTL, func(time.Time) tea.Msg { return toastExpiredMsg{ID: id} })

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.id == msg.ID {
				m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
				break
			}
		}

	case modalMsg:
		m.modalShown, m.modal = true, WarningText(msg.Reason)

	case statusMsg:
		m.level, m.statusText = msg.Level, msg.Text

	case alertMsg:
		m.alertShown, m.alertPct, m.alertReason = true, msg.Percent, msg.Reason

	case callerMsg:
		m.caller = msg.Speaker

	case countersMsg:
		m.segments, m.scams = msg.Segments, msg.Scams

	case logMsg:
		entries := append(m.logs[msg.Surface], msg.Step+": "+msg.Message)
		if len(entries) > maxLogLines {
			entries = entries[len(entries)-maxLogLines:]
		}
		m.logs[msg.Surface] = entries

	case playerMsg:
		m.player = msg.State

	case checkBusyMsg:
		m.checkBusy = msg.Busy

	case checkResultMsg:
		res := msg.Result
		m.check = &res
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.onAction(Action{Kind: ActionQuit})
		return m, tea.Quit
	}

	if m.inputting {
		switch msg.Type {
		case tea.KeyEnter:
			m.inputting = false
			m.onAction(Action{Kind: ActionCheck, Text: string(m.input)})
			m.input = nil
		case tea.KeyEsc:
			m.inputting = false
			m.input = nil
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeySpace:
			m.input = append(m.input, ' ')
		case tea.KeyRunes:
			m.input = append(m.input, msg.Runes...)
		}
		return m, nil
	}

	if m.modalShown {
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			m.modalShown, m.modal = false, ""
		}
		return m, nil
	}

	switch msg.String() {
	case " ", "space":
		if m.player.Enabled {
			m.onAction(Action{Kind: ActionTogglePlay})
		}
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if m.player.Duration > 0 {
			step := float64(msg.Runes[0] - '0')
			m.onAction(Action{Kind: ActionSeekTo, At: m.player.Duration * step / 10})
		}
	case "left":
		m.onAction(Action{Kind: ActionSeek, Delta: -5})
	case "right":
		m.onAction(Action{Kind: ActionSeek, Delta: 5})
	case "/":
		if !m.checkBusy {
			m.inputting = true
		}
	case "r":
		m.onAction(Action{Kind: ActionReset})
	case "q":
		m.onAction(Action{Kind: ActionQuit})
		return m, tea.Quit
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	toastStyle = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("196")).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.modalShown {
		box := modalStyle.Width(min(60, m.width-4)).Render("⚠ WARNING\n\n" + m.modal + "\n\n[enter] dismiss")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	leftWidth := max(m.width*3/5, 30)
	rightWidth := max(m.width-leftWidth-1, 20)

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(leftWidth),
		m.renderTranscript(leftWidth),
		m.renderPlayer(leftWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStats(rightWidth),
		m.renderLogs(rightWidth),
		m.renderCheck(rightWidth),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	if len(m.toasts) > 0 {
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderToasts(), body)
	}
	help := helpStyle.Render("space play/pause · ←/→ seek 5s · 0-9 jump · / check text · r reset · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, body, help)
}

func (m tuiModel) renderHeader(width int) string {
	badge := badgeStyle(m.connPhase).Render("● " + m.connLabel)
	status := levelStyle(m.level).Render("◆ " + m.statusText)
	title := titleStyle.Render("Scam Guard")
	if m.sessionID != "" {
		title += " " + dimStyle.Render(m.sessionID)
	}
	return lipgloss.NewStyle().Width(width).Render(title + "\n" + badge + "   " + status)
}

func (m tuiModel) renderTranscript(width int) string {
	height := max(m.height-10, 5)

	var rows []string
	for _, l := range m.lines {
		who := recvStyle
		if l.Role == protocol.RoleCaller {
			who = callerStyle
		}
		text := textStyle
		if l.Scam() {
			text = scamStyle
		}
		rows = append(rows, who.Render(SpeakerLabel(l))+" "+dimStyle.Render(TimeRange(l)))
		rows = append(rows, text.Width(width-4).Render(l.Text))
		if l.ShowsReason() {
			rows = append(rows, scamStyle.Render("  ⚠ "+l.Reason))
		}
	}
	if len(rows) == 0 {
		rows = []string{dimStyle.Render("Transcript will appear here as the call plays")}
	}

	content := strings.Join(rows, "\n")
	lines := strings.Split(content, "\n")
	if len(lines) > height-2 {
		lines = lines[len(lines)-(height-2):]
	}
	return panelStyle.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m tuiModel) renderPlayer(width int) string {
	icon := "▶"
	switch {
	case m.player.Waiting:
		icon = "⏳"
	case m.player.Playing:
		icon = "⏸"
	}
	if !m.player.Enabled {
		icon = dimStyle.Render(icon)
	}
	barWidth := max(width-len(Progress(m.player))-6, 5)
	return fmt.Sprintf("%s %s %s", icon, ProgressBar(m.player, barWidth), Progress(m.player))
}

func (m tuiModel) renderStats(width int) string {
	caller := "Unknown"
	if m.caller != "" {
		caller = m.caller + " (CALLER)"
	}
	rows := []string{
		titleStyle.Render("Caller: ") + caller,
		fmt.Sprintf("Segments: %d   Scams: %d", m.segments, m.scams),
	}
	if m.alertShown {
		rows = append(rows, scamStyle.Render(fmt.Sprintf("ALERT %d%%", m.alertPct))+" "+m.alertReason)
	}
	return panelStyle.Width(width - 2).Render(strings.Join(rows, "\n"))
}

func (m tuiModel) renderLogs(width int) string {
	var rows []string
	for _, s := range logSurfaces {
		rows = append(rows, titleStyle.Render(strings.ToUpper(s.String())))
		entries := m.logs[s]
		if len(entries) == 0 {
			rows = append(rows, dimStyle.Render("  -"))
		}
		for _, e := range entries {
			rows = append(rows, surfaceStyle.Width(width-4).Render("  "+e))
		}
	}
	return panelStyle.Width(width - 2).Render(strings.Join(rows, "\n"))
}

func (m tuiModel) renderCheck(width int) string {
	var body string
	switch {
	case m.inputting:
		body = "> " + string(m.input) + "█"
	case m.checkBusy:
		body = noticeStyle.Render("Checking...")
	case m.check == nil:
		body = dimStyle.Render("Press / to check a message")
	case m.check.Notice != "":
		body = warnStyle.Render(m.check.Notice)
	case m.check.Err != "":
		body = scamStyle.Render("Error: " + m.check.Err)
	default:
		body = checkStyle(m.check.Label).Render(string(m.check.Label))
		if m.check.HasPercent {
			bar := ProgressBar(PlayerState{Position: float64(m.check.Percent), Duration: 100}, 20)
			body += fmt.Sprintf("\n%s %d%%", checkStyle(m.check.Label).Render(bar), m.check.Percent)
		}
		if m.check.Reason != "" {
			body += "\n" + m.check.Reason
		}
	}
	return panelStyle.Width(width - 2).Render(titleStyle.Render("Text check") + "\n" + body)
}

func (m tuiModel) renderToasts() string {
	var boxes []string
	for _, t := range m.toasts {
		boxes = append(boxes, toastStyle.Render(scamStyle.Render(t.title)+"\n"+t.message))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// TUI is the interactive terminal view. View calls are forwarded to the
// bubbletea program as messages; key presses come back through onAction.
type TUI struct {
	program *tea.Program
}

// NewTUI creates the terminal view. Call Run on the main goroutine.
func NewTUI(onAction ActionFunc, opts ...tea.ProgramOption) *TUI {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &TUI{program: tea.NewProgram(newTUIModel(onAction), opts...)}
}

// Run blocks until the program exits.
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Quit stops the program.
func (t *TUI) Quit() {
	t.program.Quit()
}

func (t *TUI) Reset(sessionID string) { t.program.Send(sessionMsg{ID: sessionID}) }
func (t *TUI) Connection(phase, label string) { t.program.Send(connectionMsg{Phase: phase, Label: label}) }
func (t *TUI) Transcript(line Line) { t.program.Send(lineMsg{Line: line}) }
func (t *TUI) WarningModal(reason string) { t.program.Send(modalMsg{Reason: reason}) }
func (t *TUI) Status(level Level, text string) {
	t.program.Send(statusMsg{Level: level, Text: text})
}
func (t *TUI) Alert(percent int, reason string) {
	t.program.Send(alertMsg{Percent: percent, Reason: reason})
}
func (t *TUI) CallerIdentified(speaker string) { t.program.Send(callerMsg{Speaker: speaker}) }
func (t *TUI) Counters(segments, scams int) {
	t.program.Send(countersMsg{Segments: segments, Scams: scams})
}
func (t *TUI) Log(surface protocol.Surface, step, message string) {
	t.program.Send(logMsg{Surface: surface, Step: step, Message: message})
}
func (t *TUI) Player(state PlayerState) { t.program.Send(playerMsg{State: state}) }
func (t *TUI) CheckBusy(busy bool) { t.program.Send(checkBusyMsg{Busy: busy}) }
func (t *TUI) CheckResult(res CheckResult) { t.program.Send(checkResultMsg{Result: res}) }

func (t *TUI) Toast(title, message string, ttl time.Duration) {
	t.program.Send(toastMsg{Title: title, Message: message, TTL: ttl})
}
