package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types. The control loop never touches the model directly;
// every update crosses the Bubble Tea mailbox as one of these.
type ReadyMsg struct{}
type RecordingStartMsg struct{}
type RecordingTickMsg struct{ Elapsed float64 }
type AudioLevelMsg struct{ Level float64 }
type ProcessingMsg struct{}
type TranscriptionMsg struct{ Text string }
type NoSpeechMsg struct{}
type SessionErrorMsg struct{ Detail string }
type CancelledMsg struct{}
type NoVoiceWarnMsg struct{}
type VoiceClearedMsg struct{}
type ModeLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type tickMsg time.Time

// tuiSink forwards machine events into the Bubble Tea program. Send is
// safe from any goroutine, so the control loop, the capture callback and
// the ticker can all call it directly.
type tuiSink struct {
	p *tea.Program
}

func (s tuiSink) Ready()                        { s.p.Send(ReadyMsg{}) }
func (s tuiSink) RecordingStart()               { s.p.Send(RecordingStartMsg{}) }
func (s tuiSink) RecordingTick(elapsed float64) { s.p.Send(RecordingTickMsg{Elapsed: elapsed}) }
func (s tuiSink) AudioLevel(level float64)      { s.p.Send(AudioLevelMsg{Level: level}) }
func (s tuiSink) Processing()                   { s.p.Send(ProcessingMsg{}) }
func (s tuiSink) Transcribed(text string)       { s.p.Send(TranscriptionMsg{Text: text}) }
func (s tuiSink) NoSpeech()                     { s.p.Send(NoSpeechMsg{}) }
func (s tuiSink) SessionError(detail string)    { s.p.Send(SessionErrorMsg{Detail: detail}) }
func (s tuiSink) Cancelled()                    { s.p.Send(CancelledMsg{}) }
func (s tuiSink) NoVoiceWarning()               { s.p.Send(NoVoiceWarnMsg{}) }
func (s tuiSink) VoiceCleared()                 { s.p.Send(VoiceClearedMsg{}) }

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateProcessing
)

type tuiOutcome int

const (
	lastNone tuiOutcome = iota
	lastSuccess
	lastEmpty
	lastError
	lastCancelled
)

type tuiModel struct {
	state         tuiState
	frame         int
	elapsed       float64
	audioLevel    float64
	noVoiceWarn   bool
	sessionCount  int
	last          tuiOutcome
	lastText      string
	modeLine      string
	deviceLine    string
	trigger       string
	toggle        bool
	width, height int
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	recStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	procStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	meterOn    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterHot   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	meterOff   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func NewTUIProgram(cfg Config) *tea.Program {
	m := tuiModel{trigger: cfg.Trigger.String(), toggle: cfg.Toggle}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case ReadyMsg:
		m.state = tuiStateIdle
		m.audioLevel = 0
		m.noVoiceWarn = false

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.elapsed = 0
		m.audioLevel = 0
		m.noVoiceWarn = false

	case RecordingTickMsg:
		m.elapsed = msg.Elapsed

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case ProcessingMsg:
		m.state = tuiStateProcessing
		m.audioLevel = 0
		m.noVoiceWarn = false

	case TranscriptionMsg:
		m.sessionCount++
		m.last = lastSuccess
		m.lastText = msg.Text

	case NoSpeechMsg:
		m.sessionCount++
		m.last = lastEmpty
		m.lastText = ""

	case SessionErrorMsg:
		m.sessionCount++
		m.last = lastError
		m.lastText = msg.Detail

	case CancelledMsg:
		m.last = lastCancelled
		m.lastText = ""

	case NoVoiceWarnMsg:
		m.noVoiceWarn = true

	case VoiceClearedMsg:
		m.noVoiceWarn = false

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("sotto "+version) + "\n")
	if m.modeLine != "" {
		b.WriteString(faintStyle.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(faintStyle.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	switch m.state {
	case tuiStateRecording:
		dot := "●"
		if m.frame%16 < 8 {
			dot = "○"
		}
		b.WriteString(recStyle.Render(fmt.Sprintf("%s REC %.1fs", dot, m.elapsed)))
		b.WriteString("  " + renderMeter(m.audioLevel) + "\n")
		if m.noVoiceWarn {
			b.WriteString(warnStyle.Render("  ⚠ no voice detected") + "\n")
		}
	case tuiStateProcessing:
		frame := spinnerFrames[m.frame/2%len(spinnerFrames)]
		b.WriteString(procStyle.Render(frame+" transcribing...") + "\n")
	default:
		b.WriteString(faintStyle.Render("○ ready") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderLast())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

const meterCells = 24

func renderMeter(level float64) string {
	lit := int(level * 8 * meterCells)
	if lit > meterCells {
		lit = meterCells
	}
	var b strings.Builder
	for i := 0; i < meterCells; i++ {
		switch {
		case i >= lit:
			b.WriteString(meterOff.Render("▁"))
		case i >= meterCells*3/4:
			b.WriteString(meterHot.Render("▆"))
		default:
			b.WriteString(meterOn.Render("▆"))
		}
	}
	return b.String()
}

func (m tuiModel) renderLast() string {
	switch m.last {
	case lastNone:
		return faintStyle.Render("No transcriptions yet") + "\n"
	case lastCancelled:
		return faintStyle.Render("Session cancelled") + "\n"
	}

	var b strings.Builder
	b.WriteString(faintStyle.Render(fmt.Sprintf("Last transcription (#%d)", m.sessionCount)) + "\n")
	wrapWidth := m.width - 6
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	switch m.last {
	case lastEmpty:
		b.WriteString(warnStyle.Render("(no speech detected)") + "\n")
	case lastError:
		for _, line := range wrapText("error: "+m.lastText, wrapWidth) {
			b.WriteString(errStyle.Render(line) + "\n")
		}
	default:
		for _, line := range wrapText(m.lastText, wrapWidth) {
			b.WriteString(okStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m tuiModel) renderHelp() string {
	verb := " hold to talk"
	if m.toggle {
		verb = " tap to start/stop"
	}
	line := helpKey.Render(m.trigger) + helpStyle.Render(verb)
	line += helpStyle.Render("   ") + helpKey.Render("esc") + helpStyle.Render(" cancel")
	line += helpStyle.Render("   ") + helpKey.Render("ctrl+c") + helpStyle.Render(" quit")
	return line + "\n"
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
