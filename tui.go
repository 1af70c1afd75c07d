package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{} // capture closed, decode running
type RecordingTickMsg struct{ Seconds float64 }
type AudioLevelMsg struct{ Level float64 }
type PartialMsg struct{ Text string }
type TranscriptMsg struct {
	Text      string
	Delivered string // "pasted", "copied" or "" on failure
	NoSpeech  bool
}
type EngineStateMsg struct{ State string }
type DeviceLineMsg struct{ Text string }
type NoVoiceWarningMsg struct{ On bool }
type NoticeMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateTranscribing
)

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

// Pre-computed styles; View runs every animation frame.
var (
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	meterOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	meterHiStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpBold     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

type tuiModel struct {
	state             tuiState
	frame             int
	recordingDuration float64
	audioLevel        float64
	peakLevel         float64
	noVoice           bool
	partial           string
	msgCount          int
	width, height     int
	lastText          string
	lastBadge         string
	noSpeech          bool
	engineLine        string
	deviceLine        string
	triggerLine       string
	notice            string
}

func NewTUIProgram(triggerHelp string) *tea.Program {
	m := tuiModel{triggerLine: triggerHelp}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
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
		tuiReadyOnce.Do(func() { close(tuiReady) })

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		if m.state != tuiStateRecording {
			// Let the meter fall off instead of freezing mid-bar.
			m.audioLevel *= 0.8
		}
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.recordingDuration = 0
		m.audioLevel = 0
		m.peakLevel = 0
		m.noVoice = false
		m.partial = ""
		m.notice = ""

	case RecordingStopMsg:
		if m.state == tuiStateRecording {
			m.state = tuiStateTranscribing
		}
		m.noVoice = false

	case RecordingTickMsg:
		m.recordingDuration = msg.Seconds

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		}

	case PartialMsg:
		m.partial = msg.Text

	case TranscriptMsg:
		if m.state == tuiStateTranscribing {
			m.state = tuiStateIdle
		}
		m.msgCount++
		m.partial = ""
		m.lastText = msg.Text
		m.lastBadge = msg.Delivered
		m.noSpeech = msg.NoSpeech

	case EngineStateMsg:
		m.engineLine = "engine: " + msg.State

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case NoVoiceWarningMsg:
		m.noVoice = msg.On

	case NoticeMsg:
		m.notice = msg.Text
		if m.state == tuiStateTranscribing {
			m.state = tuiStateIdle
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	wrapWidth := m.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var b strings.Builder
	b.WriteString(helpBold.Render("murmur") + helpStyle.Render(" "+version) + "\n\n")

	// Status line with level meter
	switch m.state {
	case tuiStateRecording:
		b.WriteString(recStyle.Render(fmt.Sprintf("● REC %.1fs", m.recordingDuration)))
		b.WriteString("  " + renderMeter(m.audioLevel, 24))
		b.WriteString("\n")
		if m.noVoice {
			b.WriteString(warnStyle.Render("  ⚠ no voice detected") + "\n")
		}
	case tuiStateTranscribing:
		spin := spinnerFrames[(m.frame/3)%len(spinnerFrames)]
		b.WriteString(busyStyle.Render(spin+" TRANSCRIBING") + "\n")
	default:
		b.WriteString(idleStyle.Render("○ STANDBY") + "\n")
	}

	// Live partial while a session is open
	if m.partial != "" {
		b.WriteString("\n")
		for _, line := range wrapText(m.partial, wrapWidth) {
			b.WriteString(partialStyle.Render("… "+line) + "\n")
		}
	}

	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}

	// Last finished transcript
	if m.lastText != "" {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(fmt.Sprintf("Last transcript (#%d)", m.msgCount)) + "\n")
		style := textStyle
		if m.noSpeech {
			style = warnStyle
		}
		lines := wrapText(m.lastText, wrapWidth)
		for i, line := range lines {
			b.WriteString("  " + style.Render(line))
			if i == len(lines)-1 && m.lastBadge != "" && !m.noSpeech {
				b.WriteString(" " + badgeStyle.Render("[✓ "+m.lastBadge+"]"))
			}
			b.WriteString("\n")
		}
	}

	// Info and help footer
	b.WriteString("\n")
	if m.engineLine != "" {
		b.WriteString(infoStyle.Render(m.engineLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(infoStyle.Render(m.deviceLine) + "\n")
	}
	if m.triggerLine != "" {
		b.WriteString(helpStyle.Render(m.triggerLine) + "\n")
	}

	return b.String()
}

// renderMeter draws a horizontal level bar. level is already clamped to
// [0, 1] by the capture side.
func renderMeter(level float64, width int) string {
	filled := int(level * float64(width))
	if filled > width {
		filled = width
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i >= filled:
			b.WriteString(idleStyle.Render("·"))
		case i >= width*3/4:
			b.WriteString(meterHiStyle.Render("█"))
		default:
			b.WriteString(meterOnStyle.Render("█"))
		}
	}
	return b.String()
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
		// Find last space within width
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

// tuiSink forwards pipeline events into the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) RecordingStart()          { tuiSend(RecordingStartMsg{}) }
func (tuiSink) RecordingStop()           { tuiSend(RecordingStopMsg{}) }
func (tuiSink) RecordingTick(s float64)  { tuiSend(RecordingTickMsg{Seconds: s}) }
func (tuiSink) AudioLevel(l float64)     { tuiSend(AudioLevelMsg{Level: l}) }
func (tuiSink) NoVoiceWarning(on bool)   { tuiSend(NoVoiceWarningMsg{On: on}) }
func (tuiSink) Partial(text string)      { tuiSend(PartialMsg{Text: text}) }
func (tuiSink) EngineState(state string) { tuiSend(EngineStateMsg{State: state}) }
func (tuiSink) DeviceLine(text string)   { tuiSend(DeviceLineMsg{Text: text}) }
func (tuiSink) Notice(text string)       { tuiSend(NoticeMsg{Text: text}) }
func (tuiSink) Transcript(text, delivered string, noSpeech bool) {
	tuiSend(TranscriptMsg{Text: text, Delivered: delivered, NoSpeech: noSpeech})
}
