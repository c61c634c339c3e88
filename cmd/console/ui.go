package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/mwhitlock/silvertongue/pkg/chat"
)

const PlaceHolderText = "Say something persuasive..."

const (
	entryUser   = "user"
	entryGuard  = "guard"
	entryNotice = "notice"
)

// transcriptEntry is one line of the local conversation log. The
// speaker is captured at send time because the active character can
// change mid-session.
type transcriptEntry struct {
	kind    string
	speaker string
	text    string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	progress     *chat.ProgressResponse
	transcript   []transcriptEntry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Local stage clock, synced from every API response
	deadline time.Time
}

type turnMsg struct {
	turn *chat.TurnResponse
	err  error
}

type hintMsg struct {
	hint *chat.HintResponse
	err  error
}

type progressMsg struct {
	progress *chat.ProgressResponse
	err      error
}

type progressTickMsg struct{}

type clockTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	guardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // red
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, progress *chat.ProgressResponse) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		progress:     progress,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		deadline:     time.Now().Add(time.Duration(progress.TimeRemaining * float64(time.Second))),
	}
}

func (m *ConsoleUI) currentSpeaker() string {
	if m.progress == nil || m.progress.CurrentCharacter == "" {
		return "Guard"
	}
	return m.progress.CharacterGlyph + " " + m.progress.CurrentCharacter
}

func (m *ConsoleUI) syncClock(timeRemaining float64) {
	m.deadline = time.Now().Add(time.Duration(timeRemaining * float64(time.Second)))
}

func (m *ConsoleUI) timeLeft() time.Duration {
	if m.progress != nil && (m.progress.GameWon || m.progress.GameOver) {
		return 0
	}
	left := time.Until(m.deadline)
	if left < 0 {
		return 0
	}
	return left
}

// writeChatContent rebuilds the chat viewport for the current width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("SILVERTONGUE") + "\n\n")
	content.WriteString("Talk your way past four guards. Each one falls for something different.\n")
	content.WriteString("Type /hint if you're stuck, /help for commands.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 10))) + "\n\n")

	for _, entry := range m.transcript {
		switch entry.kind {
		case entryUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.text, chatWidth-6) + "\n\n")
		case entryGuard:
			prefix := speakerStyle.Render(entry.speaker + ": ")
			content.WriteString(prefix + guardStyle.Render(wordwrap.String(entry.text, chatWidth-6)) + "\n\n")
		case entryNotice:
			content.WriteString(noticeStyle.Render(wordwrap.String(entry.text, chatWidth-6)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	if m.progress == nil {
		return
	}
	p := m.progress

	var content strings.Builder
	content.WriteString(titleStyle.Render("MISSION STATUS") + "\n\n")

	content.WriteString("Session:\n")
	id := p.SessionID
	if len(id) > 8 {
		id = id[:8] + "..."
	}
	content.WriteString(id + "\n\n")

	if p.GameWon {
		content.WriteString(noticeStyle.Render("ALL GUARDS DEFEATED") + "\n\n")
	} else if p.GameOver {
		content.WriteString(errorStyle.Render("GAME OVER") + "\n\n")
	} else {
		content.WriteString("Stage:\n")
		content.WriteString(fmt.Sprintf("%d of %d\n\n", p.CurrentStage, p.TotalStages))

		content.WriteString("Facing:\n")
		content.WriteString(fmt.Sprintf("%s %s\n\n", p.CharacterGlyph, p.CurrentCharacter))

		left := m.timeLeft()
		content.WriteString("Time left:\n")
		clock := fmt.Sprintf("%02d:%02d", int(left.Minutes()), int(left.Seconds())%60)
		if left < 30*time.Second {
			content.WriteString(urgentStyle.Render(clock) + "\n\n")
		} else {
			content.WriteString(clock + "\n\n")
		}

		content.WriteString("Hints used:\n")
		content.WriteString(fmt.Sprintf("%d of 3\n\n", p.HintsUsedCurrentStage))
	}

	content.WriteString("XP:\n")
	content.WriteString(fmt.Sprintf("%d\n\n", p.TotalXP))

	content.WriteString("Messages:\n")
	content.WriteString(fmt.Sprintf("%d total\n\n", p.TotalMessages))

	if len(p.StagesCompleted) > 0 {
		content.WriteString("Defeated:\n")
		for _, name := range p.StagesCompleted {
			content.WriteString("• " + name + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /hint: Buy a hint\n")
	content.WriteString("• /reset: New game\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, clockTick())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.transcript = append(m.transcript, transcriptEntry{kind: entryUser, text: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendTurn(input), progressTick())
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.appendError(msg.err)
		} else {
			m.applyTurn(msg.turn)
		}
		m.writeChatContent()
		m.writeMetadata()
		m.chatViewport.GotoBottom()
		// StagesCompleted isn't echoed on turns; a refresh fills it in.
		return m, m.refreshProgress()

	case hintMsg:
		m.loading = false
		if msg.err != nil {
			m.appendError(msg.err)
		} else {
			m.transcript = append(m.transcript, transcriptEntry{
				kind: entryNotice,
				text: fmt.Sprintf("Hint %d/3 (-%d XP): %s", msg.hint.HintLevel, msg.hint.XPCost, msg.hint.Hint),
			})
		}
		m.writeChatContent()
		m.chatViewport.GotoBottom()
		return m, m.refreshProgress()

	case progressMsg:
		if msg.err == nil && msg.progress != nil {
			m.progress = msg.progress
			m.syncClock(msg.progress.TimeRemaining)
			m.writeMetadata()
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}

	case clockTickMsg:
		m.writeMetadata()
		return m, clockTick()
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// applyTurn folds a turn response into the transcript and progress.
func (m *ConsoleUI) applyTurn(turn *chat.TurnResponse) {
	speaker := m.currentSpeaker()

	if turn.Won {
		m.transcript = append(m.transcript, transcriptEntry{
			kind: entryNotice,
			text: fmt.Sprintf("+%d XP: %s", turn.XPEarned, turn.Reason),
		})
		m.transcript = append(m.transcript, transcriptEntry{kind: entryNotice, text: turn.Response})
	} else {
		m.transcript = append(m.transcript, transcriptEntry{kind: entryGuard, speaker: speaker, text: turn.Response})
	}

	if turn.GameOver {
		m.transcript = append(m.transcript, transcriptEntry{
			kind: entryNotice,
			text: "Game over. Type /reset to try again.",
		})
	}

	m.progress = &chat.ProgressResponse{
		CurrentStage:     turn.CurrentStage,
		TotalStages:      turn.TotalStages,
		CurrentCharacter: turn.CurrentCharacter,
		CharacterGlyph:   turn.CharacterGlyph,
		TotalXP:          turn.TotalXP,
		TotalMessages:    turn.TotalMessages,
		GameWon:          turn.GameWon,
		GameOver:         turn.GameOver,
		TimeRemaining:    turn.TimeRemaining,
		SessionID:        m.progress.SessionID,
		StagesCompleted:  m.progress.StagesCompleted,
	}
	m.syncClock(turn.TimeRemaining)
}

func (m *ConsoleUI) appendError(err error) {
	m.err = err
	m.transcript = append(m.transcript, transcriptEntry{
		kind: entryNotice,
		text: errorStyle.Render("Error: " + err.Error()),
	})
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /hint - Buy a hint for the current guard (costs XP)
• /reset - Start a fresh game
• /help - Show this help
• Ctrl+C - Quit

How to play:
• Each guard protects something. Talk them into giving it up.
• You have limited time per guard, and 3 hints each.
• Defeat all four to win.
`
		m.transcript = append(m.transcript, transcriptEntry{kind: entryNotice, text: helpText})
		m.writeChatContent()
		return m, nil

	case "/hint":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.buyHint(), progressTick())

	case "/reset":
		if m.loading {
			return m, nil
		}
		m.transcript = nil
		m.transcript = append(m.transcript, transcriptEntry{kind: entryNotice, text: "New game started."})
		m.writeChatContent()
		return m, m.doReset()

	default:
		m.transcript = append(m.transcript, transcriptEntry{
			kind: entryNotice,
			text: fmt.Sprintf("Unknown command %q. Type /help for commands.", cmd),
		})
		m.writeChatContent()
		return m, nil
	}
}

func (m ConsoleUI) sendTurn(message string) tea.Cmd {
	return func() tea.Msg {
		turn, err := sendChat(m.client, m.config.APIBaseURL, message)
		return turnMsg{turn, err}
	}
}

func (m ConsoleUI) buyHint() tea.Cmd {
	return func() tea.Msg {
		hint, err := requestHint(m.client, m.config.APIBaseURL)
		return hintMsg{hint, err}
	}
}

func (m ConsoleUI) doReset() tea.Cmd {
	return func() tea.Msg {
		progress, err := resetSession(m.client, m.config.APIBaseURL)
		return progressMsg{progress, err}
	}
}

func (m ConsoleUI) refreshProgress() tea.Cmd {
	return func() tea.Msg {
		progress, err := getProgress(m.client, m.config.APIBaseURL)
		return progressMsg{progress, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Walk away from the guards?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 10))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return clockTickMsg{}
	})
}
