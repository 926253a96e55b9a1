package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/service"
	"docqa/internal/textutil"
)

// SessionPort is the TUI-facing subset of the question answering session.
type SessionPort interface {
	Ingest(ctx context.Context, path string) (*service.IngestReport, error)
	Ask(ctx context.Context, question string, k int, threshold float64) (*service.Answer, error)
	Clear()
}

// Settings carries the retrieval parameters used for every question.
type Settings struct {
	TopK           int
	ScoreThreshold float64
}

type answerMsg struct {
	question string
	answer   *service.Answer
	err      error
}

type ingestMsg struct {
	path   string
	report *service.IngestReport
	err    error
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	ctx      context.Context
	session  SessionPort
	settings Settings

	input    textinput.Model
	viewport viewport.Model
	ready    bool
	busy     bool

	summary   string
	status    string
	answer    *service.Answer
	lastQuery string
	cursor    int
}

// New creates a chat model. report is the result of an ingestion done
// before the UI started, or nil when no document is loaded yet.
func New(ctx context.Context, session SessionPort, settings Settings, report *service.IngestReport) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, /ingest <file.pdf> or /clear"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := "No document loaded. Use /ingest <file.pdf>."
	summary := ""
	if report != nil {
		status = "Ready. Ask a question about the document."
		summary = report.Summary
	}
	return Model{
		ctx:      ctx,
		session:  session,
		settings: settings,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   status,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = nil
		} else {
			m.answer = msg.answer
			m.lastQuery = msg.question
			m.cursor = 0
			if msg.answer.UsedFallback {
				m.status = "No relevant passage in the document; answered from web search."
			} else {
				m.status = fmt.Sprintf("Answered from %d passage(s). Up/down cycles sources.", len(msg.answer.Sources))
			}
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case ingestMsg:
		m.busy = false
		m.answer = nil
		if msg.err != nil {
			m.status = "Ingest failed: " + msg.err.Error()
		} else {
			m.summary = msg.report.Summary
			m.status = fmt.Sprintf("Ingested %s: %d pages, %d chunks.", msg.path, msg.report.Pages, msg.report.Chunks)
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy {
				return m, nil
			}
			m.input.SetValue("")
			return m.submit(line)
		case "down":
			if m.answer != nil && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Sources)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if m.answer != nil && len(m.answer.Sources) > 0 {
				n := len(m.answer.Sources)
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	switch {
	case line == "/clear":
		m.session.Clear()
		m.answer = nil
		m.summary = ""
		m.status = "Session cleared. Use /ingest <file.pdf> to load a document."
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case strings.HasPrefix(line, "/ingest"):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/ingest"))
		if path == "" {
			m.status = "Usage: /ingest <file.pdf>"
			return m, nil
		}
		m.busy = true
		m.status = "Ingesting " + path + "..."
		return m, m.ingestCmd(path)
	}
	m.busy = true
	m.status = "Thinking..."
	return m, m.askCmd(line)
}

func (m Model) askCmd(question string) tea.Cmd {
	ctx, session, s := m.ctx, m.session, m.settings
	return func() tea.Msg {
		ans, err := session.Ask(ctx, question, s.TopK, s.ScoreThreshold)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

func (m Model) ingestCmd(path string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		report, err := session.Ingest(ctx, path)
		return ingestMsg{path: path, report: report, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Q&A")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if m.answer == nil {
		return "No answer yet."
	}
	width := max(20, m.viewport.Width-4)
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	b.WriteString(labelStyle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(wrap.Render(m.answer.Text))
	if len(m.answer.Sources) == 0 {
		return b.String()
	}
	r := m.answer.Sources[m.cursor]
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(sourceTitle(m.cursor, len(m.answer.Sources), r)))
	b.WriteString("\n")
	b.WriteString(wrap.Render(highlightBestSentence(r.Chunk.Text, m.lastQuery)))
	return b.String()
}

func sourceTitle(i, n int, r domain.SearchResult) string {
	title := fmt.Sprintf("Source %d/%d  score=%.3f", i+1, n, r.Score)
	if page, ok := r.Chunk.Metadata["page"]; ok {
		title += fmt.Sprintf("  page=%v", page)
	}
	return title
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func highlightBestSentence(text, query string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	best := bestSentence(sentences, query)
	if best < 0 {
		return strings.Join(sentences, " ")
	}
	sentences[best] = highlightStyle.Render(sentences[best])
	return strings.Join(sentences, " ")
}

// bestSentence returns the index of the sentence sharing the most query
// terms, or -1 when the query has none.
func bestSentence(sentences []string, query string) int {
	terms := make(map[string]struct{})
	for _, t := range textutil.Terms(query) {
		terms[t] = struct{}{}
	}
	if len(terms) == 0 {
		return -1
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := textutil.Overlap(terms, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}
