package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// ItemStatus is the state of one catalog in a batch run.
type ItemStatus int

const (
	StatusPending ItemStatus = iota
	StatusRunning
	StatusComplete
	StatusFailed
)

// Item is one catalog being processed.
type Item struct {
	Name    string
	Status  ItemStatus
	Message string
}

// BatchModel is the Bubble Tea model showing per-catalog progress while
// a batch run transforms each input catalog.
type BatchModel struct {
	spinner    spinner.Model
	items      []Item
	title      string
	done       bool
	err        error
	width      int
	quitting   bool
	subMessage string
}

// NewBatchModel creates a model tracking the named items.
func NewBatchModel(title string, names []string) BatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	items := make([]Item, len(names))
	for i, name := range names {
		items[i] = Item{Name: name, Status: StatusPending}
	}
	return BatchModel{spinner: s, items: items, title: title, width: 80}
}

func (m BatchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// ItemMsg updates the state of one item. A negative index only updates
// the sub-message.
type ItemMsg struct {
	Index      int
	Status     ItemStatus
	Message    string
	SubMessage string
}

// BatchDoneMsg signals that the whole batch finished.
type BatchDoneMsg struct {
	Err error
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ItemMsg:
		if msg.Index >= 0 && msg.Index < len(m.items) {
			m.items[msg.Index].Status = msg.Status
			m.items[msg.Index].Message = msg.Message
		}
		m.subMessage = msg.SubMessage
		return m, nil

	case BatchDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m BatchModel) View() tea.View {
	return tea.NewView(m.render())
}

func (m BatchModel) render() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(Title.Render(m.title))
		b.WriteString("\n\n")
	}

	for i, item := range m.items {
		var icon string
		var style styleWrapper
		switch item.Status {
		case StatusPending:
			icon = Muted.Render("○")
			style = StepPending
		case StatusRunning:
			icon = m.spinner.View()
			style = StepRunning
		case StatusComplete:
			icon = GetCheckMark()
			style = StepComplete
		case StatusFailed:
			icon = GetCrossMark()
			style = StepFailed
		}

		b.WriteString(fmt.Sprintf("%s %s", icon, style.Render(item.Name)))
		if item.Message != "" && item.Status == StatusFailed {
			b.WriteString(Dim.Render(" " + item.Message))
		}
		if i < len(m.items)-1 {
			b.WriteString("\n")
		}
	}

	if m.subMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(Dim.Render(m.subMessage))
	}

	if m.done {
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(Error.Render(GetCrossMark() + " " + m.err.Error()))
		} else {
			complete, failed := 0, 0
			for _, item := range m.items {
				switch item.Status {
				case StatusComplete:
					complete++
				case StatusFailed:
					failed++
				}
			}
			summary := fmt.Sprintf("✓ Processed %d/%d catalogs", complete, len(m.items))
			if failed > 0 {
				summary += Warning.Render(fmt.Sprintf(" (%d failed)", failed))
			}
			b.WriteString(Success.Render(summary))
		}
	}

	return b.String()
}

// BatchTracker drives a BatchModel from ordinary sequential code, hiding
// Bubble Tea from callers.
type BatchTracker struct {
	program *tea.Program
	names   []string
	mu      sync.Mutex
	running bool
}

// NewBatchTracker creates a tracker for the named items.
func NewBatchTracker(names []string) *BatchTracker {
	return &BatchTracker{names: names}
}

// Start begins rendering.
func (t *BatchTracker) Start(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}

	t.program = tea.NewProgram(NewBatchModel(title, t.names), tea.WithoutSignalHandler())
	t.running = true

	go func() {
		t.program.Run()
	}()

	// Give the program a moment to start rendering.
	time.Sleep(50 * time.Millisecond)
}

// Update sets the state of one item by index.
func (t *BatchTracker) Update(index int, status ItemStatus, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program == nil || !t.running {
		return
	}
	t.program.Send(ItemMsg{Index: index, Status: status, Message: message})
}

// SetMessage sets the sub-message below the item list.
func (t *BatchTracker) SetMessage(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program == nil || !t.running {
		return
	}
	t.program.Send(ItemMsg{Index: -1, SubMessage: message})
}

// Complete finishes the display, showing err if the batch failed.
func (t *BatchTracker) Complete(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program == nil || !t.running {
		return
	}
	t.program.Send(BatchDoneMsg{Err: err})
	t.running = false

	// Let the final frame render before returning to the shell.
	time.Sleep(100 * time.Millisecond)
}
