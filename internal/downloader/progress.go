package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

type tickMsg time.Time

// progressModel is the bubbletea model behind ProgressUI. Downloads only
// touch it under mu; the tick loop turns the counters into frames.
type progressModel struct {
	progress   progress.Model
	totalBytes int64
	received   int64
	active     map[string]struct{}
	completed  int
	failed     int
	status     string
	done       bool
	mu         sync.Mutex

	// interrupt cancels the batch; the terminal is in raw mode so ctrl+c
	// never reaches the process as SIGINT.
	interrupt context.CancelFunc
}

func newProgressModel(interrupt context.CancelFunc) *progressModel {
	return &progressModel{
		interrupt: interrupt,
		progress:  progress.New(progress.WithDefaultGradient()),
		active:   make(map[string]struct{}),
		status:   "Waiting for the first episode...",
	}
}

// tickCmd returns a command that sends a tick message after a delay
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *progressModel) Init() tea.Cmd {
	return tickCmd()
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.mu.Lock()
			m.done = true
			m.status = "Interrupted, cancelling downloads..."
			m.mu.Unlock()
			if m.interrupt != nil {
				m.interrupt()
			}
			return m, tea.Quit
		}
	case tickMsg:
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.done {
			return m, tea.Quit
		}
		if m.totalBytes > 0 {
			return m, tea.Batch(m.progress.SetPercent(m.percent()), tickCmd())
		}
		return m, tickCmd()
	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		m.progress = newModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// percent must be called with mu held
func (m *progressModel) percent() float64 {
	if m.totalBytes <= 0 {
		return 0
	}
	p := float64(m.received) / float64(m.totalBytes)
	if p > 1 {
		p = 1
	}
	return p
}

func (m *progressModel) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fmt.Sprintf("%s\n%s / %s  active: %d  done: %d  failed: %d\n%s\n",
		m.progress.ViewAs(m.percent()),
		humanize.Bytes(uint64(m.received)),
		humanize.Bytes(uint64(m.totalBytes)),
		len(m.active), m.completed, m.failed,
		m.status)
}

// ProgressUI renders the aggregate progress of a batch in the terminal
type ProgressUI struct {
	model   *progressModel
	program *tea.Program
}

// NewProgressUI creates the UI; call Run to display it. interrupt, when not
// nil, is called if the user presses ctrl+c.
func NewProgressUI(interrupt context.CancelFunc, opts ...tea.ProgramOption) *ProgressUI {
	m := newProgressModel(interrupt)
	return &ProgressUI{model: m, program: tea.NewProgram(m, opts...)}
}

// Run blocks until Quit is called or the user presses ctrl+c
func (u *ProgressUI) Run() error {
	if _, err := u.program.Run(); err != nil {
		return fmt.Errorf("progress display error: %w", err)
	}
	return nil
}

// Quit stops the UI after its next frame
func (u *ProgressUI) Quit() {
	u.model.mu.Lock()
	u.model.done = true
	u.model.mu.Unlock()
}

// Started implements ProgressSink
func (u *ProgressUI) Started(name string, total int64) {
	u.model.mu.Lock()
	defer u.model.mu.Unlock()

	if total > 0 {
		u.model.totalBytes += total
	}
	u.model.active[name] = struct{}{}
	u.model.status = "Downloading " + name
}

// Advanced implements ProgressSink
func (u *ProgressUI) Advanced(n int64) {
	u.model.mu.Lock()
	u.model.received += n
	u.model.mu.Unlock()
}

// Finished implements ProgressSink
func (u *ProgressUI) Finished(name string, err error) {
	u.model.mu.Lock()
	defer u.model.mu.Unlock()

	delete(u.model.active, name)
	if err != nil {
		u.model.failed++
		u.model.status = fmt.Sprintf("%s failed: %v", name, err)
		return
	}
	u.model.completed++
	u.model.status = name + " completed"
}
