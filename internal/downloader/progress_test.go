package downloader

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestProgressUITracksTransfers(t *testing.T) {
	ui := NewProgressUI(nil)

	ui.Started("Show_1_1.mp4", 1000)
	ui.Started("Show_1_2.mp4", 1000)
	ui.Advanced(500)
	ui.Advanced(500)
	ui.Finished("Show_1_1.mp4", nil)
	ui.Finished("Show_1_2.mp4", errors.New("reset by peer"))

	m := ui.model
	m.mu.Lock()
	assert.Equal(t, int64(2000), m.totalBytes)
	assert.Equal(t, int64(1000), m.received)
	assert.Equal(t, 1, m.completed)
	assert.Equal(t, 1, m.failed)
	assert.Empty(t, m.active)
	assert.InDelta(t, 0.5, m.percent(), 0.0001)
	m.mu.Unlock()

	view := m.View()
	assert.Contains(t, view, "1.0 kB / 2.0 kB")
	assert.Contains(t, view, "reset by peer")
}

func TestProgressModelQuitsAfterDone(t *testing.T) {
	ui := NewProgressUI(nil)
	ui.Quit()

	_, cmd := ui.model.Update(tickMsg(time.Now()))
	if assert.NotNil(t, cmd) {
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestProgressCtrlCCancelsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ui := NewProgressUI(cancel)

	_, cmd := ui.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	if assert.NotNil(t, cmd) {
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
	assert.True(t, ui.model.done)
}
