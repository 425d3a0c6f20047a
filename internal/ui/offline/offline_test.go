package offline

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpoint = "http://localhost:8000/generate-dashboard"

func TestView_EmptyUntilSized(t *testing.T) {
	m := New(endpoint, "connection refused")
	assert.Empty(t, m.View())
	assert.Empty(t, m.SetSize(80, 0).View())
}

func TestView_Content(t *testing.T) {
	m := New(endpoint, "connection refused").SetSize(120, 30)
	view := m.View()

	assert.Contains(t, view, "Can't reach the dashboard service")
	assert.Contains(t, view, endpoint)
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "r retry")
	assert.Contains(t, view, "┌────────┐")
}

func TestWindowSizeMsg(t *testing.T) {
	m, cmd := New(endpoint, "").Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.Equal(t, 80, m.width)
	assert.Equal(t, 24, m.height)
}

func TestRetry_OnlyOnceUntilReasonSet(t *testing.T) {
	m := New(endpoint, "").SetSize(80, 24)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	assert.Equal(t, RetryMsg{}, cmd())
	assert.True(t, m.Checking())
	assert.Contains(t, m.View(), "checking...")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Nil(t, cmd, "retry already in flight")

	m = m.SetReason("still down")
	assert.False(t, m.Checking())
	assert.Contains(t, m.View(), "still down")
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want tea.Msg
	}{
		{"continue", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}}, DismissMsg{}},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, DismissMsg{}},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, DismissMsg{}},
		{"quit", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}, tea.QuitMsg{}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, tea.QuitMsg{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmd := New(endpoint, "").SetSize(80, 24).Update(tt.key)
			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd())
		})
	}
}

func TestOtherKeysIgnored(t *testing.T) {
	_, cmd := New(endpoint, "").Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Nil(t, cmd)
}
