package components

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeName(t *testing.T, m NameModal, s string) NameModal {
	t.Helper()
	for _, r := range s {
		m, _, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func noSlash(name string) error {
	if name == "a/b" {
		return errors.New("no slashes")
	}
	return nil
}

func TestNameModalHiddenIgnoresInput(t *testing.T) {
	m := NewNameModal("Folder name...", "create", nil)

	m, _, submitted := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, submitted)
	assert.Empty(t, m.View())
}

func TestNameModalSubmitsTrimmedName(t *testing.T) {
	m := NewNameModal("Folder name...", "create", noSlash)
	m.Show("New folder in Documents")
	m = typeName(t, m, "  Receipts ")

	m, _, submitted := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.True(t, submitted)
	assert.Equal(t, "Receipts", m.Value())
	assert.Contains(t, m.View(), "New folder in Documents")
}

func TestNameModalRefusesInvalidName(t *testing.T) {
	m := NewNameModal("Folder name...", "create", noSlash)
	m.Show("New folder")

	m, _, submitted := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, submitted)
	assert.Equal(t, "name cannot be empty", m.Problem())

	m = typeName(t, m, "a/b")
	assert.Empty(t, m.Problem(), "editing clears the message")

	m, _, submitted = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, submitted)
	assert.True(t, m.IsVisible())
	assert.Contains(t, m.View(), "no slashes")
}

func TestNameModalEscHides(t *testing.T) {
	m := NewNameModal("Folder name...", "create", nil)
	m.Show("New folder")
	m = typeName(t, m, "x")

	m, _, submitted := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, submitted)
	assert.False(t, m.IsVisible())

	m.Show("Again")
	assert.Empty(t, m.Value())
}
