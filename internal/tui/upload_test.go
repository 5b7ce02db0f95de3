package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	result domain.TransferResult
	ctx    context.Context
}

func (u *stubUploader) UploadTo(ctx context.Context, _, _ string) domain.TransferResult {
	u.ctx = ctx
	return u.result
}

func newUploadModel() (UploadModel, *stubUploader) {
	up := &stubUploader{result: domain.Succeeded(domain.ObjectRef{ID: "1", Name: "a.txt"})}
	m := NewUploadModel(context.Background(), up, NewChannelObserver(8), NewChannelConflictPublisher(),
		"/tmp/a.txt", "folder-1", "Documents")
	return m, up
}

func update(t *testing.T, m UploadModel, msg tea.Msg) (UploadModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	um, ok := next.(UploadModel)
	require.True(t, ok)
	return um, cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestUploadModelTracksProgress(t *testing.T) {
	m, _ := newUploadModel()

	m, cmd := update(t, m, ProgressMsg{Sample: domain.ProgressSample{BytesSent: 512, TotalBytes: 2048}})

	assert.NotNil(t, cmd)
	assert.InDelta(t, 25.0, m.sample.Percentage(), 0.001)
	assert.Contains(t, m.View(), "512 B / 2.0 kB")
}

func TestUploadModelConflictDecisions(t *testing.T) {
	tests := []struct {
		key  string
		want domain.ConflictDecision
	}{
		{"r", domain.DecisionReplace},
		{"k", domain.DecisionKeepBoth},
		{"c", domain.DecisionCancel},
		{"esc", domain.DecisionCancel},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, _ := newUploadModel()
			req := domain.NewConflictRequest("a.txt", "existing")

			m, _ = update(t, m, ConflictMsg{Request: req})
			assert.Contains(t, m.View(), "already exists in Documents")

			m, _ = update(t, m, keyMsg(tt.key))

			require.True(t, req.Resolved())
			assert.Equal(t, tt.want, req.Decision())
			assert.Nil(t, m.conflict)
		})
	}
}

func TestUploadModelIgnoresOtherKeysDuringConflict(t *testing.T) {
	m, _ := newUploadModel()
	req := domain.NewConflictRequest("a.txt", "existing")
	m, _ = update(t, m, ConflictMsg{Request: req})

	m, _ = update(t, m, keyMsg("x"))

	assert.False(t, req.Resolved())
	assert.NotNil(t, m.conflict)
}

func TestUploadModelCancelClosesContext(t *testing.T) {
	m, _ := newUploadModel()
	req := domain.NewConflictRequest("a.txt", "existing")
	m, _ = update(t, m, ConflictMsg{Request: req})

	m, cmd := update(t, m, keyMsg("ctrl+c"))

	assert.Nil(t, cmd)
	assert.True(t, m.cancelling)
	assert.Error(t, m.ctx.Err())
	assert.Contains(t, m.View(), "Cancelling")
}

func TestUploadModelResolvesLateConflictWhileCancelling(t *testing.T) {
	m, _ := newUploadModel()
	m, _ = update(t, m, keyMsg("ctrl+c"))

	req := domain.NewConflictRequest("a.txt", "existing")
	m, _ = update(t, m, ConflictMsg{Request: req})

	require.True(t, req.Resolved())
	assert.Equal(t, domain.DecisionCancel, req.Decision())
	assert.Nil(t, m.conflict)
}

func TestUploadModelQuitsWithResult(t *testing.T) {
	m, up := newUploadModel()

	msg := StartUploadCmd(m.ctx, up, m.path, m.folderID, m.observer, m.conflicts)()
	done, ok := msg.(UploadDoneMsg)
	require.True(t, ok)

	m, cmd := update(t, m, done)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	result, ok := m.Result()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Contains(t, m.View(), "Uploaded a.txt")

	// Streams are closed so their listeners end.
	assert.Nil(t, WaitForProgressCmd(m.observer.Samples())())
	assert.Nil(t, WaitForConflictCmd(m.conflicts.Requests())())
}

func TestUploadModelResultBeforeDone(t *testing.T) {
	m, _ := newUploadModel()
	_, ok := m.Result()
	assert.False(t, ok)
}

func TestRenderResult(t *testing.T) {
	replaced := domain.Succeeded(domain.ObjectRef{Name: "a.txt", WebLink: "https://x/a"}).
		WithResolution(domain.DecisionReplace)
	assert.Contains(t, RenderResult(replaced), "https://x/a")
	assert.Contains(t, RenderResult(replaced), "replace")

	assert.Contains(t, RenderResult(domain.Cancelled()), "cancelled")
	assert.Contains(t, RenderResult(domain.Failed("network down")), "network down")
}
