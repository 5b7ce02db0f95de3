package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/mmcdole/shuttle/internal/tui/styles"
)

const maxBarWidth = 60

// UploadModel shows one running upload: progress, any name conflict, and the
// final result. Cancelling closes the upload's context and waits for it to
// return so the result is always reported.
type UploadModel struct {
	uploader  Uploader
	observer  *ChannelObserver
	conflicts *ChannelConflictPublisher

	path       string
	fileName   string
	folderID   string
	folderName string

	ctx    context.Context
	cancel context.CancelFunc

	spinner spinner.Model
	bar     progress.Model

	sample     domain.ProgressSample
	conflict   *domain.ConflictRequest
	cancelling bool
	result     *domain.TransferResult
}

// NewUploadModel creates the model. observer and conflicts must be the ones
// the uploader was built with.
func NewUploadModel(
	parent context.Context,
	up Uploader,
	observer *ChannelObserver,
	conflicts *ChannelConflictPublisher,
	path, folderID, folderName string,
) UploadModel {
	ctx, cancel := context.WithCancel(parent)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.SpinnerStyle

	return UploadModel{
		uploader:   up,
		observer:   observer,
		conflicts:  conflicts,
		path:       path,
		fileName:   filepath.Base(path),
		folderID:   folderID,
		folderName: folderName,
		ctx:        ctx,
		cancel:     cancel,
		spinner:    sp,
		bar:        progress.New(progress.WithSolidFill(string(styles.Amber)), progress.WithWidth(40)),
	}
}

// Init starts the upload and the listeners for its progress and conflicts
func (m UploadModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		StartUploadCmd(m.ctx, m.uploader, m.path, m.folderID, m.observer, m.conflicts),
		WaitForProgressCmd(m.observer.Samples()),
		WaitForConflictCmd(m.conflicts.Requests()),
	)
}

// Update handles all messages
func (m UploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-30, 10), maxBarWidth)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.result != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		m.sample = msg.Sample
		return m, WaitForProgressCmd(m.observer.Samples())

	case ConflictMsg:
		if m.cancelling {
			msg.Request.Resolve(domain.DecisionCancel)
		} else {
			m.conflict = msg.Request
		}
		return m, WaitForConflictCmd(m.conflicts.Requests())

	case UploadDoneMsg:
		result := msg.Result
		m.result = &result
		m.conflict = nil
		m.cancel()
		return m, tea.Quit
	}

	return m, nil
}

func (m UploadModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.result != nil {
		return m, tea.Quit
	}

	if m.conflict != nil && msg.String() != "ctrl+c" {
		switch {
		case key.Matches(msg, Keys.Replace):
			m.decide(domain.DecisionReplace)
		case key.Matches(msg, Keys.KeepBoth):
			m.decide(domain.DecisionKeepBoth)
		case key.Matches(msg, Keys.CancelUpload):
			m.decide(domain.DecisionCancel)
		}
		return m, nil
	}

	if key.Matches(msg, Keys.Cancel) && !m.cancelling {
		m.cancelling = true
		m.conflict = nil
		m.cancel()
	}
	return m, nil
}

func (m *UploadModel) decide(d domain.ConflictDecision) {
	m.conflict.Resolve(d)
	m.conflict = nil
}

// Result returns the final result once the upload has returned
func (m UploadModel) Result() (domain.TransferResult, bool) {
	if m.result == nil {
		return domain.TransferResult{}, false
	}
	return *m.result, true
}

// View renders the upload
func (m UploadModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Uploading " + m.fileName))
	b.WriteString(styles.DimStyle.Render(" to " + m.folderName))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString(RenderResult(*m.result))
		b.WriteString("\n")
		return styles.PanelStyle.Render(b.String())
	}

	pct := m.sample.Percentage()
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(pct / 100))
	if m.sample.TotalBytes > 0 {
		b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("  %s / %s",
			humanize.Bytes(uint64(m.sample.BytesSent)),
			humanize.Bytes(uint64(m.sample.TotalBytes)))))
	}
	b.WriteString("\n\n")

	switch {
	case m.cancelling:
		b.WriteString(styles.DimStyle.Render("Cancelling..."))
	case m.conflict != nil:
		prompt := lipgloss.JoinVertical(lipgloss.Left,
			styles.AccentStyle.Render(fmt.Sprintf("%q already exists in %s.", m.conflict.FileName, m.folderName)),
			"",
			strings.Join([]string{
				styles.HelpEntry("r", "replace"),
				styles.HelpEntry("k", "keep both"),
				styles.HelpEntry("c", "cancel"),
			}, "   "),
		)
		b.WriteString(styles.ConflictStyle.Render(prompt))
	default:
		b.WriteString(styles.HelpEntry("C-c", "cancel upload"))
	}
	b.WriteString("\n")

	return styles.PanelStyle.Render(b.String())
}

// RenderResult renders the one-line summary of a finished upload
func RenderResult(r domain.TransferResult) string {
	switch r.Outcome {
	case domain.OutcomeSuccess:
		line := styles.SuccessStyle.Render("✓ Uploaded " + r.Name)
		if r.Resolution != nil {
			line += styles.DimStyle.Render(" (" + r.Resolution.String() + ")")
		}
		if r.WebLink != "" {
			line += "\n  " + styles.LinkStyle.Render(r.WebLink)
		}
		return line
	case domain.OutcomeCancelled:
		return styles.DimStyle.Render("Upload cancelled")
	default:
		return styles.ErrorStyle.Render("✗ " + r.Message)
	}
}
