package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/mmcdole/shuttle/internal/tui/components"
	"github.com/mmcdole/shuttle/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// chromeHeight is the number of lines around the folder list
const chromeHeight = 7

// folderNode is one folder in the lazily expanded tree
type folderNode struct {
	folder   domain.RemoteFolder
	parent   *folderNode
	depth    int
	expanded bool
	loaded   bool
	loading  bool
	children []*folderNode
}

func (n *folderNode) expandable() bool {
	return n.parent == nil || n.folder.HasChildren || (n.loaded && len(n.children) > 0)
}

// folderRow is a visible line: a node and, while filtering, its match positions
type folderRow struct {
	node    *folderNode
	matched []int
}

// folderIndex implements sahilm/fuzzy.Source over lowercase folder names
type folderIndex struct {
	nodes []*folderNode
	lower []string
}

func (idx folderIndex) String(i int) string { return idx.lower[i] }
func (idx folderIndex) Len() int            { return len(idx.nodes) }

// FolderPicker browses remote folders and returns the one the user selects
type FolderPicker struct {
	src       FolderSource
	root      *folderNode
	nodes     map[string]*folderNode
	defaultID string

	rows   []folderRow
	cursor int
	offset int
	width  int
	height int

	filterInput textinput.Model
	filtering   bool
	filterQuery string

	input       components.NameModal
	inputParent string

	status      string
	statusIsErr bool

	selected *domain.RemoteFolder
}

// NewFolderPicker creates a picker rooted at the store root, labelled rootLabel
func NewFolderPicker(src FolderSource, rootLabel, defaultID string) FolderPicker {
	root := &folderNode{
		folder:   domain.RemoteFolder{Name: rootLabel},
		expanded: true,
		loading:  true,
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = styles.FilterPromptStyle
	ti.Placeholder = "filter loaded folders"
	ti.PlaceholderStyle = styles.DimStyle

	m := FolderPicker{
		src:         src,
		root:        root,
		nodes:       map[string]*folderNode{"": root},
		defaultID:   defaultID,
		height:      20,
		filterInput: ti,
		input:       components.NewNameModal("Folder name...", "create", validateFolderName),
	}
	m.rebuildRows()
	return m
}

// Init loads the root listing
func (m FolderPicker) Init() tea.Cmd {
	return LoadFoldersCmd(m.src, "", false)
}

// Selected returns the chosen folder, if the user picked one
func (m FolderPicker) Selected() (domain.RemoteFolder, bool) {
	if m.selected == nil {
		return domain.RemoteFolder{}, false
	}
	return *m.selected, true
}

// Update handles all messages
func (m FolderPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case FoldersLoadedMsg:
		m.applyListing(msg.ParentID, msg.Folders)
		return m, nil

	case FolderCreatedMsg:
		m.status = "Created " + msg.Folder.Name
		m.statusIsErr = false
		if parent, ok := m.nodes[msg.ParentID]; ok {
			parent.loading = true
			parent.expanded = true
		}
		return m, tea.Batch(LoadFoldersCmd(m.src, msg.ParentID, false), ClearStatusCmd(3*time.Second))

	case ErrMsg:
		m.status = msg.Error()
		m.statusIsErr = true
		for _, n := range m.nodes {
			n.loading = false
		}
		return m, nil

	case ClearStatusMsg:
		m.status = ""
		return m, nil
	}

	return m, nil
}

// validateFolderName refuses names no backend can store as one folder level.
// "/" is the S3 key delimiter and reads as a path on Drive.
func validateFolderName(name string) error {
	switch {
	case name == "." || name == "..":
		return fmt.Errorf("%q is not a folder name", name)
	case strings.ContainsAny(name, `/\`):
		return errors.New("name cannot contain / or \\")
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return errors.New("name cannot contain control characters")
	}
	return nil
}

func (m FolderPicker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.input, cmd, submitted = m.input.Update(msg)
		if submitted {
			name := m.input.Value()
			m.input.Hide()
			m.status = "Creating " + name + "..."
			m.statusIsErr = false
			return m, CreateFolderCmd(m.src, name, m.inputParent)
		}
		return m, cmd
	}

	if m.filtering {
		switch msg.String() {
		case "esc":
			m.clearFilter()
			return m, nil
		case "enter":
			m.filtering = false
			m.filterInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.filterQuery = m.filterInput.Value()
		m.cursor, m.offset = 0, 0
		m.rebuildRows()
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Escape):
		if m.filterQuery != "" {
			m.clearFilter()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, Keys.Home):
		m.cursor = 0
		m.clampScroll()

	case key.Matches(msg, Keys.End):
		m.cursor = len(m.rows) - 1
		m.clampScroll()

	case key.Matches(msg, Keys.Expand):
		return m, m.expand()

	case key.Matches(msg, Keys.Collapse):
		m.collapse()

	case key.Matches(msg, Keys.Select):
		if n := m.current(); n != nil {
			folder := n.folder
			m.selected = &folder
			return m, tea.Quit
		}

	case key.Matches(msg, Keys.Filter):
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, Keys.NewFolder):
		if n := m.current(); n != nil {
			m.inputParent = n.folder.ID
			m.input.Show("New folder in " + n.folder.Name)
			return m, textinput.Blink
		}

	case key.Matches(msg, Keys.Refresh):
		if n := m.current(); n != nil {
			n.loading = true
			return m, LoadFoldersCmd(m.src, n.folder.ID, true)
		}
	}

	return m, nil
}

// expand opens the current node, loading its children on first use
func (m *FolderPicker) expand() tea.Cmd {
	n := m.current()
	if n == nil || !n.expandable() {
		return nil
	}
	n.expanded = true
	m.rebuildRows()
	if n.loaded || n.loading {
		return nil
	}
	n.loading = true
	return LoadFoldersCmd(m.src, n.folder.ID, false)
}

// collapse closes the current node, or moves to its parent when already closed
func (m *FolderPicker) collapse() {
	n := m.current()
	if n == nil {
		return
	}
	if n.expanded && n.parent != nil {
		n.expanded = false
		m.rebuildRows()
		return
	}
	if n.parent != nil {
		m.selectNode(n.parent)
	}
}

// applyListing replaces the children of parentID, keeping the expansion
// state of folders that are still present
func (m *FolderPicker) applyListing(parentID string, folders []domain.RemoteFolder) {
	parent, ok := m.nodes[parentID]
	if !ok {
		return
	}
	prevSelected := m.current()

	old := make(map[string]*folderNode, len(parent.children))
	for _, c := range parent.children {
		old[c.folder.ID] = c
	}

	children := make([]*folderNode, 0, len(folders))
	for _, f := range folders {
		if f.ParentID == "" {
			f.ParentID = parentID
		}
		n, ok := old[f.ID]
		if ok {
			n.folder = f
			delete(old, f.ID)
		} else {
			n = &folderNode{folder: f, parent: parent, depth: parent.depth + 1}
		}
		m.nodes[f.ID] = n
		children = append(children, n)
	}
	for _, gone := range old {
		m.forget(gone)
	}

	parent.children = children
	parent.loaded = true
	parent.loading = false
	m.rebuildRows()
	if prevSelected != nil {
		m.selectNode(prevSelected)
	}
}

func (m *FolderPicker) forget(n *folderNode) {
	delete(m.nodes, n.folder.ID)
	for _, c := range n.children {
		m.forget(c)
	}
}

func (m *FolderPicker) clearFilter() {
	m.filtering = false
	m.filterQuery = ""
	m.filterInput.SetValue("")
	m.filterInput.Blur()
	m.rebuildRows()
}

// rebuildRows recomputes the visible rows: the expanded tree, or fuzzy
// matches over every loaded folder while a filter is set
func (m *FolderPicker) rebuildRows() {
	m.rows = m.rows[:0]

	if m.filterQuery == "" {
		var walk func(n *folderNode)
		walk = func(n *folderNode) {
			m.rows = append(m.rows, folderRow{node: n})
			if n.expanded {
				for _, c := range n.children {
					walk(c)
				}
			}
		}
		walk(m.root)
	} else {
		idx := folderIndex{}
		var collect func(n *folderNode)
		collect = func(n *folderNode) {
			idx.nodes = append(idx.nodes, n)
			idx.lower = append(idx.lower, strings.ToLower(n.folder.Name))
			for _, c := range n.children {
				collect(c)
			}
		}
		collect(m.root)

		for _, match := range fuzzy.FindFrom(strings.ToLower(m.filterQuery), idx) {
			m.rows = append(m.rows, folderRow{node: idx.nodes[match.Index], matched: match.MatchedIndexes})
		}
	}

	m.clampScroll()
}

func (m *FolderPicker) current() *folderNode {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

func (m *FolderPicker) selectNode(n *folderNode) {
	for i, r := range m.rows {
		if r.node == n {
			m.cursor = i
			m.clampScroll()
			return
		}
	}
}

func (m *FolderPicker) moveCursor(delta int) {
	m.cursor += delta
	m.clampScroll()
}

func (m *FolderPicker) visibleRows() int {
	return max(m.height-chromeHeight, 3)
}

func (m *FolderPicker) clampScroll() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// View renders the picker
func (m FolderPicker) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Choose upload folder"))
	b.WriteString("\n")
	if m.filtering || m.filterQuery != "" {
		b.WriteString(m.filterInput.View())
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(styles.DimStyle.Render("  No matching folders"))
		b.WriteString("\n")
	}

	end := min(m.offset+m.visibleRows(), len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.statusIsErr {
			b.WriteString(styles.ErrorStyle.Render(m.status))
		} else {
			b.WriteString(styles.SubtitleStyle.Render(m.status))
		}
	}
	b.WriteString("\n")
	b.WriteString(strings.Join([]string{
		styles.HelpEntry("enter", "select"),
		styles.HelpEntry("l/h", "expand/collapse"),
		styles.HelpEntry("/", "filter"),
		styles.HelpEntry("n", "new folder"),
		styles.HelpEntry("r", "refresh"),
		styles.HelpEntry("q", "quit"),
	}, "  "))

	view := b.String()
	if m.input.IsVisible() {
		modal := m.input.View()
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
		}
		return view + "\n\n" + modal
	}
	return view
}

func (m FolderPicker) renderRow(r folderRow, selected bool) string {
	n := r.node

	indent := ""
	if m.filterQuery == "" {
		indent = strings.Repeat("  ", n.depth)
	}

	marker := "  "
	switch {
	case n.loading:
		marker = "… "
	case n.expandable() && n.expanded:
		marker = "▾ "
	case n.expandable():
		marker = "▸ "
	}

	base := styles.NormalItemStyle.UnsetPadding()
	if selected {
		base = styles.SelectedItemStyle.UnsetPadding()
	}
	name := styles.HighlightMatches(n.folder.Name, r.matched, base)

	line := indent + marker + name
	if n.folder.ID == m.defaultID {
		line += " " + styles.DefaultMarkerStyle.Render("(default)")
	}

	if selected {
		return styles.SelectedItemStyle.Render(line)
	}
	return styles.NormalItemStyle.Render(line)
}
