package tui

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rendis/proximo/internal/tui/views"
)

type viewID int

const (
	viewHome viewID = iota
	viewSync
	viewProgress
	viewBrowse
	viewFilePicker
	viewRecent
)

// App is the root bubbletea model.
type App struct {
	currentView viewID
	width       int
	height      int
	home        views.HomeModel
	sync        views.SyncModel
	progress    views.ProgressModel
	browse      views.BrowseModel
	filePicker  views.FilePickerModel
	recent      views.RecentModel
}

func NewApp() App {
	return App{
		currentView: viewHome,
		home:        views.NewHomeModel(),
		sync:        views.NewSyncModel(),
	}
}

func (a App) Init() tea.Cmd {
	return a.home.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && a.currentView != viewProgress {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case views.NavigateToSync:
		a.currentView = viewSync
		a.sync = views.NewSyncModel()
		return a, a.sync.Init()
	case views.NavigateToHome:
		a.currentView = viewHome
		return a, nil
	case views.NavigateToLoad:
		a.currentView = viewFilePicker
		a.filePicker = views.NewFilePickerModel()
		return a, a.filePicker.Init()
	case views.StartSyncMsg:
		a.currentView = viewProgress
		a.progress = views.NewProgressModel(msg)
		return a, tea.Batch(a.progress.Init(), a.sizeCmd())
	case views.NavigateToBrowse:
		a.currentView = viewBrowse
		queryStr := msg.Query
		if queryStr == "" {
			queryStr = savedQueryFor(msg.DBPath)
		}
		a.browse = views.NewBrowseModel(msg.DBPath, queryStr)
		SaveRecent(msg.DBPath)
		return a, tea.Batch(a.browse.Init(), a.sizeCmd())
	case views.QuerySavedMsg:
		// Leaving browse: persist the view state, then go home
		SaveRecentQuery(msg.DBPath, msg.Query)
		a.currentView = viewHome
		return a, nil
	case views.NavigateToRecent:
		a.currentView = viewRecent
		entries := LoadRecent()
		var recentEntries []views.RecentEntry
		for _, e := range entries {
			recentEntries = append(recentEntries, views.RecentEntry{
				Path:     e.Path,
				Query:    e.Query,
				OpenedAt: e.OpenedAt,
			})
		}
		a.recent = views.NewRecentModel(recentEntries)
		return a, a.recent.Init()
	}

	var cmd tea.Cmd
	switch a.currentView {
	case viewHome:
		var m tea.Model
		m, cmd = a.home.Update(msg)
		a.home = m.(views.HomeModel)
	case viewSync:
		var m tea.Model
		m, cmd = a.sync.Update(msg)
		a.sync = m.(views.SyncModel)
	case viewProgress:
		var m tea.Model
		m, cmd = a.progress.Update(msg)
		a.progress = m.(views.ProgressModel)
	case viewBrowse:
		var m tea.Model
		m, cmd = a.browse.Update(msg)
		a.browse = m.(views.BrowseModel)
	case viewFilePicker:
		var m tea.Model
		m, cmd = a.filePicker.Update(msg)
		a.filePicker = m.(views.FilePickerModel)
	case viewRecent:
		var m tea.Model
		m, cmd = a.recent.Update(msg)
		a.recent = m.(views.RecentModel)
	}

	return a, cmd
}

func (a App) View() string {
	var content string
	switch a.currentView {
	case viewHome:
		content = a.home.View()
	case viewSync:
		content = a.sync.View()
	case viewProgress:
		content = a.progress.View()
	case viewBrowse:
		content = a.browse.View()
	case viewFilePicker:
		content = a.filePicker.View()
	case viewRecent:
		content = a.recent.View()
	}

	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// sizeCmd sends a WindowSizeMsg so newly created views get the current terminal size.
func (a App) sizeCmd() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

func savedQueryFor(dbPath string) string {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}
	for _, e := range LoadRecent() {
		if e.Path == abs {
			return e.Query
		}
	}
	return ""
}

// Run starts the TUI.
func Run() error {
	p := tea.NewProgram(NewApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
