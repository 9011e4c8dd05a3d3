package views

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rendis/proximo/internal/engine/directory"
	"github.com/rendis/proximo/internal/engine/storage"
	"github.com/rendis/proximo/internal/model"
	"github.com/rendis/proximo/internal/tui/styles"
)

// sharedState holds data shared between the sync goroutine and TUI.
// Lives behind a pointer so it survives bubbletea's value copies.
type sharedState struct {
	mu     sync.Mutex
	stats  *directory.Stats
	cancel context.CancelFunc
}

// ProgressModel manages the sync progress view.
type ProgressModel struct {
	params      model.SyncParams
	progress    progress.Model
	spinner     spinner.Model
	startTime   time.Time
	done        bool
	confirmQuit bool
	err         error
	dbPath      string
	logPath     string
	width       int
	height      int
	shared      *sharedState
}

// Messages
type progressTickMsg time.Time

type syncCompleteMsg struct {
	Err error
}

func NewProgressModel(msg StartSyncMsg) ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	m := ProgressModel{
		progress:  p,
		spinner:   sp,
		startTime: time.Now(),
		shared:    &sharedState{},
	}

	m.params.SourceURL = msg.Source
	m.params.APIKey = msg.APIKey
	m.params.Limit, _ = strconv.Atoi(msg.Limit)
	m.params.PageSize, _ = strconv.Atoi(msg.PageSize)
	if m.params.PageSize <= 0 {
		m.params.PageSize = 100
	}
	m.params.Concurrency, _ = strconv.Atoi(msg.Concurrency)
	if m.params.Concurrency <= 0 {
		m.params.Concurrency = 10
	}

	// Setup output paths
	ts := time.Now().Format("20060102_150405")
	baseName := fmt.Sprintf("proximo_%s", ts)
	outDir := msg.Output
	os.MkdirAll(outDir, 0755)
	m.dbPath = filepath.Join(outDir, baseName+".db")
	m.logPath = filepath.Join(outDir, baseName+".log")
	m.params.DBPath = m.dbPath

	return m
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.startSync(),
		m.spinner.Tick,
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m ProgressModel) startSync() tea.Cmd {
	shared := m.shared
	params := m.params
	dbPath := m.dbPath
	logPath := m.logPath

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())

		store, err := storage.NewStore(dbPath)
		if err != nil {
			cancel()
			return syncCompleteMsg{Err: err}
		}

		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			store.Close()
			cancel()
			return syncCompleteMsg{Err: err}
		}
		logger := log.New(logFile, "", log.LstdFlags)

		stats := &directory.Stats{}

		// Store into shared state (survives bubbletea value copies)
		shared.mu.Lock()
		shared.stats = stats
		shared.cancel = cancel
		shared.mu.Unlock()

		_, runErr := directory.Run(ctx, params, store, logger, &directory.RunOptions{
			SuppressStderr: true,
			Stats:          stats,
		})

		logFile.Close()
		store.Close()

		return syncCompleteMsg{Err: runErr}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if cancel := m.shared.getCancel(); cancel != nil {
				cancel()
			}
			return m, tea.Quit
		case "esc":
			if m.done {
				return m, func() tea.Msg {
					return NavigateToBrowse{DBPath: m.dbPath}
				}
			}
			if m.confirmQuit {
				// Second esc: cancel and go home
				if cancel := m.shared.getCancel(); cancel != nil {
					cancel()
				}
				return m, func() tea.Msg { return NavigateToHome{} }
			}
			// First esc: show confirmation
			m.confirmQuit = true
			return m, nil
		case "enter":
			if m.done {
				return m, func() tea.Msg {
					return NavigateToBrowse{DBPath: m.dbPath}
				}
			}
			if m.confirmQuit {
				m.confirmQuit = false
				return m, nil
			}
		}
		// Any other key cancels the confirmation
		if m.confirmQuit {
			m.confirmQuit = false
		}
	case progressTickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case syncCompleteMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	var pModel tea.Model
	pModel, cmd = m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Syncing: %s", m.params.SourceURL)))
	b.WriteString("\n\n")

	// Stats
	statsContent := m.renderStats()
	statsBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Muted).
		Padding(0, 1).
		Width(34).
		Render(statsContent)
	b.WriteString(statsBox)
	b.WriteString("\n\n")

	// With a limit we can show real progress; without one the total is
	// unknown until the final short page, so spin instead.
	stats := m.shared.getStats()
	if m.params.Limit > 0 {
		var pct float64
		if stats != nil {
			pct = float64(stats.ProvidersFound.Load()) / float64(m.params.Limit)
			if pct > 1 {
				pct = 1
			}
		}
		b.WriteString(m.progress.ViewAs(pct))
	} else if !m.done {
		b.WriteString(m.spinner.View())
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render(" fetching..."))
	}
	b.WriteString("\n\n")

	// Status
	if m.done {
		if m.err != nil && !errors.Is(m.err, context.Canceled) {
			b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			total := int64(0)
			if stats != nil {
				total = stats.ProvidersStored.Load()
			}
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Bold(true).
				Render(fmt.Sprintf("Complete! %d providers stored", total)))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
				Render(fmt.Sprintf("Database: %s", m.dbPath)))
		}
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("enter browse results • esc back"))
	} else if m.confirmQuit {
		b.WriteString(styles.ErrorText.Render("Press ESC again to stop the sync and go back"))
		b.WriteString("\n")
		b.WriteString(styles.StatusBar.Render("esc confirm stop • any key continue"))
	} else {
		b.WriteString(styles.StatusBar.Render("esc cancel • ctrl+c quit"))
	}

	return b.String()
}

func (m ProgressModel) renderStats() string {
	var sb strings.Builder
	elapsed := time.Since(m.startTime).Truncate(time.Second)

	var pages, found, stored, located, partial, unplaced, errors, rateLimits int64

	stats := m.shared.getStats()
	if stats != nil {
		pages = stats.PagesDone.Load()
		found = stats.ProvidersFound.Load()
		stored = stats.ProvidersStored.Load()
		located = stats.Resolve.Located.Load()
		partial = stats.Resolve.Partial.Load()
		unplaced = stats.Resolve.Unplaced.Load()
		errors = stats.Errors.Load()
		rateLimits = stats.RateLimits.Load()
	}

	statLabel := lipgloss.NewStyle().Foreground(styles.Muted).Width(12)
	statVal := lipgloss.NewStyle().Foreground(styles.Text).Bold(true)

	row := func(label string, value string) {
		sb.WriteString(statLabel.Render(label))
		sb.WriteString(statVal.Render(value))
		sb.WriteString("\n")
	}

	row("Pages:", fmt.Sprintf("%d", pages))
	row("Found:", fmt.Sprintf("%d", found))
	row("Stored:", fmt.Sprintf("%d", stored))
	row("Located:", fmt.Sprintf("%d", located))
	if partial > 0 {
		row("Partial:", fmt.Sprintf("%d", partial))
	}
	if unplaced > 0 {
		row("Unplaced:", fmt.Sprintf("%d", unplaced))
	}

	errStyle := statVal
	if errors > 0 {
		errStyle = lipgloss.NewStyle().Foreground(styles.Error).Bold(true)
	}
	sb.WriteString(statLabel.Render("Errors:"))
	sb.WriteString(errStyle.Render(fmt.Sprintf("%d", errors)))
	sb.WriteString("\n")

	if rateLimits > 0 {
		rlStyle := lipgloss.NewStyle().Foreground(styles.Warning).Bold(true)
		sb.WriteString(statLabel.Render("Rate Lim:"))
		sb.WriteString(rlStyle.Render(fmt.Sprintf("%d", rateLimits)))
		sb.WriteString("\n")
	}

	row("Elapsed:", elapsed.String())

	return sb.String()
}

func (s *sharedState) getCancel() context.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel
}

func (s *sharedState) getStats() *directory.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// NavigateToBrowse signals transition to the browse view.
type NavigateToBrowse struct {
	DBPath string
	Query  string
}
