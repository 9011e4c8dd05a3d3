package views

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/proximo/internal/engine/geo"
	"github.com/rendis/proximo/internal/engine/query"
	"github.com/rendis/proximo/internal/engine/resolver"
	"github.com/rendis/proximo/internal/engine/storage"
	"github.com/rendis/proximo/internal/model"
	"github.com/rendis/proximo/internal/tui/components"
	"github.com/rendis/proximo/internal/tui/styles"
)

type focusArea int

const (
	focusTable focusArea = iota
	focusFilter
	focusCard
	focusMap
)

// BrowseModel displays the provider directory with the filter/sort/radius
// controls, a detail card, and a pin map.
type BrowseModel struct {
	dbPath    string
	providers []model.Provider

	state   query.State
	list    []query.Enriched // filtered + sorted
	visible []query.Enriched // paginated prefix of list

	table   table.Model
	filter  textinput.Model
	mapView MapPanel
	focus   focusArea

	selected  int
	width     int
	height    int
	err       error
	total     int
	status    string
	locating  bool
	cardLines []string
}

type dbLoadedMsg struct {
	Providers []model.Provider
	Err       error
}

type locatedMsg struct {
	Point orb.Point
	Label string
	Err   error
}

// QuerySavedMsg asks the app to persist the current view state with the
// recents entry for this db.
type QuerySavedMsg struct {
	DBPath string
	Query  string
}

func NewBrowseModel(dbPath, queryStr string) BrowseModel {
	filter := textinput.New()
	filter.Placeholder = "Type to filter..."
	filter.CharLimit = 50

	return BrowseModel{
		dbPath:   dbPath,
		filter:   filter,
		state:    query.DecodeString(queryStr),
		selected: -1,
		mapView:  NewMapPanel(),
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return func() tea.Msg {
		store, err := storage.NewStore(m.dbPath)
		if err != nil {
			return dbLoadedMsg{Err: err}
		}
		defer store.Close()
		providers, err := store.LoadProviders()
		return dbLoadedMsg{Providers: providers, Err: err}
	}
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case dbLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.providers = msg.Providers
		m.total = len(m.providers)
		m.recompute(true)
		return m, nil

	case locatedMsg:
		m.locating = false
		switch {
		case errors.Is(msg.Err, resolver.ErrLocationDenied):
			m.status = "Location denied by the service; distance features stay off"
		case msg.Err != nil:
			m.status = "Could not get location; press u to retry"
		default:
			m.state.SetUserLocation(msg.Point)
			m.status = "Located: " + msg.Label
			m.recompute(true)
		}
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusTable:
			if handled, next, cmd := m.handleTableKey(key); handled {
				return next, cmd
			}
		case focusFilter:
			switch key {
			case "esc", "enter", "tab":
				m.focus = focusTable
				m.filter.Blur()
				return m, nil
			}
		case focusCard:
			if key == "esc" {
				m.focus = focusTable
				return m, nil
			}
		case focusMap:
			switch key {
			case "esc":
				m.focus = focusTable
				return m, nil
			case "+", "=":
				m.mapView.view.ZoomIn()
				return m, nil
			case "-":
				m.mapView.view.ZoomOut()
				return m, nil
			case "0":
				m.mapView.view.ZoomReset()
				return m, nil
			case "up", "k":
				m.mapView.view.Pan(1, 0)
				return m, nil
			case "down", "j":
				m.mapView.view.Pan(-1, 0)
				return m, nil
			case "left", "h":
				m.mapView.view.Pan(0, -1)
				return m, nil
			case "right", "l":
				m.mapView.view.Pan(0, 1)
				return m, nil
			}
		}
	}

	// Route input to focused area
	var cmd tea.Cmd
	switch m.focus {
	case focusTable:
		m.table, cmd = m.table.Update(msg)
		cursor := m.table.Cursor()
		if cursor != m.selected && cursor < len(m.visible) {
			m.selected = cursor
			m.cacheCard()
		}
	case focusFilter:
		m.filter, cmd = m.filter.Update(msg)
		m.recompute(true)
	}

	return m, cmd
}

// handleTableKey handles the browse keybindings. Returns handled=false for
// keys that should fall through to the table (cursor movement).
func (m BrowseModel) handleTableKey(key string) (bool, tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		queryStr := query.EncodeString(m.state)
		dbPath := m.dbPath
		return true, m, func() tea.Msg {
			return QuerySavedMsg{DBPath: dbPath, Query: queryStr}
		}
	case "/":
		m.focus = focusFilter
		m.filter.Focus()
		return true, m, textinput.Blink
	case "1":
		m.focus = focusCard
		return true, m, nil
	case "2":
		if m.state.ShowMap {
			m.focus = focusMap
		}
		return true, m, nil

	case "a":
		m.state.Toggle("available")
	case "i":
		m.state.Toggle("incall")
	case "o":
		m.state.Toggle("outcall")
	case "v":
		m.state.Toggle("verified")
	case "f":
		m.state.Toggle("featured")
	case "t":
		m.state.Toggle("travel")

	case "s":
		next := query.NextSortKey(m.state.Sort)
		if m.state.SetSort(next) && !m.locating {
			m.locating = true
			m.status = "Locating..."
			m.recompute(true)
			return true, m, locateCmd()
		}

	case "u":
		if !m.locating {
			m.locating = true
			m.status = "Locating..."
			return true, m, locateCmd()
		}
		return true, m, nil

	case "+", "=":
		m.state.SetRadius(m.state.RadiusMiles + 5)
	case "-":
		r := m.state.RadiusMiles - 5
		if r < 5 {
			r = 5
		}
		m.state.SetRadius(r)
	case "[":
		m.state.SetPriceMin(m.state.PriceMin - 10)
	case "]":
		m.state.SetPriceMin(m.state.PriceMin + 10)
	case "{":
		m.state.SetPriceMax(m.state.PriceMax - 10)
	case "}":
		m.state.SetPriceMax(m.state.PriceMax + 10)

	case "m":
		m.state.ShowMap = !m.state.ShowMap
		m.state.ResetPage()

	case "L":
		m.state.GrowPage(len(m.list))
		m.recompute(false)
		return true, m, nil

	case "down", "j":
		// Load more when stepping past the visible prefix
		if m.table.Cursor() >= len(m.visible)-1 && len(m.visible) < len(m.list) {
			m.state.GrowPage(len(m.list))
			m.recompute(false)
			return true, m, nil
		}
		return false, m, nil

	case "e":
		m.exportCSV()
		return true, m, nil
	case "c":
		m.copyShareString()
		return true, m, nil

	default:
		return false, m, nil
	}

	m.recompute(true)
	return true, m, nil
}

func locateCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pt, label, err := resolver.NewLocator().Locate(ctx)
		return locatedMsg{Point: pt, Label: label, Err: err}
	}
}

// recompute runs the full view pipeline: free-text filter, structured
// filters, sort, pagination, map pins. resetCursor moves selection back to
// the top (any change other than loading more rows).
func (m *BrowseModel) recompute(resetCursor bool) {
	base := m.textFiltered()
	m.list = query.Apply(base, m.state)
	m.visible = query.Page(m.list, m.state.VisibleCount)
	m.buildTable()

	if resetCursor {
		m.table.SetCursor(0)
		m.selected = -1
	}
	if len(m.visible) > 0 {
		if m.selected < 0 || m.selected >= len(m.visible) {
			m.selected = 0
		}
	} else {
		m.selected = -1
	}
	m.cacheCard()
	m.updateMap()
}

func (m *BrowseModel) textFiltered() []model.Provider {
	raw := strings.TrimSpace(m.filter.Value())
	if raw == "" {
		return m.providers
	}

	words := strings.Fields(normalize(raw))
	var out []model.Provider
	for _, p := range m.providers {
		haystack := normalize(strings.Join([]string{
			p.Name, p.City, p.State, p.RawLocation, strings.Join(p.Tags, " "),
		}, " "))
		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, p)
		}
	}
	return out
}

func (m *BrowseModel) updateMap() {
	pins := query.MapPins(m.list, 0)
	m.mapView.SetPins(pins)

	if m.state.UserLocation != nil {
		m.mapView.SetUser(*m.state.UserLocation, m.state.RadiusMiles)
	} else {
		m.mapView.ClearUser()
	}
}

func (m *BrowseModel) cacheCard() {
	if m.selected < 0 || m.selected >= len(m.visible) {
		m.cardLines = nil
		return
	}
	m.cardLines = buildCardLines(m.visible[m.selected])
}

func buildCardLines(e query.Enriched) []string {
	var lines []string

	lines = append(lines, e.Name)

	r := fmt.Sprintf("%.1f", e.Rating)
	if e.RatingCount > 0 {
		r += fmt.Sprintf(" (%d reviews)", e.RatingCount)
	}
	lines = append(lines, r)

	var flags []string
	if e.Available {
		flags = append(flags, "Available")
	}
	if e.Incall {
		flags = append(flags, "Incall")
	}
	if e.Outcall {
		flags = append(flags, "Outcall")
	}
	if e.OffersTravel {
		flags = append(flags, "Travels")
	}
	if e.Featured {
		flags = append(flags, "Featured")
	}
	if e.Verified() {
		flags = append(flags, "Verified")
	}
	if e.HighestRated {
		flags = append(flags, "Top Rated")
	}
	if e.HighestReview {
		flags = append(flags, "Most Reviewed")
	}
	if len(flags) > 0 {
		lines = append(lines, strings.Join(flags, " · "))
	}

	lines = append(lines, "")

	addRow := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("%-10s %s", label, value))
		}
	}

	addRow("Location:", e.Location())
	if e.HasDistance {
		addRow("Distance:", fmt.Sprintf("%.1f mi", e.DistanceMiles))
	}
	addRow("Price:", fmt.Sprintf("$%.0f starting", e.PriceUSD))
	if len(e.Tags) > 0 {
		addRow("Services:", strings.Join(e.Tags, ", "))
	}
	addRow("Phone:", e.Phone)
	if e.Phone != "" {
		addRow("WhatsApp:", e.WhatsAppURL())
	}
	addRow("Profile:", e.ProfilePath())
	if e.HasCoords {
		addRow("Coords:", fmt.Sprintf("%.6f, %.6f", e.Lat, e.Lng))
	}

	return lines
}

func (m *BrowseModel) buildTable() {
	nameW := 24
	locW := 18
	distW := 8
	ratingW := 6
	priceW := 7
	tagsW := 18
	if m.width > 110 {
		extra := m.width - 110
		nameW += extra * 3 / 10
		locW += extra * 2 / 10
		tagsW += extra * 3 / 10
	}

	columns := []table.Column{
		{Title: "Name", Width: nameW},
		{Title: "Location", Width: locW},
		{Title: "Dist", Width: distW},
		{Title: "Rating", Width: ratingW},
		{Title: "Price", Width: priceW},
		{Title: "Services", Width: tagsW},
	}

	rows := make([]table.Row, len(m.visible))
	for i, e := range m.visible {
		dist := "–"
		if e.HasDistance {
			dist = fmt.Sprintf("%.1f mi", e.DistanceMiles)
		}
		rows[i] = table.Row{
			truncate(e.Name, nameW),
			truncate(e.Location(), locW),
			dist,
			fmt.Sprintf("%.1f", e.Rating),
			fmt.Sprintf("$%.0f", e.PriceUSD),
			truncate(strings.Join(e.Tags, ", "), tagsW),
		}
	}

	cursor := 0
	if m.table.Cursor() < len(rows) {
		cursor = m.table.Cursor()
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	t.SetStyles(tableStyles())
	t.SetCursor(cursor)
	m.table = t
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Bold(true)
	return s
}

func (m BrowseModel) tableHeight() int {
	h := m.height/2 - 5
	if h < 5 {
		h = 5
	}
	return h
}

func (m *BrowseModel) updateLayout() {
	if m.width <= 0 {
		return
	}
	m.mapView.SetSize(m.width/2-6, m.height/2-8)
	m.buildTable()
}

// normalize removes accents/diacritics and lowercases text for fuzzy matching.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, _ := transform.String(t, strings.ToLower(s))
	return result
}

func (m BrowseModel) View() string {
	if m.err != nil {
		return styles.ErrorText.Render(fmt.Sprintf("Error loading DB: %v", m.err))
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Browse: %d providers", m.total)))
	if len(m.list) != m.total {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
			Render(fmt.Sprintf(" (%d match)", len(m.list))))
	}
	b.WriteString("\n")

	b.WriteString(m.renderChips())
	b.WriteString("\n")

	// Free-text filter
	filterStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	if m.focus == focusFilter {
		filterStyle = lipgloss.NewStyle().Foreground(styles.Primary)
	}
	b.WriteString(filterStyle.Render("Filter: "))
	b.WriteString(m.filter.View())
	b.WriteString("\n")

	// Table
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if len(m.list) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("  No providers match these filters"))
		b.WriteString("\n")
	} else if len(m.visible) < len(m.list) {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
			Render(fmt.Sprintf("  showing %d of %d · L load more", len(m.visible), len(m.list))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Detail card + map
	b.WriteString(m.renderPanels())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Render(m.status))
		b.WriteString("\n")
	}

	var statusText string
	switch m.focus {
	case focusTable:
		statusText = "a/i/o/v/f/t filters • s sort • +- radius • [] {} price • u locate • m map • / search • e export • c copy link • esc back"
	case focusFilter:
		statusText = "type to filter • esc back"
	case focusCard:
		statusText = "esc back to table"
	case focusMap:
		statusText = "+- zoom • arrows pan • 0 reset • esc back"
	}
	b.WriteString(styles.StatusBar.Render(statusText))

	return b.String()
}

// renderChips shows the active structured filters in one line.
func (m BrowseModel) renderChips() string {
	on := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	off := lipgloss.NewStyle().Foreground(styles.Muted)

	chip := func(label string, active bool) string {
		if active {
			return on.Render("[" + label + "]")
		}
		return off.Render(label)
	}

	parts := []string{
		chip("avail", m.state.AvailableOnly),
		chip("incall", m.state.IncallOnly),
		chip("outcall", m.state.OutcallOnly),
		chip("verified", m.state.VerifiedOnly),
		chip("featured", m.state.FeaturedOnly),
		chip("travel", m.state.TravelOnly),
		off.Render("·"),
		on.Render(fmt.Sprintf("sort:%s", m.state.Sort)),
		off.Render(fmt.Sprintf("radius:%.0fmi", m.state.RadiusMiles)),
		off.Render(fmt.Sprintf("$%.0f-%.0f", m.state.PriceMin, m.state.PriceMax)),
	}
	if m.state.UserLocation == nil {
		parts = append(parts, off.Render("(no location: radius off)"))
	}

	return strings.Join(parts, " ")
}

func (m BrowseModel) renderPanels() string {
	panelH := m.height/2 - 8
	if panelH < 6 {
		panelH = 6
	}
	detailW := m.width - 2
	if detailW < 40 {
		detailW = 40
	}

	cardOuterW := detailW / 2
	cardBorderColor := styles.Muted
	if m.focus == focusCard {
		cardBorderColor = styles.Primary
	}
	cardContent := m.viewCard(cardOuterW-4, panelH)
	cardBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cardBorderColor).
		Padding(0, 1).
		Width(cardOuterW - 2).
		Height(panelH).
		Render(cardContent)
	cardLabel := lipgloss.NewStyle().Bold(true).Foreground(cardBorderColor).Render("[1] Details")
	cardBox = cardLabel + "\n" + cardBox

	if !m.state.ShowMap {
		return cardBox
	}

	mapOuterW := detailW - cardOuterW - 1
	mapBorderColor := styles.Muted
	if m.focus == focusMap {
		mapBorderColor = styles.Primary
	}
	mapBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mapBorderColor).
		Padding(0, 1).
		Width(mapOuterW - 2).
		Height(panelH).
		Render(m.mapView.View())
	mapLabel := lipgloss.NewStyle().Bold(true).Foreground(mapBorderColor).
		Render(fmt.Sprintf("[2] Map (%d pins)", m.mapView.PinCount()))
	mapBox = mapLabel + "\n" + mapBox

	return lipgloss.JoinHorizontal(lipgloss.Top, cardBox, " ", mapBox)
}

func (m BrowseModel) viewCard(w, h int) string {
	if len(m.cardLines) == 0 {
		return lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("Select a provider\nto view details")
	}

	lines := m.cardLines
	if len(lines) > h {
		lines = lines[:h]
	}

	label := lipgloss.NewStyle().Foreground(styles.Muted)
	valStyle := lipgloss.NewStyle().Foreground(styles.Text)

	var sb strings.Builder
	for i, line := range lines {
		switch {
		case i == 0:
			sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(styles.Text).
				Render(truncate(line, w)))
		case i == 1:
			sb.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).
				Render(truncate(line, w)))
		case strings.HasPrefix(line, "WhatsApp:") || strings.HasPrefix(line, "Profile:"):
			parts := strings.SplitN(line, " ", 2)
			val := ""
			if len(parts) > 1 {
				val = strings.TrimSpace(parts[1])
			}
			sb.WriteString(label.Render(fmt.Sprintf("%-10s ", parts[0])))
			sb.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).
				Render(truncate(val, w-11)))
		default:
			sb.WriteString(valStyle.Render(truncate(line, w)))
		}
		if i < len(lines)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m *BrowseModel) copyShareString() {
	share := query.EncodeString(m.state)
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(share)
	if err := cmd.Run(); err != nil {
		m.status = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.status = "View link copied: " + share
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func (m *BrowseModel) exportCSV() {
	dir := filepath.Dir(m.dbPath)
	base := strings.TrimSuffix(filepath.Base(m.dbPath), ".db")
	csvPath := filepath.Join(dir, base+".csv")

	f, err := os.Create(csvPath)
	if err != nil {
		m.status = fmt.Sprintf("Export error: %v", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"id", "name", "city", "state", "lat", "lng", "distance_miles",
		"rating", "rating_count", "price_usd", "tags", "available",
		"incall", "outcall", "offers_travel", "featured",
		"highest_rated", "highest_review", "phone",
	})

	for _, e := range m.list {
		lat, lng := "", ""
		if e.HasCoords {
			lat = fmt.Sprintf("%.6f", e.Lat)
			lng = fmt.Sprintf("%.6f", e.Lng)
		}
		dist := ""
		if e.HasDistance {
			dist = fmt.Sprintf("%.1f", e.DistanceMiles)
		}
		w.Write([]string{
			e.ID, e.Name, e.City, e.State, lat, lng, dist,
			fmt.Sprintf("%.1f", e.Rating),
			fmt.Sprintf("%d", e.RatingCount),
			fmt.Sprintf("%.0f", e.PriceUSD),
			strings.Join(e.Tags, "|"),
			flag(e.Available), flag(e.Incall), flag(e.Outcall),
			flag(e.OffersTravel), flag(e.Featured),
			flag(e.HighestRated), flag(e.HighestReview),
			e.Phone,
		})
	}

	m.status = fmt.Sprintf("Exported %d rows to %s", len(m.list), csvPath)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// MapPanel wraps the braille map with the provider pin and user marker
// plumbing used by the browse view.
type MapPanel struct {
	view     components.MapView
	pinCount int
}

func NewMapPanel() MapPanel {
	return MapPanel{view: components.NewMapView(40, 12)}
}

func (p *MapPanel) SetSize(w, h int) {
	if w < 20 {
		w = 20
	}
	if h < 6 {
		h = 6
	}
	p.view.SetSize(w, h)
}

func (p *MapPanel) SetPins(pins []query.Enriched) {
	p.pinCount = len(pins)
	pts := make([]components.Point, 0, len(pins))
	for _, e := range pins {
		pts = append(pts, components.Point{Lat: e.Lat, Lng: e.Lng})
	}
	p.view.SetPoints(pts)
}

// SetUser places the user marker and a ring at radiusMiles around it.
func (p *MapPanel) SetUser(loc orb.Point, radiusMiles float64) {
	marker := components.Point{Lat: loc[1], Lng: loc[0]}
	p.view.SetMarker(&marker)

	if radiusMiles <= 0 {
		p.view.SetRing(nil)
		return
	}
	const segments = 72
	ring := make([]components.Point, 0, segments)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / segments
		pt := geo.OffsetMiles(loc, radiusMiles*math.Cos(theta), radiusMiles*math.Sin(theta))
		ring = append(ring, components.Point{Lat: pt[1], Lng: pt[0]})
	}
	p.view.SetRing(ring)
}

func (p *MapPanel) ClearUser() {
	p.view.SetMarker(nil)
	p.view.SetRing(nil)
}

func (p MapPanel) PinCount() int { return p.pinCount }

func (p MapPanel) View() string { return p.view.View() }
