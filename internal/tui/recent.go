package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const maxRecent = 10

type RecentEntry struct {
	Path     string    `json:"path"`
	Query    string    `json:"query,omitempty"`
	OpenedAt time.Time `json:"opened_at"`
}

func recentFilePath() string {
	cfg, _ := os.UserConfigDir()
	return filepath.Join(cfg, "proximo", "recent.json")
}

func LoadRecent() []RecentEntry {
	data, err := os.ReadFile(recentFilePath())
	if err != nil {
		return nil
	}
	var entries []RecentEntry
	json.Unmarshal(data, &entries)
	return entries
}

// SaveRecent records dbPath at the top of the recents list, keeping any view
// query string already saved for it.
func SaveRecent(dbPath string) {
	saveRecent(dbPath, "", true)
}

// SaveRecentQuery records dbPath along with the encoded view state, so
// reopening the project restores the same filters and sort.
func SaveRecentQuery(dbPath, query string) {
	saveRecent(dbPath, query, false)
}

func saveRecent(dbPath, query string, keepQuery bool) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}

	entries := LoadRecent()

	filtered := make([]RecentEntry, 0, len(entries))
	for _, e := range entries {
		if e.Path == abs {
			if keepQuery {
				query = e.Query
			}
			continue
		}
		filtered = append(filtered, e)
	}

	filtered = append([]RecentEntry{{Path: abs, Query: query, OpenedAt: time.Now()}}, filtered...)
	if len(filtered) > maxRecent {
		filtered = filtered[:maxRecent]
	}

	data, _ := json.MarshalIndent(filtered, "", "  ")
	dir := filepath.Dir(recentFilePath())
	os.MkdirAll(dir, 0755)
	os.WriteFile(recentFilePath(), data, 0644)
}
