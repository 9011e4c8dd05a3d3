package directory

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rendis/proximo/internal/engine/storage"
	"github.com/rendis/proximo/internal/model"
)

// Serves 3 pre-located rows in pages so the resolver never goes out to the
// network during the test.
func stubDirectory(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		if offset >= 3 {
			io.WriteString(w, "[]")
			return
		}
		fmt.Fprintf(w, `[{"user_id":"u-%d","slug":"p-%d","display_name":"Provider %d","status":"active","latitude":32.7,"longitude":-96.8}]`,
			offset, offset, offset)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunSyncsAllPages(t *testing.T) {
	srv := stubDirectory(t)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	var seen []model.Provider
	logger := log.New(io.Discard, "", 0)
	params := model.SyncParams{SourceURL: srv.URL, PageSize: 1, Concurrency: 2}

	stats, err := Run(t.Context(), params, store, logger, &RunOptions{
		SuppressStderr: true,
		OnProviders:    func(ps []model.Provider) { seen = append(seen, ps...) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := stats.ProvidersFound.Load(); got != 3 {
		t.Errorf("found = %d; want 3", got)
	}
	if got := stats.ProvidersStored.Load(); got != 3 {
		t.Errorf("stored = %d; want 3", got)
	}
	if len(seen) != 3 {
		t.Errorf("callback saw %d providers; want 3", len(seen))
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("db count = %d; want 3", count)
	}
}

func TestRunHonorsLimit(t *testing.T) {
	srv := stubDirectory(t)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	logger := log.New(io.Discard, "", 0)
	params := model.SyncParams{SourceURL: srv.URL, PageSize: 1, Limit: 2}

	stats, err := Run(t.Context(), params, store, logger, &RunOptions{SuppressStderr: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stats.ProvidersFound.Load(); got != 2 {
		t.Errorf("found = %d; limit must cap the fetch", got)
	}
}

func TestRunPropagatesFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	logger := log.New(io.Discard, "", 0)
	params := model.SyncParams{SourceURL: srv.URL, PageSize: 10}

	if _, err := Run(t.Context(), params, store, logger, &RunOptions{SuppressStderr: true}); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}
