package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rendis/proximo/internal/engine/directory"
	"github.com/rendis/proximo/internal/engine/storage"
	"github.com/rendis/proximo/internal/model"
	"github.com/rendis/proximo/internal/tui"
)

func runSync(args []string) error {
	// .env supplies source credentials when flags are absent. Missing file
	// is fine.
	godotenv.Load()

	var params model.SyncParams
	var outputDir string

	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	fs.StringVar(&outputDir, "output", "", "Output directory for project files (required)")
	fs.StringVar(&params.SourceURL, "source", os.Getenv("PROXIMO_API_URL"), "Directory API base URL")
	fs.StringVar(&params.APIKey, "api-key", os.Getenv("PROXIMO_API_KEY"), "Directory API key")
	fs.IntVar(&params.Limit, "limit", 0, "Max records to fetch (0 = all)")
	fs.IntVar(&params.PageSize, "page-size", 100, "Records per API page")
	fs.IntVar(&params.Concurrency, "concurrency", 10, "Max concurrent geocoding requests")
	fs.StringVar(&params.ProxyURL, "proxy", "", "HTTP/SOCKS5 proxy URL")
	fs.BoolVar(&params.Debug, "debug", false, "Dump raw API pages")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: proximo sync [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  proximo sync -output ./projects\n")
		fmt.Fprintf(os.Stderr, "  proximo sync -source https://api.example.com -api-key KEY -limit 500 -output ./projects\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if params.SourceURL == "" {
		return fmt.Errorf("-source or PROXIMO_API_URL is required")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	// Timestamped filenames keep repeated syncs side by side
	ts := time.Now().Format("20060102_150405")
	baseName := fmt.Sprintf("proximo_%s", ts)
	params.DBPath = filepath.Join(outputDir, baseName+".db")
	logPath := filepath.Join(outputDir, baseName+".log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)
	logger.Printf("=== Session start: source=%s limit=%d page_size=%d concurrency=%d ===",
		params.SourceURL, params.Limit, params.PageSize, params.Concurrency)

	fmt.Fprintf(os.Stderr, "Log: %s\n", logPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	store, err := storage.NewStore(params.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	startTime := time.Now()
	fmt.Fprintf(os.Stderr, "Syncing from %s (page_size=%d, concurrency=%d)\n",
		params.SourceURL, params.PageSize, params.Concurrency)

	stats, err := directory.Run(ctx, params, store, logger, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("syncing: %w", err)
	}

	duration := time.Since(startTime).Truncate(time.Second)
	total, _ := store.Count()

	logger.Printf("Done: found=%d stored=%d located=%d partial=%d unplaced=%d errors=%d total_in_db=%d",
		stats.ProvidersFound.Load(), stats.ProvidersStored.Load(),
		stats.Resolve.Located.Load(), stats.Resolve.Partial.Load(),
		stats.Resolve.Unplaced.Load(), stats.Errors.Load(), total)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Proximo Sync Complete\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Source:     %s\n", params.SourceURL)
	fmt.Fprintf(os.Stderr, "  Found:      %d\n", stats.ProvidersFound.Load())
	fmt.Fprintf(os.Stderr, "  Stored:     %d (unique)\n", total)
	fmt.Fprintf(os.Stderr, "  Located:    %d (+%d partial)\n",
		stats.Resolve.Located.Load(), stats.Resolve.Partial.Load())
	fmt.Fprintf(os.Stderr, "  Unplaced:   %d\n", stats.Resolve.Unplaced.Load())
	fmt.Fprintf(os.Stderr, "  Errors:     %d\n", stats.Errors.Load())
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", duration)
	fmt.Fprintf(os.Stderr, "  Database:   %s\n", params.DBPath)
	fmt.Fprintf(os.Stderr, "  Log:        %s\n", logPath)
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")

	tui.SaveRecent(params.DBPath)

	return nil
}
