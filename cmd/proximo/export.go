package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rendis/proximo/internal/engine/query"
	"github.com/rendis/proximo/internal/engine/storage"
)

func runExport(args []string) error {
	var dbPath, outputPath, format, filters string
	var lat, lng float64

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to .db file (required)")
	fs.StringVar(&outputPath, "output", "", "Output file path (default: same dir as db)")
	fs.StringVar(&format, "format", "csv", "Export format: csv")
	fs.StringVar(&filters, "filters", "", "View query string, e.g. \"radius=10&avail=1&sort=price\"")
	fs.Float64Var(&lat, "lat", 0, "Reference latitude for distance and radius")
	fs.Float64Var(&lng, "lng", 0, "Reference longitude for distance and radius")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: proximo export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  proximo export -db ./projects/proximo_20260212.db\n")
		fmt.Fprintf(os.Stderr, "  proximo export -db data.db -filters \"avail=1&sort=rating\" -lat 32.78 -lng -96.80\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	if format != "csv" {
		return fmt.Errorf("unsupported format: %s (only csv supported)", format)
	}

	if outputPath == "" {
		dir := filepath.Dir(dbPath)
		base := strings.TrimSuffix(filepath.Base(dbPath), ".db")
		outputPath = filepath.Join(dir, base+".csv")
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening db: %w", err)
	}
	defer store.Close()

	providers, err := store.LoadProviders()
	if err != nil {
		return fmt.Errorf("loading db: %w", err)
	}
	if len(providers) == 0 {
		return fmt.Errorf("no providers found in database")
	}

	// The export runs through the same view pipeline as the TUI, so a
	// shared query string reproduces the exact on-screen list.
	state := query.DecodeString(filters)
	if lat != 0 || lng != 0 {
		state.SetUserLocation(orb.Point{lng, lat})
	}
	list := query.Apply(providers, state)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"id", "name", "city", "state", "lat", "lng", "distance_miles",
		"rating", "rating_count", "price_usd", "tags", "badges",
		"available", "incall", "outcall", "offers_travel", "featured",
		"highest_rated", "highest_review", "phone", "photo_url",
	})

	for _, e := range list {
		coords := []string{"", ""}
		if e.HasCoords {
			coords[0] = fmt.Sprintf("%.6f", e.Lat)
			coords[1] = fmt.Sprintf("%.6f", e.Lng)
		}
		distance := ""
		if e.HasDistance {
			distance = fmt.Sprintf("%.1f", e.DistanceMiles)
		}
		w.Write([]string{
			e.ID,
			e.Name,
			e.City,
			e.State,
			coords[0],
			coords[1],
			distance,
			fmt.Sprintf("%.1f", e.Rating),
			fmt.Sprintf("%d", e.RatingCount),
			fmt.Sprintf("%.0f", e.PriceUSD),
			strings.Join(e.Tags, "|"),
			strings.Join(e.Badges, "|"),
			boolCol(e.Available),
			boolCol(e.Incall),
			boolCol(e.Outcall),
			boolCol(e.OffersTravel),
			boolCol(e.Featured),
			boolCol(e.HighestRated),
			boolCol(e.HighestReview),
			e.Phone,
			e.PhotoURL,
		})
	}

	fmt.Fprintf(os.Stderr, "Exported %d providers to %s\n", len(list), outputPath)
	return nil
}

func boolCol(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
