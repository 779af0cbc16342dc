// Command areapolygon benchmarks the rasterizer against named,
// MMSI-independent polygons (harbor limits, anchorage zones), loading
// polygon definitions from a JSON file, rasterizing each at every
// configured zoom, and writing an HTML report of the resulting cell
// counts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sealane-data/aistrace/internal/aisconfig"
	"github.com/sealane-data/aistrace/internal/area"
	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/raster"
	"github.com/sealane-data/aistrace/internal/security"
	"github.com/sealane-data/aistrace/internal/store"
	"github.com/sealane-data/aistrace/internal/tilecodec"
)

// polygonDef is the on-disk shape of one benchmark polygon: a name and a
// ring of [lon, lat] pairs.
type polygonDef struct {
	Name    string       `json:"name"`
	Polygon [][2]float64 `json:"polygon"`
}

func main() {
	dbPath := flag.String("db", "aistrace.db", "path to sqlite database")
	polygonsPath := flag.String("polygons", "", "JSON file of named benchmark polygons to load before benchmarking")
	zoomsFlag := flag.String("zooms", "13,17,21", "comma-separated zoom levels to benchmark")
	mode := flag.String("polygon-mode", string(aisconfig.ModeSupercover), "rasterization mode: supercover or center-test")
	reportPath := flag.String("report", "area_report.html", "path to write the HTML report")
	flag.Parse()

	db, err := store.NewDBWithMigrationCheck(*dbPath, true)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	s := store.NewSQLiteStore(db)
	ctx := context.Background()

	if *polygonsPath != "" {
		if err := loadPolygons(ctx, s, *polygonsPath); err != nil {
			log.Fatalf("load polygons: %v", err)
		}
	}

	zooms, err := parseZooms(*zoomsFlag)
	if err != nil {
		log.Fatalf("invalid -zooms: %v", err)
	}

	rasterMode := raster.Supercover
	if aisconfig.PolygonMode(*mode) == aisconfig.ModeCenterTest {
		rasterMode = raster.CenterTest
	}

	results, err := area.Benchmark(ctx, s, zooms, rasterMode)
	if err != nil {
		log.Fatalf("benchmark: %v", err)
	}
	for _, r := range results {
		fmt.Printf("%-20s z%-2d %-12s cells=%d unique=%v\n", r.PolygonName, r.Zoom, r.Mode, r.CellCount, r.UniqueCells)
	}

	if err := security.ValidateExportPath(*reportPath); err != nil {
		log.Fatalf("invalid -report path: %v", err)
	}
	html, err := area.RenderHTMLReport(results)
	if err != nil {
		log.Fatalf("render report: %v", err)
	}
	if err := os.WriteFile(*reportPath, []byte(html), 0o644); err != nil {
		log.Fatalf("write report: %v", err)
	}
	fmt.Printf("wrote report to %s\n", *reportPath)
}

func loadPolygons(ctx context.Context, s store.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read polygons file: %w", err)
	}
	var defs []polygonDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("parse polygons file: %w", err)
	}
	for _, d := range defs {
		if len(d.Polygon) < 3 {
			return fmt.Errorf("polygon %q has fewer than 3 vertices", d.Name)
		}
		points := make([]aismodel.Point, len(d.Polygon))
		for i, xy := range d.Polygon {
			points[i] = aismodel.Point{X: xy[0], Y: xy[1]}
		}
		if points[0] != points[len(points)-1] {
			points = append(points, points[0])
		}
		if _, err := s.UpsertAreaPolygon(ctx, d.Name, points); err != nil {
			return fmt.Errorf("upsert polygon %q: %w", d.Name, err)
		}
	}
	return nil
}

func parseZooms(s string) ([]tilecodec.Zoom, error) {
	var zooms []tilecodec.Zoom
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid zoom %q: %w", part, err)
		}
		zooms = append(zooms, tilecodec.Zoom(n))
	}
	if len(zooms) == 0 {
		return nil, fmt.Errorf("at least one zoom must be specified")
	}
	return zooms, nil
}
