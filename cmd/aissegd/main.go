// Command aissegd is the AIS segmentation/rasterization driver: it sweeps
// stored position reports into trajectories and stops, rasterizes both
// into cellstrings at the configured zoom levels, and exposes the same
// tailsql/tsweb admin routes the teacher wires into its radar daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sealane-data/aistrace/internal/aisconfig"
	"github.com/sealane-data/aistrace/internal/aismodel"
	"github.com/sealane-data/aistrace/internal/monitoring"
	"github.com/sealane-data/aistrace/internal/report"
	"github.com/sealane-data/aistrace/internal/scheduler"
	"github.com/sealane-data/aistrace/internal/security"
	"github.com/sealane-data/aistrace/internal/segment"
	"github.com/sealane-data/aistrace/internal/store"
	"github.com/sealane-data/aistrace/internal/units"
	"github.com/sealane-data/aistrace/internal/version"
)

func main() {
	dbPath := flag.String("db", "aistrace.db", "path to sqlite database")
	workers := flag.Int("workers", 0, "worker pool size (0 = min(NumCPU, 12))")
	segBatch := flag.Int("segmenter-batch", 100, "mmsis segmented per transaction")
	rastBatch := flag.Int("rasterizer-batch", 5000, "rows rasterized per transaction")
	zoomsFlag := flag.String("zooms", "13,21", "comma-separated zoom levels (13,17,21)")
	mode := flag.String("polygon-mode", string(aisconfig.ModeSupercover), "stop rasterization mode: supercover or center-test")
	thresholdsPath := flag.String("thresholds", "", "optional JSON file overriding segmenter thresholds")
	admin := flag.String("admin", ":8090", "admin/debug HTTP listen address")
	reportDir := flag.String("report-dir", "", "if set, write per-vessel debug geometry PNGs to this directory")
	speedUnit := flag.String("speed-unit", units.KMPH, "unit for the reported mean trajectory speed ("+units.GetValidUnitsString()+")")
	timezone := flag.String("timezone", "UTC", "timezone for the run-complete timestamp in the summary line")
	migrateOnly := flag.String("migrate", "", "run a migration subcommand (up, down, status) and exit")
	devMode := flag.Bool("dev", false, "dev mode: load migrations from internal/store/migrations on disk and skip the startup migration check")
	versionFlag := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("aissegd v%s (git SHA: %s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	driver := aisconfig.DefaultDriverConfig()
	driver.DBPath = *dbPath
	if *workers > 0 {
		driver.MaxWorkers = *workers
	}
	driver.SegmenterBatch = *segBatch
	driver.RasterizerBatch = *rastBatch
	driver.PolygonMode = aisconfig.PolygonMode(*mode)
	if zooms, err := parseZooms(*zoomsFlag); err != nil {
		log.Fatalf("invalid -zooms: %v", err)
	} else {
		driver.Zooms = zooms
	}
	driver.AdminListenAddr = *admin

	if !units.IsValid(*speedUnit) {
		log.Fatalf("invalid -speed-unit %q (want one of: %s)", *speedUnit, units.GetValidUnitsString())
	}
	if !units.IsTimezoneValid(*timezone) {
		log.Fatalf("invalid -timezone %q", *timezone)
	}

	if err := driver.Validate(); err != nil {
		if err == aisconfig.ErrNoConnectionString {
			os.Exit(1)
		}
		log.Printf("invalid driver configuration: %v", err)
		os.Exit(2)
	}

	thresholds := aisconfig.EmptyThresholds()
	if *thresholdsPath != "" {
		loaded, err := aisconfig.LoadThresholds(*thresholdsPath)
		if err != nil {
			log.Fatalf("load thresholds: %v", err)
		}
		thresholds = loaded
	}

	store.DevMode = *devMode
	checkMigrations := !*devMode && *migrateOnly == ""
	db, err := store.NewDBWithMigrationCheck(driver.DBPath, checkMigrations)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if *migrateOnly != "" {
		runMigrationSubcommand(db, *migrateOnly)
		return
	}

	sqliteStore := store.NewSQLiteStore(db)
	sched := scheduler.New(sqliteStore, driver, thresholds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		mux := http.NewServeMux()
		db.AttachAdminRoutes(mux)

		server := &http.Server{Addr: driver.AdminListenAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("admin server error: %v", err)
			}
		}()

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("admin server shutdown error: %v", err)
		}
	}()

	if err := runPipeline(ctx, sched, sqliteStore, *reportDir, *speedUnit, *timezone); err != nil {
		log.Printf("pipeline run failed: %v", err)
		stop()
		wg.Wait()
		os.Exit(3)
	}

	stop()
	wg.Wait()
}

// runPipeline runs the segmenter pass, then rasterizes the trajectories
// and stops it produced, printing a fleet-wide summary at the end. The
// summary re-segments each vessel in isolation, and when reportDir is set
// it also renders a debug geometry PNG per vessel, the same kind of
// out-of-band diagnostic pass the teacher's admin routes perform against
// already-ingested data.
func runPipeline(ctx context.Context, sched *scheduler.Scheduler, s store.Store, reportDir, speedUnit, timezone string) error {
	segStats, err := sched.RunSegmenter(ctx)
	if err != nil {
		return fmt.Errorf("segmenter: %w", err)
	}
	for _, e := range segStats.Errors {
		monitoring.Logf("segmenter error: %v", e)
	}
	monitoring.Logf("segmenter complete in %s: %d mmsis, %d trajectories, %d stops",
		segStats.Elapsed, segStats.MMSIsProcessed, segStats.TrajectoriesMade, segStats.StopsMade)

	targets, err := collectRasterTargets(ctx, sched, s)
	if err != nil {
		return fmt.Errorf("collect rasterizer targets: %w", err)
	}
	written, err := sched.RunRasterizer(ctx, targets)
	if err != nil {
		return fmt.Errorf("rasterizer: %w", err)
	}
	monitoring.Logf("rasterizer complete: %d cellstrings written", written)

	summaries, err := summarizeFleet(ctx, sched, s, reportDir)
	if err != nil {
		return fmt.Errorf("fleet summary: %w", err)
	}
	fleet := report.Aggregate(summaries)
	finishedAt, err := units.ConvertTime(time.Now().UTC(), timezone)
	if err != nil {
		finishedAt = time.Now().UTC()
	}
	fmt.Printf("done at %s (%s): %d vessels, %d trajectories, %d stops, %d cellstrings, mean traj speed %.1f %s, mean stop duration %.0f s\n",
		finishedAt.Format(time.RFC3339), units.GetTimezoneLabel(timezone),
		segStats.MMSIsProcessed, segStats.TrajectoriesMade, segStats.StopsMade, written,
		fleet.SpeedIn(speedUnit), speedUnit, fleet.MeanStopDuration)
	return nil
}

// summarizeFleet recomputes each vessel's segmentation in isolation to
// produce report.Summary rows and, when reportDir is set, a debug PNG per
// vessel. It is intentionally independent of the persisted segmenter pass
// above so a crash or slow render here never affects the committed data.
func summarizeFleet(ctx context.Context, sched *scheduler.Scheduler, s store.Store, reportDir string) ([]report.Summary, error) {
	if reportDir != "" {
		if err := security.ValidateExportPath(reportDir); err != nil {
			return nil, fmt.Errorf("report dir: %w", err)
		}
		if err := os.MkdirAll(reportDir, 0o755); err != nil {
			return nil, fmt.Errorf("create report dir: %w", err)
		}
	}

	mmsis, err := s.ListMMSIs(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]report.Summary, 0, len(mmsis))
	for _, mmsi := range mmsis {
		points, err := s.PointsForMMSI(ctx, mmsi)
		if err != nil {
			return summaries, err
		}
		res := segment.Segment(points, sched.Thresholds)
		summaries = append(summaries, report.Summarize(mmsi, res.Trajectories, res.Stops))

		if reportDir != "" && (len(res.Trajectories) > 0 || len(res.Stops) > 0) {
			if _, err := report.RenderGeometryPNG(mmsi, res.Trajectories, res.Stops, reportDir); err != nil {
				log.Printf("render geometry png for mmsi %d: %v", mmsi, err)
			}
		}
	}
	return summaries, nil
}

// collectRasterTargets re-segments every MMSI's stored points (the same
// call the segmenter pass itself makes per-worker) and turns the resulting
// trajectories and stops into scheduler.RasterizeTarget rows, one line
// target per trajectory and one polygon target per stop. This keeps the
// rasterizer's input the segmenter's actual output rather than the raw,
// un-segmented point stream: a pure-mooring vessel must rasterize its stop
// polygon, not a bogus trajectory over its scattered mooring points.
//
// In a real deployment this would page through the store's persisted
// trajectories/stops tables directly; re-segmenting here instead is the
// accepted workaround for the Store interface intentionally exposing only
// MMSI-scoped point reads plus batch-insert, not a generic row scan.
func collectRasterTargets(ctx context.Context, sched *scheduler.Scheduler, s store.Store) ([]scheduler.RasterizeTarget, error) {
	mmsis, err := s.ListMMSIs(ctx)
	if err != nil {
		return nil, err
	}
	var targets []scheduler.RasterizeTarget
	for _, mmsi := range mmsis {
		points, err := s.PointsForMMSI(ctx, mmsi)
		if err != nil {
			return nil, err
		}
		res := segment.Segment(points, sched.Thresholds)

		for _, t := range res.Trajectories {
			if len(t.Polyline) < 2 {
				continue
			}
			vertices := make([]aismodel.Vertex, len(t.Polyline))
			copy(vertices, t.Polyline)
			targets = append(targets, scheduler.RasterizeTarget{
				Target:   aismodel.TargetTrajectory,
				SourceID: int64(mmsi),
				Vertices: vertices,
			})
		}
		for _, st := range res.Stops {
			if len(st.Polygon) < 3 {
				continue
			}
			polygon := make([]aismodel.Point, len(st.Polygon))
			copy(polygon, st.Polygon)
			targets = append(targets, scheduler.RasterizeTarget{
				Target:   aismodel.TargetStop,
				SourceID: int64(mmsi),
				Polygon:  polygon,
			})
		}
	}
	return targets, nil
}

func parseZooms(s string) ([]aisconfig.ZoomLevel, error) {
	var zooms []aisconfig.ZoomLevel
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid zoom %q: %w", part, err)
		}
		zooms = append(zooms, aisconfig.ZoomLevel(n))
	}
	if len(zooms) == 0 {
		return nil, fmt.Errorf("at least one zoom must be specified")
	}
	return zooms, nil
}

func runMigrationSubcommand(db *store.DB, cmd string) {
	migrationsFS, err := store.MigrationsFS()
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	switch cmd {
	case "up":
		if err := db.MigrateUp(migrationsFS); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := db.MigrateDown(migrationsFS); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("migrations rolled back")
	case "status":
		status, err := db.GetMigrationStatus(migrationsFS)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		fmt.Println(status)
	default:
		log.Fatalf("unknown -migrate subcommand %q (want up, down, or status)", cmd)
	}
}
