// Package store persists AIS points, segmentation results, cellstrings,
// and area-polygon benchmarks to SQLite, and exposes the admin debug
// routes (SQL console, table stats, backup) over the driver's HTTP mux.
package store

import (
	"compress/gzip"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// DB wraps a SQLite connection with the AIS schema and migration tooling.
type DB struct {
	*sql.DB
}

//go:embed schema.sql
var schemaSQL string

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DevMode switches migrations from the embedded filesystem to the local
// one, for hot-reloading during development.
var DevMode = false

// MigrationsFS returns the migration source filesystem in use, honoring
// DevMode, for callers (migration CLIs) that need it outside NewDB.
func MigrationsFS() (fs.FS, error) {
	return getMigrationsFS()
}

func getMigrationsFS() (fs.FS, error) {
	if DevMode {
		return os.DirFS("internal/store/migrations"), nil
	}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create sub-filesystem for embedded migrations: %w", err)
	}
	return sub, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// NewDB opens path, applying pragmas and checking for pending migrations.
func NewDB(path string) (*DB, error) {
	return NewDBWithMigrationCheck(path, true)
}

// NewDBWithMigrationCheck opens a database and optionally refuses to start
// when migrations are outstanding.
func NewDBWithMigrationCheck(path string, checkMigrations bool) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	wrapper := &DB{sqlDB}

	if err := applyPragmas(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to apply PRAGMAs: %w", err)
	}

	var schemaMigrationsExists bool
	err = sqlDB.QueryRow(`
		SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='schema_migrations'
	`).Scan(&schemaMigrationsExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check for schema_migrations table: %w", err)
	}

	migFS, err := getMigrationsFS()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations filesystem: %w", err)
	}

	if schemaMigrationsExists {
		if checkMigrations {
			shouldExit, err := wrapper.CheckAndPromptMigrations(migFS)
			if shouldExit {
				return nil, err
			}
		}
		return wrapper, nil
	}

	var tableCount int
	err = sqlDB.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'
	`).Scan(&tableCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count tables: %w", err)
	}
	if tableCount > 0 && checkMigrations {
		// Legacy database with tables but no migration history: baseline at
		// version 1, the only schema this module has ever shipped.
		if err := wrapper.BaselineAtVersion(1); err != nil {
			return nil, fmt.Errorf("failed to baseline legacy database: %w", err)
		}
		return wrapper, nil
	}

	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	log.Println("ran database initialisation script")

	latestVersion, err := GetLatestMigrationVersion(migFS)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest migration version: %w", err)
	}
	if err := wrapper.BaselineAtVersion(latestVersion); err != nil {
		return nil, fmt.Errorf("failed to baseline fresh database: %w", err)
	}

	return wrapper, nil
}

// TableStats carries row count and disk usage for one table.
type TableStats struct {
	Name     string  `json:"name"`
	RowCount int64   `json:"row_count"`
	SizeMB   float64 `json:"size_mb"`
}

// DatabaseStats carries overall database disk usage and per-table stats.
type DatabaseStats struct {
	TotalSizeMB float64      `json:"total_size_mb"`
	Tables      []TableStats `json:"tables"`
}

// GetDatabaseStats reports size and row counts for every table, using
// SQLite's dbstat virtual table where available.
func (db *DB) GetDatabaseStats() (*DatabaseStats, error) {
	var totalPages, pageSize int64
	row := db.QueryRow("SELECT page_count, page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&totalPages, &pageSize); err != nil {
		if err := db.QueryRow("PRAGMA page_count").Scan(&totalPages); err != nil {
			return nil, fmt.Errorf("failed to get page count: %w", err)
		}
		if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
			return nil, fmt.Errorf("failed to get page size: %w", err)
		}
	}
	totalSizeMB := float64(totalPages*pageSize) / (1024 * 1024)

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}

	var tables []TableStats
	for _, name := range names {
		var rowCount int64
		// name comes from sqlite_master, trusted metadata, not user input.
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %q", name)
		if err := db.QueryRow(countQuery).Scan(&rowCount); err != nil {
			rowCount = 0
		}

		var sizeMB float64
		if err := db.QueryRow(`SELECT COALESCE(SUM(pgsize), 0) / 1048576.0 FROM dbstat WHERE name = ?`, name).Scan(&sizeMB); err != nil {
			sizeMB = 0
		}

		tables = append(tables, TableStats{Name: name, RowCount: rowCount, SizeMB: math.Round(sizeMB*100) / 100})
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].SizeMB > tables[j].SizeMB })

	return &DatabaseStats{TotalSizeMB: math.Round(totalSizeMB*100) / 100, Tables: tables}, nil
}

// AttachAdminRoutes mounts a live SQL console, table-stats JSON, and a
// one-click backup endpoint under the tsweb debug mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{RoutePrefix: "/debug/tailsql/"})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://aistrace.db", db.DB, &tailsql.DBOptions{Label: "AIS trace DB"})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("db-stats", "Database table sizes and disk usage (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		stats, err := db.GetDatabaseStats()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to get database stats: %v", err), http.StatusInternalServerError)
			return
		}
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			http.Error(w, fmt.Sprintf("failed to encode stats: %v", err), http.StatusInternalServerError)
		}
	}))

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer os.Remove(backupPath)

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer backupFile.Close()

		gz := gzip.NewWriter(w)
		defer gz.Close()
		if _, err := io.Copy(gz, backupFile); err != nil {
			log.Printf("backup stream error: %v", err)
		}
	}))
}
