package db

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/heatsense/occupancy.report/internal/monitoring"
)

// AttachAdminRoutes mounts debugging endpoints for the readings database
// under /debug/. These are reachable only over localhost or Tailscale.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	// live SQL console over the readings store
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Occupancy DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("schema", "Migration state of the readings database", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version, dirty, err := db.MigrateVersion()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read migration state: %v", err), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "schema version %d (dirty=%v)\n", version, dirty)
	}))

	debug.Handle("backup", "Create and download a backup of the readings database", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				monitoring.Logf("failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := io.Copy(w, backupFile); err != nil {
			monitoring.Logf("failed to send backup: %v", err)
		}
	}))

	return nil
}
