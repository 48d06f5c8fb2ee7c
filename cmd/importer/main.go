// Command importer bulk-loads monthly CSV exports into a user's account.
//
// Usage:
//
//	importer -dir ./csv_files -db ./data/contas.db -email user@example.com
//
// The user must already be registered. Categories named in the CSV rows
// are created on demand.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mvmaia/contas/internal/importer"
	"github.com/mvmaia/contas/internal/storage"
	"github.com/mvmaia/contas/internal/storage/sqlite"
	"github.com/mvmaia/contas/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	logging.Setup()

	dir := flag.String("dir", "./csv_files", "directory containing MM-YYYY.csv files")
	dbPath := flag.String("db", "./data/contas.db", "path to the SQLite database")
	email := flag.String("email", "", "email of the user to import bills for")
	flag.Parse()

	if *email == "" {
		slog.Error("The -email flag is required")
		os.Exit(1)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	user, err := store.GetUserByEmail(ctx, *email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Error("User not found, register it first", "email", *email)
		} else {
			slog.Error("Failed to look up user", "error", err)
		}
		os.Exit(1)
	}

	summary, err := importer.New(store).ImportDir(ctx, user.ID, *dir)
	if err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Import finished",
		"files", summary.FilesProcessed,
		"files_skipped", summary.FilesSkipped,
		"bills", summary.BillsImported,
		"rows_skipped", summary.RowsSkipped,
	)
}
