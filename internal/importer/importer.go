// Package importer bulk-loads bills from monthly CSV exports.
//
// Each file in the source directory must be named MM-YYYY.csv (an
// underscore separator also works, e.g. 07_2025.csv). The first row is a
// header and is skipped; the remaining rows carry three columns:
// description, amount and category name. Every row of a file gets the
// first day of the file's month as its transaction date.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mvmaia/contas/internal/models"
	"github.com/mvmaia/contas/internal/storage"
)

var filenamePattern = regexp.MustCompile(`(\d{2})[-_](\d{4})\.csv$`)

const defaultDescription = "Sem descrição"

// Importer loads CSV files into a user's account, creating categories
// on demand.
type Importer struct {
	store storage.Store
}

func New(store storage.Store) *Importer {
	return &Importer{store: store}
}

// Summary reports what an import run did.
type Summary struct {
	FilesProcessed int
	FilesSkipped   int
	BillsImported  int
	RowsSkipped    int
}

// ImportDir imports every CSV file in dir for the given user. Files whose
// names do not match the MM-YYYY pattern are skipped with a warning, as
// are rows that cannot be parsed. Other errors abort the run.
func (im *Importer) ImportDir(ctx context.Context, userID int64, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read import directory: %w", err)
	}

	summary := &Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		match := filenamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			slog.Warn("Skipping file: name does not match MM-YYYY.csv", "file", entry.Name())
			summary.FilesSkipped++
			continue
		}

		month, _ := strconv.Atoi(match[1])
		year, _ := strconv.Atoi(match[2])
		if month < 1 || month > 12 {
			slog.Warn("Skipping file: invalid month", "file", entry.Name(), "month", month)
			summary.FilesSkipped++
			continue
		}
		transactionDate := models.NewDate(year, month, 1)

		imported, skipped, err := im.importFile(ctx, userID, filepath.Join(dir, entry.Name()), transactionDate)
		if err != nil {
			return summary, fmt.Errorf("failed to import %s: %w", entry.Name(), err)
		}
		summary.FilesProcessed++
		summary.BillsImported += imported
		summary.RowsSkipped += skipped
		slog.Info("File imported", "file", entry.Name(), "bills", imported, "skipped_rows", skipped)
	}
	return summary, nil
}

func (im *Importer) importFile(ctx context.Context, userID int64, path string, date models.Date) (imported, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	records, err := reader.ReadAll()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) <= 1 {
		return 0, 0, nil
	}

	// First row is the header.
	for _, record := range records[1:] {
		description := strings.TrimSpace(record[0])
		if description == "" {
			description = defaultDescription
		}

		amount, err := ParseAmount(record[1])
		if err != nil {
			slog.Warn("Skipping row: unparseable amount", "file", filepath.Base(path), "amount", record[1])
			skipped++
			continue
		}

		categoryName := strings.TrimSpace(record[2])
		if categoryName == "" {
			slog.Warn("Skipping row: missing category", "file", filepath.Base(path), "description", description)
			skipped++
			continue
		}

		if err := im.ensureCategory(ctx, userID, categoryName); err != nil {
			return imported, skipped, err
		}

		bill := &models.Bill{
			UserID:          userID,
			Description:     description,
			Amount:          amount,
			TransactionDate: date,
		}
		if err := im.store.CreateBill(ctx, categoryName, bill); err != nil {
			return imported, skipped, fmt.Errorf("failed to create bill %q: %w", description, err)
		}
		imported++
	}
	return imported, skipped, nil
}

func (im *Importer) ensureCategory(ctx context.Context, userID int64, name string) error {
	err := im.store.CreateCategory(ctx, &models.Category{UserID: userID, Name: name})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil
	}
	return err
}

// ParseAmount parses a Brazilian-formatted currency string such as
// "R$ 1.234,56" into a decimal. Dots are thousand separators and the
// comma is the decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("R$", "", ".", "", " ", "").Replace(s)
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), ",", ".")
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(cleaned)
}
