package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robalyx/aegis/internal/export/types"
)

// Exporter handles exporting hashes to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes ban and warning records to separate csv files.
func (e *Exporter) Export(banRecords, warningRecords []*types.ExportRecord) error {
	// Remove existing files if they exist
	files := []string{"bans.csv", "warnings.csv"}
	for _, file := range files {
		path := filepath.Join(e.outDir, file)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing file %s: %w", file, err)
		}
	}

	if err := e.writeFile("bans.csv", banRecords); err != nil {
		return fmt.Errorf("failed to export bans: %w", err)
	}

	if err := e.writeFile("warnings.csv", warningRecords); err != nil {
		return fmt.Errorf("failed to export warnings: %w", err)
	}

	return nil
}

// writeFile writes records to a csv file.
func (e *Exporter) writeFile(filename string, records []*types.ExportRecord) error {
	file, err := os.Create(filepath.Join(e.outDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	// Create CSV writer
	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"hash", "status", "reason", "count", "expires_at"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Write each record
	for _, record := range records {
		if err := writer.Write([]string{
			record.Hash,
			record.Status,
			record.Reason,
			strconv.FormatUint(uint64(record.Count), 10),
			strconv.FormatInt(record.ExpiresAt, 10),
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}
