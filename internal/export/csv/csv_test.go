package csv_test

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exportCSV "github.com/robalyx/aegis/internal/export/csv"
	"github.com/robalyx/aegis/internal/export/types"
)

// verifyCSVFile reads a CSV file and verifies its contents match the expected records.
func verifyCSVFile(t *testing.T, filepath string, expectedRecords []*types.ExportRecord) {
	t.Helper()
	// Open file
	file, err := os.Open(filepath)
	require.NoError(t, err)
	defer file.Close()

	// Create CSV reader
	reader := csv.NewReader(file)

	// Read and verify header
	header, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"hash", "status", "reason", "count", "expires_at"}, header)

	// Read and verify each record
	for _, expected := range expectedRecords {
		record, err := reader.Read()
		require.NoError(t, err)
		assert.Equal(t, expected.Hash, record[0])
		assert.Equal(t, expected.Status, record[1])
		assert.Equal(t, expected.Reason, record[2])
		assert.Equal(t, strconv.FormatUint(uint64(expected.Count), 10), record[3])
		assert.Equal(t, strconv.FormatInt(expected.ExpiresAt, 10), record[4])
	}

	// Verify we're at the end
	_, err = reader.Read()
	assert.Equal(t, io.EOF, err, "expected EOF after last record")
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		banRecords     []*types.ExportRecord
		warningRecords []*types.ExportRecord
		wantErr        bool
	}{
		{
			name: "basic export",
			banRecords: []*types.ExportRecord{
				{
					Hash:      "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
					Status:    "permanent",
					Reason:    "test reason",
					Count:     1,
					ExpiresAt: 0,
				},
				{
					Hash:      "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210",
					Status:    "temporary",
					Reason:    "another reason",
					Count:     1,
					ExpiresAt: 1722470400,
				},
			},
			warningRecords: []*types.ExportRecord{
				{
					Hash:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1",
					Status:    "warned",
					Reason:    "warning test reason",
					Count:     2,
					ExpiresAt: 1722470400,
				},
				{
					Hash:      "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2",
					Status:    "warned",
					Reason:    "another warning reason",
					Count:     1,
					ExpiresAt: 0,
				},
			},
			wantErr: false,
		},
		{
			name:           "empty records",
			banRecords:     []*types.ExportRecord{},
			warningRecords: []*types.ExportRecord{},
			wantErr:        false,
		},
		{
			name: "records with special characters",
			banRecords: []*types.ExportRecord{
				{
					Hash:   "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc3",
					Status: "permanent",
					Reason: "reason with, comma",
					Count:  1,
				},
				{
					Hash:   "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd4",
					Status: "temporary",
					Reason: "reason with \"quotes\"",
					Count:  1,
				},
			},
			warningRecords: []*types.ExportRecord{},
			wantErr:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tempDir := t.TempDir()

			// Create new exporter
			e := exportCSV.New(tempDir)

			// Perform export
			err := e.Export(tt.banRecords, tt.warningRecords)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			// Verify bans.csv
			if len(tt.banRecords) > 0 {
				verifyCSVFile(t, filepath.Join(tempDir, "bans.csv"), tt.banRecords)
			}

			// Verify warnings.csv
			if len(tt.warningRecords) > 0 {
				verifyCSVFile(t, filepath.Join(tempDir, "warnings.csv"), tt.warningRecords)
			}
		})
	}
}

func TestExporter_ExistingFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	// Create existing files
	files := []string{"bans.csv", "warnings.csv"}
	for _, file := range files {
		err := os.WriteFile(filepath.Join(tempDir, file), []byte("existing content"), 0o644)
		require.NoError(t, err)
	}

	e := exportCSV.New(tempDir)

	records := []*types.ExportRecord{
		{
			Hash:   "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			Status: "permanent",
			Reason: "test reason",
			Count:  1,
		},
	}

	// Export should overwrite existing files
	err := e.Export(records, records)
	require.NoError(t, err)

	// Verify both files were overwritten
	verifyCSVFile(t, filepath.Join(tempDir, "bans.csv"), records)
	verifyCSVFile(t, filepath.Join(tempDir, "warnings.csv"), records)
}
