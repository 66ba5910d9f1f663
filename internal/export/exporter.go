package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	dbTypes "github.com/robalyx/aegis/internal/database/types"
	"github.com/robalyx/aegis/internal/export/binary"
	"github.com/robalyx/aegis/internal/export/csv"
	"github.com/robalyx/aegis/internal/export/sqlite"
	"github.com/robalyx/aegis/internal/export/types"
	"github.com/robalyx/aegis/internal/setup"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatBinary Format = "binary"
	FormatCSV    Format = "csv"
)

const (
	// EngineVersion represents the version of the export engine.
	// This should be updated when making breaking changes to the export format.
	EngineVersion = "1.0.0"

	// statusWarned marks warning entries in a snapshot. Ban entries carry
	// the ban type instead.
	statusWarned = "warned"
)

// Config holds the configuration for exports.
type Config struct {
	ExportVersion string `json:"exportVersion"`
	Salt          string `json:"salt"`
	Description   string `json:"description"`
	HashType      string `json:"hashType"`
	Iterations    uint32 `json:"iterations"`
	Memory        uint32 `json:"memory,omitempty"`
	Concurrency   int64  `json:"-"`
}

// Exporter handles exporting active bans and warnings.
type Exporter struct {
	app     *setup.App
	outDir  string
	config  *Config
	formats []Format
}

// New creates a new exporter instance.
func New(app *setup.App, outDir string, config *Config) *Exporter {
	return &Exporter{
		app:    app,
		outDir: outDir,
		config: config,
		formats: []Format{
			FormatSQLite,
			FormatBinary,
			FormatCSV,
		},
	}
}

// ExportAll exports all data in all supported formats.
func (e *Exporter) ExportAll(ctx context.Context) error {
	// Print export configuration
	fmt.Printf("Starting export with configuration:\n")
	fmt.Printf("  Hash Type: %s\n", e.config.HashType)
	fmt.Printf("  Concurrency: %d workers\n", e.config.Concurrency)
	fmt.Printf("  Iterations: %d\n", e.config.Iterations)

	if e.config.HashType == string(HashTypeArgon2id) {
		fmt.Printf("  Memory: %d MB\n", e.config.Memory)
	}

	fmt.Printf("  Output Directory: %s\n", e.outDir)
	fmt.Printf("  Export Version: %s\n", e.config.ExportVersion)
	fmt.Printf("  Engine Version: %s\n", EngineVersion)
	fmt.Printf("  Description: %s\n\n", e.config.Description)

	// Get all currently active bans and warnings
	fmt.Printf("Fetching data from database...\n")

	bans, warnings, err := e.getActiveData(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d bans and %d warnings to export\n\n", len(bans), len(warnings))

	// Convert to export records
	fmt.Printf("Hashing banned subject IDs...\n")

	banRecords := e.banRecords(bans)

	fmt.Printf("\nHashing warned subject IDs...\n")

	warningRecords := e.warningRecords(warnings)

	fmt.Printf("\nCompleted hashing all records\n\n")

	// Save config file
	fmt.Printf("Saving export configuration...\n")

	configPath := filepath.Join(e.outDir, "export_config.json")

	// Create config with engine version for JSON
	jsonConfig := struct {
		*Config

		EngineVersion string `json:"engineVersion"`
	}{
		Config:        e.config,
		EngineVersion: EngineVersion,
	}

	configData, err := sonic.MarshalIndent(jsonConfig, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal export config: %w", err)
	}

	if err := os.WriteFile(configPath, configData, 0o600); err != nil {
		return fmt.Errorf("failed to write export config: %w", err)
	}

	// Export each format
	fmt.Printf("Exporting data in %d formats...\n", len(e.formats))

	for _, format := range e.formats {
		fmt.Printf("  Writing %s format...\n", format)

		if err := e.export(format, banRecords, warningRecords); err != nil {
			return fmt.Errorf("failed to export %s format: %w", format, err)
		}
	}

	fmt.Printf("\nExport completed successfully\n")
	fmt.Printf("Files written to: %s\n", e.outDir)

	return nil
}

// getActiveData retrieves all currently active bans and warnings from the
// database. Records whose expiry has passed are excluded even when a sweep
// has not deactivated them yet.
func (e *Exporter) getActiveData(
	ctx context.Context,
) (bans []*dbTypes.Ban, warnings []*dbTypes.Warning, err error) {
	now := time.Now()

	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		var err error

		bans, err = e.app.DB.Model().Ban().GetAllActive(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to get bans: %w", err)
		}

		return nil
	})

	p.Go(func(ctx context.Context) error {
		var err error

		warnings, err = e.app.DB.Model().Warning().GetAllActive(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to get warnings: %w", err)
		}

		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, nil, err
	}

	return bans, warnings, nil
}

// banRecords converts bans to export records with concurrent hashing.
// Each active ban becomes one entry carrying its type and expiry.
func (e *Exporter) banRecords(bans []*dbTypes.Ban) []*types.ExportRecord {
	ids := make([]uuid.UUID, len(bans))
	for i, ban := range bans {
		ids[i] = ban.SubjectID
	}

	hashes := e.hashIDs(ids)

	records := make([]*types.ExportRecord, len(bans))
	for i, ban := range bans {
		var expiresAt int64
		if ban.ExpiresAt != nil {
			expiresAt = ban.ExpiresAt.Unix()
		}

		records[i] = &types.ExportRecord{
			Hash:      hashes[i],
			Status:    strings.ToLower(ban.Type.String()),
			Reason:    ban.Reason,
			Count:     1,
			ExpiresAt: expiresAt,
		}
	}

	return records
}

// warningRecords converts warnings to export records with concurrent
// hashing. Warnings are grouped per subject: one entry carries the active
// count, the joined reasons, and the furthest expiry. A warning with no
// expiry pins the entry with no expiry of its own.
func (e *Exporter) warningRecords(warnings []*dbTypes.Warning) []*types.ExportRecord {
	type group struct {
		reasons   []string
		count     uint32
		expiresAt int64
		permanent bool
	}

	// Group in first-seen order so output stays deterministic for a
	// given database ordering
	groups := make(map[uuid.UUID]*group)
	ids := make([]uuid.UUID, 0, len(warnings))

	for _, warning := range warnings {
		g, ok := groups[warning.SubjectID]
		if !ok {
			g = &group{}
			groups[warning.SubjectID] = g
			ids = append(ids, warning.SubjectID)
		}

		g.count++
		g.reasons = append(g.reasons, warning.Reason)

		switch {
		case warning.ExpiresAt == nil:
			g.permanent = true
		case warning.ExpiresAt.Unix() > g.expiresAt:
			g.expiresAt = warning.ExpiresAt.Unix()
		}
	}

	hashes := e.hashIDs(ids)

	records := make([]*types.ExportRecord, len(ids))
	for i, id := range ids {
		g := groups[id]

		expiresAt := g.expiresAt
		if g.permanent {
			expiresAt = 0
		}

		records[i] = &types.ExportRecord{
			Hash:      hashes[i],
			Status:    statusWarned,
			Reason:    strings.Join(g.reasons, "; "),
			Count:     g.count,
			ExpiresAt: expiresAt,
		}
	}

	return records
}

// hashIDs hashes subject IDs with the configured algorithm and concurrency.
func (e *Exporter) hashIDs(ids []uuid.UUID) []string {
	return hashSubjectIDs(
		ids, e.config.Salt, HashType(e.config.HashType),
		e.config.Concurrency, e.config.Iterations, e.config.Memory,
	)
}

// export handles exporting data in the specified format.
func (e *Exporter) export(format Format, banRecords, warningRecords []*types.ExportRecord) error {
	var exporter interface {
		Export(banRecords, warningRecords []*types.ExportRecord) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatBinary:
		exporter = binary.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(banRecords, warningRecords)
}
