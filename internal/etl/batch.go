package etl

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/oldworldstats/save-importer/internal/storage"
	"github.com/oldworldstats/save-importer/internal/storage/models"
	"github.com/oldworldstats/save-importer/internal/storage/repository"
)

// BatchImporter runs the end-to-end pipeline over a directory of archives:
// import each file, remove duplicate matches, validate referential
// integrity, and report aggregate statistics.
type BatchImporter struct {
	db       *storage.DB
	importer *Importer
}

// NewBatchImporter creates a batch driver over an open database handle.
func NewBatchImporter(db *storage.DB, overrides OverrideSource) *BatchImporter {
	return &BatchImporter{
		db:       db,
		importer: NewImporter(db, overrides),
	}
}

// ProcessingStats covers the per-file phase of a batch run.
type ProcessingStats struct {
	TotalFiles      int
	SuccessfulFiles int // Includes duplicate skips
	SkippedFiles    int
	FailedFiles     []FileFailure
}

// FileFailure pairs a failed archive with its error.
type FileFailure struct {
	Path string
	Err  error
}

// SuccessRate returns successes over total as a fraction in [0, 1].
func (s ProcessingStats) SuccessRate() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return float64(s.SuccessfulFiles) / float64(s.TotalFiles)
}

// CleanupStats covers the duplicate-removal phase.
type CleanupStats struct {
	DuplicatesRemoved int
}

// ValidationStats covers the integrity-check phase.
type ValidationStats struct {
	Issues []models.IntegrityIssue
}

// Errors returns the issues with error severity.
func (v ValidationStats) Errors() []models.IntegrityIssue {
	return v.bySeverity(models.SeverityError)
}

// Warnings returns the issues with warning severity.
func (v ValidationStats) Warnings() []models.IntegrityIssue {
	return v.bySeverity(models.SeverityWarning)
}

func (v ValidationStats) bySeverity(severity string) []models.IntegrityIssue {
	var out []models.IntegrityIssue
	for _, issue := range v.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// BatchReport is the full outcome of one batch run.
type BatchReport struct {
	Processing ProcessingStats
	Cleanup    CleanupStats
	Validation ValidationStats
	Summary    *models.Summary
}

// Run imports every archive under dir matching glob, then performs cleanup,
// validation, and summary collection. Per-file failures are recorded and do
// not stop the batch; phase-level failures do.
func (b *BatchImporter) Run(ctx context.Context, dir, glob string) (*BatchReport, error) {
	paths, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("failed to expand glob %q: %w", glob, err)
	}
	sort.Strings(paths)

	report := &BatchReport{}
	report.Processing.TotalFiles = len(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := b.importer.ImportFile(ctx, path)
		if err != nil {
			log.Printf("Warning: failed to import %s: %v", filepath.Base(path), err)
			report.Processing.FailedFiles = append(report.Processing.FailedFiles,
				FileFailure{Path: path, Err: err})
			continue
		}
		report.Processing.SuccessfulFiles++
		if result.Skipped {
			report.Processing.SkippedFiles++
		}
	}

	removed, err := b.RemoveDuplicates(ctx)
	if err != nil {
		return nil, err
	}
	report.Cleanup.DuplicatesRemoved = removed

	issues, err := b.Validate(ctx)
	if err != nil {
		return nil, err
	}
	report.Validation.Issues = issues

	stats := repository.NewStatsRepository(b.db.Conn())
	summary, err := stats.GetSummary(ctx)
	if err != nil {
		return nil, err
	}
	report.Summary = summary

	return report, nil
}

// RemoveDuplicates deletes all but the lowest-id match for each duplicated
// (file name, file hash) pair, cascading through child tables. The whole
// cleanup runs in one transaction.
func (b *BatchImporter) RemoveDuplicates(ctx context.Context) (int, error) {
	removed := 0
	err := b.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		matches := repository.NewMatchRepository(tx)
		ids, err := matches.ListDuplicateIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := matches.DeleteCascade(ctx, id); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("duplicate cleanup: %w", err)
	}
	if removed > 0 {
		log.Printf("✓ Removed %d duplicate matches", removed)
	}
	return removed, nil
}

// Validate runs the post-load integrity checks. Orphaned players and
// out-of-bounds territories are errors; matches without players are only
// warnings because a partially failed load may legitimately leave them.
func (b *BatchImporter) Validate(ctx context.Context) ([]models.IntegrityIssue, error) {
	stats := repository.NewStatsRepository(b.db.Conn())

	var issues []models.IntegrityIssue

	orphans, err := stats.FindOrphanedPlayers(ctx)
	if err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		issues = append(issues, models.IntegrityIssue{
			Severity: models.SeverityError,
			Check:    "orphaned_players",
			Detail:   fmt.Sprintf("%d players reference missing matches: %v", len(orphans), orphans),
		})
	}

	outOfBounds, err := stats.CountOutOfBoundsTerritories(ctx)
	if err != nil {
		return nil, err
	}
	if outOfBounds > 0 {
		issues = append(issues, models.IntegrityIssue{
			Severity: models.SeverityError,
			Check:    "out_of_bounds_territories",
			Detail:   fmt.Sprintf("%d territories outside their match map dimensions", outOfBounds),
		})
	}

	empty, err := stats.FindMatchesWithoutPlayers(ctx)
	if err != nil {
		return nil, err
	}
	if len(empty) > 0 {
		issues = append(issues, models.IntegrityIssue{
			Severity: models.SeverityWarning,
			Check:    "matches_without_players",
			Detail:   fmt.Sprintf("%d matches have no players: %v", len(empty), empty),
		})
	}

	return issues, nil
}
