// save-importer loads zipped XML game save archives into an analytical
// SQLite database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/oldworldstats/save-importer/internal/config"
	"github.com/oldworldstats/save-importer/internal/etl"
	"github.com/oldworldstats/save-importer/internal/storage"
	"github.com/oldworldstats/save-importer/internal/storage/models"
)

func main() {
	fs := flag.NewFlagSet("save-importer", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	dbPath := fs.String("db", "", "path to the SQLite database (overrides config)")
	dir := fs.String("dir", "", "directory of save archives to import (overrides config)")
	glob := fs.String("glob", "", "archive file pattern (overrides config)")
	file := fs.String("file", "", "import a single archive instead of a directory")
	overridesPath := fs.String("overrides", "", "winner overrides TOML file (overrides config)")
	readOnly := fs.Bool("read-only", false, "open the database read-only")
	validateOnly := fs.Bool("validate-only", false, "skip importing, only run integrity checks")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *dir != "" {
		cfg.Import.ArchiveDir = *dir
	}
	if *glob != "" {
		cfg.Import.Glob = *glob
	}
	if *overridesPath != "" {
		cfg.Import.OverridesPath = *overridesPath
	}
	if *readOnly {
		cfg.Database.ReadOnly = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if cfg.Database.ReadOnly && !*validateOnly {
		log.Fatalf("Cannot import with a read-only database; use --validate-only")
	}

	busyTimeout, err := cfg.GetBusyTimeout()
	if err != nil {
		log.Fatalf("Invalid busy timeout: %v", err)
	}

	dbConfig := storage.DefaultConfig(cfg.Database.Path)
	dbConfig.BusyTimeout = busyTimeout
	dbConfig.ReadOnly = cfg.Database.ReadOnly
	dbConfig.AutoMigrate = !cfg.Database.ReadOnly

	db, err := storage.Open(dbConfig)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Warning: failed to close database: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var overrides etl.OverrideSource
	if cfg.Import.OverridesPath != "" {
		overrides, err = etl.LoadOverrides(cfg.Import.OverridesPath)
		if err != nil {
			log.Fatalf("Failed to load winner overrides: %v", err)
		}
	}

	batch := etl.NewBatchImporter(db, overrides)

	if *validateOnly {
		if err := runValidateOnly(ctx, batch); err != nil {
			log.Fatalf("Validation failed: %v", err)
		}
		return
	}

	if *file != "" {
		importer := etl.NewImporter(db, overrides)
		result, err := importer.ImportFile(ctx, *file)
		if err != nil {
			log.Fatalf("Failed to import %s: %v", *file, err)
		}
		if result.Skipped {
			log.Printf("✓ %s already imported as match %d", *file, result.MatchID)
		} else {
			log.Printf("✓ Imported %s as match %d", *file, result.MatchID)
		}
		return
	}

	start := time.Now()
	report, err := batch.Run(ctx, cfg.Import.ArchiveDir, cfg.Import.Glob)
	if err != nil {
		log.Fatalf("Batch import failed: %v", err)
	}
	printReport(report, time.Since(start))

	if len(report.Validation.Errors()) > 0 {
		os.Exit(1)
	}
}

func runValidateOnly(ctx context.Context, batch *etl.BatchImporter) error {
	issues, err := batch.Validate(ctx)
	if err != nil {
		return err
	}
	printIssues(issues)
	if len(issues) == 0 {
		log.Println("✓ No integrity issues found")
	}
	for _, issue := range issues {
		if issue.Severity == models.SeverityError {
			return fmt.Errorf("%d integrity issues", len(issues))
		}
	}
	return nil
}

func printReport(report *etl.BatchReport, elapsed time.Duration) {
	p := report.Processing
	fmt.Println()
	fmt.Println("=== Import Report ===")
	fmt.Printf("Files:       %d/%d imported (%.0f%% success, %d skipped as duplicates)\n",
		p.SuccessfulFiles, p.TotalFiles, p.SuccessRate()*100, p.SkippedFiles)
	for _, failure := range p.FailedFiles {
		fmt.Printf("  failed: %s: %v\n", failure.Path, failure.Err)
	}
	fmt.Printf("Cleanup:     %d duplicate matches removed\n", report.Cleanup.DuplicatesRemoved)
	fmt.Printf("Validation:  %d errors, %d warnings\n",
		len(report.Validation.Errors()), len(report.Validation.Warnings()))
	printIssues(report.Validation.Issues)

	if s := report.Summary; s != nil {
		fmt.Println()
		fmt.Println("=== Database Summary ===")
		fmt.Printf("Matches:     %d\n", s.TotalMatches)
		fmt.Printf("Players:     %d (%d unique)\n", s.TotalPlayers, s.UniquePlayers)
		fmt.Printf("Events:      %d\n", s.TotalEvents)
		fmt.Printf("Territories: %d\n", s.TotalTerritories)
		fmt.Printf("Resources:   %d\n", s.TotalResources)
		if s.EarliestSave != nil && s.LatestSave != nil {
			fmt.Printf("Save dates:  %s to %s\n",
				s.EarliestSave.Format("2006-01-02"), s.LatestSave.Format("2006-01-02"))
		}
	}
	fmt.Printf("\nCompleted in %s\n", elapsed.Round(time.Millisecond))
}

func printIssues(issues []models.IntegrityIssue) {
	for _, issue := range issues {
		fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Check, issue.Detail)
	}
}
