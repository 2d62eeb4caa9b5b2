package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/snapshots"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/legacy"
)

// MigrateLegacyCommand converts a pre-sync local library file and stores it
// as the user's remote snapshot.
type MigrateLegacyCommand struct {
	LegacyPath   string
	UserID       string
	DatabasePath string
	Force        bool
	DryRun       bool
	Verbose      bool

	out io.Writer
	now func() time.Time
}

func NewMigrateLegacyCommand() *MigrateLegacyCommand {
	return &MigrateLegacyCommand{out: os.Stdout, now: time.Now}
}

func (cmd *MigrateLegacyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate-legacy", flag.ContinueOnError)

	fs.StringVar(&cmd.LegacyPath, "file", "", "Path to the legacy library JSON file (required)")
	fs.StringVar(&cmd.UserID, "user", "", "User id to store the library under (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Force, "force", false, "Overwrite a library that already exists for the user")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be migrated without making changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every migrated book")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate-legacy -file <path> -user <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Migrate a legacy local library into the database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate-legacy -file legacy/ana.json -user ana -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.LegacyPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	if cmd.UserID == "" {
		return fmt.Errorf("required flag -user not provided")
	}
	return nil
}

func (cmd *MigrateLegacyCommand) Run() error {
	fmt.Fprintln(cmd.out, "Legacy Migration")
	fmt.Fprintln(cmd.out, "================")

	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "DRY RUN MODE - No changes will be made")
		fmt.Fprintln(cmd.out)
	}

	raw, err := os.ReadFile(cmd.LegacyPath)
	if err != nil {
		return fmt.Errorf("failed to read legacy file: %w", err)
	}
	fmt.Fprintf(cmd.out, "File: %s\n", cmd.LegacyPath)

	now := cmd.now()
	state, migrated, err := legacy.Upgrade(raw, now)
	if err != nil {
		return fmt.Errorf("failed to migrate legacy file: %w", err)
	}
	snap := state.Snapshot(now)

	if migrated {
		fmt.Fprintln(cmd.out, "Format: legacy shelves")
	} else {
		fmt.Fprintln(cmd.out, "Format: snapshot")
	}
	cmd.printSummary(snap)

	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "\nDry run complete. Use without -dry-run to migrate.")
		return nil
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	fmt.Fprintf(cmd.out, "\nSaving to database: %s\n", absDBPath)

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := snapshots.NewRepository(db.DB)

	exists, err := repo.Exists(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("failed to check existing library: %w", err)
	}
	if exists && !cmd.Force {
		return fmt.Errorf("a library already exists for %q (use -force to overwrite)", cmd.UserID)
	}

	if err := repo.SaveAll(ctx, cmd.UserID, &snap); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}

	fmt.Fprintln(cmd.out, "\nMigration complete!")
	return nil
}

func (cmd *MigrateLegacyCommand) printSummary(snap entities.Snapshot) {
	counts := make(map[entities.BookStatus]int)
	for _, book := range snap.Books {
		counts[book.Status]++
	}

	fmt.Fprintf(cmd.out, "\nBooks: %d\n", len(snap.Books))
	for _, status := range entities.AllBookStatuses {
		if counts[status] > 0 {
			fmt.Fprintf(cmd.out, "  %-10s %d\n", status, counts[status])
		}
	}
	fmt.Fprintf(cmd.out, "Sagas: %d\n", len(snap.Sagas))
	fmt.Fprintf(cmd.out, "Scans: %d\n", len(snap.ScanHistory))
	fmt.Fprintf(cmd.out, "Points: %d (earned %d)\n", snap.CurrentPoints, snap.TotalEarned)

	if cmd.Verbose {
		fmt.Fprintln(cmd.out, "\n=== Books ===")
		for i, book := range snap.Books {
			author := book.Author
			if author == "" {
				author = "(no author)"
			}
			fmt.Fprintf(cmd.out, "%d. \"%s\" by %s [%s]\n", i+1, book.Title, author, book.Status)
		}
	}
}
