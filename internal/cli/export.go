package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/snapshots"
	"github.com/mrlokans/bookshelf/internal/exporters"
)

// ExportCommand writes stored libraries to JSON snapshot files.
type ExportCommand struct {
	UserID       string
	DatabasePath string
	OutputDir    string

	out io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{out: os.Stdout}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	fs.StringVar(&cmd.UserID, "user", "", "User id to export (exports every stored library when empty)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.OutputDir, "output", config.DefaultExportDir, "Output directory for snapshot files")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [-user <id>] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export stored libraries as JSON snapshots.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ExportCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	absOutputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	exporter := exporters.NewLibraryExporter(snapshots.NewRepository(db.DB), exporters.NewJSONExporter(absOutputDir))
	ctx := context.Background()

	fmt.Fprintf(cmd.out, "Exporting to: %s\n", absOutputDir)

	if cmd.UserID != "" {
		result, err := exporter.ExportUser(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		cmd.printResult(result)
		return nil
	}

	results, err := exporter.ExportAll(ctx)
	for _, result := range results {
		cmd.printResult(result)
	}
	fmt.Fprintf(cmd.out, "Exported %d libraries\n", len(results))
	return err
}

func (cmd *ExportCommand) printResult(result exporters.ExportResult) {
	fmt.Fprintf(cmd.out, "  %s: %d books, %d sagas, %d scans -> %s\n",
		result.UserID, result.Books, result.Sagas, result.Scans, result.Path)
}
