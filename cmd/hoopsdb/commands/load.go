package commands

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/hoopsdb/internal/cache"
	"github.com/fortuna/hoopsdb/internal/loader"
	"github.com/fortuna/hoopsdb/internal/publisher"
	"github.com/fortuna/hoopsdb/internal/store"
	"github.com/fortuna/hoopsdb/internal/store/repository"
)

func init() {
	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Loads the CSV files of a directory into the warehouse.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.DataDir
		if len(args) == 1 {
			dir = args[0]
		}

		ctx := cmd.Context()
		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		rc := connectRedis()
		if rc != nil {
			defer rc.Close()
		}
		return runLoad(ctx, db, rc, dir)
	},
}

// runLoad publishes load events through rc when it is not nil.
func runLoad(ctx context.Context, db *store.Database, rc *cache.RedisCache, dir string) error {
	manifest, err := loader.BuildManifest(dir, nil)
	if err != nil {
		return err
	}
	if len(manifest) == 0 {
		log.Printf("No loadable CSV files in %s", dir)
	}

	reporters := loader.MultiReporter{
		&consoleReporter{},
		loader.NewHistoryReporter(ctx, repository.NewLoadRunRepository(db), dir, nil),
	}
	if rc != nil {
		reporters = append(reporters, publisher.NewLoadReporter(ctx, publisher.NewRedisStreamPublisher(rc.Client()), nil))
	}

	l := loader.New(db.DB(), loader.Options{
		RefreshSnapshots: cfg.RefreshSnapshots,
		Reporter:         reporters,
	})

	summary, err := l.Run(ctx, manifest)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	log.Printf("✓ Load finished: %d files loaded, %d failed, %d rows inserted, %d updated",
		len(summary.Loaded), len(summary.Failed), summary.Inserted(), summary.Updated())
	return nil
}

type consoleReporter struct{}

func (c *consoleReporter) OnRunStart(manifest loader.Manifest) {
	log.Printf("Loading %d files", len(manifest))
}

func (c *consoleReporter) OnFileStart(entry loader.Entry, index int, total int) {
	log.Printf("[%d/%d] %s -> %s", index+1, total, filepath.Base(entry.Path), entry.Table)
}

func (c *consoleReporter) OnRecordSkipped(entry loader.Entry, err error) {}

func (c *consoleReporter) OnFileLoaded(result loader.FileResult) {
	log.Printf("  %d records: %d inserted, %d updated, %d already stored, %d duplicates, %d skipped (%v)",
		result.Records, result.Inserted, result.Updated, result.Existing, result.Duplicates, result.Skipped,
		result.Duration.Round(time.Millisecond))
}

func (c *consoleReporter) OnFileError(entry loader.Entry, err error) {}

func (c *consoleReporter) OnRunComplete(summary *loader.RunSummary) {
	for _, f := range summary.Failed {
		log.Printf("  ✗ %s: %v", filepath.Base(f.Entry.Path), f.Err)
	}
}

func (c *consoleReporter) OnRunError(err error) {
	log.Printf("Load aborted: %v", err)
}
