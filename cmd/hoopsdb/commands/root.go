package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fortuna/hoopsdb/internal/cache"
	"github.com/fortuna/hoopsdb/internal/config"
	"github.com/fortuna/hoopsdb/internal/store"
)

const (
	appName    = "hoopsdb"
	appVersion = "1.0.0"
)

var (
	cfg config.Config

	configPath       string
	dataDirFlag      string
	refreshSnapshots bool
)

var rootCmd = &cobra.Command{
	Use:     "hoopsdb <year_start> <year_end>",
	Short:   "hoopsdb scrapes NBA player stats and loads them into PostgreSQL.",
	Long:    "Without a subcommand hoopsdb runs the whole sequence: scrape the seasons, apply migrations, load the CSV files.",
	Version: appVersion,
	Args:    cobra.ExactArgs(2),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data-dir") {
			loaded.DataDir = dataDirFlag
		}
		if cmd.Flags().Changed("refresh-snapshots") {
			loaded.RefreshSnapshots = refreshSnapshots
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		yearStart, yearEnd, err := parseSeasons(args)
		if err != nil {
			return err
		}

		log.Printf("=== %s v%s ===", appName, appVersion)
		ctx := cmd.Context()

		rc := connectRedis()
		if rc != nil {
			defer rc.Close()
		}

		if err := runScrape(ctx, rc, yearStart, yearEnd); err != nil {
			return err
		}

		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			return err
		}
		log.Println("✓ Database migrations applied")

		return runLoad(ctx, db, rc, cfg.DataDir)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory holding the scraped CSV files")
	rootCmd.PersistentFlags().BoolVar(&refreshSnapshots, "refresh-snapshots", false, "overwrite existing players_info and twitter_details rows")
}

// ExecuteContext runs the CLI and exits non-zero when a command fails.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseSeasons(args []string) (int, int, error) {
	yearStart, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year_start %q: %w", args[0], err)
	}
	yearEnd, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year_end %q: %w", args[1], err)
	}
	if yearStart > yearEnd {
		return 0, 0, fmt.Errorf("year_start %d is after year_end %d", yearStart, yearEnd)
	}
	return yearStart, yearEnd, nil
}

func openDatabase(ctx context.Context) (*store.Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := store.NewDatabase(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Printf("✓ Connected to %s on %s", cfg.Database.Name, cfg.Database.Host)
	return db, nil
}

// connectRedis returns nil when no Redis is configured or reachable; the
// page cache and load events are optional.
func connectRedis() *cache.RedisCache {
	if cfg.RedisURL == "" {
		return nil
	}

	rc, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("⚠️  Redis unavailable, continuing without it: %v", err)
		return nil
	}
	log.Println("✓ Connected to Redis")
	return rc
}
