package commands

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/fortuna/hoopsdb/internal/cache"
	"github.com/fortuna/hoopsdb/internal/scrape"
)

var skipBios bool

func init() {
	scrapeCmd.Flags().BoolVar(&skipBios, "skip-bios", false, "do not render nba.com bio pages (no players_info.csv)")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <year_start> <year_end>",
	Short: "Exports season stats and player details as CSV files.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		yearStart, yearEnd, err := parseSeasons(args)
		if err != nil {
			return err
		}

		rc := connectRedis()
		if rc != nil {
			defer rc.Close()
		}
		return runScrape(cmd.Context(), rc, yearStart, yearEnd)
	},
}

// runScrape caches pages in rc when it is not nil.
func runScrape(ctx context.Context, rc *cache.RedisCache, yearStart, yearEnd int) error {
	opts := scrape.ClientOptions{
		Interval: cfg.Scrape.RequestInterval,
		CacheTTL: cfg.Scrape.CacheTTL,
	}
	if rc != nil {
		opts.Cache = rc
	}

	scraperOpts := scrape.Options{
		StatsBaseURL: cfg.Scrape.StatsBaseURL,
		OutDir:       cfg.DataDir,
	}
	if !skipBios {
		bios := scrape.NewBioFetcher(cfg.Scrape.BioBaseURL, cfg.Scrape.Headless, nil)
		defer bios.Close()
		scraperOpts.Bios = bios
	}

	summary, err := scrape.NewScraper(scrape.NewClient(opts), scraperOpts).Run(ctx, yearStart, yearEnd)
	if err != nil {
		return err
	}

	log.Printf("✓ Scrape finished: %d files written, %d failures", len(summary.Files), len(summary.Failed))
	return nil
}
