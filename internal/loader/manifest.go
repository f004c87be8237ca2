package loader

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one file to load: its target table, the season it covers
// (zero for season-less tables) and its path.
type Entry struct {
	Table  string `json:"table"`
	Season int    `json:"season,omitempty"`
	Path   string `json:"path"`
}

// Manifest is the ordered list of files a run loads.
type Manifest []Entry

var statsFilePattern = regexp.MustCompile(`^sample_(\d{4})(.*)\.csv$`)

// statsSuffixes maps the scrape suffix of a stats file to its table.
var statsSuffixes = map[string]string{
	"_per_game":       "stats_per_game",
	"_per_minute":     "stats_per_minute",
	"_per_36":         "stats_per_minute",
	"_per_possession": "stats_per_poss",
	"_per_poss":       "stats_per_poss",
	"_total":          "stats_totals",
	"_totals":         "stats_totals",
}

// StatsTableForSuffix resolves a stats file suffix such as "_per_game".
func StatsTableForSuffix(suffix string) (string, bool) {
	table, ok := statsSuffixes[suffix]
	return table, ok
}

// StatsFileName is the inverse of the stats naming convention.
func StatsFileName(season int, suffix string) string {
	return fmt.Sprintf("sample_%d%s.csv", season, suffix)
}

// BuildManifest scans dir and turns the scrape naming convention into a
// Manifest: player files first, then stats, then twitter details, each group
// in directory-listing order. Files matching no convention are skipped.
func BuildManifest(dir string, logger *log.Logger) (Manifest, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[loader] ", log.LstdFlags)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var players, stats, twitter Manifest
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		path := filepath.Join(dir, name)

		entry, ok := classifyFileName(name)
		if !ok {
			if strings.HasSuffix(name, ".csv") {
				logger.Printf("  ⊘ Ignoring %s (no matching table)", name)
			}
			continue
		}
		entry.Path = path

		switch {
		case entry.Table == "twitter_details":
			twitter = append(twitter, entry)
		case entry.Season != 0:
			stats = append(stats, entry)
		default:
			players = append(players, entry)
		}
	}

	manifest := make(Manifest, 0, len(players)+len(stats)+len(twitter))
	manifest = append(manifest, players...)
	manifest = append(manifest, stats...)
	manifest = append(manifest, twitter...)
	return manifest, nil
}

func classifyFileName(name string) (Entry, bool) {
	if m := statsFilePattern.FindStringSubmatch(name); m != nil {
		table, ok := StatsTableForSuffix(m[2])
		if !ok {
			return Entry{}, false
		}
		season, err := strconv.Atoi(m[1])
		if err != nil {
			return Entry{}, false
		}
		return Entry{Table: table, Season: season}, true
	}

	if name == "twitter_details.csv" {
		return Entry{Table: "twitter_details"}, true
	}

	if strings.HasPrefix(name, "players") && strings.HasSuffix(name, ".csv") {
		table := strings.TrimSuffix(name, ".csv")
		if table == "players_id" {
			table = "players"
		}
		if _, ok := Tables[table]; !ok {
			return Entry{}, false
		}
		return Entry{Table: table}, true
	}

	return Entry{}, false
}
