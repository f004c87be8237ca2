package loader

import (
	"errors"
	"fmt"
)

// ErrUnknownTable is returned for manifest entries naming a table the loader has no rules for.
var ErrUnknownTable = errors.New("unknown table")

// SeasonOffset is the position of the season value in a classified stats row.
const SeasonOffset = 3

// TableSpec describes how CSV records map onto one warehouse table.
type TableSpec struct {
	Name string
	// Columns in the table's declared order
	Columns    []string
	KeyColumns []string
	Rules      Rules
	// Aliases maps CSV header names onto differently named columns.
	Aliases map[string]string
	// Seasonal tables get the manifest season inserted at SeasonOffset.
	Seasonal bool
	// Snapshot tables may be overwritten when refresh is enabled.
	Snapshot bool
}

// KeyIndexes returns the positions of the key columns within Columns.
func (t TableSpec) KeyIndexes() ([]int, error) {
	idx := make([]int, 0, len(t.KeyColumns))
	for _, key := range t.KeyColumns {
		found := -1
		for i, col := range t.Columns {
			if col == key {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("table %s: key column %s not declared", t.Name, key)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

// ColumnFor returns the table column a CSV header field loads into.
func (t TableSpec) ColumnFor(field string) string {
	if col, ok := t.Aliases[field]; ok {
		return col
	}
	return field
}

var statsText = []string{"player_id", "pos", "team_id", "team_name_abbr"}

var statsAliases = map[string]string{"team_id": "team_season", "team_name_abbr": "team_season"}

// Columns scraped for display only; they live in other tables or are derivable.
var statsDrop = []string{"", "player", "name_display", "age", "ranker", "awards", "DUMMY"}

func statsSpec(name string, metrics []string) TableSpec {
	cols := append([]string{"player_id", "pos", "team_season", "season"}, metrics...)
	return TableSpec{
		Name:       name,
		Columns:    cols,
		KeyColumns: []string{"player_id", "season"},
		Rules:      NewRules(statsText, statsDrop),
		Aliases:    statsAliases,
		Seasonal:   true,
	}
}

// Tables is the catalog of loader-populated tables, keyed by name.
var Tables = map[string]TableSpec{
	"players": {
		Name:       "players",
		Columns:    []string{"player_id", "name"},
		KeyColumns: []string{"player_id"},
		Rules:      NewRules([]string{"player_id", "player", "name"}, []string{""}),
		Aliases:    map[string]string{"player": "name"},
	},
	"players_info": {
		Name: "players_info",
		Columns: []string{
			"player_id", "team_id", "age", "height", "weight",
			"college", "country", "draft_year", "draft_round", "draft_number",
		},
		KeyColumns: []string{"player_id"},
		Rules:      NewRules([]string{"player_id", "team", "team_id", "college", "country"}, []string{""}),
		Aliases:    map[string]string{"team": "team_id"},
		Snapshot:   true,
	},
	"stats_per_game": statsSpec("stats_per_game", []string{
		"g", "gs", "mp_per_g",
		"fg_per_g", "fga_per_g", "fg_pct",
		"fg3_per_g", "fg3a_per_g", "fg3_pct",
		"fg2_per_g", "fg2a_per_g", "fg2_pct",
		"efg_pct",
		"ft_per_g", "fta_per_g", "ft_pct",
		"orb_per_g", "drb_per_g", "trb_per_g",
		"ast_per_g", "stl_per_g", "blk_per_g",
		"tov_per_g", "pf_per_g", "pts_per_g",
	}),
	"stats_per_minute": statsSpec("stats_per_minute", []string{
		"g", "gs", "mp",
		"fg_per_mp", "fga_per_mp", "fg_pct",
		"fg3_per_mp", "fg3a_per_mp", "fg3_pct",
		"fg2_per_mp", "fg2a_per_mp", "fg2_pct",
		"ft_per_mp", "fta_per_mp", "ft_pct",
		"orb_per_mp", "drb_per_mp", "trb_per_mp",
		"ast_per_mp", "stl_per_mp", "blk_per_mp",
		"tov_per_mp", "pf_per_mp", "pts_per_mp",
	}),
	"stats_per_poss": statsSpec("stats_per_poss", []string{
		"g", "gs", "mp",
		"fg_per_poss", "fga_per_poss", "fg_pct",
		"fg3_per_poss", "fg3a_per_poss", "fg3_pct",
		"fg2_per_poss", "fg2a_per_poss", "fg2_pct",
		"ft_per_poss", "fta_per_poss", "ft_pct",
		"orb_per_poss", "drb_per_poss", "trb_per_poss",
		"ast_per_poss", "stl_per_poss", "blk_per_poss",
		"tov_per_poss", "pf_per_poss", "pts_per_poss",
		"off_rtg", "def_rtg",
	}),
	"stats_totals": statsSpec("stats_totals", []string{
		"g", "gs", "mp",
		"fg", "fga", "fg_pct",
		"fg3", "fg3a", "fg3_pct",
		"fg2", "fg2a", "fg2_pct",
		"efg_pct",
		"ft", "fta", "ft_pct",
		"orb", "drb", "trb",
		"ast", "stl", "blk",
		"tov", "pf", "pts",
	}),
	"twitter_details": {
		Name: "twitter_details",
		Columns: []string{
			"player_id", "creation_date", "user_name", "twitter_id",
			"followers_count", "following_count", "tweet_count", "listed_count", "description",
		},
		KeyColumns: []string{"player_id"},
		// twitter_id is a 64-bit snowflake and would lose precision as a float
		Rules:    NewRules([]string{"player_id", "creation_date", "user_name", "twitter_id", "description"}, []string{""}),
		Snapshot: true,
	},
}

// Lookup returns the spec for a table name.
func Lookup(name string) (TableSpec, error) {
	spec, ok := Tables[name]
	if !ok {
		return TableSpec{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return spec, nil
}
