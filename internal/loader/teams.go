package loader

import (
	"context"
	"fmt"

	"github.com/fortuna/hoopsdb/internal/store"
)

// TotalTeamCode marks season rows that aggregate a traded player's stints.
const TotalTeamCode = "TOT"

// StaticTeams is the franchise reference list, plus the aggregate pseudo-team
// that stats rows of traded players point at.
var StaticTeams = []store.Team{
	{TeamID: "ATL", Name: "Atlanta Hawks"},
	{TeamID: "BOS", Name: "Boston Celtics"},
	{TeamID: "BRK", Name: "Brooklyn Nets"},
	{TeamID: "CHI", Name: "Chicago Bulls"},
	{TeamID: "CHO", Name: "Charlotte Hornets"},
	{TeamID: "CLE", Name: "Cleveland Cavaliers"},
	{TeamID: "DAL", Name: "Dallas Mavericks"},
	{TeamID: "DEN", Name: "Denver Nuggets"},
	{TeamID: "DET", Name: "Detroit Pistons"},
	{TeamID: "GSW", Name: "Golden State Warriors"},
	{TeamID: "HOU", Name: "Houston Rockets"},
	{TeamID: "IND", Name: "Indiana Pacers"},
	{TeamID: "LAC", Name: "LA Clippers"},
	{TeamID: "LAL", Name: "Los Angeles Lakers"},
	{TeamID: "MEM", Name: "Memphis Grizzlies"},
	{TeamID: "MIA", Name: "Miami Heat"},
	{TeamID: "MIL", Name: "Milwaukee Bucks"},
	{TeamID: "MIN", Name: "Minnesota Timberwolves"},
	{TeamID: "NOP", Name: "New Orleans Pelicans"},
	{TeamID: "NYK", Name: "New York Knicks"},
	{TeamID: "OKC", Name: "Oklahoma City Thunder"},
	{TeamID: "ORL", Name: "Orlando Magic"},
	{TeamID: "PHI", Name: "Philadelphia 76ers"},
	{TeamID: "PHO", Name: "Phoenix Suns"},
	{TeamID: "POR", Name: "Portland Trail Blazers"},
	{TeamID: "SAC", Name: "Sacramento Kings"},
	{TeamID: "SAS", Name: "San Antonio Spurs"},
	{TeamID: "TOR", Name: "Toronto Raptors"},
	{TeamID: "UTA", Name: "Utah Jazz"},
	{TeamID: "WAS", Name: "Washington Wizards"},
	{TeamID: TotalTeamCode, Name: "Total"},
}

// SeedTeams (re)writes the static team list. It upserts, so running it on
// every load never duplicates a team and keeps names current.
func (l *Loader) SeedTeams(ctx context.Context) (int, error) {
	rows := make([][]any, len(StaticTeams))
	for i, t := range StaticTeams {
		rows[i] = []any{t.TeamID, t.Name}
	}

	n, err := l.inserter.Upsert(ctx, "teams", []string{"team_id", "name"}, []string{"team_id"}, rows)
	if err != nil {
		return 0, fmt.Errorf("seeding teams: %w", err)
	}
	return n, nil
}
