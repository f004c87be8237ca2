package scrape

// PlayerID pairs a basketball-reference player id with the display name.
type PlayerID struct {
	ID   string
	Name string
}

// PlayerIDs lists the players of a stats table. Traded players appear once
// per team on some pages; only the first row is kept.
func PlayerIDs(table *StatsTable) []PlayerID {
	names := table.Column("player")
	if names == nil {
		names = table.Column("name_display")
	}

	seen := map[string]bool{}
	var ids []PlayerID
	for i, row := range table.Rows {
		id := row[0]
		if seen[id] {
			continue
		}
		seen[id] = true

		name := ""
		if names != nil {
			name = names[i]
		}
		ids = append(ids, PlayerID{ID: id, Name: name})
	}
	return ids
}

// JoinBios keeps the bio rows whose player name matches a known id and
// returns them in players_info column order with metric units.
func JoinBios(bios []BioRow, ids []PlayerID) [][]string {
	byName := make(map[string][]string, len(ids))
	for _, id := range ids {
		byName[id.Name] = append(byName[id.Name], id.ID)
	}

	var rows [][]string
	for _, bio := range bios {
		for _, playerID := range byName[bio.Player] {
			rows = append(rows, []string{
				playerID,
				bio.Team,
				bio.Age,
				FeetInchesToCM(bio.Height),
				PoundsToKG(bio.Weight),
				bio.College,
				bio.Country,
				bio.DraftYear,
				bio.DraftRound,
				bio.DraftNumber,
			})
		}
	}
	return rows
}
