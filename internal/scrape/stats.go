package scrape

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTable is returned when a page holds no player rows.
var ErrNoTable = errors.New("no player table found")

// StatPage is one basketball-reference league stats page. Suffix is shared by
// the page URL and the exported file name.
type StatPage struct {
	Name   string
	Suffix string
}

// StatPages are scraped for every season, totals first because player ids
// are taken from it.
var StatPages = []StatPage{
	{Name: "totals", Suffix: "_totals"},
	{Name: "per game", Suffix: "_per_game"},
	{Name: "per 36 minutes", Suffix: "_per_minute"},
	{Name: "per 100 possessions", Suffix: "_per_poss"},
}

// StatsTable is a parsed stats page: one header and one record per player
// row, player_id first.
type StatsTable struct {
	Header []string
	Rows   [][]string
}

// StatsURL builds the league page URL of a season.
func StatsURL(baseURL string, season int, page StatPage) string {
	return fmt.Sprintf("%s/NBA_%d%s.html", strings.TrimSuffix(baseURL, "/"), season, page.Suffix)
}

// ParseStatsTable extracts the full_table rows of a league stats page. The
// player id is the slug of the row's first link; every td with a data-stat
// attribute becomes a column named after it.
func ParseStatsTable(html string) (*StatsTable, error) {
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}

	table := &StatsTable{}
	index := map[string]int{}

	doc.Find("tr.full_table").Each(func(_ int, row *goquery.Selection) {
		href, ok := row.Find("a").First().Attr("href")
		if !ok {
			return
		}

		cells := row.Find("td[data-stat]")
		if cells.Length() == 0 {
			return
		}

		if table.Header == nil {
			table.Header = []string{"player_id"}
			cells.Each(func(_ int, td *goquery.Selection) {
				stat, _ := td.Attr("data-stat")
				if _, dup := index[stat]; dup {
					return
				}
				index[stat] = len(table.Header)
				table.Header = append(table.Header, stat)
			})
		}

		record := make([]string, len(table.Header))
		record[0] = playerIDFromHref(href)
		cells.Each(func(_ int, td *goquery.Selection) {
			stat, _ := td.Attr("data-stat")
			if i, ok := index[stat]; ok {
				record[i] = td.Text()
			}
		})
		table.Rows = append(table.Rows, record)
	})

	if len(table.Rows) == 0 {
		return nil, ErrNoTable
	}
	return table, nil
}

// Column returns the values of one column, or nil if it is absent.
func (t *StatsTable) Column(name string) []string {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}

// playerIDFromHref turns "/players/j/jamesle01.html" into "jamesle01".
func playerIDFromHref(href string) string {
	return strings.TrimSuffix(path.Base(href), ".html")
}

// FetchStats downloads and parses one season page.
func (c *Client) FetchStats(ctx context.Context, baseURL string, season int, page StatPage) (*StatsTable, error) {
	url := StatsURL(baseURL, season, page)
	html, err := c.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}

	table, err := ParseStatsTable(html)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return table, nil
}
