package scrape

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/hoopsdb/internal/loader"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseStatsTable(t *testing.T) {
	table, err := ParseStatsTable(fixture(t, "per_game.html"))
	require.NoError(t, err)

	assert.Equal(t, []string{"player_id", "player", "pos", "age", "team_id", "g", "fg3_pct", "pts_per_g"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"achiupr01", "Precious Achiuwa", "PF", "21", "MIA", "61", "", "5.0"}, table.Rows[0])
	assert.Equal(t, "adamsst01", table.Rows[1][0])
	assert.Equal(t, []string{"MIA", "NOP"}, table.Column("team_id"))
	assert.Nil(t, table.Column("awards"))
}

func TestParseStatsTable_NoRows(t *testing.T) {
	_, err := ParseStatsTable("<html><body><p>Page not found</p></body></html>")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParseBioTable(t *testing.T) {
	rows, err := ParseBioTable(fixture(t, "bio.html"))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, BioRow{
		Player: "Precious Achiuwa", Team: "MIA", Age: "21", Height: "6-8", Weight: "225",
		College: "Memphis", Country: "Nigeria", DraftYear: "2020", DraftRound: "1", DraftNumber: "20",
	}, rows[0])
	assert.Equal(t, "Undrafted", rows[2].DraftYear)
}

func TestParseBioTable_MissingHeader(t *testing.T) {
	_, err := ParseBioTable("<table><tbody><tr><td>x</td></tr></tbody></table>")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestConversions(t *testing.T) {
	assert.Equal(t, "203.2000", FeetInchesToCM("6-8"))
	assert.Equal(t, "210.8200", FeetInchesToCM("6-11"))
	assert.Equal(t, "", FeetInchesToCM("6'8\""))
	assert.Equal(t, "", FeetInchesToCM(""))
	assert.Equal(t, "102.0582", PoundsToKG("225"))
	assert.Equal(t, "", PoundsToKG("n/a"))
}

func TestSeasonLabel(t *testing.T) {
	assert.Equal(t, "2020-21", SeasonLabel(2021))
	assert.Equal(t, "1999-00", SeasonLabel(2000))
	assert.Contains(t, BioURL("https://www.nba.com/stats/players/bio", 2021), "Season=2020-21")
}

func TestJoinBios(t *testing.T) {
	bios, err := ParseBioTable(fixture(t, "bio.html"))
	require.NoError(t, err)

	rows := JoinBios(bios, []PlayerID{
		{ID: "achiupr01", Name: "Precious Achiuwa"},
		{ID: "adamsst01", Name: "Steven Adams"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"achiupr01", "MIA", "21", "203.2000", "102.0582", "Memphis", "Nigeria", "2020", "1", "20"}, rows[0])
	assert.Equal(t, "adamsst01", rows[1][0])
	assert.Len(t, rows[0], len(PlayersInfoHeader))
}

type memoryCache struct {
	pages map[string]string
}

func (m *memoryCache) GetPage(_ context.Context, url string) (string, bool, error) {
	body, ok := m.pages[url]
	return body, ok, nil
}

func (m *memoryCache) SetPage(_ context.Context, url, body string, _ time.Duration) error {
	m.pages[url] = body
	return nil
}

func TestClient_FetchPageUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		io.WriteString(w, "<html>ok</html>")
	}))
	defer srv.Close()

	cache := &memoryCache{pages: map[string]string{}}
	c := NewClient(ClientOptions{Interval: time.Millisecond, Cache: cache, CacheTTL: time.Hour, Logger: quietLogger()})

	for i := 0; i < 3; i++ {
		body, err := c.FetchPage(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", body)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_FetchPageStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{Interval: time.Millisecond, Logger: quietLogger()})
	_, err := c.FetchPage(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{Interval: time.Hour, Logger: quietLogger()})
	_, err := c.FetchPage(context.Background(), srv.URL+"/a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FetchPage(ctx, srv.URL+"/b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeBios struct {
	rows []BioRow
	err  error
}

func (f fakeBios) FetchBios(context.Context, int) ([]BioRow, error) {
	return f.rows, f.err
}

func newStatsServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/leagues/NBA_2021") {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScraper_Run(t *testing.T) {
	srv := newStatsServer(t, fixture(t, "per_game.html"))
	bios, err := ParseBioTable(fixture(t, "bio.html"))
	require.NoError(t, err)

	out := t.TempDir()
	s := NewScraper(
		NewClient(ClientOptions{Interval: time.Millisecond, Logger: quietLogger()}),
		Options{StatsBaseURL: srv.URL + "/leagues", OutDir: out, Bios: fakeBios{rows: bios}, Logger: quietLogger()},
	)

	summary, err := s.Run(context.Background(), 2021, 2021)
	require.NoError(t, err)
	assert.NoError(t, summary.Err())
	assert.Len(t, summary.Files, len(StatPages)+2)

	players := readCSV(t, filepath.Join(out, PlayersFile))
	assert.Equal(t, [][]string{
		{"player_id", "player"},
		{"achiupr01", "Precious Achiuwa"},
		{"adamsst01", "Steven Adams"},
	}, players)

	info := readCSV(t, filepath.Join(out, PlayersInfoFile))
	require.Len(t, info, 3)
	assert.Equal(t, PlayersInfoHeader, info[0])

	manifest, err := loader.BuildManifest(out, quietLogger())
	require.NoError(t, err)
	var tables []string
	for _, e := range manifest {
		tables = append(tables, e.Table)
	}
	assert.Equal(t, []string{
		"players", "players_info",
		"stats_per_game", "stats_per_minute", "stats_per_poss", "stats_totals",
	}, tables)
}

func TestScraper_FailedPagesAreCollected(t *testing.T) {
	srv := newStatsServer(t, fixture(t, "per_game.html"))

	out := t.TempDir()
	s := NewScraper(
		NewClient(ClientOptions{Interval: time.Millisecond, Logger: quietLogger()}),
		Options{StatsBaseURL: srv.URL + "/leagues", OutDir: out, Bios: fakeBios{err: errors.New("browser crashed")}, Logger: quietLogger()},
	)

	summary, err := s.Run(context.Background(), 2021, 2022)
	require.NoError(t, err)

	// every 2022 page plus the bio fetch for 2021
	assert.Len(t, summary.Failed, len(StatPages)+1)
	assert.Error(t, summary.Err())
	_, err = os.Stat(filepath.Join(out, PlayersInfoFile))
	assert.True(t, os.IsNotExist(err))
}

func TestScraper_InvalidRange(t *testing.T) {
	s := NewScraper(NewClient(ClientOptions{Logger: quietLogger()}), Options{OutDir: t.TempDir(), Logger: quietLogger()})
	_, err := s.Run(context.Background(), 2022, 2021)
	assert.Error(t, err)
}
