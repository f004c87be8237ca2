package scrape

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	bioTableSelector = `table[class*="Crom_table"]`
	bioPagesSelector = `div[class*="Pagination_pageDropdown"] select option`
	bioNextSelector  = `button[title="Next Page Button"]`
)

// BioRow is one player row of the nba.com player bio table.
type BioRow struct {
	Player      string
	Team        string
	Age         string
	Height      string
	Weight      string
	College     string
	Country     string
	DraftYear   string
	DraftRound  string
	DraftNumber string
}

// BioFetcher renders the nba.com player bio pages, which are built client
// side, with a headless browser
type BioFetcher struct {
	baseURL string
	logger  *log.Logger

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBioFetcher creates a browser allocator for bio pages.
func NewBioFetcher(baseURL string, headless bool, logger *log.Logger) *BioFetcher {
	if logger == nil {
		logger = log.New(log.Writer(), "[scrape] ", log.LstdFlags)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BioFetcher{
		baseURL:  baseURL,
		logger:   logger,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases resources
func (b *BioFetcher) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// BioURL is the regular season bio page of a season, e.g. 2021 for 2020-21.
func BioURL(baseURL string, season int) string {
	q := url.Values{}
	q.Set("Season", SeasonLabel(season))
	q.Set("SeasonType", "Regular Season")
	return baseURL + "?" + q.Encode()
}

// SeasonLabel formats a season by its end year: 2021 becomes "2020-21".
func SeasonLabel(season int) string {
	return fmt.Sprintf("%d-%02d", season-1, season%100)
}

// FetchBios renders every page of a season's bio table and parses it.
func (b *BioFetcher) FetchBios(ctx context.Context, season int) ([]BioRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(b.allocCtx)
	defer browserCancel()

	// stop the browser when the caller's context ends
	go func() {
		<-ctx.Done()
		browserCancel()
	}()

	target := BioURL(b.baseURL, season)
	var pages int
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(bioTableSelector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%q).length`, bioPagesSelector), &pages),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp error opening %s: %w", target, err)
	}
	if pages < 1 {
		pages = 1
	}
	b.logger.Printf("Found %d bio pages for season %s", pages, SeasonLabel(season))

	var rows []BioRow
	for page := 1; page <= pages; page++ {
		var tableHTML string
		if err := chromedp.Run(browserCtx,
			chromedp.WaitVisible(bioTableSelector, chromedp.ByQuery),
			chromedp.OuterHTML(bioTableSelector, &tableHTML, chromedp.ByQuery),
		); err != nil {
			return nil, fmt.Errorf("chromedp error reading page %d of %d: %w", page, pages, err)
		}

		parsed, err := ParseBioTable(tableHTML)
		if err != nil {
			return nil, fmt.Errorf("page %d of %d: %w", page, pages, err)
		}
		rows = append(rows, parsed...)

		if page == pages {
			break
		}
		if err := chromedp.Run(browserCtx,
			chromedp.Click(bioNextSelector, chromedp.ByQuery),
			chromedp.Sleep(1*time.Second), // Allow JS to render
		); err != nil {
			return nil, fmt.Errorf("chromedp error moving to page %d: %w", page+1, err)
		}
	}

	return rows, nil
}

// ParseBioTable reads the bio table by its header names.
func ParseBioTable(html string) ([]BioRow, error) {
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}

	col := map[string]int{}
	doc.Find("thead th").Each(func(i int, th *goquery.Selection) {
		col[strings.TrimSpace(th.Text())] = i
	})
	if _, ok := col["Player"]; !ok {
		return nil, ErrNoTable
	}

	var rows []BioRow
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(cells) {
				return ""
			}
			return cells[i]
		}

		rows = append(rows, BioRow{
			Player:      get("Player"),
			Team:        get("Team"),
			Age:         get("Age"),
			Height:      get("Height"),
			Weight:      get("Weight"),
			College:     get("College"),
			Country:     get("Country"),
			DraftYear:   get("Draft Year"),
			DraftRound:  get("Draft Round"),
			DraftNumber: get("Draft Number"),
		})
	})

	return rows, nil
}
