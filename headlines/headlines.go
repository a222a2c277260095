// Package headlines reads the latest stories of a newspaper from its RSS or
// Atom feed.
package headlines

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// UserAgent identifies newsmap to newspaper sites.
const UserAgent = "newsmap/1.0 (newspaper headline reader)"

// maxSummaryRunes caps headline summaries.
const maxSummaryRunes = 500

// ErrNoFeed is returned when a page advertises no RSS or Atom feed.
var ErrNoFeed = errors.New("no feed found")

// Headline is one story from a newspaper feed.
type Headline struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Image       string    `json:"image,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Client fetches newspaper pages and feeds.
type Client struct {
	http *http.Client
}

// NewClient creates a Client with a 10 second timeout.
func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// fetchDocument fetches and parses the HTML page at pageURL.
func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// DiscoverFeedURL finds the first RSS or Atom feed advertised by the page at
// pageURL. Relative links resolve against pageURL.
func (c *Client) DiscoverFeedURL(ctx context.Context, pageURL string) (string, error) {
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return feedLink(doc, pageURL)
}

// FetchPageTitle returns the site name of the page at pageURL, taken from
// og:site_name or else the <title>.
func (c *Client) FetchPageTitle(ctx context.Context, pageURL string) (string, error) {
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return pageTitle(doc), nil
}

// Preview fetches the page at pageURL once and returns its title and feed
// URL. The feed URL is empty when the page advertises none.
func (c *Client) Preview(ctx context.Context, pageURL string) (title, feedURL string, err error) {
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", "", err
	}

	feedURL, err = feedLink(doc, pageURL)
	if err != nil && !errors.Is(err, ErrNoFeed) {
		return "", "", err
	}
	return pageTitle(doc), feedURL, nil
}

func feedLink(doc *goquery.Document, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}

	var feedURL string
	doc.Find(`link[rel~="alternate"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		kind := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
		if kind != "application/rss+xml" && kind != "application/atom+xml" {
			return true
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		feedURL = base.ResolveReference(ref).String()
		return false
	})

	if feedURL == "" {
		return "", ErrNoFeed
	}
	return feedURL, nil
}

func pageTitle(doc *goquery.Document) string {
	if name, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
		if name = collapseSpaces(name); name != "" {
			return name
		}
	}
	return collapseSpaces(doc.Find("title").First().Text())
}

// FetchHeadlines returns at most limit headlines from the feed at feedURL, in
// feed order. A limit of zero or less returns them all.
func (c *Client) FetchHeadlines(ctx context.Context, feedURL string, limit int) ([]Headline, error) {
	fp := gofeed.NewParser()
	fp.Client = c.http
	fp.UserAgent = UserAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	headlines := make([]Headline, 0, len(items))
	for _, item := range items {
		headlines = append(headlines, ItemToHeadline(item))
	}
	return headlines, nil
}

// ItemToHeadline converts an RSS or Atom item. gofeed normalizes both formats
// into the same structure.
func ItemToHeadline(item *gofeed.Item) Headline {
	title := collapseSpaces(item.Title)
	if title == "" {
		title = "(No title)"
	}

	var publishedAt time.Time
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	return Headline{
		Title:       title,
		Summary:     truncate(plainText(item.Description), maxSummaryRunes),
		URL:         item.Link,
		Image:       itemImage(item),
		PublishedAt: publishedAt,
	}
}

// itemImage prefers the item's own image, then the first image enclosure.
func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

// plainText strips markup from feed descriptions, which are often HTML.
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return collapseSpaces(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}
	return collapseSpaces(doc.Text())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
