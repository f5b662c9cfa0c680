// Package news fetches Federal Reserve press releases and related
// central-bank headlines from public RSS feeds.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/liqboard/liqboard/internal/infra"
	"github.com/liqboard/liqboard/pkg/models"
)

// Source is a single RSS feed to poll.
type Source struct {
	Name   string
	RSSURL string
}

// DefaultSources are the feeds polled when none are configured.
var DefaultSources = []Source{
	{Name: "Fed Press Releases", RSSURL: "https://www.federalreserve.gov/feeds/press_all.xml"},
	{Name: "Fed Monetary Policy", RSSURL: "https://www.federalreserve.gov/feeds/press_monetary.xml"},
	{Name: "NY Fed Markets", RSSURL: "https://www.newyorkfed.org/rss/feeds/markets"},
}

const (
	cacheTTL    = 10 * time.Minute
	maxArticles = 50
)

// Fetcher aggregates articles from a set of RSS sources.
type Fetcher struct {
	sources []Source
	parser  *gofeed.Parser
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewFetcher returns a Fetcher over the given sources, or
// DefaultSources when the list is empty.
func NewFetcher(sources []Source) *Fetcher {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	p := gofeed.NewParser()
	p.UserAgent = infra.DefaultUserAgent
	return &Fetcher{
		sources: sources,
		parser:  p,
		cache:   infra.NewCache(cacheTTL),
		limiter: infra.NewRateLimiter(2, time.Second),
	}
}

// GetNews returns up to limit recent articles across all sources,
// newest first. Sources that fail to fetch are skipped.
func (f *Fetcher) GetNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 || limit > maxArticles {
		limit = maxArticles
	}

	cacheKey := fmt.Sprintf("news:fed:%d", limit)
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	var all []models.NewsArticle
	for _, src := range f.sources {
		articles, err := f.fetchRSS(ctx, src)
		if err != nil {
			// A single dead feed should not take down the endpoint.
			continue
		}
		all = append(all, articles...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no news sources available")
	}

	sortByDate(all)
	if len(all) > limit {
		all = all[:limit]
	}

	f.cache.Set(cacheKey, all)
	return all, nil
}

func (f *Fetcher) fetchRSS(ctx context.Context, src Source) ([]models.NewsArticle, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := f.parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}

	return articles, nil
}

func sortByDate(articles []models.NewsArticle) {
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
