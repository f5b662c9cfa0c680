package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Press Releases</title>
<item>
<title>FOMC statement</title>
<link>https://example.org/fomc</link>
<description>&lt;p&gt;The Committee decided to &lt;b&gt;maintain&lt;/b&gt; the target range.&lt;/p&gt;</description>
<pubDate>Mon, 03 Jun 2024 14:00:00 GMT</pubDate>
</item>
<item>
<title>H.4.1 release</title>
<link>https://example.org/h41</link>
<description>Factors Affecting Reserve Balances</description>
<pubDate>Thu, 06 Jun 2024 16:30:00 GMT</pubDate>
</item>
</channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
}

func TestGetNews(t *testing.T) {
	srv := newFeedServer(t)
	defer srv.Close()

	f := NewFetcher([]Source{{Name: "Test Feed", RSSURL: srv.URL}})

	articles, err := f.GetNews(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	// Newest first.
	if articles[0].Title != "H.4.1 release" {
		t.Errorf("expected newest article first, got %q", articles[0].Title)
	}
	if !articles[0].PublishedAt.After(articles[1].PublishedAt) {
		t.Error("articles not sorted by date descending")
	}
	if articles[1].Source != "Test Feed" {
		t.Errorf("source = %q, want %q", articles[1].Source, "Test Feed")
	}
	if articles[1].Summary != "The Committee decided to maintain the target range." {
		t.Errorf("summary not cleaned of HTML: %q", articles[1].Summary)
	}
}

func TestGetNewsLimit(t *testing.T) {
	srv := newFeedServer(t)
	defer srv.Close()

	f := NewFetcher([]Source{{Name: "Test Feed", RSSURL: srv.URL}})

	articles, err := f.GetNews(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
}

func TestGetNewsCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	f := NewFetcher([]Source{{Name: "Test Feed", RSSURL: srv.URL}})

	for i := 0; i < 3; i++ {
		if _, err := f.GetNews(context.Background(), 10); err != nil {
			t.Fatalf("GetNews: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
}

func TestGetNewsAllSourcesDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewFetcher([]Source{{Name: "Dead Feed", RSSURL: srv.URL}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := f.GetNews(ctx, 10); err == nil {
		t.Fatal("expected error when every source fails")
	}
}
