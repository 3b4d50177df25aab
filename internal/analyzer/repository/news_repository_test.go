package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/pkg/logger"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newsFeedXML(pubDate time.Time, articleURL string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Market News</title>
    <item>
      <title>Apple shares surge after record earnings beat</title>
      <description>AAPL rallies on strong growth.</description>
      <link>%s</link>
      <pubDate>%s</pubDate>
    </item>
    <item>
      <title>Unrelated company files for bankruptcy</title>
      <description>No mention of the fruit company here.</description>
      <pubDate>%s</pubDate>
    </item>
  </channel>
</rss>`, articleURL, pubDate.Format(time.RFC1123Z), pubDate.Format(time.RFC1123Z))
}

func TestNewsRepository_GetSentiment(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta name="description" content="Apple beats estimates again."></head><body><p>short</p></body></html>`))
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newsFeedXML(time.Now(), server.URL+"/article")))
	})

	cfg := &config.Config{}
	cfg.News.Feeds = []string{server.URL + "/feed"}
	cfg.News.MaxArticles = 5
	cfg.News.MaxAge = 24 * time.Hour

	repo := NewNewsRepository(cfg, logger.NewNop(), newTestGateway(t))

	sentiment, articles, err := repo.GetSentiment(context.Background(), "AAPL", "Apple Inc.")

	require.NoError(t, err)
	// Only the Apple item matches; its keywords are uniformly bullish.
	assert.Equal(t, 1, articles)
	require.NotNil(t, sentiment)
	assert.Greater(t, *sentiment, 0.0)
}

func TestNewsRepository_StaleItemsIgnored(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newsFeedXML(time.Now().Add(-30*24*time.Hour), "")))
	})

	cfg := &config.Config{}
	cfg.News.Feeds = []string{server.URL + "/feed"}
	cfg.News.MaxAge = 24 * time.Hour

	repo := NewNewsRepository(cfg, logger.NewNop(), newTestGateway(t))

	sentiment, articles, err := repo.GetSentiment(context.Background(), "AAPL", "Apple Inc.")

	require.NoError(t, err)
	assert.Equal(t, 0, articles)
	assert.Nil(t, sentiment)
}

func TestNewsRepository_FeedFailureIsNotFatal(t *testing.T) {
	cfg := &config.Config{}
	cfg.News.Feeds = []string{"http://127.0.0.1:1/feed"}

	repo := NewNewsRepository(cfg, logger.NewNop(), newTestGateway(t))

	sentiment, articles, err := repo.GetSentiment(context.Background(), "AAPL", "Apple Inc.")

	require.NoError(t, err)
	assert.Equal(t, 0, articles)
	assert.Nil(t, sentiment)
}

func TestMentionsCompany(t *testing.T) {
	item := &gofeed.Item{Title: "Tesla deliveries hit record", Description: "TSLA is up."}

	assert.True(t, mentionsCompany(item, "TSLA", "Tesla, Inc."))
	assert.True(t, mentionsCompany(item, "XXXX", "Tesla"))
	assert.False(t, mentionsCompany(item, "AAPL", "Apple Inc."))
}
