package repository

import (
	"bytes"
	"context"
	"strings"
	"time"

	"stock-whisperer/internal/analyzer/config"
	"stock-whisperer/pkg/gateway"
	"stock-whisperer/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

// Keyword lexicon for headline/article scoring. Hits are counted per text and
// folded into a score in [-1, 1].
var (
	bullishKeywords = []string{
		"beat", "beats", "surge", "soar", "rally", "record", "upgrade", "upgraded",
		"outperform", "growth", "strong", "profit", "gain", "gains", "buyback",
		"raises guidance", "exceeds", "bullish", "momentum", "all-time high",
	}
	bearishKeywords = []string{
		"miss", "misses", "plunge", "tumble", "slump", "downgrade", "downgraded",
		"underperform", "layoff", "layoffs", "loss", "losses", "lawsuit", "probe",
		"cuts guidance", "recall", "bearish", "warning", "bankruptcy", "selloff",
	}
)

type newsRepository struct {
	cfg     *config.Config
	log     *logger.Logger
	gateway *gateway.Gateway
	parser  *gofeed.Parser
}

// NewNewsRepository creates a repository that derives a ticker sentiment value
// from configured RSS feeds. Feed and article fetches go through the shared
// gateway.
func NewNewsRepository(cfg *config.Config, log *logger.Logger, gw *gateway.Gateway) NewsRepository {
	return &newsRepository{
		cfg:     cfg,
		log:     log,
		gateway: gw,
		parser:  gofeed.NewParser(),
	}
}

// GetSentiment scans the configured feeds for items mentioning the ticker or
// company name and scores them against the keyword lexicon. Returns nil when
// no matching articles are found.
func (r *newsRepository) GetSentiment(ctx context.Context, ticker, name string) (*float64, int, error) {
	maxArticles := r.cfg.News.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 10
	}
	maxAge := r.cfg.News.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge)

	var matched []*gofeed.Item
	for _, feedURL := range r.cfg.News.Feeds {
		body, err := r.gateway.Get(ctx, feedURL)
		if err != nil {
			r.log.WarnContext(ctx, "Failed to fetch news feed", logger.ErrorField(err), logger.StringField("feed", feedURL))
			continue
		}

		feed, err := r.parser.ParseString(string(body))
		if err != nil {
			r.log.WarnContext(ctx, "Failed to parse news feed", logger.ErrorField(err), logger.StringField("feed", feedURL))
			continue
		}

		for _, item := range feed.Items {
			if len(matched) >= maxArticles {
				break
			}
			if item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
				continue
			}
			if !mentionsCompany(item, ticker, name) {
				continue
			}
			matched = append(matched, item)
		}
	}

	if len(matched) == 0 {
		return nil, 0, nil
	}

	var total float64
	for _, item := range matched {
		text := item.Title + " " + item.Description
		if content := r.fetchArticleText(ctx, item.Link); content != "" {
			text += " " + content
		}
		total += scoreText(text)
	}

	sentiment := total / float64(len(matched))
	r.log.DebugContext(ctx, "Computed news sentiment",
		logger.StringField("ticker", ticker),
		logger.IntField("articles", len(matched)),
		logger.Float64Field("sentiment", sentiment))

	return &sentiment, len(matched), nil
}

// fetchArticleText pulls the linked article and extracts its readable text.
// Any failure degrades to headline-only scoring.
func (r *newsRepository) fetchArticleText(ctx context.Context, link string) string {
	if link == "" {
		return ""
	}

	body, err := r.gateway.Get(ctx, link)
	if err != nil {
		r.log.DebugContext(ctx, "Failed to fetch article content", logger.ErrorField(err), logger.StringField("url", link))
		return ""
	}

	doc, err := readability.NewDocument(string(body))
	if err == nil {
		content := doc.Content()
		if docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(content))); err == nil {
			if text := strings.TrimSpace(docHTML.Text()); text != "" {
				return text
			}
		}
	}

	// Readability could not make sense of the page, fall back to the meta
	// description.
	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	desc, _ := docHTML.Find(`meta[name="description"]`).Attr("content")
	return strings.TrimSpace(desc)
}

func mentionsCompany(item *gofeed.Item, ticker, name string) bool {
	text := strings.ToLower(item.Title + " " + item.Description)
	if strings.Contains(text, strings.ToLower(ticker)) {
		return true
	}
	return name != "" && strings.Contains(text, strings.ToLower(name))
}

// scoreText maps lexicon hits to a value in [-1, 1].
func scoreText(text string) float64 {
	lowered := strings.ToLower(text)
	var bull, bear int
	for _, kw := range bullishKeywords {
		bull += strings.Count(lowered, kw)
	}
	for _, kw := range bearishKeywords {
		bear += strings.Count(lowered, kw)
	}
	if bull+bear == 0 {
		return 0
	}
	return float64(bull-bear) / float64(bull+bear)
}
