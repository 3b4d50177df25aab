package repository

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"stock-whisperer/internal/analyzer/dto"
	"stock-whisperer/pkg/utils"
)

// fallbackUniverse is the set of tickers the local dataset can serve. Tickers
// outside it are unknown to the fallback and yield nil.
var fallbackUniverse = map[string]string{
	"AAPL":  "Apple Inc.",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc.",
	"AMZN":  "Amazon.com, Inc.",
	"NVDA":  "NVIDIA Corporation",
	"META":  "Meta Platforms, Inc.",
	"TSLA":  "Tesla, Inc.",
	"JPM":   "JPMorgan Chase & Co.",
	"V":     "Visa Inc.",
	"WMT":   "Walmart Inc.",
	"JNJ":   "Johnson & Johnson",
	"XOM":   "Exxon Mobil Corporation",
}

type fallbackRepository struct{}

// NewFallbackRepository creates the local fallback dataset provider. Snapshots
// are generated deterministically from the ticker so repeated calls return the
// same data.
func NewFallbackRepository() FallbackRepository {
	return &fallbackRepository{}
}

func (r *fallbackRepository) Get(ticker string) *dto.StockSnapshot {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	name, ok := fallbackUniverse[ticker]
	if !ok {
		return nil
	}

	rng := rand.New(rand.NewSource(seed(ticker)))

	basePrice := 40 + rng.Float64()*360
	history := generateHistory(rng, basePrice, 250)
	price := history[len(history)-1].Price

	eps := basePrice / (12 + rng.Float64()*25)
	growth := -5 + rng.Float64()*35
	ceo := 35 + rng.Float64()*60
	guidance := -1 + rng.Float64()*2

	buy := 5 + rng.Intn(20)
	hold := 3 + rng.Intn(12)
	sell := rng.Intn(8)

	earnings := make([]dto.EarningsResult, 0, 4)
	for i := 0; i < 4; i++ {
		estimated := eps / 4 * (0.9 + rng.Float64()*0.2)
		actual := estimated * (0.92 + rng.Float64()*0.2)
		earnings = append(earnings, dto.EarningsResult{ActualEPS: actual, EstimatedEPS: estimated})
	}

	news := make([]dto.NewsItem, 0, 6)
	for i := 0; i < 6; i++ {
		news = append(news, dto.NewsItem{Sentiment: -1 + rng.Float64()*2})
	}

	return &dto.StockSnapshot{
		Ticker:           ticker,
		Name:             name,
		Price:            price,
		HistoricalPrices: history,
		AnalystRatings:   &dto.AnalystRatings{Buy: buy, Hold: hold, Sell: sell},
		EarningsHistory:  earnings,
		RecentNews:       news,
		GrowthRate:       utils.ToPointer(growth),
		CEORating:        utils.ToPointer(ceo),
		RecentEarnings:   utils.ToPointer(eps),
		Guidance:         utils.ToPointer(guidance),
	}
}

// generateHistory produces a plausible daily price series: a drifting random
// walk with a low-frequency cycle layered on top.
func generateHistory(rng *rand.Rand, base float64, days int) []dto.PricePoint {
	points := make([]dto.PricePoint, 0, days)
	price := base
	drift := -0.0005 + rng.Float64()*0.002
	start := time.Now().AddDate(0, 0, -days)

	for i := 0; i < days; i++ {
		cycle := math.Sin(float64(i)/30) * base * 0.002
		shock := (rng.Float64() - 0.5) * base * 0.02
		price = math.Max(1, price*(1+drift)+cycle+shock)
		points = append(points, dto.PricePoint{
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Price:  price,
			Volume: 1e6 + rng.Float64()*2e7,
		})
	}
	return points
}

func seed(ticker string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	return int64(h.Sum64())
}
