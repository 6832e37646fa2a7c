package feed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Headline keywords counted toward the sentiment score.
var (
	bullishWords = []string{"gain", "rise"}
	bearishWords = []string{"fall", "loss"}
)

// NewsSentimentFeed implements domain.SentimentFeed by counting bullish
// and bearish keywords in recent news headlines about the asset. Any
// failure degrades to a neutral score instead of failing the cycle.
type NewsSentimentFeed struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNewsSentimentFeed creates a sentiment feed against a newsapi.org
// compatible endpoint.
func NewNewsSentimentFeed(baseURL, apiKey string, logger *slog.Logger) *NewsSentimentFeed {
	return &NewsSentimentFeed{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With(slog.String("component", "sentiment_feed")),
	}
}

// Sentiment returns the bullish-minus-bearish headline count for the
// asset. The returned error is always nil; fetch and decode failures are
// logged and reported as a neutral zero score.
func (f *NewsSentimentFeed) Sentiment(ctx context.Context, asset string) (domain.SentimentScore, error) {
	params := url.Values{}
	params.Set("q", asset)
	params.Set("apiKey", f.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return 0, nil
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Warn("sentiment fetch failed, using neutral score",
			slog.String("asset", asset),
			slog.String("error", err.Error()),
		)
		return 0, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("sentiment request rejected, using neutral score",
			slog.String("asset", asset),
			slog.Int("status", resp.StatusCode),
		)
		return 0, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil
	}

	var payload struct {
		Articles []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		f.logger.Warn("sentiment decode failed, using neutral score",
			slog.String("error", err.Error()),
		)
		return 0, nil
	}

	score := scoreHeadlines(payload.Articles)

	f.logger.Debug("sentiment computed",
		slog.String("asset", asset),
		slog.Int("articles", len(payload.Articles)),
		slog.Float64("score", float64(score)),
	)
	return score, nil
}

func scoreHeadlines(articles []struct {
	Title string `json:"title"`
}) domain.SentimentScore {
	var positive, negative int
	for _, article := range articles {
		title := strings.ToLower(article.Title)
		for _, w := range bullishWords {
			if strings.Contains(title, w) {
				positive++
				break
			}
		}
		for _, w := range bearishWords {
			if strings.Contains(title, w) {
				negative++
				break
			}
		}
	}
	return domain.SentimentScore(positive - negative)
}

// Compile-time interface check.
var _ domain.SentimentFeed = (*NewsSentimentFeed)(nil)
