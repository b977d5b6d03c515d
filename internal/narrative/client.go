package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/models"
)

// Client calls an external generative-text service to turn structured
// analytical results into an advisory narrative. Calls are retried, bounded
// by the request context deadline, and guarded by a circuit breaker so a
// degraded collaborator cannot stall insight generation.
type Client struct {
	url     string
	apiKey  string
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewClient initializes a narrative service client.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.NarrativeTimeout
	rc.Logger = nil

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "narrative",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("narrative breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		url:     cfg.NarrativeURL,
		apiKey:  cfg.NarrativeAPIKey,
		client:  rc,
		breaker: breaker,
		log:     log,
	}
}

type summarizeRequest struct {
	Prompt string `json:"prompt"`
}

type summarizeResponse struct {
	Text string `json:"text"`
}

// Summarize sends the narrative prompt to the collaborator and returns its
// opaque text. Timeouts and open-breaker states map to ErrUpstreamTimeout so
// the caller falls back to the template renderer.
func (c *Client) Summarize(ctx context.Context, ic *models.InsightsContext) (string, error) {
	if c.url == "" {
		return "", fmt.Errorf("narrative service not configured")
	}

	payload, err := json.Marshal(summarizeRequest{Prompt: buildPrompt(ic)})
	if err != nil {
		return "", fmt.Errorf("failed to encode narrative request: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", engine.ErrUpstreamTimeout, err)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *Client) send(ctx context.Context, payload []byte) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed summarizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse narrative response: %w", err)
	}
	if parsed.Text == "" {
		return "", fmt.Errorf("narrative response contained no text")
	}
	return parsed.Text, nil
}

// buildPrompt assembles the advisor prompt from whichever artifacts are
// present.
func buildPrompt(ic *models.InsightsContext) string {
	var b strings.Builder
	b.WriteString("You are a professional financial advisor analyzing a user's financial data. ")
	b.WriteString("Provide personalized, actionable insights based on the following information:\n\n")

	if ic.Summary != nil {
		s := ic.Summary
		b.WriteString("**Last 30 Days Summary:**\n")
		fmt.Fprintf(&b, "- Total Income: $%.2f\n", s.TotalIncome)
		fmt.Fprintf(&b, "- Total Expenses: $%.2f\n", s.TotalExpenses)
		fmt.Fprintf(&b, "- Net Balance: $%.2f\n", s.NetBalance)
		fmt.Fprintf(&b, "- Average Daily Spending: $%.2f\n\n", s.AvgDailySpending)
	}
	if ic.Forecast != nil {
		f := ic.Forecast.Statistics
		b.WriteString("**Spending Forecast (Next 30 Days):**\n")
		fmt.Fprintf(&b, "- Predicted Average Daily: $%.2f\n", f.ForecastAvgDaily)
		fmt.Fprintf(&b, "- Trend: %+.1f%%\n\n", f.TrendPercentage)
	}
	if ic.Anomalies != nil && ic.Anomalies.Statistics.AnomaliesDetected > 0 {
		a := ic.Anomalies.Statistics
		b.WriteString("**Anomalies Detected:**\n")
		fmt.Fprintf(&b, "- Unusual transactions: %d\n", a.AnomaliesDetected)
		fmt.Fprintf(&b, "- Total anomalous spending: $%.2f\n\n", a.TotalAnomalousSpending)
	}
	if ic.Budget != nil {
		b.WriteString("**Budget Analysis:**\n")
		fmt.Fprintf(&b, "- Recommended Total Budget: $%.2f\n", ic.Budget.TotalRecommendedBudget)
		fmt.Fprintf(&b, "- Number of categories: %d\n\n", len(ic.Budget.Recommendations))
	}
	if ic.Goals != nil && ic.Goals.TotalGoals > 0 {
		g := ic.Goals
		b.WriteString("**Financial Goals:**\n")
		fmt.Fprintf(&b, "- Active goals: %d\n", g.TotalGoals)
		fmt.Fprintf(&b, "- Total monthly commitment: $%.2f\n", g.TotalMonthlyCommitment)
		fmt.Fprintf(&b, "- Assessment: %s\n\n", g.OverallAssessment)
	}

	b.WriteString("\n**Please provide:**\n")
	b.WriteString("1. Overall Financial Health Assessment (1-2 sentences)\n")
	b.WriteString("2. Top 3 Insights (key observations about their finances)\n")
	b.WriteString("3. Top 3 Recommendations (specific, actionable advice)\n")
	b.WriteString("4. One Caution (potential risk or area to watch)\n\n")
	b.WriteString("Keep the tone professional yet friendly, and be specific with numbers where relevant.")
	return b.String()
}
