package narrative

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/finsight/insights-service/internal/models"
)

// TemplateRenderer produces a deterministic advisory narrative from
// structured analytical results. It is the fallback when the generative
// collaborator is unavailable, and the substitute used in tests.
type TemplateRenderer struct{}

// NewTemplateRenderer creates a template-only narrative renderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Summarize renders the narrative. It never fails: an empty context yields a
// well-defined "not enough data" narrative rather than an error.
func (r *TemplateRenderer) Summarize(_ context.Context, ic *models.InsightsContext) (string, error) {
	if ic == nil || ic.Empty() {
		return "There isn't enough financial data yet to generate insights. " +
			"Keep tracking your transactions and check back once you have at least a month of history.", nil
	}

	var b strings.Builder

	b.WriteString("**Overall Financial Health Assessment:**\n")
	r.writeHealth(&b, ic)

	b.WriteString("\n**Top 3 Insights:**\n")
	r.writeInsights(&b, ic)

	b.WriteString("\n**Top 3 Recommendations:**\n")
	r.writeRecommendations(&b, ic)

	b.WriteString("\n**One Caution:**\n")
	r.writeCaution(&b, ic)

	return b.String(), nil
}

func (r *TemplateRenderer) writeHealth(b *strings.Builder, ic *models.InsightsContext) {
	if ic.Summary == nil {
		b.WriteString("A summary of recent activity is not available yet.\n")
		return
	}
	s := ic.Summary
	if s.NetBalance > 0 {
		rate := 0.0
		if s.TotalIncome > 0 {
			rate = s.NetBalance / s.TotalIncome * 100
		}
		fmt.Fprintf(b, "You have a positive net balance of $%.2f over the last 30 days, with a savings rate of %.1f%%.\n",
			s.NetBalance, rate)
	} else {
		fmt.Fprintf(b, "Your expenses exceeded income by $%.2f in the last 30 days. Consider reviewing your spending patterns.\n",
			math.Abs(s.NetBalance))
	}
}

func (r *TemplateRenderer) writeInsights(b *strings.Builder, ic *models.InsightsContext) {
	if ic.Forecast != nil {
		stats := ic.Forecast.Statistics
		switch {
		case stats.TrendPercentage > 10:
			fmt.Fprintf(b, "1. Your spending is trending upward by %.1f%%. Daily spending is projected to increase from $%.2f to $%.2f.\n",
				stats.TrendPercentage, stats.HistoricalAvgDaily, stats.ForecastAvgDaily)
		case stats.TrendPercentage < -10:
			fmt.Fprintf(b, "1. Your spending is trending downward by %.1f%%. You're reducing daily spending from $%.2f to $%.2f.\n",
				-stats.TrendPercentage, stats.HistoricalAvgDaily, stats.ForecastAvgDaily)
		default:
			fmt.Fprintf(b, "1. Your spending patterns are stable with minimal change (%+.1f%%).\n", stats.TrendPercentage)
		}
	} else {
		b.WriteString("1. Not enough history yet for a spending forecast.\n")
	}

	if ic.Anomalies != nil && ic.Anomalies.Statistics.AnomaliesDetected > 0 {
		fmt.Fprintf(b, "2. Detected %d unusual transactions totaling $%.2f. Review these for unexpected charges or one-time expenses.\n",
			ic.Anomalies.Statistics.AnomaliesDetected, ic.Anomalies.Statistics.TotalAnomalousSpending)
	} else {
		b.WriteString("2. No unusual spending patterns detected. Your transactions appear consistent with your typical behavior.\n")
	}

	if ic.Goals != nil && ic.Goals.TotalGoals > 0 {
		switch ic.Goals.OverallAssessment {
		case models.AssessmentOnTrack:
			fmt.Fprintf(b, "3. Your %d financial goal(s) are on track with $%.2f/month in commitments.\n",
				ic.Goals.TotalGoals, ic.Goals.TotalMonthlyCommitment)
		case models.AssessmentOffTrack:
			fmt.Fprintf(b, "3. Some of your %d goals are off track at the current contribution rate. Consider adjusting timelines or contributions.\n",
				ic.Goals.TotalGoals)
		default:
			fmt.Fprintf(b, "3. Your %d goal(s) are at risk and may need timeline or contribution adjustments.\n",
				ic.Goals.TotalGoals)
		}
	} else {
		b.WriteString("3. Consider setting financial goals to track progress toward savings targets, vacations, or major purchases.\n")
	}
}

func (r *TemplateRenderer) writeRecommendations(b *strings.Builder, ic *models.InsightsContext) {
	if ic.Budget != nil {
		fmt.Fprintf(b, "1. Based on your spending patterns, a monthly budget of $%.2f is recommended. Review category-specific budgets to optimize spending.\n",
			ic.Budget.TotalRecommendedBudget)
	} else {
		b.WriteString("1. Start tracking expenses by category to receive personalized budget recommendations.\n")
	}

	if ic.Summary != nil && ic.Summary.AvgDailySpending > 0 {
		daily := ic.Summary.AvgDailySpending
		fmt.Fprintf(b, "2. Reducing daily spending by 15%% ($%.2f/day) could save $%.2f/month.\n",
			daily*0.15, daily*0.15*30)
	} else {
		b.WriteString("2. Track your daily expenses consistently to identify spending reduction opportunities.\n")
	}

	if ic.Goals == nil || ic.Goals.TotalGoals == 0 {
		b.WriteString("3. Set up an emergency fund goal of 3-6 months of expenses as a financial safety net.\n")
	} else {
		b.WriteString("3. Automate your savings by setting up automatic transfers on payday to stay consistent with your goals.\n")
	}
}

func (r *TemplateRenderer) writeCaution(b *strings.Builder, ic *models.InsightsContext) {
	if ic.Goals != nil && ic.Goals.OverallAssessment == models.AssessmentOffTrack {
		b.WriteString("You're committed to more in monthly savings than your typical capacity. This may lead to missed goals or financial stress. Consider prioritizing your most important goals.\n")
		return
	}
	if ic.Summary != nil && ic.Summary.NetBalance < 0 {
		fmt.Fprintf(b, "Your spending exceeded income by $%.2f last month. If this continues, it could impact your financial stability. Focus on reducing discretionary expenses.\n",
			math.Abs(ic.Summary.NetBalance))
		return
	}
	b.WriteString("Continue monitoring your spending patterns to catch any emerging issues early. Consistency is key to financial health.\n")
}
