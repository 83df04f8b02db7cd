package server

import (
	"fmt"

	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
)

// Insight represents a single AI-friendly insight about the data
type Insight struct {
	Type    string `json:"type"`    // e.g., "trend", "achievement", "warning", "suggestion"
	Message string `json:"message"` // Human-readable insight
}

// SuggestedAction represents a suggested next tool call
type SuggestedAction struct {
	Tool        string `json:"tool"`        // Tool name to call
	Description string `json:"description"` // Why this action is suggested
	Priority    string `json:"priority"`    // "high", "medium", "low"
}

// trainingLoadInsights compares the latest 7-day load with the daily rate of
// the 10-day window. Nothing is reported until the 10-day window is defined.
func trainingLoadInsights(latest dashboard.RollingStat) []Insight {
	var insights []Insight

	if latest.Distance10d == nil || *latest.Distance10d == 0 {
		return insights
	}

	// Scale the 10-day sum down to a 7-day equivalent before comparing.
	baseline := *latest.Distance10d * 7 / 10
	ratio := latest.Distance7d / baseline

	switch {
	case ratio > 1.3:
		insights = append(insights, Insight{
			Type:    "warning",
			Message: fmt.Sprintf("7-day distance is %.0f%% above the 10-day rate - consider recovery", (ratio-1)*100),
		})
	case ratio > 1.1:
		insights = append(insights, Insight{
			Type:    "trend",
			Message: fmt.Sprintf("7-day distance is %.0f%% above the 10-day rate - load is building", (ratio-1)*100),
		})
	case ratio < 0.7:
		insights = append(insights, Insight{
			Type:    "suggestion",
			Message: fmt.Sprintf("7-day distance is %.0f%% below the 10-day rate - planned recovery or time to ramp up?", (1-ratio)*100),
		})
	default:
		insights = append(insights, Insight{
			Type:    "trend",
			Message: "7-day distance is in line with the 10-day rate",
		})
	}

	return insights
}

// zoneInsights checks time in zone against an 80/20 easy/hard split.
func zoneInsights(zones []dashboard.PowerZone) []Insight {
	var insights []Insight
	if len(zones) == 0 {
		return insights
	}

	pct := make(map[int]float64, len(zones))
	for _, z := range zones {
		pct[z.Zone] = z.Percentage
	}
	easy := pct[1] + pct[2]
	hard := pct[4] + pct[5]

	if easy < 70 {
		insights = append(insights, Insight{
			Type:    "suggestion",
			Message: fmt.Sprintf("Only %.0f%% of this run is in easy power zones (Z1-Z2).", easy),
		})
	} else if easy > 90 {
		insights = append(insights, Insight{
			Type:    "trend",
			Message: fmt.Sprintf("%.0f%% of this run is in easy power zones.", easy),
		})
	} else {
		insights = append(insights, Insight{
			Type:    "achievement",
			Message: fmt.Sprintf("Zone split: %.0f%% easy / %.0f%% hard (close to 80/20)", easy, hard),
		})
	}

	return insights
}

// SuggestNextActions suggests logical next tool calls based on context
func SuggestNextActions(context string) []SuggestedAction {
	suggestions := make([]SuggestedAction, 0)

	switch context {
	case "activities":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "get_activity",
				Description: "Open one activity with its laps and samples",
				Priority:    "medium",
			},
			SuggestedAction{
				Tool:        "get_rolling_stats",
				Description: "See the 7- and 10-day training load",
				Priority:    "medium",
			},
		)
	case "activity":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "get_power_zones",
				Description: "See time spent in each power zone",
				Priority:    "high",
			},
		)
	case "rolling":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "list_activities",
				Description: "List the activities behind the load",
				Priority:    "medium",
			},
		)
	case "filters":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "list_activities",
				Description: "Filter activities by these tags or types",
				Priority:    "high",
			},
		)
	case "zones":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "get_rolling_stats",
				Description: "Review overall training load",
				Priority:    "medium",
			},
		)
	}

	return suggestions
}
