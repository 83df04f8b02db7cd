package llm

import (
	"fmt"
	"math"
	"strings"

	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
)

// FallbackSystemPrompt is used when the training data cannot be read.
const FallbackSystemPrompt = "You are StrAId, a running assistant. The training data is currently unavailable."

// SystemPrompt renders the training snapshot as the assistant's context.
func SystemPrompt(snap *dashboard.Snapshot) string {
	if snap == nil {
		return FallbackSystemPrompt
	}

	var sb strings.Builder
	t := snap.Totals

	sb.WriteString("You are StrAId, a running assistant analyzing Stryd running data.\n\n")

	sb.WriteString("OVERALL STATISTICS:\n")
	fmt.Fprintf(&sb, "- Total activities: %d\n", t.Activities)
	fmt.Fprintf(&sb, "- Total distance: %.1f km\n", t.Distance/1000)
	fmt.Fprintf(&sb, "- Total time: %d hours\n", int64(math.Round(t.MovingTime/3600)))
	fmt.Fprintf(&sb, "- Average power: %.0f W\n", t.AveragePower)
	fmt.Fprintf(&sb, "- Average heart rate: %.0f bpm\n", t.AverageHeartRate)
	fmt.Fprintf(&sb, "- Average cadence: %.0f spm\n", t.AverageCadence)
	fmt.Fprintf(&sb, "- Average pace: %s\n\n", dashboard.FormatPace(t.AverageSpeed))

	w := snap.LastWeek
	sb.WriteString("LAST 7 DAYS:\n")
	fmt.Fprintf(&sb, "- Activities: %d\n", w.Activities)
	fmt.Fprintf(&sb, "- Distance: %.1f km\n", w.Distance/1000)
	fmt.Fprintf(&sb, "- Duration: %d minutes\n\n", int64(math.Round(w.MovingTime/60)))

	fmt.Fprintf(&sb, "RECENT ACTIVITIES (last %d):\n", len(snap.Recent))
	for i, a := range snap.Recent {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeActivity(&sb, i+1, a)
	}

	sb.WriteString("\nAnswer questions about this training data in a helpful and insightful way. " +
		"Provide specific recommendations based on the actual data. " +
		"Always respond in the same language as the user's question (French or English).")

	return sb.String()
}

func writeActivity(sb *strings.Builder, n int, a dashboard.Activity) {
	date := "unknown date"
	if a.Date != nil {
		date = a.Date.Format("02/01/2006")
	}
	activityType := a.Type
	if activityType == "" {
		activityType = "Activity"
	}

	fmt.Fprintf(sb, "%d. %s (%s) - %s\n", n, a.Name, activityType, date)
	fmt.Fprintf(sb, "   Distance: %.2f km, Time: %s\n", value(a.Distance)/1000, promptDuration(a.MovingTime))
	fmt.Fprintf(sb, "   Power: %.0f W, HR: %.0f bpm\n", value(a.AveragePower), value(a.AverageHeartRate))
	fmt.Fprintf(sb, "   Pace: %s, Cadence: %.0f spm\n", dashboard.FormatPace(value(a.AverageSpeed)), value(a.AverageCadence))
	if len(a.Tags) > 0 {
		fmt.Fprintf(sb, "   Tags: %s\n", strings.Join(a.Tags, ", "))
	}
}

func value(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// promptDuration renders 3900s as "1h05" and 2700s as "45min".
func promptDuration(seconds *int64) string {
	if seconds == nil {
		return "0min"
	}
	hours := *seconds / 3600
	minutes := (*seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02d", hours, minutes)
	}
	return fmt.Sprintf("%dmin", minutes)
}
