package dashboard

import "fmt"

// FormatDistance converts meters to human-readable format
func FormatDistance(meters float64) string {
	km := meters / 1000
	if km >= 1 {
		return fmt.Sprintf("%.2f km", km)
	}
	return fmt.Sprintf("%.0f m", meters)
}

// FormatDuration converts seconds to human-readable format
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %02ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatPace converts m/s to min/km pace
func FormatPace(mps float64) string {
	if mps <= 0 {
		return "N/A"
	}
	secPerKm := int(1000/mps + 0.5)
	return fmt.Sprintf("%d:%02d/km", secPerKm/60, secPerKm%60)
}
