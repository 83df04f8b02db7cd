package dashboard

// PowerZone is the time spent in one band of critical power.
type PowerZone struct {
	Zone       int     `json:"zone"`
	Name       string  `json:"name"`
	Min        float64 `json:"min_watts"`
	Max        float64 `json:"max_watts"`
	Seconds    int     `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// powerZoneBands are fractions of critical power, lower bound inclusive.
var powerZoneBands = []struct {
	name     string
	min, max float64
}{
	{"Easy", 0, 0.80},
	{"Moderate", 0.80, 0.90},
	{"Threshold", 0.90, 1.00},
	{"Interval", 1.00, 1.15},
	{"Repetition", 1.15, 1.30},
}

// PowerZones buckets positive power samples into the five Stryd zones of the
// given critical power. Each sample counts as one second and percentages are
// relative to all positive samples, so power above the top band is counted
// in the total but in no zone. Returns nil when cp is not positive or no
// sample carries power.
func PowerZones(samples []TimeseriesSample, cp float64) []PowerZone {
	if cp <= 0 {
		return nil
	}

	zones := make([]PowerZone, len(powerZoneBands))
	for i, b := range powerZoneBands {
		zones[i] = PowerZone{
			Zone: i + 1,
			Name: b.name,
			Min:  b.min * cp,
			Max:  b.max * cp,
		}
	}

	total := 0
	for _, s := range samples {
		if s.Power == nil || *s.Power <= 0 {
			continue
		}
		total++
		for i := range zones {
			if *s.Power >= zones[i].Min && *s.Power < zones[i].Max {
				zones[i].Seconds++
				break
			}
		}
	}

	if total == 0 {
		return nil
	}
	for i := range zones {
		zones[i].Percentage = float64(zones[i].Seconds) / float64(total) * 100
	}
	return zones
}
