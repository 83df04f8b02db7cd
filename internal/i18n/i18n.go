// Package i18n translates dashboard labels into the supported languages.
package i18n

import (
	"sort"

	"golang.org/x/text/language"
)

// Key identifies a translatable label.
type Key string

// Lang is a supported language code.
type Lang string

const (
	English Lang = "en"
	French  Lang = "fr"
)

// Labels
const (
	NavActivities Key = "navigation.activities"
	NavCalendar   Key = "navigation.calendar"
	NavOverview   Key = "navigation.overview"
	NavSettings   Key = "navigation.settings"
	NavStraid     Key = "navigation.straid"
	NavTrends     Key = "navigation.trends"

	ActivityListTitle         Key = "activityList.title"
	ActivityListActivities    Key = "activityList.activities"
	ActivityListActivity      Key = "activityList.activity"
	ActivityListActiveFilters Key = "activityList.activeFilters"
	ActivityListClearAll      Key = "activityList.clearAll"
	ActivityListDistance      Key = "activityList.distance"
	ActivityListDuration      Key = "activityList.duration"
	ActivityListPace          Key = "activityList.pace"
	ActivityListPower         Key = "activityList.power"
	ActivityListHeartRate     Key = "activityList.hr"
	ActivityListTags          Key = "activityList.tags"
	ActivityListType          Key = "activityList.type"

	DetailAvgCadence   Key = "activityDetail.avgCadence"
	DetailAvgHeartRate Key = "activityDetail.avgHeartRate"
	DetailAvgPace      Key = "activityDetail.avgPace"
	DetailAvgPower     Key = "activityDetail.avgPower"
	DetailBack         Key = "activityDetail.backToActivities"
	DetailRoute        Key = "activityDetail.route"
	DetailNoGPS        Key = "activityDetail.noGpsData"

	ChartTitle       Key = "chart.title"
	ChartFilterByLap Key = "chart.filterByLap"
	ChartLap         Key = "chart.lap"
	ChartSelectAll   Key = "chart.selectAll"
	ChartClear       Key = "chart.clear"

	CalendarTitle         Key = "calendar.title"
	CalendarWeekOf        Key = "calendar.weekOf"
	CalendarTotalDistance Key = "calendar.totalDistance"
	CalendarTotalTime     Key = "calendar.totalTime"
	CalendarNoActivities  Key = "calendar.noActivities"

	PowerZonesTitle Key = "powerZones.title"

	TrendsTitle      Key = "trends.title"
	TrendsDistance7d Key = "trends.distance7d"
	TrendsDuration7d Key = "trends.duration7d"

	StraidTitle       Key = "straid.title"
	StraidPlaceholder Key = "straid.placeholder"
	StraidSend        Key = "straid.send"
	StraidLoading     Key = "straid.modelLoading"

	SettingsAISettings     Key = "settings.aiSettings"
	SettingsLocalInstance  Key = "settings.localInstance"
	SettingsRemoteInstance Key = "settings.remoteInstance"
	SettingsRemoteURL      Key = "settings.remoteServerUrl"
	SettingsSave           Key = "settings.saveSettings"

	ErrorLLMNotRunning Key = "errors.llmNotRunning"
	ErrorNeedsPull     Key = "errors.needsPull"
	ErrorNotFound      Key = "errors.notFound"
	ErrorStorage       Key = "errors.storage"

	UnitKm      Key = "units.km"
	UnitMinutes Key = "units.minutes"
	UnitHours   Key = "units.hours"
	UnitWatts   Key = "units.watts"
	UnitBpm     Key = "units.bpm"
	UnitSpm     Key = "units.spm"
)

var tables = map[Lang]map[Key]string{
	English: {
		NavActivities: "Activities",
		NavCalendar:   "Calendar",
		NavOverview:   "Overview",
		NavSettings:   "Settings",
		NavStraid:     "StrAId",
		NavTrends:     "Trends",

		ActivityListTitle:         "Activities",
		ActivityListActivities:    "activities",
		ActivityListActivity:      "activity",
		ActivityListActiveFilters: "Active filters",
		ActivityListClearAll:      "Clear all",
		ActivityListDistance:      "Distance",
		ActivityListDuration:      "Duration",
		ActivityListPace:          "Pace",
		ActivityListPower:         "Power",
		ActivityListHeartRate:     "HR",
		ActivityListTags:          "Tags",
		ActivityListType:          "Type",

		DetailAvgCadence:   "Avg cadence",
		DetailAvgHeartRate: "Avg heart rate",
		DetailAvgPace:      "Avg pace",
		DetailAvgPower:     "Avg power",
		DetailBack:         "Back to activities",
		DetailRoute:        "Route",
		DetailNoGPS:        "No GPS data available",

		ChartTitle:       "Activity data",
		ChartFilterByLap: "Filter by lap",
		ChartLap:         "Lap",
		ChartSelectAll:   "Select all",
		ChartClear:       "Clear",

		CalendarTitle:         "Calendar",
		CalendarWeekOf:        "Week of",
		CalendarTotalDistance: "Total distance",
		CalendarTotalTime:     "Total time",
		CalendarNoActivities:  "No activities",

		PowerZonesTitle: "Power zones",

		TrendsTitle:      "Trends",
		TrendsDistance7d: "7-day distance",
		TrendsDuration7d: "7-day duration",

		StraidTitle:       "StrAId assistant",
		StraidPlaceholder: "Ask about your training...",
		StraidSend:        "Send",
		StraidLoading:     "Loading model...",

		SettingsAISettings:     "AI settings",
		SettingsLocalInstance:  "Local instance",
		SettingsRemoteInstance: "Remote instance",
		SettingsRemoteURL:      "Remote server URL",
		SettingsSave:           "Save settings",

		ErrorLLMNotRunning: "Cannot connect to the language model server. Make sure it is running.",
		ErrorNeedsPull:     "Model not found. Pull it first.",
		ErrorNotFound:      "Not found",
		ErrorStorage:       "The activity database is unavailable",

		UnitKm:      "km",
		UnitMinutes: "min",
		UnitHours:   "h",
		UnitWatts:   "W",
		UnitBpm:     "bpm",
		UnitSpm:     "spm",
	},
	French: {
		NavActivities: "Activités",
		NavCalendar:   "Calendrier",
		NavOverview:   "Aperçu",
		NavSettings:   "Paramètres",
		NavStraid:     "StrAId",
		NavTrends:     "Tendances",

		ActivityListTitle:         "Activités",
		ActivityListActivities:    "activités",
		ActivityListActivity:      "activité",
		ActivityListActiveFilters: "Filtres actifs",
		ActivityListClearAll:      "Tout effacer",
		ActivityListDistance:      "Distance",
		ActivityListDuration:      "Durée",
		ActivityListPace:          "Allure",
		ActivityListPower:         "Puissance",
		ActivityListHeartRate:     "FC",
		ActivityListTags:          "Étiquettes",
		ActivityListType:          "Type",

		DetailAvgCadence:   "Cadence moyenne",
		DetailAvgHeartRate: "FC moyenne",
		DetailAvgPace:      "Allure moyenne",
		DetailAvgPower:     "Puissance moyenne",
		DetailBack:         "Retour aux activités",
		DetailRoute:        "Parcours",
		DetailNoGPS:        "Aucune donnée GPS",

		ChartTitle:       "Données de l'activité",
		ChartFilterByLap: "Filtrer par tour",
		ChartLap:         "Tour",
		ChartSelectAll:   "Tout sélectionner",
		ChartClear:       "Effacer",

		CalendarTitle:         "Calendrier",
		CalendarWeekOf:        "Semaine du",
		CalendarTotalDistance: "Distance totale",
		CalendarTotalTime:     "Temps total",
		CalendarNoActivities:  "Aucune activité",

		PowerZonesTitle: "Zones de puissance",

		TrendsTitle:      "Tendances",
		TrendsDistance7d: "Distance sur 7 jours",
		TrendsDuration7d: "Durée sur 7 jours",

		StraidTitle:       "Assistant StrAId",
		StraidPlaceholder: "Posez une question sur votre entraînement...",
		StraidSend:        "Envoyer",
		StraidLoading:     "Chargement du modèle...",

		SettingsAISettings:     "Paramètres IA",
		SettingsLocalInstance:  "Instance locale",
		SettingsRemoteInstance: "Instance distante",
		SettingsRemoteURL:      "URL du serveur distant",
		SettingsSave:           "Enregistrer",

		ErrorLLMNotRunning: "Impossible de joindre le serveur du modèle de langage. Vérifiez qu'il est démarré.",
		ErrorNeedsPull:     "Modèle introuvable. Téléchargez-le d'abord.",
		ErrorNotFound:      "Introuvable",
		ErrorStorage:       "La base d'activités est indisponible",

		UnitKm:      "km",
		UnitMinutes: "min",
		UnitHours:   "h",
		UnitWatts:   "W",
		UnitBpm:     "bpm",
		UnitSpm:     "pas/min",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.French})

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := tables[Lang(lang)]
	return ok
}

// Translate returns the label for key in lang, falling back to English and
// then to the key itself.
func Translate(lang Lang, key Key) string {
	if v, ok := tables[lang][key]; ok {
		return v
	}
	if v, ok := tables[English][key]; ok {
		return v
	}
	return string(key)
}

// Table returns every label of lang with English filling any gap, keyed by
// the dotted key name.
func Table(lang Lang) map[string]string {
	out := make(map[string]string, len(tables[English]))
	for k := range tables[English] {
		out[string(k)] = Translate(lang, k)
	}
	return out
}

// Keys returns every known key, sorted.
func Keys() []Key {
	keys := make([]Key, 0, len(tables[English]))
	for k := range tables[English] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Negotiate picks the language for a request: a supported preference wins,
// then the best match for an Accept-Language header, then English.
func Negotiate(preferred, acceptLanguage string) Lang {
	if Supported(preferred) {
		return Lang(preferred)
	}
	if acceptLanguage == "" {
		return English
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	if idx == 1 {
		return French
	}
	return English
}
