package source

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/calebmi254/Safety-and-Security-management-system/internal/model"
	"github.com/calebmi254/Safety-and-Security-management-system/internal/severity"
)

// actionInfo maps a 2-digit CAMEO root code to a human action label and our
// event category.
type actionInfo struct {
	Label    string
	Category string
}

var rootActions = map[string]actionInfo{
	"01": {"Public Statement", "security_incident"},
	"10": {"Demand", "security_incident"},
	"11": {"Public Disapproval", "protest"},
	"14": {"Protest", "protest"},
	"18": {"Assault/Attack", "armed_attack"},
	"19": {"Violent Clash", "violent_clash"},
}

// subActions refines the label for selected 3-digit CAMEO codes. The category
// still comes from the root code.
var subActions = map[string]string{
	"182": "Physical Assault",
	"183": "Bombing",
	"190": "Fight with Weapons",
	"191": "Firefight",
	"145": "Riot/Violent Protest",
}

var defaultAction = actionInfo{"Security Incident", "security_incident"}

// transformEventRow maps one raw tabular row into a canonical Event. The
// second return is false when the row must be rejected: both action-location
// coordinates have to parse as finite numbers or the row never reaches the
// store.
func transformEventRow(rec []string) (model.Event, bool) {
	if len(rec) < numEventColumns {
		return model.Event{}, false
	}

	lat, latOK := parseFinite(rec[colActionGeoLat])
	lon, lonOK := parseFinite(rec[colActionGeoLong])
	if !latOK || !lonOK {
		return model.Event{}, false
	}

	root := padCode(rec[colEventRootCode], 2)
	base := padCode(rec[colEventCode], 3)

	action, ok := rootActions[root]
	if !ok {
		action = defaultAction
	}
	label := action.Label
	if sub, ok := subActions[base]; ok {
		label = sub
	}

	actor1 := decodeActor(rec[colActor1Name], rec[colActor1Code], rec[colActor1CountryCode])
	actor2 := decodeActor(rec[colActor2Name], rec[colActor2Code], rec[colActor2CountryCode])

	place := rec[colActionGeoFullName]
	if place == "" {
		place = "Global"
	}
	// Technical sitrep; stays in description even when a headline is enriched.
	sitrep := label + " involving " + actor1 + " and " + actor2 + " in " + place + "."

	goldstein, _ := parseFinite(rec[colGoldsteinScale])

	return model.Event{
		Source:        EventSourceID,
		ExternalID:    rec[colGlobalEventID],
		EventCategory: action.Category,
		Severity:      severity.FromGoldstein(goldsteinOrNaN(rec[colGoldsteinScale])),
		Intensity:     goldstein,
		Description:   sitrep,
		Actors: model.Actors{
			Actor1:    firstNonEmpty(rec[colActor1Name], rec[colActor1Code]),
			Actor2:    firstNonEmpty(rec[colActor2Name], rec[colActor2Code]),
			SourceURL: rec[colSourceURL],
			EventCode: rec[colEventCode],
		},
		Lat:        lat,
		Lon:        lon,
		Country:    rec[colActionGeoCountryCode],
		SourceURL:  rec[colSourceURL],
		OccurredAt: parseSQLDate(rec[colSQLDate]),
	}, true
}

// decodeActor resolves a display name for an actor. Preference order: the
// explicit name field, then a role keyword from the actor code combined with
// a 3-letter country code, then the bare country code, then the raw code.
// The role match deliberately overrides the country-only fallback.
func decodeActor(name, code, countryCode string) string {
	if name != "" {
		return name
	}
	if code == "" {
		return "Unidentified"
	}
	c := strings.ToUpper(code)
	var role string
	switch {
	case strings.Contains(c, "GOV"):
		role = "Govt Officials"
	case strings.Contains(c, "MIL"):
		role = "Military"
	case strings.Contains(c, "COP"):
		role = "Police"
	case strings.Contains(c, "REB"):
		role = "Rebels"
	case strings.Contains(c, "CVL"), strings.Contains(c, "CIV"):
		role = "Civilians"
	}
	if role != "" {
		if len(countryCode) == 3 {
			return countryCode + " " + role
		}
		return role
	}
	if len(countryCode) == 3 {
		return countryCode
	}
	return code
}

// parseSQLDate parses the feed's YYYYMMDD day stamp; anything unparseable
// falls back to now.
func parseSQLDate(s string) time.Time {
	if len(s) != 8 {
		return time.Now().UTC()
	}
	y, err1 := strconv.Atoi(s[0:4])
	m, err2 := strconv.Atoi(s[4:6])
	d, err3 := strconv.Atoi(s[6:8])
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Now().UTC()
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// goldsteinOrNaN keeps the "invalid input scores 1" contract of the severity
// mapper intact for unparseable scale values.
func goldsteinOrNaN(s string) float64 {
	if v, ok := parseFinite(s); ok {
		return v
	}
	return math.NaN()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func padCode(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
