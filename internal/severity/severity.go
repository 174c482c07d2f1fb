// Package severity is the single source of truth for severity scoring across
// all data sources. Every adapter maps its raw signal through one of these
// functions rather than implementing its own scale.
//
// Severity scale:
//
//	1 = Low      — minor incident, limited impact
//	2 = Medium   — notable incident, localised impact
//	3 = High     — significant incident, regional impact
//	4 = Severe   — major incident, wide impact
//	5 = Critical — extreme incident, national/international impact
package severity

import "math"

// FromGoldstein maps a Goldstein scale value (-10 most destabilizing to +10
// most stabilizing) to a 1-5 severity. Only negative values matter; invalid
// or positive input scores 1.
func FromGoldstein(score float64) int {
	if math.IsNaN(score) || score > 0 {
		return 1
	}
	switch {
	case score <= -8.0:
		return 5
	case score <= -6.0:
		return 4
	case score <= -4.0:
		return 3
	case score <= -2.0:
		return 2
	default:
		return 1
	}
}

// FromTone maps an article tone score (-100 most negative to +100 most
// positive) to a 1-5 severity. Invalid or positive input scores 1.
func FromTone(tone float64) int {
	if math.IsNaN(tone) || tone > 0 {
		return 1
	}
	switch {
	case tone <= -20:
		return 5
	case tone <= -12:
		return 4
	case tone <= -7:
		return 3
	case tone <= -3:
		return 2
	default:
		return 1
	}
}

// FromFatalities maps a fatality count to a 1-5 severity. Negative or zero
// counts score 1.
func FromFatalities(count int) int {
	switch {
	case count <= 0:
		return 1
	case count >= 50:
		return 5
	case count >= 20:
		return 4
	case count >= 5:
		return 3
	default:
		return 2
	}
}
