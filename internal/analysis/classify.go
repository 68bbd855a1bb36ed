package analysis

import (
	"strings"

	"kotvukai/internal/domain"
)

// neutralMarkers are matched against the upper-cased text
var neutralMarkers = []string{"НЕЙТРАЛЬНО", "NEUTRAL"}

// Classify derives a direction from free-form analysis text. Text naming both
// LONG and SHORT without a neutral marker stays UNKNOWN.
func Classify(text string) domain.Direction {
	if text == "" {
		return domain.DirectionUnknown
	}

	upper := strings.ToUpper(text)
	hasLong := strings.Contains(upper, "LONG")
	hasShort := strings.Contains(upper, "SHORT")

	switch {
	case hasLong && !hasShort:
		return domain.DirectionLong
	case hasShort && !hasLong:
		return domain.DirectionShort
	}

	for _, m := range neutralMarkers {
		if strings.Contains(upper, m) {
			return domain.DirectionNeutral
		}
	}
	return domain.DirectionUnknown
}
